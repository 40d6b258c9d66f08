package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nao1215/domo/internal/fanout"
	"github.com/nao1215/domo/internal/model"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultConcurrency is the number of queries in flight per engine.
	DefaultConcurrency = fanout.DefaultLimit

	// DefaultMaxBodySize caps how much of a result page is read.
	DefaultMaxBodySize int64 = 2 * 1024 * 1024
)

// Doer is the HTTP capability used for engine queries.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResultHandler receives results as they complete, one at a time.
type ResultHandler func(engine Engine, result model.VerifierResult)

// Verifier runs engines against a PathSet.
type Verifier struct {
	client      Doer
	concurrency int
	maxBody     int64
	handler     ResultHandler
	logger      *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithConcurrency sets the maximum number of queries in flight.
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithMaxBodySize caps the bytes read from each result page.
func WithMaxBodySize(n int64) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.maxBody = n
		}
	}
}

// WithResultHandler sets the callback for completed results.
func WithResultHandler(h ResultHandler) Option {
	return func(v *Verifier) {
		v.handler = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier creates a Verifier.
func NewVerifier(client Doer, opts ...Option) *Verifier {
	v := &Verifier{
		client:      client,
		concurrency: DefaultConcurrency,
		maxBody:     DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify queries engine once per path. Failed queries are counted in
// Failed and never in Found; they do not stop the other queries.
// When ctx is cancelled the summary covers the queries that ran and
// carries the context error.
func (v *Verifier) Verify(ctx context.Context, paths *model.PathSet, host string, engine Engine) model.VerifierSummary {
	var mu sync.Mutex
	summary := model.NewVerifierSummary(engine.Name)
	summary.Service = engine.Service
	summary.Verb = engine.Verb

	err := fanout.Run(ctx, v.concurrency, paths.Paths(), func(ctx context.Context, path string) {
		result := v.verifyOne(ctx, host, path, engine)

		mu.Lock()
		defer mu.Unlock()
		summary.Record(result)
		if v.handler != nil {
			v.handler(engine, result)
		}
	})
	if err != nil {
		summary.Err = err
		summary.ErrorMessage = err.Error()
	}

	return summary
}

func (v *Verifier) verifyOne(ctx context.Context, host, path string, engine Engine) model.VerifierResult {
	result := model.VerifierResult{
		Path:     path,
		QueryURL: engine.QueryURL(host, path),
	}

	body, err := v.fetch(ctx, result.QueryURL)
	if err != nil {
		v.logger.Debug("verifier query failed",
			"engine", engine.Name,
			"path", path,
			"url", result.QueryURL,
			"error", err,
		)
		result.Err = err
		result.ErrorMessage = err.Error()
		return result
	}

	result.Found = engine.Found(body)
	if result.Found && engine.Extract != nil {
		result.IndexedURLs = engine.Extract(body, host)
	}
	return result
}

func (v *Verifier) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, v.maxBody), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}
