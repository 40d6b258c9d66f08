package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nao1215/domo/internal/fanout"
	"github.com/nao1215/domo/internal/model"
)

const (
	// DefaultConcurrency is the number of probes in flight.
	DefaultConcurrency = fanout.DefaultLimit

	// drainLimit bounds how much of a probe body is read before closing
	// so that the connection can be reused.
	drainLimit = 64 * 1024
)

// Doer is the HTTP capability used for probing. The client must not
// follow redirects.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OutcomeHandler receives outcomes as they complete. It is called from
// probe goroutines one at a time.
type OutcomeHandler func(model.ProbeOutcome)

// Prober probes the paths of a PathSet.
type Prober struct {
	client         Doer
	concurrency    int
	onlySuccessful bool
	handler        OutcomeHandler
	logger         *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithConcurrency sets the maximum number of requests in flight.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithOnlySuccessful restricts the outcomes passed to the handler to
// status 200. Counts and returned outcomes are unaffected.
func WithOnlySuccessful(only bool) Option {
	return func(p *Prober) {
		p.onlySuccessful = only
	}
}

// WithOutcomeHandler sets the callback for completed outcomes.
func WithOutcomeHandler(h OutcomeHandler) Option {
	return func(p *Prober) {
		p.handler = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// NewProber creates a Prober using client for every request.
func NewProber(client Doer, opts ...Option) *Prober {
	p := &Prober{
		client:      client,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// aggregate is the only state shared between probe goroutines.
type aggregate struct {
	mu       sync.Mutex
	summary  model.ProbeSummary
	outcomes []model.ProbeOutcome
}

// Probe requests http://{host}/{path} for every path and returns the
// summary together with every outcome in completion order.
//
// Transport failures become outcomes with status 0. When ctx is cancelled
// no new requests start; the result covers the requests that ran.
func (p *Prober) Probe(ctx context.Context, paths *model.PathSet, host string) (model.ProbeSummary, []model.ProbeOutcome) {
	agg := &aggregate{
		outcomes: make([]model.ProbeOutcome, 0, paths.Len()),
	}

	err := fanout.Run(ctx, p.concurrency, paths.Paths(), func(ctx context.Context, path string) {
		outcome := p.probeOne(ctx, host, path)

		agg.mu.Lock()
		defer agg.mu.Unlock()
		agg.summary.Record(outcome)
		agg.outcomes = append(agg.outcomes, outcome)
		if p.handler != nil && (!p.onlySuccessful || outcome.Available()) {
			p.handler(outcome)
		}
	})
	if err != nil {
		p.logger.Debug("probing interrupted",
			"host", host,
			"completed", len(agg.outcomes),
			"total", paths.Len(),
			"error", err,
		)
	}

	return agg.summary, agg.outcomes
}

// URLFor returns the probe address of path on host.
func URLFor(host, path string) string {
	return "http://" + host + "/" + path
}

func (p *Prober) probeOne(ctx context.Context, host, path string) model.ProbeOutcome {
	url := URLFor(host, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.logger.Debug("probe request invalid", "path", path, "url", url, "error", err)
		return model.NewFailedOutcome(path, url, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "path", path, "url", url, "error", err)
		return model.NewFailedOutcome(path, url, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit)) //nolint:errcheck // draining only
	resp.Body.Close()

	return model.NewProbeOutcome(path, url, resp.StatusCode)
}
