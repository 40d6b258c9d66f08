package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

// DefaultMaxBodySize caps how much of robots.txt is read.
const DefaultMaxBodySize int64 = 512 * 1024

// Doer is the HTTP capability needed to fetch robots.txt.
// *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Document is a fetched robots.txt.
type Document struct {
	// URL is the address that was requested.
	URL string
	// StatusCode is the HTTP status the server answered with.
	StatusCode int
	// Body is the policy text decoded to UTF-8.
	Body string
}

// URLFor returns the robots.txt address for host.
func URLFor(host string) string {
	return "http://" + host + "/robots.txt"
}

// Fetch retrieves robots.txt from host.
//
// Transport failures wrap ErrRobotsUnreachable and 404/410 responses wrap
// ErrPolicyAbsent. Any other status is returned with its body so that the
// caller can still audit a policy served under an unusual status code.
// The client is expected not to follow redirects.
func Fetch(ctx context.Context, client Doer, host string, maxBody int64) (*Document, error) {
	if host == "" {
		return nil, ErrEmptyHost
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	url := URLFor(host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRobotsUnreachable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRobotsUnreachable, err)
	}
	defer resp.Body.Close()

	doc := &Document{
		URL:        url,
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return doc, &StatusError{StatusCode: resp.StatusCode, Err: ErrPolicyAbsent}
	}

	body, err := decodeBody(resp, maxBody)
	if err != nil {
		return doc, err
	}
	doc.Body = body

	return doc, nil
}

// decodeBody reads at most maxBody bytes and converts them to UTF-8 using
// the charset declared in Content-Type, falling back to content sniffing.
func decodeBody(resp *http.Response, maxBody int64) (string, error) {
	limited := io.LimitReader(resp.Body, maxBody)

	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(data), nil
}
