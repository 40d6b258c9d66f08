package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the auditor to the servers it probes.
	DefaultUserAgent = "domo/1.0 (+https://github.com/nao1215/domo)"

	// maxVerifyRedirects bounds redirects followed by VerifyClient.
	maxVerifyRedirects = 10
)

// SiteHeaders are extra request decorations sent only to one host.
type SiteHeaders struct {
	// Cookie is a raw cookie string such as "session=abc".
	Cookie string
	// Headers are set on every request to the host.
	Headers map[string]string
}

// Client owns the HTTP transport shared by all audit stages.
type Client struct {
	proxyAddress string
	timeout      time.Duration
	userAgent    string
	rps          float64
	sites        map[string]SiteHeaders
	logger       *slog.Logger

	transport http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithProxy routes every request through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRate caps the number of requests per second. Zero disables pacing.
func WithRate(rps float64) Option {
	return func(c *Client) {
		c.rps = rps
	}
}

// WithSiteHeaders attaches a cookie and headers to requests for host.
func WithSiteHeaders(host string, site SiteHeaders) Option {
	return func(c *Client) {
		if c.sites == nil {
			c.sites = make(map[string]SiteHeaders)
		}
		c.sites[strings.ToLower(host)] = site
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client and its shared transport.
//
// The proxy is not contacted here; call CheckProxy to verify it.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.rps < 0 {
		return nil, ErrInvalidRate
	}

	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		base.Proxy = nil
		base.DialContext = dialContext(dialer)
		base.DialTLSContext = dialTLSContext(base.DialContext)
		base.MaxIdleConnsPerHost = 2
		base.IdleConnTimeout = 30 * time.Second
		base.DisableCompression = true
	}

	var rt http.RoundTripper = base
	rt = &headerInjectingTransport{
		base:      rt,
		userAgent: c.userAgent,
		sites:     c.sites,
	}
	if c.rps > 0 {
		rt = newRateLimitedTransport(rt, rate.NewLimiter(rate.Limit(c.rps), 1))
	}
	c.transport = rt

	c.logger.Debug("transport ready",
		"proxy", c.proxyAddress,
		"timeout", c.timeout,
		"rate", c.rps,
	)

	return c, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// dialTLSContext opens TLS connections over dial. Certificates are
// verified for every host except .onion services, which commonly present
// self-signed certificates and are authenticated by their address.
func dialTLSContext(dial func(ctx context.Context, network, addr string) (net.Conn, error)) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		conn := tls.Client(raw, tlsConfigFor(host))
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, err
		}
		return conn, nil
	}
}

// tlsConfigFor returns the TLS settings used to reach host.
func tlsConfigFor(host string) *tls.Config {
	cfg := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}
	if isOnionHost(host) {
		cfg.InsecureSkipVerify = true //nolint:gosec // onion addresses authenticate the service
	}
	return cfg
}

func isOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(host, ".")), ".onion")
}

// isValidProxyAddress reports whether address is "host:port" with a port
// in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// ProbeClient returns a client that never follows redirects. It is used
// for robots.txt and for per-path probes.
func (c *Client) ProbeClient() *http.Client {
	return &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// VerifyClient returns a client for search engine and archive queries.
// It follows up to ten redirects.
func (c *Client) VerifyClient() *http.Client {
	return &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxVerifyRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// ProxyAddress returns the configured SOCKS5 proxy, if any.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// headerInjectingTransport sets the user agent on every request and the
// per-site cookie and headers on requests to a configured host.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	sites     map[string]SiteHeaders
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	site, ok := t.sites[strings.ToLower(clone.URL.Hostname())]
	if !ok {
		site, ok = t.sites[strings.ToLower(clone.URL.Host)]
	}
	if ok {
		if site.Cookie != "" {
			if existing := clone.Header.Get("Cookie"); existing != "" {
				clone.Header.Set("Cookie", existing+"; "+site.Cookie)
			} else {
				clone.Header.Set("Cookie", site.Cookie)
			}
		}
		for key, value := range site.Headers {
			clone.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(clone)
}
