package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/domo/internal/transport"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "domo"

	// DefaultConcurrency is the number of probe or verifier requests in
	// flight for one target.
	DefaultConcurrency = 10

	// DefaultBatchSize is the number of targets audited at once.
	DefaultBatchSize = 4

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies domo in HTTP requests so that operators
	// can recognize audit traffic in their logs.
	DefaultUserAgent = transport.DefaultUserAgent

	// DefaultMaxBodySize caps every response body read (robots.txt and
	// verifier result pages).
	DefaultMaxBodySize = 2 * 1024 * 1024

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor
	// daemon used by --tor.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of an audit run. It is filled from CLI flags
// and the optional configuration file, then passed down explicitly.
type Config struct {
	// Targets are the hosts to audit, as typed by the user.
	Targets []string

	// OnlySuccessful prints only probe lines with status 200.
	// Counts are never affected.
	OnlySuccessful bool

	// Engines are the verifier engines to run after probing, in order.
	Engines []string

	// Concurrency is the per-target ceiling of requests in flight.
	Concurrency int

	// BatchSize is the number of targets audited concurrently.
	BatchSize int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Rate caps requests per second across all stages. Zero disables it.
	Rate float64

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps how many bytes of a response are read.
	MaxBodySize int64

	// ProxyAddress routes traffic through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseEmbeddedTor starts a private Tor daemon and routes traffic
	// through it. Mutually exclusive with ProxyAddress.
	UseEmbeddedTor bool

	// TorStartupTimeout bounds the embedded daemon's bootstrap.
	TorStartupTimeout time.Duration

	// Verbose lowers the log level to debug.
	Verbose bool

	// JSONLog switches log output on stderr to JSON.
	JSONLog bool

	// NoColor disables ANSI colors in console output.
	NoColor bool

	// JSONReport writes the audit as JSON instead of console lines.
	JSONReport bool

	// MarkdownReport writes the audit as GitHub Flavored Markdown.
	MarkdownReport bool

	// ReportFile is the destination of the report. Empty means stdout.
	ReportFile string

	// ConfigFilePath is an explicit configuration file location.
	ConfigFilePath string

	// File is the loaded configuration file, or nil.
	File *File
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGConfigDir returns the XDG config directory for domo,
// e.g. ~/.config/domo on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate returns the first problem found in the configuration.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseEmbeddedTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	return nil
}

// SiteFor returns the merged site configuration for host, or the zero
// value when no file was loaded.
func (c *Config) SiteFor(host string) SiteConfig {
	if c.File == nil {
		return SiteConfig{}
	}
	return c.File.GetSiteConfig(host)
}

// ConcurrencyFor returns the concurrency for host, honoring a per-site
// override from the configuration file.
func (c *Config) ConcurrencyFor(host string) int {
	if site := c.SiteFor(host); site.Concurrency > 0 {
		return site.Concurrency
	}
	return c.Concurrency
}
