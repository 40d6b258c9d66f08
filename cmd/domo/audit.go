package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/nao1215/domo/internal/config"
	dlog "github.com/nao1215/domo/internal/log"
	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/domo/internal/pipeline"
	"github.com/nao1215/domo/internal/report"
	"github.com/nao1215/domo/internal/target"
	"github.com/nao1215/domo/internal/transport"
	"github.com/nao1215/domo/internal/verify"
	"github.com/spf13/cobra"
)

var (
	// errOnionNeedsProxy is returned when a .onion target is given without
	// --proxy or --tor.
	errOnionNeedsProxy = errors.New(".onion targets require --proxy or --tor")

	// errAuditFailed is returned when at least one audit ended in a fatal
	// robots.txt failure. The diagnostic has already been printed.
	errAuditFailed = errors.New("audit failed")
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit HOST...",
		Short: "Audit the Disallow entries of robots.txt",
		Long: `Audit fetches robots.txt from each host, requests every Disallow path
and reports which of them are publicly available. Optionally it asks search
engines and web archives whether the paths have been indexed.

Examples:
  # Show only the disallowed paths that answer 200 OK
  domo audit www.example.com --only-success

  # Also look the paths up on Bing and the Wayback Machine
  domo audit www.example.com --search --archive

  # Audit several hosts, two at a time, and write a Markdown report
  domo audit a.example b.example c.example --batch 2 --markdown -o report.md

  # Audit an onion service through the embedded Tor daemon
  domo audit --tor <56-char-address>.onion`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Verification engines
	cmd.Flags().BoolP("only-success", "s", false,
		"Print only the paths that answer 200 OK (counts are unaffected)")
	cmd.Flags().Bool("search", false,
		"Look the paths up on Bing")
	cmd.Flags().Bool("archive", false,
		"Look the paths up on the Wayback Machine (web.archive.org)")
	cmd.Flags().Bool("archive-today", false,
		"Look the paths up on archive.today (archive.is)")
	cmd.Flags().StringSlice("engine", nil,
		"Look the paths up on a custom engine declared in the configuration file (repeatable)")

	// Request behavior
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of requests in flight per host")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of hosts audited concurrently")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across all hosts (0 disables the limit)")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Proxy
	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .domo in current dir, XDG config dir, or home dir)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-color", false,
		"Disable colored console output")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runAudit(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.Verbose = getPersistentBool(cmd, "verbose")
	cfg.JSONLog = getPersistentBool(cmd, "log-json")

	if cfg.OnlySuccessful, err = flags.GetBool("only-success"); err != nil {
		return nil, err
	}

	for _, builtin := range []string{verify.EngineSearch, verify.EngineArchive, verify.EngineArchiveToday} {
		enabled, err := flags.GetBool(builtin)
		if err != nil {
			return nil, err
		}
		if enabled {
			cfg.Engines = append(cfg.Engines, builtin)
		}
	}
	custom, err := flags.GetStringSlice("engine")
	if err != nil {
		return nil, err
	}
	cfg.Engines = append(cfg.Engines, custom...)

	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Rate, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseEmbeddedTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = flags.GetBool("no-color"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	if cfg.File, err = loadConfigFile(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.File != nil && cfg.File.UserAgent != "" && !flags.Changed("user-agent") {
		cfg.UserAgent = cfg.File.UserAgent
	}

	cfg.Targets = args

	return cfg, nil
}

// loadConfigFile loads the configuration file. An explicit path must
// exist; otherwise the search is best effort and may return nil.
func loadConfigFile(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	if configPath == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return nil, nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return file, nil
}

// loadConfigOnly builds a Config holding just the configuration file
// named by the command's --config flag.
func loadConfigOnly(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.File, err = loadConfigFile(cfg.ConfigFilePath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getPersistentBool reads a global flag from the command or the root.
func getPersistentBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the redacting logger on w.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return dlog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return dlog.NewSecureLogger(w, cfg.Verbose)
}

// runAudit audits every target and writes the requested report.
func runAudit(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	useColor := !cfg.NoColor && !color.NoColor
	diag := report.NewConsoleWriter(stdout, report.WithColor(useColor))

	targets, err := target.ParseAll(cfg.Targets)
	if err != nil {
		diag.Failure(err)
		fmt.Fprintln(stdout, report.UsageHint)
		return err
	}

	needsProxy := false
	for _, t := range targets {
		if t.Onion {
			needsProxy = true
			break
		}
	}
	if needsProxy && cfg.ProxyAddress == "" && !cfg.UseEmbeddedTor {
		return errOnionNeedsProxy
	}

	engines, err := resolveEngines(cfg)
	if err != nil {
		return err
	}

	client, stop, err := newTransport(ctx, cfg, targets, stdout, logger)
	if err != nil {
		return err
	}
	defer stop()

	logger.Info("starting audit",
		"targets", len(targets),
		"engines", len(engines),
		"concurrency", cfg.Concurrency,
		"batch", cfg.BatchSize,
		"proxy", client.ProxyAddress(),
		"timeout", client.Timeout(),
	)

	hosts := make([]string, len(targets))
	for i, t := range targets {
		hosts[i] = t.Host
	}

	reports, err := auditHosts(ctx, cfg, hosts, engines, client, stdout, useColor, logger)
	if err != nil {
		return err
	}

	if cfg.JSONReport || cfg.MarkdownReport {
		if err := outputReport(cfg, stdout, reports); err != nil {
			return err
		}
	}

	for _, r := range reports {
		if r != nil && r.State == model.StateFailedRobotsFetch {
			return errAuditFailed
		}
	}
	return nil
}

// newRegistry returns the built-in engines plus the custom engines of
// the configuration file.
func newRegistry(cfg *config.Config) (*verify.Registry, error) {
	registry := verify.NewRegistry()
	if cfg.File == nil {
		return registry, nil
	}
	for _, ec := range cfg.File.Engines {
		engine, err := verify.Custom(ec.Name, ec.URL, ec.FoundMarker, ec.MissingMarker)
		if err != nil {
			return nil, fmt.Errorf("invalid engine in configuration file: %w", err)
		}
		if err := registry.Register(engine); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// resolveEngines returns the engines selected on the command line.
func resolveEngines(cfg *config.Config) ([]verify.Engine, error) {
	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return registry.Resolve(cfg.Engines)
}

// newTransport builds the shared HTTP capability. With --tor it starts
// the embedded daemon; the returned stop function shuts it down.
func newTransport(ctx context.Context, cfg *config.Config, targets []target.Target, stdout io.Writer, logger *slog.Logger) (*transport.Client, func(), error) {
	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithRate(cfg.Rate),
		transport.WithLogger(logger),
	}
	for _, t := range targets {
		site := cfg.SiteFor(t.Host)
		if site.Cookie != "" || len(site.Headers) > 0 {
			opts = append(opts, transport.WithSiteHeaders(t.Host, transport.SiteHeaders{
				Cookie:  site.Cookie,
				Headers: site.Headers,
			}))
		}
	}

	noop := func() {}

	if cfg.UseEmbeddedTor {
		return startEmbeddedTor(ctx, cfg, stdout, logger, opts)
	}

	if cfg.ProxyAddress != "" {
		opts = append(opts, transport.WithProxy(cfg.ProxyAddress))
	}
	client, err := transport.NewClient(opts...)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if status := client.CheckProxy(ctx); status != transport.ProxyStatusOK {
		return nil, noop, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
			status, cfg.ProxyAddress, status.Err())
	}

	return client, noop, nil
}

// startEmbeddedTor starts an embedded Tor daemon using tornago and returns
// a client routed through it.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger, opts []transport.Option) (*transport.Client, func(), error) {
	fmt.Fprintln(stdout, "Starting embedded Tor daemon...")
	fmt.Fprintf(stdout, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := transport.NewEmbeddedTor(
		transport.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	stop := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embeddedTor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(opts...)
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}

	if status := client.CheckProxy(ctx); status != transport.ProxyStatusOK {
		stop()
		return nil, func() {}, fmt.Errorf("embedded Tor proxy check failed: %s: %w", status, status.Err())
	}

	return client, stop, nil
}

// auditHosts runs one pipeline per host. A single host streams its
// console output; several hosts are audited concurrently and each
// finished report is printed as one block.
func auditHosts(
	ctx context.Context,
	cfg *config.Config,
	hosts []string,
	engines []verify.Engine,
	client *transport.Client,
	stdout io.Writer,
	useColor bool,
	logger *slog.Logger,
) ([]*model.AuditReport, error) {
	structured := cfg.JSONReport || cfg.MarkdownReport
	showConsole := !structured || cfg.ReportFile != ""
	streaming := len(hosts) == 1

	console := report.NewConsoleWriter(stdout,
		report.WithColor(useColor),
		report.WithConsoleOnlySuccessful(cfg.OnlySuccessful),
	)

	probeClient := client.ProbeClient()
	verifyClient := client.VerifyClient()

	bp := pipeline.NewBatchProcessor(
		func(host string) *pipeline.Pipeline {
			opts := pipeline.AuditOptions{
				ProbeClient:       probeClient,
				VerifyClient:      verifyClient,
				Engines:           engines,
				Concurrency:       cfg.ConcurrencyFor(host),
				OnlySuccessful:    cfg.OnlySuccessful,
				RobotsMaxBodySize: cfg.MaxBodySize,
				VerifyMaxBodySize: cfg.MaxBodySize,
				Logger:            logger,
			}
			if showConsole && streaming {
				console.Header(host)
				opts.Observer = console
			}
			return pipeline.NewAudit(opts)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports := make([]*model.AuditReport, len(hosts))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, hosts, func(r *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		reports[index] = r
		switch {
		case !showConsole:
		case streaming:
			console.Finish(r)
		default:
			if _, err := console.Write(r); err != nil {
				logger.Error("failed to write console output", "host", r.Host, "error", err)
			}
		}
	})

	return reports, err
}

// outputReport writes the structured report to the report file, or to
// stdout when no file is given.
func outputReport(cfg *config.Config, stdout io.Writer, reports []*model.AuditReport) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	if cfg.JSONReport {
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		writer = report.NewMarkdownWriter(output)
	}

	if _, err := writer.WriteAll(reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(stdout, "\nReport written to %s\n", cfg.ReportFile)
	}
	return nil
}
