package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/domo/internal/probe"
	"github.com/nao1215/domo/internal/robots"
	"github.com/nao1215/domo/internal/verify"
)

// Doer is the HTTP capability shared by the steps. *http.Client
// satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchRobotsStep retrieves robots.txt from the audited host.
// Its failure is fatal for the audit: the report ends in the
// FailedRobotsFetch state.
type FetchRobotsStep struct {
	client      Doer
	maxBodySize int64
	logger      *slog.Logger
}

// FetchRobotsStepOption configures a FetchRobotsStep.
type FetchRobotsStepOption func(*FetchRobotsStep)

// WithRobotsMaxBodySize caps how much of robots.txt is read.
func WithRobotsMaxBodySize(size int64) FetchRobotsStepOption {
	return func(s *FetchRobotsStep) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithRobotsLogger sets a custom logger for the fetch step.
func WithRobotsLogger(logger *slog.Logger) FetchRobotsStepOption {
	return func(s *FetchRobotsStep) {
		s.logger = logger
	}
}

// NewFetchRobotsStep creates the fetch step. The client must not follow
// redirects.
func NewFetchRobotsStep(client Doer, opts ...FetchRobotsStepOption) *FetchRobotsStep {
	s := &FetchRobotsStep{
		client:      client,
		maxBodySize: robots.DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FetchRobotsStep) Name() string {
	return "fetch_robots"
}

// Do executes the fetch step.
func (s *FetchRobotsStep) Do(ctx context.Context, report *model.AuditReport) error {
	report.State = model.StateFetchRobotsTxt
	report.RobotsURL = robots.URLFor(report.Host)

	doc, err := robots.Fetch(ctx, s.client, report.Host, s.maxBodySize)
	if doc != nil {
		report.RobotsStatus = doc.StatusCode
	}
	if err != nil {
		report.State = model.StateFailedRobotsFetch
		report.FinishedAt = time.Now()
		return err
	}

	if doc.StatusCode != http.StatusOK {
		s.logger.Warn("robots.txt served with unexpected status",
			"url", doc.URL,
			"status", doc.StatusCode,
		)
	}
	report.RobotsBody = doc.Body

	return nil
}

// ParsePathsStep turns the fetched policy text into the frozen PathSet.
type ParsePathsStep struct {
	parser *robots.Parser
	logger *slog.Logger
}

// NewParsePathsStep creates the parse step.
func NewParsePathsStep(logger *slog.Logger) *ParsePathsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParsePathsStep{
		parser: robots.NewParser(robots.WithParserLogger(logger)),
		logger: logger,
	}
}

// Name returns the step name.
func (s *ParsePathsStep) Name() string {
	return "parse_paths"
}

// Do executes the parse step. It never fails: undecodable patterns are
// recorded in SkippedPatterns.
func (s *ParsePathsStep) Do(_ context.Context, report *model.AuditReport) error {
	report.State = model.StateParsePaths

	paths, skipped := s.parser.Parse(report.RobotsBody, report.Host)
	report.Paths = paths
	report.SkippedPatterns = skipped

	s.logger.Debug("parsed robots.txt",
		"host", report.Host,
		"paths", paths.Len(),
		"skipped", len(skipped),
	)

	return nil
}

// ProbeStep requests every disallowed path on the audited host.
type ProbeStep struct {
	client         Doer
	concurrency    int
	onlySuccessful bool
	observer       Observer
	logger         *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithProbeConcurrency sets the number of probes in flight.
func WithProbeConcurrency(n int) ProbeStepOption {
	return func(s *ProbeStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithOnlySuccessful limits observer notifications to 200 outcomes.
func WithOnlySuccessful(only bool) ProbeStepOption {
	return func(s *ProbeStep) {
		s.onlySuccessful = only
	}
}

// WithProbeObserver sets the observer notified of outcomes.
func WithProbeObserver(o Observer) ProbeStepOption {
	return func(s *ProbeStep) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates the probe step. The client must not follow
// redirects.
func NewProbeStep(client Doer, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		client:      client,
		concurrency: probe.DefaultConcurrency,
		observer:    NopObserver{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe_paths"
}

// Do executes the probe step. Each outcome is then annotated with
// whether the "*" agent group of the policy disallows its path.
func (s *ProbeStep) Do(ctx context.Context, report *model.AuditReport) error {
	report.State = model.StateProbePaths

	if report.Paths == nil {
		report.Paths = model.PathSetOf()
	}

	prober := probe.NewProber(s.client,
		probe.WithConcurrency(s.concurrency),
		probe.WithOnlySuccessful(s.onlySuccessful),
		probe.WithOutcomeHandler(s.observer.OnOutcome),
		probe.WithLogger(s.logger),
	)

	summary, outcomes := prober.Probe(ctx, report.Paths, report.Host)

	policy, err := robots.NewPolicy(report.RobotsBody)
	if err != nil {
		s.logger.Debug("policy cross-check unavailable",
			"host", report.Host,
			"error", err,
		)
	}
	for i := range outcomes {
		outcomes[i].EffectiveForAll = policy.DisallowedForAll(outcomes[i].Path)
	}

	report.Probe = summary
	report.Outcomes = outcomes
	s.observer.OnProbeFinished(report)

	return nil
}

// VerifyStep queries one external engine for every disallowed path.
// A failing engine is recorded in the report and never stops the audit.
type VerifyStep struct {
	client      Doer
	engine      verify.Engine
	concurrency int
	maxBodySize int64
	observer    Observer
	logger      *slog.Logger
}

// VerifyStepOption configures a VerifyStep.
type VerifyStepOption func(*VerifyStep)

// WithVerifyConcurrency sets the number of queries in flight.
func WithVerifyConcurrency(n int) VerifyStepOption {
	return func(s *VerifyStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithVerifyMaxBodySize caps how much of each engine response is read.
func WithVerifyMaxBodySize(size int64) VerifyStepOption {
	return func(s *VerifyStep) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithVerifyObserver sets the observer notified of results.
func WithVerifyObserver(o Observer) VerifyStepOption {
	return func(s *VerifyStep) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithVerifyLogger sets a custom logger for the verify step.
func WithVerifyLogger(logger *slog.Logger) VerifyStepOption {
	return func(s *VerifyStep) {
		s.logger = logger
	}
}

// NewVerifyStep creates a verify step for engine.
func NewVerifyStep(client Doer, engine verify.Engine, opts ...VerifyStepOption) *VerifyStep {
	s := &VerifyStep{
		client:      client,
		engine:      engine,
		concurrency: verify.DefaultConcurrency,
		maxBodySize: verify.DefaultMaxBodySize,
		observer:    NopObserver{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify_" + s.engine.Name
}

// Do executes the verify step.
func (s *VerifyStep) Do(ctx context.Context, report *model.AuditReport) error {
	report.State = model.StateVerify

	paths := report.Paths
	if paths == nil {
		paths = model.PathSetOf()
	}

	s.observer.OnVerifyStarted(s.engine)

	verifier := verify.NewVerifier(s.client,
		verify.WithConcurrency(s.concurrency),
		verify.WithMaxBodySize(s.maxBodySize),
		verify.WithResultHandler(s.observer.OnResult),
		verify.WithLogger(s.logger),
	)

	summary := verifier.Verify(ctx, paths, report.Host, s.engine)
	if summary.Err != nil {
		s.logger.Warn("verification incomplete",
			"engine", s.engine.Name,
			"host", report.Host,
			"error", summary.Err,
		)
	}

	report.AddVerification(summary)
	s.observer.OnVerifyFinished(s.engine, summary)

	return nil
}

// FinishStep closes a completed audit.
type FinishStep struct{}

// NewFinishStep creates the finish step.
func NewFinishStep() *FinishStep {
	return &FinishStep{}
}

// Name returns the step name.
func (s *FinishStep) Name() string {
	return "report"
}

// Do moves the report through Report into Success.
func (s *FinishStep) Do(_ context.Context, report *model.AuditReport) error {
	report.State = model.StateReport
	report.FinishedAt = time.Now()
	report.State = model.StateSuccess
	return nil
}
