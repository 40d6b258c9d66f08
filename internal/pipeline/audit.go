package pipeline

import (
	"log/slog"

	"github.com/nao1215/domo/internal/verify"
)

// AuditOptions holds everything an audit pipeline is built from.
// The HTTP clients are constructed once by the caller and shared by
// every pipeline.
type AuditOptions struct {
	// ProbeClient fetches robots.txt and probes paths. It must not
	// follow redirects.
	ProbeClient Doer

	// VerifyClient queries external engines.
	VerifyClient Doer

	// Engines are queried in order after probing.
	Engines []verify.Engine

	// Concurrency is the request ceiling of every fan-out stage.
	Concurrency int

	// OnlySuccessful limits observed outcomes to 200 responses.
	OnlySuccessful bool

	// RobotsMaxBodySize caps the robots.txt download.
	RobotsMaxBodySize int64

	// VerifyMaxBodySize caps each engine response.
	VerifyMaxBodySize int64

	// Observer receives progress events. Nil means no events.
	Observer Observer

	// Logger is used by the pipeline and every step.
	Logger *slog.Logger
}

// NewAudit builds the pipeline
//
//	fetch_robots -> parse_paths -> probe_paths -> [verify_<engine> ...] -> report
func NewAudit(opts AuditOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	verifyClient := opts.VerifyClient
	if verifyClient == nil {
		verifyClient = opts.ProbeClient
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchRobotsStep(opts.ProbeClient,
			WithRobotsMaxBodySize(opts.RobotsMaxBodySize),
			WithRobotsLogger(logger),
		),
		NewParsePathsStep(logger),
		NewProbeStep(opts.ProbeClient,
			WithProbeConcurrency(opts.Concurrency),
			WithOnlySuccessful(opts.OnlySuccessful),
			WithProbeObserver(observer),
			WithProbeLogger(logger),
		),
	)

	for _, engine := range opts.Engines {
		p.AddStep(NewVerifyStep(verifyClient, engine,
			WithVerifyConcurrency(opts.Concurrency),
			WithVerifyMaxBodySize(opts.VerifyMaxBodySize),
			WithVerifyObserver(observer),
			WithVerifyLogger(logger),
		))
	}

	p.AddStep(NewFinishStep())

	return p
}
