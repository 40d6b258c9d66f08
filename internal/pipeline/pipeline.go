package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/domo/internal/model"
)

// Step is one stage of an audit. A stage writes what it learns into the
// shared AuditReport. Returning an error aborts the audit; per-path
// failures belong in the report instead.
type Step interface {
	Do(ctx context.Context, report *model.AuditReport) error
	Name() string
}

// Pipeline runs the stages of one audit in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a stage.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several stages in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every stage against report.
//
// The context is checked between stages: once it is done the report is
// marked TimedOut, keeps the results of the stages that completed, and
// ctx.Err() is returned. A failing stage is recorded with SetError and its
// error is returned at once. FinishedAt is set on every return path.
func (p *Pipeline) Execute(ctx context.Context, report *model.AuditReport) error {
	defer func() {
		if report.FinishedAt.IsZero() {
			report.FinishedAt = time.Now()
		}
	}()

	p.logger.Debug("audit started", "host", report.Host, "stages", p.StepNames())

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("audit interrupted",
				"host", report.Host,
				"before", step.Name(),
				"reason", err,
			)
			report.TimedOut = true
			return err
		}

		if err := p.run(ctx, step, report); err != nil {
			return err
		}
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

func (p *Pipeline) run(ctx context.Context, step Step, report *model.AuditReport) error {
	log := p.logger.With("host", report.Host, "step", step.Name())
	log.Debug("stage started")

	err := step.Do(ctx, report)
	if err != nil {
		log.Error("stage failed", "error", err)
		report.SetError(err)
		return err
	}

	log.Debug("stage finished", "state", report.State)
	return nil
}

// StepNames returns the stage names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
