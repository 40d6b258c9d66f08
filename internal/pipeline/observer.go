package pipeline

import (
	"github.com/nao1215/domo/internal/model"
	"github.com/nao1215/domo/internal/verify"
)

// Observer receives progress events while an audit runs.
// Probe and verifier callbacks arrive one at a time, from the goroutine
// that completed the request.
type Observer interface {
	// OnOutcome is called for each probe outcome that should be shown.
	OnOutcome(outcome model.ProbeOutcome)

	// OnProbeFinished is called once the probe stage has recorded its
	// summary on report.
	OnProbeFinished(report *model.AuditReport)

	// OnVerifyStarted is called before an engine is queried.
	OnVerifyStarted(engine verify.Engine)

	// OnResult is called for each verifier result.
	OnResult(engine verify.Engine, result model.VerifierResult)

	// OnVerifyFinished is called with the engine's summary.
	OnVerifyFinished(engine verify.Engine, summary model.VerifierSummary)
}

// NopObserver ignores every event.
type NopObserver struct{}

// OnOutcome implements Observer.
func (NopObserver) OnOutcome(model.ProbeOutcome) {}

// OnProbeFinished implements Observer.
func (NopObserver) OnProbeFinished(*model.AuditReport) {}

// OnVerifyStarted implements Observer.
func (NopObserver) OnVerifyStarted(verify.Engine) {}

// OnResult implements Observer.
func (NopObserver) OnResult(verify.Engine, model.VerifierResult) {}

// OnVerifyFinished implements Observer.
func (NopObserver) OnVerifyFinished(verify.Engine, model.VerifierSummary) {}
