package probe

import (
	"io"
	"log/slog"

	"github.com/nao1215/domo/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// summarize folds outcomes the way the prober's aggregate does.
func summarize(outcomes []model.ProbeOutcome) model.ProbeSummary {
	var s model.ProbeSummary
	for _, o := range outcomes {
		s.Record(o)
	}
	return s
}
