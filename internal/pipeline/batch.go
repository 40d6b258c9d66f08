package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/domo/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is the number of hosts audited at once.
const DefaultBatchConcurrency = 4

// BatchProcessor audits several hosts concurrently, each with a fresh
// pipeline.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for one host.
	pipelineFactory func(host string) *Pipeline

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Default is DefaultBatchConcurrency if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// The pipelineFactory function is called once per host.
func NewBatchProcessor(pipelineFactory func(host string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatchWithCallback audits hosts and calls callback for each
// finished audit with the report and the host's index in hosts, even for
// audits that failed. The callback is called from the goroutine that ran
// the audit, so it must be safe for concurrent use. Hosts whose audit
// never started are skipped; the error is non-nil only on cancellation.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	hosts []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_hosts", len(hosts),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()
	defer func() {
		bp.logger.Info("batch processing complete",
			"total_hosts", len(hosts),
			"elapsed", time.Since(startTime),
		)
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, host := range hosts {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing host",
				"host", host,
				"index", i+1,
				"total", len(hosts),
			)

			report := model.NewAuditReport(host)
			pipeline := bp.pipelineFactory(host)
			if err := pipeline.Execute(ctx, report); err != nil {
				bp.logger.Warn("audit failed",
					"host", host,
					"error", err,
				)
			} else {
				bp.logger.Info("audit completed",
					"host", host,
					"state", report.State,
					"terminal", report.State.Terminal(),
				)
			}

			// The error is recorded in the report; other audits continue.
			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
