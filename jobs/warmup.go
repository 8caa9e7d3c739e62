package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/clouderp/simplebooks/internal/jobs"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
)

// ReportWarmup pre-computes the cached reports so the first request after an
// invalidation does not pay the aggregation cost.
type ReportWarmup struct {
	logger  *slog.Logger
	reports *reports.Service
	metrics *jobmetrics.Metrics
}

// NewReportWarmup constructs a ReportWarmup.
func NewReportWarmup(logger *slog.Logger, reportsService *reports.Service, metrics *jobmetrics.Metrics) *ReportWarmup {
	return &ReportWarmup{logger: logger, reports: reportsService, metrics: metrics}
}

// Handle processes TaskReportWarmup tasks.
func (w *ReportWarmup) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := w.metrics.Track("report_warmup")

	asOf, err := asOfFromPayload(t.Payload())
	if err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	if _, err := w.reports.TrialBalance(ctx, asOf); err != nil {
		return tracker.End(fmt.Errorf("jobs: warm trial balance: %w", err))
	}
	for _, kind := range []reports.Kind{reports.KindReceivables, reports.KindPayables} {
		if _, err := w.reports.Aging(ctx, kind, asOf); err != nil {
			return tracker.End(fmt.Errorf("jobs: warm %s aging: %w", kind, err))
		}
	}

	w.logger.Info("report cache warmed", slog.Time("as_of", asOf))
	return tracker.End(nil)
}
