package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/usecases"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// ReportActivities holds the activity implementations for the report workflow.
type ReportActivities struct {
	Reports *usecases.ReportService
}

// BuildReport assembles the report from the session and the record cache.
// Unknown sessions and empty selections are not retried.
func (a *ReportActivities) BuildReport(ctx context.Context, input ReportInput) (*domain.Report, error) {
	report, err := a.Reports.Build(ctx, input.SessionID, input.AreaType)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmptySelection):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidSession", err)
	case err != nil:
		return nil, fmt.Errorf("build report %s: %w", input.SessionID, err)
	}

	activity.GetLogger(ctx).Info("report built", "session", input.SessionID, "rows", len(report.Rows), "missing", len(report.Missing))
	metrics.ReportsGenerated.WithLabelValues("async").Inc()
	return report, nil
}

// PublishReportReady announces a finished report to WebSocket subscribers.
func (a *ReportActivities) PublishReportReady(ctx context.Context, report *domain.Report) error {
	if err := a.Reports.Announce(ctx, report); err != nil {
		return fmt.Errorf("announce report %s: %w", report.SessionID, err)
	}
	return nil
}
