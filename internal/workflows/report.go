package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// Activity names registered by ReportActivities.
const (
	ActivityBuildReport        = "BuildReport"
	ActivityPublishReportReady = "PublishReportReady"
)

// ReportInput is the input for the report workflow.
type ReportInput struct {
	SessionID   string
	AreaType    domain.AreaType
	RequestedAt time.Time
}

// WorkflowID derives a stable id so a redelivered request does not start a
// second run for the same request.
func (in ReportInput) WorkflowID() string {
	return "report-" + in.SessionID + "-" + in.RequestedAt.UTC().Format("20060102T150405.000000000")
}

// ReportWorkflow builds the evaluation report of a session and announces it
// on the broker. A failed announcement fails the workflow; the report is
// still returned to anyone awaiting the result.
func ReportWorkflow(ctx workflow.Context, input ReportInput) (*domain.Report, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting report workflow", "session", input.SessionID, "areaType", input.AreaType)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var report domain.Report
	if err := workflow.ExecuteActivity(ctx, ActivityBuildReport, input).Get(ctx, &report); err != nil {
		return nil, err
	}

	if err := workflow.ExecuteActivity(ctx, ActivityPublishReportReady, &report).Get(ctx, nil); err != nil {
		logger.Warn("report ready announcement failed", "session", input.SessionID, "error", err)
		return &report, err
	}

	logger.Info("Report delivered", "session", input.SessionID, "rows", len(report.Rows))
	return &report, nil
}
