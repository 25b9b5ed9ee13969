package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/valuation"
)

var errNoPublisher = errors.New("event publisher not configured")

// ReportService builds the plain-data evaluation report.
type ReportService struct {
	selections ports.SelectionRepository
	records    ports.RecordCache
	publisher  ports.EventPublisher
}

// NewReportService creates a new ReportService.
func NewReportService(
	selections ports.SelectionRepository,
	records ports.RecordCache,
	publisher ports.EventPublisher,
) *ReportService {
	return &ReportService{selections: selections, records: records, publisher: publisher}
}

// Build assembles the report of a session. Selected ids missing from the
// record cache are listed in Report.Missing.
func (s *ReportService) Build(ctx context.Context, sessionID string, areaType domain.AreaType) (*domain.Report, error) {
	sel, err := s.selections.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sel.IDs) == 0 {
		return nil, domain.ErrEmptySelection
	}

	records, missing, err := s.records.GetRecords(ctx, sel.IDs)
	if err != nil {
		return nil, fmt.Errorf("load selected records: %w", err)
	}

	rows := make([]domain.PropertyMetrics, 0, len(records))
	for _, r := range records {
		rows = append(rows, valuation.Derive(r, areaType))
	}

	return &domain.Report{
		SessionID:         sel.SessionID,
		AreaType:          areaType,
		GeneratedAt:       time.Now().UTC(),
		Summary:           valuation.Aggregate(records, areaType),
		Rows:              rows,
		PriceDistribution: valuation.BucketDistribution(records, valuation.ByPrice, valuation.DefaultBuckets),
		Missing:           missing,
	}, nil
}

// Request queues an asynchronous report. The session must exist and have a
// selection.
func (s *ReportService) Request(ctx context.Context, sessionID string, areaType domain.AreaType) (*domain.ReportRequest, error) {
	sel, err := s.selections.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sel.IDs) == 0 {
		return nil, domain.ErrEmptySelection
	}

	if s.publisher == nil {
		return nil, errNoPublisher
	}

	req := domain.ReportRequest{
		SessionID:   sessionID,
		AreaType:    areaType,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishReportRequested(ctx, req); err != nil {
		return nil, fmt.Errorf("publish report request: %w", err)
	}
	return &req, nil
}

// Announce publishes a finished report.
func (s *ReportService) Announce(ctx context.Context, report *domain.Report) error {
	if s.publisher == nil {
		return errNoPublisher
	}
	return s.publisher.PublishReportReady(ctx, report)
}
