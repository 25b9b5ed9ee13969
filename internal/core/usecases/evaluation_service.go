package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/valuation"
	"github.com/samirrijal/estatemap/internal/core/viewport"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// EvaluationService manages evaluation sessions: which cached records a user
// selected and the aggregates over them.
type EvaluationService struct {
	selections ports.SelectionRepository
	records    ports.RecordCache
	publisher  ports.EventPublisher
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(
	selections ports.SelectionRepository,
	records ports.RecordCache,
	publisher ports.EventPublisher,
) *EvaluationService {
	return &EvaluationService{selections: selections, records: records, publisher: publisher}
}

// Create starts an empty session.
func (s *EvaluationService) Create(ctx context.Context) (*domain.Selection, error) {
	now := time.Now().UTC()
	sel := &domain.Selection{
		SessionID: uuid.NewString(),
		IDs:       []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.selections.Create(ctx, sel); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sel, nil
}

// Get loads a session.
func (s *EvaluationService) Get(ctx context.Context, sessionID string) (*domain.Selection, error) {
	return s.selections.Get(ctx, sessionID)
}

// Toggle flips membership of each id. The record cache is not touched.
func (s *EvaluationService) Toggle(ctx context.Context, sessionID string, ids []string) (*domain.Selection, error) {
	return s.update(ctx, sessionID, func(sel *domain.Selection) { sel.Toggle(ids...) })
}

// Select adds ids to the session.
func (s *EvaluationService) Select(ctx context.Context, sessionID string, ids []string) (*domain.Selection, error) {
	return s.update(ctx, sessionID, func(sel *domain.Selection) { sel.Add(ids...) })
}

// Deselect removes ids from the session.
func (s *EvaluationService) Deselect(ctx context.Context, sessionID string, ids []string) (*domain.Selection, error) {
	return s.update(ctx, sessionID, func(sel *domain.Selection) { sel.Remove(ids...) })
}

// Clear empties the session.
func (s *EvaluationService) Clear(ctx context.Context, sessionID string) (*domain.Selection, error) {
	return s.update(ctx, sessionID, func(sel *domain.Selection) { sel.IDs = []string{} })
}

// SelectWithin adds every record the session's searches returned that lies
// inside the shape. Records without a location are skipped.
func (s *EvaluationService) SelectWithin(ctx context.Context, sessionID string, shape domain.DrawnGeometry) (*domain.Selection, error) {
	if viewport.DrawingBounds(shape) == nil {
		return nil, fmt.Errorf("%w: shape has no extent", domain.ErrInvalidShape)
	}

	ids, err := s.records.SeenRecordIDs(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list seen records: %w", err)
	}
	records, _, err := s.records.GetRecords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cached records: %w", err)
	}

	var inside []string
	for _, r := range records {
		if r.Address.Location != nil && viewport.Contains(shape, *r.Address.Location) {
			inside = append(inside, r.ID)
		}
	}

	return s.update(ctx, sessionID, func(sel *domain.Selection) { sel.Add(inside...) })
}

// Summary aggregates the selected records.
func (s *EvaluationService) Summary(ctx context.Context, sessionID string, areaType domain.AreaType) (domain.Summary, error) {
	sel, err := s.selections.Get(ctx, sessionID)
	if err != nil {
		return domain.Summary{}, err
	}
	records, _, err := s.selectedRecords(ctx, sel)
	if err != nil {
		return domain.Summary{}, err
	}
	metrics.SummariesComputed.Inc()
	return valuation.Aggregate(records, areaType), nil
}

// Distribution buckets one field of the selected records.
func (s *EvaluationService) Distribution(ctx context.Context, sessionID, field string, areaType domain.AreaType, buckets int) ([]domain.Bucket, error) {
	extract, ok := valuation.ExtractorFor(field, areaType)
	if !ok {
		return nil, fmt.Errorf("unknown distribution field %q", field)
	}
	sel, err := s.selections.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	records, _, err := s.selectedRecords(ctx, sel)
	if err != nil {
		return nil, err
	}
	return valuation.BucketDistribution(records, extract, buckets), nil
}

// maxUpdateAttempts bounds how often update re-reads a session that another
// request saved in between.
const maxUpdateAttempts = 5

// update applies mutate to the stored session. mutate runs again on a fresh
// read whenever a concurrent save wins, so toggles are never lost.
func (s *EvaluationService) update(ctx context.Context, sessionID string, mutate func(*domain.Selection)) (*domain.Selection, error) {
	var sel *domain.Selection
	for attempt := 1; ; attempt++ {
		var err error
		sel, err = s.selections.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		mutate(sel)
		sel.UpdatedAt = time.Now().UTC()

		err = s.selections.Save(ctx, sel)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxUpdateAttempts {
			return nil, fmt.Errorf("save session: %w", err)
		}
		slog.DebugContext(ctx, "session changed concurrently, retrying", "session_id", sessionID, "attempt", attempt)
	}

	// Best-effort notification; the session is already saved.
	if s.publisher != nil {
		summary := domain.Summary{}
		if records, _, err := s.selectedRecords(ctx, sel); err == nil {
			summary = valuation.Aggregate(records, domain.AreaTotal)
		}
		if err := s.publisher.PublishSelectionChanged(ctx, sel, summary); err != nil {
			slog.WarnContext(ctx, "publish selection changed failed", "session_id", sel.SessionID, "error", err)
		}
	}

	return sel, nil
}

// selectedRecords resolves selected ids through the record cache. Ids the
// cache no longer knows are returned separately.
func (s *EvaluationService) selectedRecords(ctx context.Context, sel *domain.Selection) ([]domain.PropertyRecord, []string, error) {
	if len(sel.IDs) == 0 {
		return nil, nil, nil
	}
	records, missing, err := s.records.GetRecords(ctx, sel.IDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load selected records: %w", err)
	}
	metrics.RecordCacheHits.Add(float64(len(records)))
	metrics.RecordCacheMisses.Add(float64(len(missing)))
	return records, missing, nil
}
