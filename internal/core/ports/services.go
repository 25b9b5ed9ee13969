package ports

import (
	"context"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// SearchClient talks to the external property search API.
type SearchClient interface {
	Search(ctx context.Context, filter domain.FilterState) (*domain.SearchPage, error)
}

// RecordCache is the selection cache: every fetched record by id. Entries are
// never evicted.
type RecordCache interface {
	PutRecords(ctx context.Context, records []domain.PropertyRecord) error
	// GetRecords returns the cached records in id order and the ids that were missing.
	GetRecords(ctx context.Context, ids []string) ([]domain.PropertyRecord, []string, error)
	// MarkSeen records ids as returned by one of the session's searches.
	MarkSeen(ctx context.Context, sessionID string, ids []string) error
	// SeenRecordIDs lists the ids the session's searches returned, first seen first.
	SeenRecordIDs(ctx context.Context, sessionID string) ([]string, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSelectionChanged(ctx context.Context, sel *domain.Selection, summary domain.Summary) error
	PublishReportRequested(ctx context.Context, req domain.ReportRequest) error
	PublishReportReady(ctx context.Context, report *domain.Report) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeReportRequests(ctx context.Context, handler func(ctx context.Context, req domain.ReportRequest) error) error
}
