package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/valuation"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/estatemap/internal/core/usecases")

// SearchService proxies the external search API and fills the record cache.
type SearchService struct {
	client  ports.SearchClient
	records ports.RecordCache
}

// NewSearchService creates a new SearchService.
func NewSearchService(client ports.SearchClient, records ports.RecordCache) *SearchService {
	return &SearchService{client: client, records: records}
}

// Search fetches one page for the filter. Every fetched record is cached,
// selected or not, so evaluations never need to re-fetch. A non-empty
// sessionID also marks the page as seen by that session, which bounds
// what SelectWithin can pick from.
func (s *SearchService) Search(ctx context.Context, sessionID string, filter domain.FilterState) (*domain.SearchPage, error) {
	filter = domain.ApplyPartialUpdate(filter, domain.FilterPatch{})

	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("business_model", string(filter.BusinessModel)),
		attribute.Int("page", filter.Page),
		attribute.Int("geometries", len(filter.Geometries)),
	)

	page, err := s.client.Search(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search api: %w", err)
	}
	metrics.SearchRequests.WithLabelValues("ok").Inc()

	if s.records != nil && len(page.Records) > 0 {
		if err := s.records.PutRecords(ctx, page.Records); err != nil {
			// Search results are still valid without the cache.
			slog.WarnContext(ctx, "record cache write failed", "error", err, "records", len(page.Records))
		} else if sessionID != "" {
			if err := s.records.MarkSeen(ctx, sessionID, recordIDs(page.Records)); err != nil {
				slog.WarnContext(ctx, "seen index write failed", "error", err, "session_id", sessionID)
			}
		}
	}

	return page, nil
}

func recordIDs(records []domain.PropertyRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// AnalyticsService builds the market dashboard.
type AnalyticsService struct {
	search *SearchService
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(search *SearchService) *AnalyticsService {
	return &AnalyticsService{search: search}
}

// Market summarises one page of search results for the filter.
func (s *AnalyticsService) Market(ctx context.Context, filter domain.FilterState) (*domain.MarketSnapshot, error) {
	page, err := s.search.Search(ctx, "", filter)
	if err != nil {
		return nil, err
	}

	areaType := filter.AreaType
	if areaType == "" {
		areaType = domain.AreaTotal
	}

	return &domain.MarketSnapshot{
		AreaType:                 areaType,
		Summary:                  valuation.Aggregate(page.Records, areaType),
		PriceDistribution:        valuation.BucketDistribution(page.Records, valuation.ByPrice, valuation.DefaultBuckets),
		PricePerAreaDistribution: valuation.BucketDistribution(page.Records, valuation.ByPricePerArea(areaType), valuation.DefaultBuckets),
		TotalListings:            page.Total,
	}, nil
}
