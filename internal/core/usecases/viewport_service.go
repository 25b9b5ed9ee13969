package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/viewport"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// ViewportService positions the map for selected regions or a drawn shape.
type ViewportService struct {
	regions ports.RegionRepository
	cache   ports.CacheService
}

// NewViewportService creates a new ViewportService.
func NewViewportService(regions ports.RegionRepository, cache ports.CacheService) *ViewportService {
	return &ViewportService{regions: regions, cache: cache}
}

// RegionViewport fits the map to the selected neighborhoods and cities. With
// nothing selected it fits every known city.
func (s *ViewportService) RegionViewport(ctx context.Context, cityIDs, neighborhoodIDs []string) (domain.BoundsResult, error) {
	cacheKey := regionCacheKey(cityIDs, neighborhoodIDs)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res domain.BoundsResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("viewport").Inc()
				return res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("viewport").Inc()
	}

	var neighborhoods, cities []domain.Region
	g, gctx := errgroup.WithContext(ctx)
	if len(neighborhoodIDs) > 0 {
		g.Go(func() error {
			var err error
			neighborhoods, err = s.regions.GetByIDs(gctx, domain.RegionNeighborhood, neighborhoodIDs)
			if err != nil {
				return fmt.Errorf("load neighborhoods: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if len(cityIDs) > 0 {
			cities, err = s.regions.GetByIDs(gctx, domain.RegionCity, cityIDs)
		} else if len(neighborhoodIDs) == 0 {
			cities, err = s.regions.AllCities(gctx)
		}
		if err != nil {
			return fmt.Errorf("load cities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.BoundsResult{}, err
	}

	res := viewport.RegionBounds(neighborhoods, cities)
	if !res.Empty() {
		regime := viewport.Classify(len(neighborhoods), len(cities))
		metrics.ViewportsComputed.WithLabelValues(string(regime)).Inc()
	}

	// Region boundaries rarely change; cache for an hour. Empty results are
	// not cached so regions imported later show up immediately.
	if s.cache != nil && !res.Empty() {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return res, nil
}

// ForgetCities drops the cached viewports a region import invalidates: the
// all-cities fallback and each imported city on its own.
func (s *ViewportService) ForgetCities(ctx context.Context, cityIDs []string) error {
	if s.cache == nil {
		return nil
	}
	keys := []string{regionCacheKey(nil, nil)}
	for _, id := range cityIDs {
		keys = append(keys, regionCacheKey([]string{id}, nil))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("forget %s: %w", key, err)
		}
	}
	return nil
}

// DrawingViewport fits the map to a drawn shape. The result is nil when the
// shape has no extent.
func (s *ViewportService) DrawingViewport(shape domain.DrawnGeometry) *domain.BoundsResult {
	res := viewport.DrawingBounds(shape)
	if res != nil {
		metrics.ViewportsComputed.WithLabelValues(string(shape.Kind())).Inc()
	}
	return res
}

// ListRegions returns regions of a kind without their rings.
func (s *ViewportService) ListRegions(ctx context.Context, kind domain.RegionKind, cityID string) ([]domain.Region, error) {
	return s.regions.ListByKind(ctx, kind, cityID)
}

func regionCacheKey(cityIDs, neighborhoodIDs []string) string {
	c := slices.Clone(cityIDs)
	n := slices.Clone(neighborhoodIDs)
	slices.Sort(c)
	slices.Sort(n)
	return fmt.Sprintf("viewport:regions:c=%s:n=%s", strings.Join(c, ","), strings.Join(n, ","))
}
