package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/usecases"
)

func TestViewportService_RegionViewport_Neighborhood(t *testing.T) {
	repo := &mockRegionRepo{
		getByIDsFn: func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
			if kind != domain.RegionNeighborhood {
				t.Errorf("unexpected kind %s", kind)
			}
			return []domain.Region{square("n1", kind, -23.56, -46.66, 0.03)}, nil
		},
		allCitiesFn: func(ctx context.Context) ([]domain.Region, error) {
			t.Error("all cities should not be loaded when neighborhoods are selected")
			return nil, nil
		},
	}

	svc := usecases.NewViewportService(repo, nil)
	res, err := svc.RegionViewport(context.Background(), nil, []string{"n1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Empty() {
		t.Fatal("expected a viewport")
	}
	if *res.Zoom != 13 {
		t.Errorf("expected zoom 13, got %d", *res.Zoom)
	}
}

func TestViewportService_RegionViewport_FallsBackToAllCities(t *testing.T) {
	called := false
	repo := &mockRegionRepo{
		allCitiesFn: func(ctx context.Context) ([]domain.Region, error) {
			called = true
			return []domain.Region{square("sp", domain.RegionCity, -23.7, -46.8, 0.5)}, nil
		},
	}

	svc := usecases.NewViewportService(repo, nil)
	res, err := svc.RegionViewport(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected all cities to be loaded")
	}
	if *res.Zoom != 10 {
		t.Errorf("expected zoom 10, got %d", *res.Zoom)
	}
}

func TestViewportService_RegionViewport_NoGeometry(t *testing.T) {
	svc := usecases.NewViewportService(&mockRegionRepo{}, nil)
	res, err := svc.RegionViewport(context.Background(), []string{"ghost"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty viewport, got %+v", res)
	}
}

func TestViewportService_RegionViewport_RepoError(t *testing.T) {
	repo := &mockRegionRepo{
		getByIDsFn: func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
			return nil, errors.New("db down")
		},
	}
	svc := usecases.NewViewportService(repo, nil)
	if _, err := svc.RegionViewport(context.Background(), []string{"c1"}, []string{"n1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestViewportService_RegionViewport_Cached(t *testing.T) {
	calls := 0
	repo := &mockRegionRepo{
		getByIDsFn: func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
			calls++
			return []domain.Region{square("c1", kind, -23.7, -46.8, 0.3)}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewViewportService(repo, cache)

	first, err := svc.RegionViewport(context.Background(), []string{"b", "a"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// same selection in a different order hits the cache
	second, err := svc.RegionViewport(context.Background(), []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 repo call, got %d", calls)
	}
	if *first.Zoom != *second.Zoom || *first.Center != *second.Center {
		t.Errorf("cached viewport differs: %+v vs %+v", first, second)
	}
}

func TestViewportService_RegionViewport_EmptyNotCached(t *testing.T) {
	calls := 0
	imported := false
	repo := &mockRegionRepo{
		getByIDsFn: func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
			calls++
			if !imported {
				return nil, nil
			}
			return []domain.Region{square("c9", kind, -23.7, -46.8, 0.3)}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewViewportService(repo, cache)

	res, err := svc.RegionViewport(context.Background(), []string{"c9"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Empty() {
		t.Fatalf("expected empty viewport before import, got %+v", res)
	}
	if len(cache.data) != 0 {
		t.Errorf("empty viewport should not be cached, got %d entries", len(cache.data))
	}

	imported = true
	res, err = svc.RegionViewport(context.Background(), []string{"c9"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Empty() {
		t.Error("expected the imported city to be fitted")
	}
	if calls != 2 {
		t.Errorf("expected 2 repo calls, got %d", calls)
	}
}

func TestViewportService_ForgetCities(t *testing.T) {
	calls := 0
	repo := &mockRegionRepo{
		getByIDsFn: func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
			calls++
			return []domain.Region{square(ids[0], kind, -23.7, -46.8, 0.3)}, nil
		},
		allCitiesFn: func(ctx context.Context) ([]domain.Region, error) {
			calls++
			return []domain.Region{square("c1", domain.RegionCity, -23.7, -46.8, 0.3)}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewViewportService(repo, cache)
	ctx := context.Background()

	for _, ids := range [][]string{nil, {"c1"}, {"c2"}} {
		if _, err := svc.RegionViewport(ctx, ids, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(cache.data) != 3 {
		t.Fatalf("expected 3 cached viewports, got %d", len(cache.data))
	}

	if err := svc.ForgetCities(ctx, []string{"c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.data) != 1 {
		t.Errorf("expected only the c2 viewport to stay cached, got %d", len(cache.data))
	}

	calls = 0
	if _, err := svc.RegionViewport(ctx, []string{"c1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RegionViewport(ctx, []string{"c2"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected only c1 to be reloaded, got %d repo calls", calls)
	}
}

func TestViewportService_DrawingViewport(t *testing.T) {
	svc := usecases.NewViewportService(&mockRegionRepo{}, nil)

	res := svc.DrawingViewport(domain.Circle{Center: domain.GeoPoint{Lat: -23.55, Lng: -46.63}, RadiusMeters: 1000})
	if res == nil {
		t.Fatal("expected viewport for circle")
	}
	if res.Center.Lat != -23.55 || res.Center.Lng != -46.63 {
		t.Errorf("expected circle center, got %+v", *res.Center)
	}

	if res := svc.DrawingViewport(domain.Polygon{}); res != nil {
		t.Errorf("expected nil for empty polygon, got %+v", res)
	}
}
