package domain_test

import (
	"testing"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func TestApplyPartialUpdate_KeepsUnpatchedFields(t *testing.T) {
	state := domain.DefaultFilterState()
	state.PriceMin = 100000
	state.CityIDs = []string{"sp"}

	next := domain.ApplyPartialUpdate(state, domain.FilterPatch{PriceMax: ptr(500000.0)})

	if next.PriceMin != 100000 {
		t.Errorf("expected price_min preserved, got %f", next.PriceMin)
	}
	if next.PriceMax != 500000 {
		t.Errorf("expected price_max 500000, got %f", next.PriceMax)
	}
	if len(next.CityIDs) != 1 || next.CityIDs[0] != "sp" {
		t.Errorf("expected city ids preserved, got %v", next.CityIDs)
	}
}

func TestApplyPartialUpdate_DoesNotMutateInput(t *testing.T) {
	state := domain.DefaultFilterState()
	state.CityIDs = []string{"sp", "rj"}

	next := domain.ApplyPartialUpdate(state, domain.FilterPatch{Sort: ptr("price_asc")})
	next.CityIDs[0] = "bh"

	if state.CityIDs[0] != "sp" {
		t.Errorf("input state was mutated: %v", state.CityIDs)
	}
}

func TestApplyPartialUpdate_EmptySliceOverwrites(t *testing.T) {
	state := domain.DefaultFilterState()
	state.NeighborhoodIDs = []string{"n1", "n2"}

	next := domain.ApplyPartialUpdate(state, domain.FilterPatch{NeighborhoodIDs: ptr([]string{})})
	if len(next.NeighborhoodIDs) != 0 {
		t.Errorf("expected neighborhoods cleared, got %v", next.NeighborhoodIDs)
	}
}

func TestApplyPartialUpdate_PageReset(t *testing.T) {
	state := domain.DefaultFilterState()
	state.Page = 4

	t.Run("filter change resets page", func(t *testing.T) {
		next := domain.ApplyPartialUpdate(state, domain.FilterPatch{Bedrooms: ptr([]int{2, 3})})
		if next.Page != 1 {
			t.Errorf("expected page 1, got %d", next.Page)
		}
	})

	t.Run("unchanged value keeps page", func(t *testing.T) {
		next := domain.ApplyPartialUpdate(state, domain.FilterPatch{BusinessModel: ptr(domain.BusinessSale)})
		if next.Page != 4 {
			t.Errorf("expected page 4, got %d", next.Page)
		}
	})

	t.Run("explicit page wins", func(t *testing.T) {
		next := domain.ApplyPartialUpdate(state, domain.FilterPatch{Sort: ptr("area_desc"), Page: ptr(2)})
		if next.Page != 2 {
			t.Errorf("expected page 2, got %d", next.Page)
		}
	})

	t.Run("page only", func(t *testing.T) {
		next := domain.ApplyPartialUpdate(state, domain.FilterPatch{Page: ptr(7)})
		if next.Page != 7 {
			t.Errorf("expected page 7, got %d", next.Page)
		}
	})
}

func TestApplyPartialUpdate_GeometriesReplaced(t *testing.T) {
	state := domain.DefaultFilterState()
	state.Geometries = []domain.Shape{{Geometry: domain.Circle{RadiusMeters: 100}}}

	next := domain.ApplyPartialUpdate(state, domain.FilterPatch{
		Geometries: ptr([]domain.Shape{{Geometry: domain.Polygon{}}}),
	})
	if len(next.Geometries) != 1 {
		t.Fatalf("expected 1 geometry, got %d", len(next.Geometries))
	}
	if next.Geometries[0].Geometry.Kind() != domain.KindPolygon {
		t.Errorf("expected polygon, got %s", next.Geometries[0].Geometry.Kind())
	}
}

func TestApplyPartialUpdate_ClearFilters(t *testing.T) {
	state := domain.DefaultFilterState()
	state.BusinessModel = domain.BusinessRental
	state.PriceMin = 1000
	state.CityIDs = []string{"sp"}
	state.Geometries = []domain.Shape{{Geometry: domain.Circle{RadiusMeters: 100}}}
	state.Page = 3

	next := domain.ApplyPartialUpdate(state, domain.FilterPatch{ClearFilters: true})

	if next.Geometries == nil || len(next.Geometries) != 0 {
		t.Errorf("expected empty geometry list, got %v", next.Geometries)
	}
	if next.PriceMin != 0 || len(next.CityIDs) != 0 {
		t.Errorf("expected filters cleared, got %+v", next)
	}
	if next.BusinessModel != domain.BusinessRental {
		t.Errorf("expected business model preserved, got %s", next.BusinessModel)
	}
	if next.Page != 1 {
		t.Errorf("expected page 1, got %d", next.Page)
	}
}

func TestSelection_Toggle(t *testing.T) {
	s := &domain.Selection{}
	s.Toggle("a", "b")
	s.Toggle("a")
	if s.Has("a") || !s.Has("b") {
		t.Errorf("unexpected selection %v", s.IDs)
	}

	s.Add("b", "c")
	if len(s.IDs) != 2 {
		t.Errorf("expected 2 ids, got %v", s.IDs)
	}
	s.Remove("b")
	if len(s.IDs) != 1 || s.IDs[0] != "c" {
		t.Errorf("expected [c], got %v", s.IDs)
	}
}
