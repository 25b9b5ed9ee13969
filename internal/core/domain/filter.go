package domain

import "slices"

// DefaultPageSize is the page size used when none was chosen.
const DefaultPageSize = 24

// FilterState is the single authoritative search filter of a session.
// Values are never mutated in place; use ApplyPartialUpdate.
type FilterState struct {
	BusinessModel   BusinessModel `json:"business_model"`
	UnitTypes       []string      `json:"unit_types,omitempty"`
	PriceMin        float64       `json:"price_min,omitempty"`
	PriceMax        float64       `json:"price_max,omitempty"`
	AreaMin         float64       `json:"area_min,omitempty"`
	AreaMax         float64       `json:"area_max,omitempty"`
	AreaType        AreaType      `json:"area_type"`
	Bedrooms        []int         `json:"bedrooms,omitempty"`
	CityIDs         []string      `json:"city_ids,omitempty"`
	NeighborhoodIDs []string      `json:"neighborhood_ids,omitempty"`
	Geometries      []Shape       `json:"geometries"`
	Sort            string        `json:"sort,omitempty"`
	Page            int           `json:"page"`
	PageSize        int           `json:"page_size"`
}

// FilterPatch is a partial update. A nil field means "keep the previous
// value"; a non-nil field overwrites it, including with an empty value.
type FilterPatch struct {
	BusinessModel   *BusinessModel `json:"business_model,omitempty"`
	UnitTypes       *[]string      `json:"unit_types,omitempty"`
	PriceMin        *float64       `json:"price_min,omitempty"`
	PriceMax        *float64       `json:"price_max,omitempty"`
	AreaMin         *float64       `json:"area_min,omitempty"`
	AreaMax         *float64       `json:"area_max,omitempty"`
	AreaType        *AreaType      `json:"area_type,omitempty"`
	Bedrooms        *[]int         `json:"bedrooms,omitempty"`
	CityIDs         *[]string      `json:"city_ids,omitempty"`
	NeighborhoodIDs *[]string      `json:"neighborhood_ids,omitempty"`
	Geometries      *[]Shape       `json:"geometries,omitempty"`
	Sort            *string        `json:"sort,omitempty"`
	Page            *int           `json:"page,omitempty"`
	PageSize        *int           `json:"page_size,omitempty"`
	ClearFilters    bool           `json:"clear_filters,omitempty"`
}

// DefaultFilterState is the state of a fresh search session.
func DefaultFilterState() FilterState {
	return FilterState{
		BusinessModel: BusinessSale,
		AreaType:      AreaTotal,
		Geometries:    []Shape{},
		Page:          1,
		PageSize:      DefaultPageSize,
	}
}

// filterRule is one row of the precedence table: apply copies the patch value
// into the state when present and reports whether the value changed.
type filterRule struct {
	field      string
	resetsPage bool
	apply      func(s *FilterState, p FilterPatch) bool
}

var filterRules = []filterRule{
	{"business_model", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.BusinessModel, p.BusinessModel) }},
	{"unit_types", true, func(s *FilterState, p FilterPatch) bool { return setSlice(&s.UnitTypes, p.UnitTypes) }},
	{"price_min", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.PriceMin, p.PriceMin) }},
	{"price_max", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.PriceMax, p.PriceMax) }},
	{"area_min", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.AreaMin, p.AreaMin) }},
	{"area_max", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.AreaMax, p.AreaMax) }},
	{"area_type", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.AreaType, p.AreaType) }},
	{"bedrooms", true, func(s *FilterState, p FilterPatch) bool { return setSlice(&s.Bedrooms, p.Bedrooms) }},
	{"city_ids", true, func(s *FilterState, p FilterPatch) bool { return setSlice(&s.CityIDs, p.CityIDs) }},
	{"neighborhood_ids", true, func(s *FilterState, p FilterPatch) bool { return setSlice(&s.NeighborhoodIDs, p.NeighborhoodIDs) }},
	{"geometries", true, func(s *FilterState, p FilterPatch) bool {
		// replaced wholesale, never merged
		if p.Geometries == nil {
			return false
		}
		s.Geometries = slices.Clone(*p.Geometries)
		if s.Geometries == nil {
			s.Geometries = []Shape{}
		}
		return true
	}},
	{"sort", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.Sort, p.Sort) }},
	{"page_size", true, func(s *FilterState, p FilterPatch) bool { return setValue(&s.PageSize, p.PageSize) }},
	{"page", false, func(s *FilterState, p FilterPatch) bool { return setValue(&s.Page, p.Page) }},
}

// ApplyPartialUpdate returns state with patch applied. The input state is not
// modified.
//
// Precedence: patch value if present, else the previous value. ClearFilters
// first resets everything except business model, area type, sort and page
// size to defaults (drawings become an empty list). Any change to a field
// other than page moves the result back to page 1 unless the patch also
// sets the page.
func ApplyPartialUpdate(state FilterState, patch FilterPatch) FilterState {
	next := state.clone()

	resetPage := false
	if patch.ClearFilters {
		cleared := DefaultFilterState()
		cleared.BusinessModel = next.BusinessModel
		cleared.AreaType = next.AreaType
		cleared.Sort = next.Sort
		cleared.PageSize = next.PageSize
		next = cleared
		resetPage = true
	}

	for _, r := range filterRules {
		if r.apply(&next, patch) && r.resetsPage {
			resetPage = true
		}
	}

	if resetPage && patch.Page == nil {
		next.Page = 1
	}
	next.normalize()
	return next
}

func (s FilterState) clone() FilterState {
	s.UnitTypes = slices.Clone(s.UnitTypes)
	s.Bedrooms = slices.Clone(s.Bedrooms)
	s.CityIDs = slices.Clone(s.CityIDs)
	s.NeighborhoodIDs = slices.Clone(s.NeighborhoodIDs)
	s.Geometries = slices.Clone(s.Geometries)
	return s
}

func (s *FilterState) normalize() {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.AreaType == "" {
		s.AreaType = AreaTotal
	}
	if s.Geometries == nil {
		s.Geometries = []Shape{}
	}
}

func setValue[T comparable](dst *T, v *T) bool {
	if v == nil {
		return false
	}
	changed := *dst != *v
	*dst = *v
	return changed
}

func setSlice[T comparable](dst *[]T, v *[]T) bool {
	if v == nil {
		return false
	}
	changed := !slices.Equal(*dst, *v)
	*dst = slices.Clone(*v)
	return changed
}
