package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// Manifest lists the boundary files to import.
type Manifest struct {
	Source string      `json:"source"`
	Files  []FileEntry `json:"files"`
}

// FileEntry is one GeoJSON FeatureCollection of a single region kind.
// Exactly one of Path and URL is set.
type FileEntry struct {
	Name string            `json:"name"`
	Kind domain.RegionKind `json:"kind"`
	Path string            `json:"path,omitempty"`
	URL  string            `json:"url,omitempty"`
}

func (e FileEntry) validate() error {
	switch e.Kind {
	case domain.RegionCity, domain.RegionNeighborhood:
	default:
		return fmt.Errorf("%s: unknown kind %q", e.Name, e.Kind)
	}
	if (e.Path == "") == (e.URL == "") {
		return fmt.Errorf("%s: exactly one of path and url is required", e.Name)
	}
	return nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		ID     json.RawMessage `json:"id"`
		Name   string          `json:"name"`
		CityID json.RawMessage `json:"city_id"`
	} `json:"properties"`
	Geometry *struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// parseRegions decodes a FeatureCollection into regions of kind. Features
// without an id or with an unsupported geometry are skipped and counted.
func parseRegions(data []byte, kind domain.RegionKind) ([]domain.Region, int, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, 0, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, 0, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	regions := make([]domain.Region, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		id := propString(f.Properties.ID)
		if id == "" || f.Geometry == nil {
			skipped++
			continue
		}
		rings, err := decodeRings(f.Geometry.Type, f.Geometry.Coordinates)
		if err != nil || len(rings) == 0 {
			skipped++
			continue
		}
		region := domain.Region{
			ID:    id,
			Kind:  kind,
			Name:  strings.TrimSpace(f.Properties.Name),
			Rings: rings,
		}
		if kind == domain.RegionNeighborhood {
			region.CityID = propString(f.Properties.CityID)
		}
		regions = append(regions, region)
	}
	return regions, skipped, nil
}

// decodeRings keeps outer rings only; holes do not affect viewport bounds.
func decodeRings(geomType string, raw json.RawMessage) ([]domain.GeoRing, error) {
	switch geomType {
	case "Polygon":
		var poly [][][]float64
		if err := json.Unmarshal(raw, &poly); err != nil {
			return nil, err
		}
		if len(poly) == 0 {
			return nil, nil
		}
		return []domain.GeoRing{domain.RingFromLngLat(poly[0])}, nil
	case "MultiPolygon":
		var multi [][][][]float64
		if err := json.Unmarshal(raw, &multi); err != nil {
			return nil, err
		}
		rings := make([]domain.GeoRing, 0, len(multi))
		for _, poly := range multi {
			if len(poly) > 0 {
				rings = append(rings, domain.RingFromLngLat(poly[0]))
			}
		}
		return rings, nil
	}
	return nil, fmt.Errorf("unsupported geometry %q", geomType)
}

// propString accepts string or numeric ids.
func propString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
