// Package viewport turns regions and drawn shapes into map viewports.
package viewport

import (
	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/pkg/geospatial"
)

// RegionBounds computes the viewport that fits every vertex of the given
// neighborhoods and cities. It returns the empty result when there are no
// vertices.
func RegionBounds(neighborhoods, cities []domain.Region) domain.BoundsResult {
	points := domain.Vertices(neighborhoods)
	points = append(points, domain.Vertices(cities)...)

	b, ok := domain.BoundsOf(points)
	if !ok {
		return domain.BoundsResult{}
	}

	regime := Classify(len(neighborhoods), len(cities))
	return domain.NewBoundsResult(b.Center(), RegionZoom(regime, b.MaxDiff()))
}

// DrawingBounds computes the zoom-to-fit viewport of a single drawn shape.
// It returns nil for a polygon without vertices or a circle without radius.
func DrawingBounds(shape domain.DrawnGeometry) *domain.BoundsResult {
	switch g := shape.(type) {
	case domain.Polygon:
		if len(g.Rings) == 0 || len(g.Rings[0]) == 0 {
			return nil
		}
		b, _ := domain.BoundsOf(g.Rings[0])
		res := domain.NewBoundsResult(b.Center(), DrawingZoom(b.MaxDiff()))
		return &res
	case domain.Circle:
		if g.RadiusMeters <= 0 {
			return nil
		}
		minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(g.Center.Lat, g.Center.Lng, g.RadiusMeters)
		b := domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}
		// the circle's own center, not the box midpoint
		res := domain.NewBoundsResult(g.Center, DrawingZoom(b.MaxDiff()))
		return &res
	default:
		return nil
	}
}

// Contains reports whether p lies inside the drawn shape. Only the outer
// ring of a polygon is considered.
func Contains(shape domain.DrawnGeometry, p domain.GeoPoint) bool {
	switch g := shape.(type) {
	case domain.Polygon:
		if len(g.Rings) == 0 {
			return false
		}
		ring := make([][2]float64, len(g.Rings[0]))
		for i, v := range g.Rings[0] {
			ring[i] = [2]float64{v.Lat, v.Lng}
		}
		return geospatial.PointInRing(p.Lat, p.Lng, ring)
	case domain.Circle:
		if g.RadiusMeters <= 0 {
			return false
		}
		return geospatial.Haversine(g.Center.Lat, g.Center.Lng, p.Lat, p.Lng) <= g.RadiusMeters
	default:
		return false
	}
}
