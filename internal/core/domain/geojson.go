package domain

import (
	"strconv"
)

// GeoJSONGeometry is the filter geometry sent to the search API.
//
// Circles use the API's own extension {"type":"circle","coordinates":[[lng,lat]],"radius":"500"},
// which is not standard GeoJSON and must be sent as is.
type GeoJSONGeometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
	Radius      string `json:"radius,omitempty"`
}

// ToLngLat converts a ring to GeoJSON [lng, lat] pairs.
func ToLngLat(ring GeoRing) [][]float64 {
	out := make([][]float64, len(ring))
	for i, p := range ring {
		out[i] = []float64{p.Lng, p.Lat}
	}
	return out
}

// RingFromLngLat converts GeoJSON [lng, lat] pairs to a ring. Pairs with
// fewer than two values are skipped.
func RingFromLngLat(coords [][]float64) GeoRing {
	ring := make(GeoRing, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		ring = append(ring, GeoPoint{Lat: c[1], Lng: c[0]})
	}
	return ring
}

// ToGeoJSON converts a drawn shape into the search API's filter geometry.
// Polygon rings are closed when their first and last coordinates differ.
func ToGeoJSON(shape DrawnGeometry) GeoJSONGeometry {
	switch g := shape.(type) {
	case Polygon:
		rings := make([][][]float64, 0, len(g.Rings))
		for _, ring := range g.Rings {
			coords := ToLngLat(ring)
			if len(coords) > 0 {
				first, last := coords[0], coords[len(coords)-1]
				if first[0] != last[0] || first[1] != last[1] {
					coords = append(coords, []float64{first[0], first[1]})
				}
			}
			rings = append(rings, coords)
		}
		return GeoJSONGeometry{Type: "Polygon", Coordinates: rings}
	case Circle:
		return GeoJSONGeometry{
			Type:        "circle",
			Coordinates: [][]float64{{g.Center.Lng, g.Center.Lat}},
			Radius:      strconv.FormatFloat(g.RadiusMeters, 'f', -1, 64),
		}
	default:
		return GeoJSONGeometry{}
	}
}
