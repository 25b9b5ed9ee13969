package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Praça da Sé to Avenida Paulista (MASP), roughly 2.5 km.
	d := Haversine(-23.5503, -46.6339, -23.5614, -46.6559)
	if d < 2300 || d > 2700 {
		t.Errorf("expected ~2.5km, got %.0fm", d)
	}
	if Haversine(10, 10, 10, 10) != 0 {
		t.Error("expected zero distance for identical points")
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLng, maxLat, maxLng := BoundingBox(0, 0, 111000)
	if math.Abs(minLat+1) > 1e-9 || math.Abs(maxLat-1) > 1e-9 {
		t.Errorf("expected ±1° latitude at the equator, got %f..%f", minLat, maxLat)
	}
	if math.Abs(minLng+1) > 1e-9 || math.Abs(maxLng-1) > 1e-9 {
		t.Errorf("expected ±1° longitude at the equator, got %f..%f", minLng, maxLng)
	}

	_, minLng, _, maxLng = BoundingBox(60, 0, 111000)
	if math.Abs((maxLng-minLng)-4) > 1e-6 {
		t.Errorf("expected 4° longitude span at 60°, got %f", maxLng-minLng)
	}
}

func TestPointInRing(t *testing.T) {
	square := [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	cases := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"center", 5, 5, true},
		{"outside east", 5, 15, false},
		{"outside south", -1, 5, false},
		{"near corner", 9.9, 9.9, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PointInRing(tc.lat, tc.lng, square); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if PointInRing(0, 0, square[:2]) {
		t.Error("degenerate ring must not contain points")
	}
}
