package domain

import (
	"encoding/json"
	"fmt"
)

// GeoPoint represents a geographic coordinate (WGS 84) in map-widget order.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoRing is an ordered polygon boundary.
type GeoRing []GeoPoint

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// BoundsOf returns the bounding box of points. ok is false when points is empty.
func BoundsOf(points []GeoPoint) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinLat: points[0].Lat, MaxLat: points[0].Lat, MinLng: points[0].Lng, MaxLng: points[0].Lng}
	for _, p := range points[1:] {
		b.MinLat = min(b.MinLat, p.Lat)
		b.MaxLat = max(b.MaxLat, p.Lat)
		b.MinLng = min(b.MinLng, p.Lng)
		b.MaxLng = max(b.MaxLng, p.Lng)
	}
	return b, true
}

// Center is the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// MaxDiff is the larger of the box's latitude and longitude spans, in degrees.
func (b Bounds) MaxDiff() float64 {
	return max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
}

// BoundsResult is a map viewport. Both fields are nil when no geometry was available.
type BoundsResult struct {
	Center *GeoPoint `json:"center"`
	Zoom   *int      `json:"zoom"`
}

// NewBoundsResult builds a non-empty viewport.
func NewBoundsResult(center GeoPoint, zoom int) BoundsResult {
	return BoundsResult{Center: &center, Zoom: &zoom}
}

// Empty reports whether the viewport carries no position.
func (r BoundsResult) Empty() bool {
	return r.Center == nil || r.Zoom == nil
}

// RegionKind distinguishes neighborhoods from cities.
type RegionKind string

const (
	RegionNeighborhood RegionKind = "neighborhood"
	RegionCity         RegionKind = "city"
)

// Region is a neighborhood or city boundary.
type Region struct {
	ID     string     `json:"id"`
	Kind   RegionKind `json:"kind"`
	Name   string     `json:"name"`
	CityID string     `json:"city_id,omitempty"`
	Rings  []GeoRing  `json:"rings,omitempty"`
}

// Vertices flattens every ring of every region.
func Vertices(regions []Region) []GeoPoint {
	var n int
	for _, r := range regions {
		for _, ring := range r.Rings {
			n += len(ring)
		}
	}
	out := make([]GeoPoint, 0, n)
	for _, r := range regions {
		for _, ring := range r.Rings {
			out = append(out, ring...)
		}
	}
	return out
}

// GeometryKind tags a drawn shape.
type GeometryKind string

const (
	KindPolygon GeometryKind = "polygon"
	KindCircle  GeometryKind = "circle"
)

// DrawnGeometry is a shape drawn on the map. The set of implementations is
// closed: Polygon and Circle.
type DrawnGeometry interface {
	Kind() GeometryKind
	drawn()
}

// Polygon is a free-hand or shape-tool polygon.
type Polygon struct {
	Rings []GeoRing `json:"rings"`
}

// Circle is a circle drawn around a center point.
type Circle struct {
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
}

func (Polygon) Kind() GeometryKind { return KindPolygon }
func (Circle) Kind() GeometryKind  { return KindCircle }
func (Polygon) drawn()             {}
func (Circle) drawn()              {}

// Shape is the JSON envelope for a DrawnGeometry:
//
//	{"type":"polygon","rings":[[{"lat":..,"lng":..}]]}
//	{"type":"circle","center":{"lat":..,"lng":..},"radius_meters":500}
type Shape struct {
	Geometry DrawnGeometry
}

type shapeWire struct {
	Type         GeometryKind `json:"type"`
	Rings        []GeoRing    `json:"rings,omitempty"`
	Center       *GeoPoint    `json:"center,omitempty"`
	RadiusMeters float64      `json:"radius_meters,omitempty"`
}

func (s Shape) MarshalJSON() ([]byte, error) {
	switch g := s.Geometry.(type) {
	case Polygon:
		return json.Marshal(shapeWire{Type: KindPolygon, Rings: g.Rings})
	case Circle:
		return json.Marshal(shapeWire{Type: KindCircle, Center: &g.Center, RadiusMeters: g.RadiusMeters})
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidShape, g)
	}
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var w shapeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case KindPolygon:
		s.Geometry = Polygon{Rings: w.Rings}
	case KindCircle:
		if w.Center == nil {
			return fmt.Errorf("%w: circle without center", ErrInvalidShape)
		}
		s.Geometry = Circle{Center: *w.Center, RadiusMeters: w.RadiusMeters}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidShape, w.Type)
	}
	return nil
}
