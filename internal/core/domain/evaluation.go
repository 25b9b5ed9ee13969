package domain

import (
	"slices"
	"time"
)

// Selection is the set of record ids a user chose for evaluation. Version
// counts saves; a save based on an older version is rejected.
type Selection struct {
	SessionID string    `json:"session_id"`
	IDs       []string  `json:"ids"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	return slices.Contains(s.IDs, id)
}

// Toggle flips membership of each id.
func (s *Selection) Toggle(ids ...string) {
	for _, id := range ids {
		if i := slices.Index(s.IDs, id); i >= 0 {
			s.IDs = slices.Delete(s.IDs, i, i+1)
		} else {
			s.IDs = append(s.IDs, id)
		}
	}
}

// Add selects ids that are not yet selected, keeping insertion order.
func (s *Selection) Add(ids ...string) {
	for _, id := range ids {
		if !s.Has(id) {
			s.IDs = append(s.IDs, id)
		}
	}
}

// Remove deselects ids.
func (s *Selection) Remove(ids ...string) {
	s.IDs = slices.DeleteFunc(s.IDs, func(id string) bool {
		return slices.Contains(ids, id)
	})
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary holds portfolio-level aggregates of selected records.
// Zero means "no data" for every average and range.
type Summary struct {
	Count               int   `json:"count"`
	AveragePrice        int64 `json:"averagePrice"`
	AveragePricePerArea int64 `json:"averagePricePerArea"`
	AverageUsableArea   int64 `json:"averageUsableArea"`
	AverageTotalArea    int64 `json:"averageTotalArea"`
	PriceRange          Range `json:"priceRange"`
	AreaRange           Range `json:"areaRange"`
}

// Bucket is one bar of a distribution chart.
type Bucket struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// PropertyMetrics are the per-property derived fields shown in the
// evaluation drawer and the exported report.
type PropertyMetrics struct {
	ID           string  `json:"id"`
	Address      string  `json:"address"`
	Price        float64 `json:"price"`
	UsableArea   float64 `json:"usableArea"`
	TotalArea    float64 `json:"totalArea"`
	PricePerArea float64 `json:"pricePerArea"`
	Bedrooms     int     `json:"bedrooms"`
	Parking      int     `json:"parkingSpaces"`
}

// Report is the plain-data payload handed to the spreadsheet and PDF generators.
type Report struct {
	SessionID         string            `json:"session_id"`
	AreaType          AreaType          `json:"area_type"`
	GeneratedAt       time.Time         `json:"generated_at"`
	Summary           Summary           `json:"summary"`
	Rows              []PropertyMetrics `json:"rows"`
	PriceDistribution []Bucket          `json:"price_distribution"`
	Missing           []string          `json:"missing,omitempty"`
}

// MarketSnapshot is the dashboard view over a page of search results.
type MarketSnapshot struct {
	AreaType                 AreaType `json:"area_type"`
	Summary                  Summary  `json:"summary"`
	PriceDistribution        []Bucket `json:"price_distribution"`
	PricePerAreaDistribution []Bucket `json:"price_per_area_distribution"`
	TotalListings            int      `json:"total_listings"`
}

// ReportRequest asks for an asynchronous report of a session.
type ReportRequest struct {
	SessionID   string    `json:"session_id"`
	AreaType    AreaType  `json:"area_type"`
	RequestedAt time.Time `json:"requested_at"`
}
