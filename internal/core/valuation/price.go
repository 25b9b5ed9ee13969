// Package valuation derives per-property and portfolio metrics from search
// records. Every function is total: missing or non-positive data resolves to 0.
package valuation

import "github.com/samirrijal/estatemap/internal/core/domain"

// TotalPrice returns the first positive SALE price, else the first positive
// price of any business model, else 0.
func TotalPrice(r domain.PropertyRecord) float64 {
	for _, p := range r.Prices {
		if p.BusinessModel == domain.BusinessSale && p.Total.Value > 0 {
			return p.Total.Value
		}
	}
	for _, p := range r.Prices {
		if p.Total.Value > 0 {
			return p.Total.Value
		}
	}
	return 0
}

// PricePerArea is TotalPrice divided by AreaValue when both are positive, else 0.
func PricePerArea(r domain.PropertyRecord, areaType domain.AreaType) float64 {
	price := TotalPrice(r)
	area := AreaValue(r, areaType)
	if price <= 0 || area <= 0 {
		return 0
	}
	return price / area
}

// Derive computes the per-property fields shown in the evaluation drawer.
func Derive(r domain.PropertyRecord, areaType domain.AreaType) domain.PropertyMetrics {
	return domain.PropertyMetrics{
		ID:           r.ID,
		Address:      formatAddress(r.Address),
		Price:        TotalPrice(r),
		UsableArea:   AreaValue(r, domain.AreaUsable),
		TotalArea:    AreaValue(r, domain.AreaTotal),
		PricePerArea: PricePerArea(r, areaType),
		Bedrooms:     r.Bedrooms,
		Parking:      r.ParkingSpaces,
	}
}

func formatAddress(a domain.Address) string {
	out := a.Street
	if a.Number != "" {
		out += ", " + a.Number
	}
	for _, part := range []string{a.Neighborhood, a.City} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " - "
		}
		out += part
	}
	return out
}
