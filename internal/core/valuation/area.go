package valuation

import "github.com/samirrijal/estatemap/internal/core/domain"

// areaFallbacks lists, per requested area type, the source tags tried in order.
// The requested tag itself always comes first.
var areaFallbacks = map[domain.AreaType][]domain.AreaType{
	domain.AreaTotal:  {domain.AreaTotal, domain.AreaLand},
	domain.AreaUsable: {domain.AreaUsable, domain.AreaPrivate, domain.AreaBuilt},
	domain.AreaBuilt:  {domain.AreaBuilt, domain.AreaUsable, domain.AreaPrivate},
}

// AreaValue resolves the area of the requested type.
//
// Tags are tried along the fallback chain; the first positive match wins.
// TOTAL then falls back to the largest positive area of any tag, USABLE to
// any positive non-LAND area. Unresolved areas are 0.
func AreaValue(r domain.PropertyRecord, areaType domain.AreaType) float64 {
	chain, ok := areaFallbacks[areaType]
	if !ok {
		chain = []domain.AreaType{areaType}
	}
	for _, tag := range chain {
		if v := positiveArea(r.Areas, tag); v > 0 {
			return v
		}
	}

	switch areaType {
	case domain.AreaTotal:
		var largest float64
		for _, a := range r.Areas {
			if a.Value > largest {
				largest = a.Value
			}
		}
		return largest
	case domain.AreaUsable:
		for _, a := range r.Areas {
			if a.AreaType != domain.AreaLand && a.Value > 0 {
				return a.Value
			}
		}
	}
	return 0
}

func positiveArea(areas []domain.Area, tag domain.AreaType) float64 {
	for _, a := range areas {
		if a.AreaType == tag && a.Value > 0 {
			return a.Value
		}
	}
	return 0
}
