package valuation

import (
	"math"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// DefaultBuckets is the bucket count of dashboard and report charts.
const DefaultBuckets = 5

// Extractor picks the numeric value a distribution is built over.
type Extractor func(domain.PropertyRecord) float64

// ByPrice extracts TotalPrice.
func ByPrice(r domain.PropertyRecord) float64 { return TotalPrice(r) }

// ByArea extracts the area of the given type.
func ByArea(t domain.AreaType) Extractor {
	return func(r domain.PropertyRecord) float64 { return AreaValue(r, t) }
}

// ByPricePerArea extracts the price per area of the given type.
func ByPricePerArea(t domain.AreaType) Extractor {
	return func(r domain.PropertyRecord) float64 { return PricePerArea(r, t) }
}

// ExtractorFor maps a field name to an extractor: "price", "area" or
// "price_per_area".
func ExtractorFor(field string, areaType domain.AreaType) (Extractor, bool) {
	switch field {
	case "price", "":
		return ByPrice, true
	case "area":
		return ByArea(areaType), true
	case "price_per_area":
		return ByPricePerArea(areaType), true
	}
	return nil, false
}

// BucketDistribution splits the positive extracted values into bucketCount
// equal-width buckets between their min and max. Buckets are ascending and
// empty ones are kept. When every value is identical a single bucket is
// returned. bucketCount <= 0 means DefaultBuckets.
func BucketDistribution(records []domain.PropertyRecord, extract Extractor, bucketCount int) []domain.Bucket {
	if bucketCount <= 0 {
		bucketCount = DefaultBuckets
	}

	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v := extract(r); v > 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return []domain.Bucket{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return []domain.Bucket{{Min: lo, Max: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bucketCount)
	buckets := make([]domain.Bucket, bucketCount)
	for i := range buckets {
		buckets[i].Min = lo + float64(i)*width
		buckets[i].Max = lo + float64(i+1)*width
	}
	buckets[bucketCount-1].Max = hi

	for _, v := range values {
		idx := bucketCount - 1
		if v != hi {
			idx = int(math.Floor((v - lo) / width))
			idx = max(0, min(idx, bucketCount-1))
		}
		buckets[idx].Count++
	}
	return buckets
}
