package valuation

import (
	"math"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// collector accumulates the strictly positive values of one metric.
type collector struct {
	sum      float64
	n        int
	min, max float64
}

func (c *collector) add(v float64) {
	if v <= 0 {
		return
	}
	if c.n == 0 || v < c.min {
		c.min = v
	}
	if c.n == 0 || v > c.max {
		c.max = v
	}
	c.sum += v
	c.n++
}

// mean is the rounded arithmetic mean, 0 when nothing was collected.
func (c *collector) mean() int64 {
	if c.n == 0 {
		return 0
	}
	return int64(math.Floor(c.sum/float64(c.n) + 0.5))
}

func (c *collector) span() domain.Range {
	if c.n == 0 {
		return domain.Range{}
	}
	return domain.Range{Min: c.min, Max: c.max}
}

// Aggregate computes the evaluation summary. Each metric averages only its own
// positive values, so a record without a price still counts towards the area
// averages. Count is always len(records).
func Aggregate(records []domain.PropertyRecord, areaType domain.AreaType) domain.Summary {
	var price, perArea, usable, total, area collector
	for _, r := range records {
		price.add(TotalPrice(r))
		perArea.add(PricePerArea(r, areaType))
		usable.add(AreaValue(r, domain.AreaUsable))
		total.add(AreaValue(r, domain.AreaTotal))
		area.add(AreaValue(r, areaType))
	}

	return domain.Summary{
		Count:               len(records),
		AveragePrice:        price.mean(),
		AveragePricePerArea: perArea.mean(),
		AverageUsableArea:   usable.mean(),
		AverageTotalArea:    total.mean(),
		PriceRange:          price.span(),
		AreaRange:           area.span(),
	}
}
