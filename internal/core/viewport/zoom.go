package viewport

// MaxRegionZoom is the zoom ceiling for region viewports.
const MaxRegionZoom = 13

// largeNeighborhoodSet is the neighborhood count above which the coarser
// large-set ladder applies.
const largeNeighborhoodSet = 50

// step maps "maxDiff greater than threshold" to a zoom level.
type step struct {
	above float64
	zoom  int
}

// ladder is checked top to bottom; fallback applies when no step matches.
type ladder struct {
	steps    []step
	fallback int
}

func (l ladder) zoom(maxDiff float64) int {
	for _, s := range l.steps {
		if maxDiff > s.above {
			return s.zoom
		}
	}
	return l.fallback
}

var (
	cityOnlyLadder = ladder{
		steps:    []step{{0.4, 10}, {0.25, 11}, {0.15, 12}, {0.08, 12}, {0.04, 12}},
		fallback: 13,
	}
	largeSetLadder = ladder{
		steps:    []step{{0.3, 11}, {0.15, 12}, {0.08, 13}},
		fallback: 13,
	}
	singleNeighborhoodLadder = ladder{
		steps:    []step{{0.1, 12}, {0.05, 13}, {0.02, 13}},
		fallback: 13,
	}
	multiNeighborhoodLadder = ladder{
		steps:    []step{{0.5, 9}, {0.2, 10}, {0.1, 11}, {0.05, 12}, {0.02, 13}},
		fallback: 13,
	}

	// drawingLadder is intentionally finer and not capped by MaxRegionZoom:
	// a single drawn shape may zoom in to 14.
	drawingLadder = ladder{
		steps: []step{
			{30, 5}, {10, 6}, {5, 7}, {2, 8}, {1, 9},
			{0.5, 10}, {0.25, 11}, {0.12, 12}, {0.06, 13},
		},
		fallback: 14,
	}
)

// Regime is the zoom classification of a region viewport.
type Regime string

const (
	RegimeCityOnly           Regime = "city_only"
	RegimeLargeSet           Regime = "large_set"
	RegimeSingleNeighborhood Regime = "single_neighborhood"
	RegimeMultiNeighborhood  Regime = "multi_neighborhood"
)

// Classify picks the region regime. The checks are ordered and exclusive.
func Classify(neighborhoods, cities int) Regime {
	switch {
	case cities > 0 && neighborhoods == 0:
		return RegimeCityOnly
	case neighborhoods > largeNeighborhoodSet:
		return RegimeLargeSet
	case neighborhoods == 1:
		return RegimeSingleNeighborhood
	default:
		return RegimeMultiNeighborhood
	}
}

// RegionZoom returns the zoom for a regime and box span, capped at MaxRegionZoom.
func RegionZoom(r Regime, maxDiff float64) int {
	var l ladder
	switch r {
	case RegimeCityOnly:
		l = cityOnlyLadder
	case RegimeLargeSet:
		l = largeSetLadder
	case RegimeSingleNeighborhood:
		l = singleNeighborhoodLadder
	default:
		l = multiNeighborhoodLadder
	}
	return min(l.zoom(maxDiff), MaxRegionZoom)
}

// DrawingZoom returns the zoom-to-fit level for a single drawn shape.
func DrawingZoom(maxDiff float64) int {
	return drawingLadder.zoom(maxDiff)
}
