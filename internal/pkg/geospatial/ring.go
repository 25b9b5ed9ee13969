package geospatial

// PointInRing reports whether (lat, lng) lies inside the ring using the
// even-odd rule. Vertices are (lat, lng) pairs; the ring may be open or closed.
func PointInRing(lat, lng float64, ring [][2]float64) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := ring[i][0], ring[i][1]
		yj, xj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) && lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
