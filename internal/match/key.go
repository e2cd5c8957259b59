package match

import "fmt"

// CellKey derives the cache key for a coordinate by rounding each component
// to two decimal places, collapsing points within roughly a 1.1 km grid cell
// onto one key. Precision is traded for cache hit rate on purpose: nearby
// donations share the first-computed match until the entry expires.
func CellKey(c Coordinate) string {
	return fmt.Sprintf("%.2f:%.2f", c.Lat, c.Lon)
}
