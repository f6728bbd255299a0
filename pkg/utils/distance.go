package utils

import (
	"math"
)

const (
	EarthRadiusKm = 6371.0
)

// HaversineDistance returns the great-circle distance in kilometers between
// two points given in decimal degrees. Latitude comes first in each pair; the
// source tables store longitude as X_COORD and latitude as Y_COORD, so callers
// pass (Y, X).
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Round2 rounds to two decimals, the precision distances are displayed with.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
