package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two WGS84
// coordinates using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RoundKm rounds a distance to two decimal places for responses.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// ValidateCoords rejects coordinates outside the valid WGS84 range.
func ValidateCoords(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}
