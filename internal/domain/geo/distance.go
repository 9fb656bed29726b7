// Package geo holds great-circle distance math for listing locations.
package geo

import "math"

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point has finite coordinates within [-90,90] x [-180,180].
func (p *Point) Valid() bool {
	if p == nil {
		return false
	}
	if !finite(p.Lat) || !finite(p.Lng) {
		return false
	}
	return ValidateCoordinates(p.Lat, p.Lng)
}

// Haversine returns the great-circle distance in kilometers between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm returns the haversine distance between a and b.
// A missing point or a non-finite coordinate yields +Inf, so a radius check
// (distance > radius) excludes the pair instead of failing.
func DistanceKm(a, b *Point) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	if !finite(a.Lat) || !finite(a.Lng) || !finite(b.Lat) || !finite(b.Lng) {
		return math.Inf(1)
	}
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
