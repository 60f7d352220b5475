// Package geo holds the spherical-earth helpers used by the collision engine.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Local flat-earth scale factors. They are only meaningful over the short
// ranges the CPA solver works with (well under the 10 km horizon).
const (
	KmPerDegLat      = 110.574
	KmPerDegLngEquat = 111.320
)

// KnotsToKmh converts nautical miles per hour to km/h.
const KnotsToKmh = 1.852

// DistanceKm returns the haversine distance between two points in km.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := ToRad(lat2 - lat1)
	dLng := ToRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(ToRad(lat1))*math.Cos(ToRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ToRad converts degrees to radians.
func ToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDeg converts radians to degrees.
func ToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// KmPerDegLng is the east-west length of one degree of longitude at latDeg.
func KmPerDegLng(latDeg float64) float64 {
	return KmPerDegLngEquat * math.Cos(ToRad(latDeg))
}

// IsValidCoordinate reports whether lat/lng are finite and inside the
// usual WGS84 ranges.
func IsValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
