// Package geo implements the great-circle math behind the proximity query.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// points given in decimal degrees, using the spherical law of cosines:
//
//	d = R * acos(cos(lat1)*cos(lat2)*cos(lng2-lng1) + sin(lat1)*sin(lat2))
//
// Good to well under a kilometer at metropolitan scale, which is the target
// deployment. Identical points can push the acos argument marginally above 1
// through rounding, so the argument is clamped.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dLng := radians(lng2 - lng1)

	arg := math.Cos(rlat1)*math.Cos(rlat2)*math.Cos(dLng) + math.Sin(rlat1)*math.Sin(rlat2)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}

	return EarthRadiusKm * math.Acos(arg)
}

// WithinRadius reports whether the point (lat2,lng2) lies strictly inside
// radiusKm of (lat1,lng1). A point exactly at the boundary is excluded.
func WithinRadius(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return DistanceKm(lat1, lng1, lat2, lng2) < radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
