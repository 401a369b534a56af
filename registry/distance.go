package registry

import (
	"github.com/golang/geo/s2"
)

// Mean earth radius in metres, matching the registry's server-side
// cameras_nearby function so both paths agree on distances.
const earthRadiusMetres = 6371010.0

// Distance returns the great-circle distance in metres between two
// lat/lng points in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * earthRadiusMetres
}
