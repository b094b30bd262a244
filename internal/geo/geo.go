// Package geo holds the great-circle math used to match demands with
// nearby listings.
package geo

import "math"

const earthRadiusKm = 6371

// DefaultRadiusKm applies when a demand carries no explicit search radius.
const DefaultRadiusKm = 10

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Point is anything that may carry coordinates. ok must be false when the
// position is unknown; such points never match a radius search.
type Point interface {
	Coordinates() (lat, lon float64, ok bool)
}

// WithinRadius keeps the points at most radiusKm away from the origin.
// A non-positive radius falls back to DefaultRadiusKm.
func WithinRadius[P Point](lat, lon, radiusKm float64, points []P) []P {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	var out []P
	for _, p := range points {
		plat, plon, ok := p.Coordinates()
		if !ok {
			continue
		}
		if DistanceKm(lat, lon, plat, plon) <= radiusKm {
			out = append(out, p)
		}
	}
	return out
}
