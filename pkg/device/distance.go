package device

import "math"

const (
	nauticalMilesPerDegree  = 60
	statuteMilesPerNautical = 1.1515
	kilometersPerMile       = 1.609344
)

// DistanceKm returns the great-circle distance between a and b using the
// spherical law of cosines. Identical points are exactly 0 apart.
func DistanceKm(a, b Location) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	d := math.Sin(lat1)*math.Sin(lat2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Cos(radians(a.Longitude-b.Longitude))

	// rounding can push d just outside acos's domain for very close points
	d = math.Max(-1, math.Min(1, d))

	return degrees(math.Acos(d)) * nauticalMilesPerDegree * statuteMilesPerNautical * kilometersPerMile
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
