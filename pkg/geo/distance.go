// Package geo provides the geodesic helpers shared by the scoring and routing
// code. All distances are kilometers unless a function name says otherwise.
package geo

import (
	"math"

	"github.com/1F47E/camina-segura/pkg/models"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula
const EarthRadiusKm = 6371.0

// Distance calculates the Haversine distance between two points in kilometers
func Distance(p1, p2 models.GeoPoint) float64 {
	lat1Rad := p1.Lat * math.Pi / 180.0
	lat2Rad := p2.Lat * math.Pi / 180.0

	dLat := (p2.Lat - p1.Lat) * math.Pi / 180.0
	dLon := (p2.Lng - p1.Lng) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceMeters is Distance converted to meters, for map-facing callers
func DistanceMeters(p1, p2 models.GeoPoint) float64 {
	return Distance(p1, p2) * 1000
}

// PathLength sums the distances between consecutive points
func PathLength(points []models.GeoPoint) float64 {
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += Distance(points[i], points[i+1])
	}
	return total
}

// Interpolate returns the point at fraction f along the straight segment a→b
func Interpolate(a, b models.GeoPoint, f float64) models.GeoPoint {
	return models.GeoPoint{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lng: a.Lng + (b.Lng-a.Lng)*f,
	}
}

// DegreeSpan converts a radius in km into the half-widths (in degrees) of a
// bounding box centred at lat. Longitude degrees shrink towards the poles.
func DegreeSpan(lat, radiusKm float64) (latDeg, lngDeg float64) {
	latDeg = (radiusKm / EarthRadiusKm) * (180 / math.Pi)

	cos := math.Cos(lat * math.Pi / 180.0)
	if cos < 1e-6 {
		return latDeg, 180
	}
	lngDeg = latDeg / cos
	if lngDeg > 180 {
		lngDeg = 180
	}
	return latDeg, lngDeg
}

// Valid reports whether p lies within [-90,90] x [-180,180]
func Valid(p models.GeoPoint) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundTo rounds v to the given number of decimals
func RoundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
