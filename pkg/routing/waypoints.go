// Package routing synthesizes heuristic walking routes between two points.
//
// There is no road network: a route is a straight line from start to end,
// sampled at evenly spaced fractions, jittered slightly so it resembles a
// street path, scored point by point, and nudged towards known safe zones
// where the score is poor.
package routing

import (
	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/safety"
)

// JitterDegrees is the full width of the uniform jitter applied to each
// interior waypoint, i.e. offsets fall in [-0.001, 0.001].
const JitterDegrees = 0.002

// Source is the random number source used for jitter. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generator produces scored intermediate waypoints
type Generator struct {
	scorer *safety.Scorer
	rnd    Source
}

// NewGenerator creates a waypoint generator
func NewGenerator(scorer *safety.Scorer, rnd Source) *Generator {
	return &Generator{scorer: scorer, rnd: rnd}
}

// GenerateWaypoints returns n jittered, scored points strictly between
// start and end, at fractions i/(n+1) for i = 1..n.
func (g *Generator) GenerateWaypoints(start, end models.GeoPoint, n int) []models.Waypoint {
	if n <= 0 {
		return nil
	}

	waypoints := make([]models.Waypoint, 0, n)
	for i := 1; i <= n; i++ {
		p := geo.Interpolate(start, end, float64(i)/float64(n+1))

		// Lat and lng are perturbed independently
		p.Lat += (g.rnd.Float64() - 0.5) * JitterDegrees
		p.Lng += (g.rnd.Float64() - 0.5) * JitterDegrees

		waypoints = append(waypoints, g.score(p))
	}
	return waypoints
}

func (g *Generator) score(p models.GeoPoint) models.Waypoint {
	return models.Waypoint{GeoPoint: p, SafetyScore: g.scorer.Score(p)}
}
