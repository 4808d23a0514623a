package routing

import (
	"math"
	"sort"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/safety"
)

const (
	// DangerThreshold marks waypoints reported as dangerous
	DangerThreshold = 50.0
	// HighSeverityThreshold splits dangerous waypoints into high and medium
	HighSeverityThreshold = 30.0
)

// profile describes how one route variant is built
type profile struct {
	id          models.RouteID
	name        string
	description string
	color       string
	icon        string

	interior int
	// Waypoints scoring below replaceBelow are swapped for the nearest safe
	// zone within replaceRadiusKm. Zero disables substitution.
	replaceBelow    float64
	replaceRadiusKm float64
}

// profiles in generation order; ties in score keep this order
var profiles = []profile{
	{
		id:              models.RouteSafest,
		name:            "Safest route",
		description:     "Prioritizes your safety by avoiding risk areas",
		color:           "#10b981",
		icon:            "🛡️",
		interior:        8,
		replaceBelow:    40,
		replaceRadiusKm: 0.3,
	},
	{
		id:          models.RouteFastest,
		name:        "Fastest route",
		description: "Most direct path, shortest travel time",
		color:       "#3b82f6",
		icon:        "⚡",
		interior:    3,
	},
	{
		id:              models.RouteBalanced,
		name:            "Balanced route",
		description:     "Balance between safety and travel time",
		color:           "#f59e0b",
		icon:            "⚖️",
		interior:        5,
		replaceBelow:    30,
		replaceRadiusKm: 0.2,
	},
}

// Synthesizer builds the three route variants for a trip
type Synthesizer struct {
	scorer    *safety.Scorer
	generator *Generator
}

// NewSynthesizer creates a synthesizer drawing jitter from rnd
func NewSynthesizer(scorer *safety.Scorer, rnd Source) *Synthesizer {
	return &Synthesizer{
		scorer:    scorer,
		generator: NewGenerator(scorer, rnd),
	}
}

// Synthesize returns the safest, fastest and balanced routes from start to
// end, sorted by safety score with the best one marked recommended.
func (s *Synthesizer) Synthesize(start, end models.GeoPoint) []models.Route {
	routes := make([]models.Route, 0, len(profiles))
	for _, p := range profiles {
		routes = append(routes, s.build(p, start, end))
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].SafetyScore > routes[j].SafetyScore
	})
	routes[0].Recommended = true

	return routes
}

func (s *Synthesizer) build(p profile, start, end models.GeoPoint) models.Route {
	interior := s.generator.GenerateWaypoints(start, end, p.interior)
	if p.replaceBelow > 0 {
		for i, wp := range interior {
			if wp.SafetyScore < p.replaceBelow {
				interior[i] = s.substitute(wp, p.replaceRadiusKm)
			}
		}
	}

	waypoints := make([]models.Waypoint, 0, len(interior)+2)
	waypoints = append(waypoints, s.generator.score(start))
	waypoints = append(waypoints, interior...)
	waypoints = append(waypoints, s.generator.score(end))

	distance := RouteDistance(waypoints)

	return models.Route{
		ID:              p.id,
		Name:            p.name,
		Description:     p.description,
		Waypoints:       waypoints,
		SafetyScore:     RouteScore(waypoints),
		DistanceKm:      distance,
		EstimatedTime:   EstimateTime(distance, ModeWalking),
		DangerousPoints: DangerousPoints(waypoints),
		Color:           p.color,
		Icon:            p.icon,
	}
}

// substitute swaps wp for the nearest safe zone within radiusKm, rescored at
// its own location. Without a safe zone in range wp is kept as is.
func (s *Synthesizer) substitute(wp models.Waypoint, radiusKm float64) models.Waypoint {
	hit, ok := s.scorer.Reports().NearestOfType(wp.GeoPoint, models.ReportSafeZone, radiusKm)
	if !ok {
		return wp
	}
	return s.generator.score(hit.Report.Location)
}

// RouteScore is the rounded mean waypoint score, 0 for an empty route
func RouteScore(waypoints []models.Waypoint) int {
	if len(waypoints) == 0 {
		return 0
	}

	total := 0.0
	for _, wp := range waypoints {
		total += wp.SafetyScore
	}
	return int(math.Round(total / float64(len(waypoints))))
}

// RouteDistance sums the consecutive waypoint distances in km
func RouteDistance(waypoints []models.Waypoint) float64 {
	points := make([]models.GeoPoint, len(waypoints))
	for i, wp := range waypoints {
		points[i] = wp.GeoPoint
	}
	return geo.PathLength(points)
}

// DangerousPoints returns the waypoints scoring below DangerThreshold
func DangerousPoints(waypoints []models.Waypoint) []models.DangerousPoint {
	dangerous := make([]models.DangerousPoint, 0)
	for i, wp := range waypoints {
		if wp.SafetyScore >= DangerThreshold {
			continue
		}

		severity := models.SeverityMedium
		if wp.SafetyScore < HighSeverityThreshold {
			severity = models.SeverityHigh
		}
		dangerous = append(dangerous, models.DangerousPoint{
			Waypoint: wp,
			Index:    i,
			Severity: severity,
		})
	}
	return dangerous
}
