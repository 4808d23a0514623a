// Package advice derives advisory messages for a chosen route.
package advice

import (
	"fmt"
	"time"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/safety"
)

const (
	// LongRouteKm is the distance above which public transport is suggested
	LongRouteKm = 2.0
	// RecentWindow is how far back a report counts as a recent incident
	RecentWindow = 24 * time.Hour
)

// Advisor evaluates the advisory rules against a route
type Advisor struct {
	now     time.Time
	reports []models.CommunityReport
}

// NewAdvisor creates an advisor for the given instant and known reports
func NewAdvisor(now time.Time, reports []models.CommunityReport) *Advisor {
	return &Advisor{now: now, reports: reports}
}

// Recommend returns every matching advisory in rule order. Rules are
// independent; nothing is deduplicated or re-sorted by priority.
func (a *Advisor) Recommend(route models.Route) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 4)

	switch {
	case route.SafetyScore < 40:
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "🚨",
			Message:  "This route crosses high-risk areas. Consider using another alternative.",
			Action:   "Change route",
		})
	case route.SafetyScore < 60:
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Icon:     "⚠️",
			Message:  "Stay alert. Some areas along the way have safety reports.",
			Action:   "View risk points",
		})
	}

	if high := countHighSeverity(route.DangerousPoints); high > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "📍",
			Message:  fmt.Sprintf("%d high-risk area(s) on this route.", high),
			Action:   "View details",
		})
	}

	if safety.IsNight(a.now.Hour()) {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "🌙",
			Message:  "It is night time. Share your location with trusted contacts.",
			Action:   "Share location",
		})
	}

	if route.DistanceKm > LongRouteKm {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Icon:     "🚌",
			Message:  "Long route. Consider using public transport.",
			Action:   "View transport options",
		})
	}

	if a.recentReports() == 0 && route.SafetyScore > 70 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityLow,
			Icon:     "✅",
			Message:  "No incidents reported recently in this area.",
		})
	}

	return recs
}

func (a *Advisor) recentReports() int {
	n := 0
	for _, r := range a.reports {
		if a.now.Sub(r.Timestamp) < RecentWindow {
			n++
		}
	}
	return n
}

func countHighSeverity(points []models.DangerousPoint) int {
	n := 0
	for _, p := range points {
		if p.Severity == models.SeverityHigh {
			n++
		}
	}
	return n
}
