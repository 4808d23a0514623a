// Package safety turns community reports, past self-assessments and the time
// of day into a 0-100 safety score for a single coordinate.
package safety

import (
	"time"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/rtree"
)

const (
	// BaselineScore is the score of a point nothing is known about
	BaselineScore = 100.0

	// ReportRadiusKm bounds the reports that influence a point
	ReportRadiusKm = 0.2
	// EvaluationRadiusKm bounds the self-assessments that influence a point
	EvaluationRadiusKm = 0.3
	// RelevanceWindow is the age at which a report stops counting
	RelevanceWindow = 30 * 24 * time.Hour
	// EvaluationWeight scales the mean nearby risk percentage
	EvaluationWeight = 0.3
)

// reportWeights are the signed per-type score deltas at full relevance
var reportWeights = map[models.ReportType]float64{
	models.ReportHarassment:   -30,
	models.ReportSuspicious:   -25,
	models.ReportIsolated:     -15,
	models.ReportPoorLighting: -10,
	models.ReportSafeZone:     15,
}

// ReportWeight returns the score delta of a report type at full relevance
func ReportWeight(t models.ReportType) float64 {
	return reportWeights[t]
}

// Snapshot is the data a Scorer reads. It is taken once per routing request
// so every waypoint is scored against the same reports and instant.
type Snapshot struct {
	Reports     *rtree.ReportIndex
	Evaluations []models.SafetyEvaluation
	Now         time.Time
}

// Scorer computes point safety scores from a Snapshot
type Scorer struct {
	reports     *rtree.ReportIndex
	evaluations []models.SafetyEvaluation
	now         time.Time
	timeAdjust  float64
}

// NewScorer creates a scorer over the snapshot
func NewScorer(s Snapshot) *Scorer {
	reports := s.Reports
	if reports == nil {
		reports = rtree.NewReportIndex(nil)
	}

	evaluations := make([]models.SafetyEvaluation, 0, len(s.Evaluations))
	for _, e := range s.Evaluations {
		if e.Location != nil && geo.Valid(*e.Location) {
			evaluations = append(evaluations, e)
		}
	}

	return &Scorer{
		reports:     reports,
		evaluations: evaluations,
		now:         s.Now,
		timeAdjust:  TimeOfDayAdjustment(s.Now.Hour()),
	}
}

// Reports exposes the scorer's report index
func (s *Scorer) Reports() *rtree.ReportIndex {
	return s.reports
}

// Now is the instant the scorer evaluates relevance and time of day at
func (s *Scorer) Now() time.Time {
	return s.now
}

// Score returns the safety score of p, clamped to [0, 100]
func (s *Scorer) Score(p models.GeoPoint) float64 {
	score := BaselineScore

	for _, hit := range s.reports.Within(p, ReportRadiusKm) {
		if hit.DistanceKm >= ReportRadiusKm {
			continue
		}
		score += ReportWeight(hit.Report.Type) * Relevance(hit.Report.Timestamp, s.now)
	}

	if risk, ok := s.meanNearbyRisk(p); ok {
		score -= EvaluationWeight * risk
	}

	score += s.timeAdjust

	return geo.Clamp(score, 0, 100)
}

// meanNearbyRisk averages the risk percentage of evaluations taken close to p
func (s *Scorer) meanNearbyRisk(p models.GeoPoint) (float64, bool) {
	total, n := 0.0, 0
	for _, e := range s.evaluations {
		if geo.Distance(p, *e.Location) < EvaluationRadiusKm {
			total += e.Percentage
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

// Relevance decays linearly from 1 for a fresh report to 0 at 30 days.
// Timestamps in the future count as fresh: the plain max(0, 1-age/30)
// would weigh a report dated 15 days ahead at 1.5.
func Relevance(reported, now time.Time) float64 {
	ageDays := now.Sub(reported).Hours() / 24
	windowDays := RelevanceWindow.Hours() / 24
	return geo.Clamp(1-ageDays/windowDays, 0, 1)
}

// TimeOfDayAdjustment is the score delta for a local wall-clock hour
func TimeOfDayAdjustment(hour int) float64 {
	switch {
	case IsNight(hour):
		return -20
	case hour >= 6 && hour < 9:
		return 10
	case hour >= 18 && hour < 22:
		return -10
	}
	return 0
}

// IsNight reports whether hour falls in the 22:00-06:00 window
func IsNight(hour int) bool {
	return hour >= 22 || hour < 6
}
