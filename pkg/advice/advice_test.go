package advice

import (
	"testing"
	"time"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)

func priorities(recs []models.Recommendation) []models.Priority {
	out := make([]models.Priority, len(recs))
	for i, r := range recs {
		out[i] = r.Priority
	}
	return out
}

func TestRecommendScoreBands(t *testing.T) {
	testCases := []struct {
		score    int
		expected []models.Priority
	}{
		{10, []models.Priority{models.PriorityHigh}},
		{39, []models.Priority{models.PriorityHigh}},
		{40, []models.Priority{models.PriorityMedium}},
		{59, []models.Priority{models.PriorityMedium}},
		{60, []models.Priority{}},
		{70, []models.Priority{}},
		{71, []models.Priority{models.PriorityLow}},
	}

	a := NewAdvisor(noon, nil)
	for _, tc := range testCases {
		recs := a.Recommend(models.Route{SafetyScore: tc.score, DistanceKm: 1})
		assert.Equal(t, tc.expected, priorities(recs), "score %d", tc.score)
	}
}

func TestRecommendHighSeverityCount(t *testing.T) {
	route := models.Route{
		SafetyScore: 65,
		DistanceKm:  1,
		DangerousPoints: []models.DangerousPoint{
			{Severity: models.SeverityHigh},
			{Severity: models.SeverityMedium},
			{Severity: models.SeverityHigh},
		},
	}

	recs := NewAdvisor(noon, nil).Recommend(route)
	require.Len(t, recs, 1)
	assert.Equal(t, models.PriorityHigh, recs[0].Priority)
	assert.Contains(t, recs[0].Message, "2 high-risk")

	route.DangerousPoints = route.DangerousPoints[1:2]
	assert.Empty(t, NewAdvisor(noon, nil).Recommend(route))
}

func TestRecommendNight(t *testing.T) {
	for _, hour := range []int{22, 23, 0, 3, 5} {
		now := time.Date(2025, time.June, 1, hour, 15, 0, 0, time.Local)
		recs := NewAdvisor(now, nil).Recommend(models.Route{SafetyScore: 65, DistanceKm: 1})
		require.Len(t, recs, 1, "hour %d", hour)
		assert.Equal(t, "Share location", recs[0].Action)
	}

	recs := NewAdvisor(time.Date(2025, time.June, 1, 6, 0, 0, 0, time.Local), nil).
		Recommend(models.Route{SafetyScore: 65, DistanceKm: 1})
	assert.Empty(t, recs)
}

func TestRecommendLongRoute(t *testing.T) {
	a := NewAdvisor(noon, nil)

	assert.Empty(t, a.Recommend(models.Route{SafetyScore: 65, DistanceKm: 2}))

	recs := a.Recommend(models.Route{SafetyScore: 65, DistanceKm: 2.1})
	require.Len(t, recs, 1)
	assert.Equal(t, models.PriorityMedium, recs[0].Priority)
	assert.Equal(t, "View transport options", recs[0].Action)
}

func TestRecommendReassurance(t *testing.T) {
	route := models.Route{SafetyScore: 90, DistanceKm: 1}

	old := []models.CommunityReport{{ID: "1", Timestamp: noon.Add(-25 * time.Hour)}}
	recs := NewAdvisor(noon, old).Recommend(route)
	require.Len(t, recs, 1)
	assert.Equal(t, models.PriorityLow, recs[0].Priority)
	assert.Empty(t, recs[0].Action)

	recent := append(old, models.CommunityReport{ID: "2", Timestamp: noon.Add(-2 * time.Hour)})
	assert.Empty(t, NewAdvisor(noon, recent).Recommend(route))
}

func TestRecommendRuleOrder(t *testing.T) {
	night := time.Date(2025, time.June, 1, 23, 0, 0, 0, time.Local)
	route := models.Route{
		SafetyScore:     20,
		DistanceKm:      3.4,
		DangerousPoints: []models.DangerousPoint{{Severity: models.SeverityHigh}},
	}

	recs := NewAdvisor(night, nil).Recommend(route)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"Change route", "View details", "Share location", "View transport options"},
		[]string{recs[0].Action, recs[1].Action, recs[2].Action, recs[3].Action})
}
