package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/clock"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

func calmAnswers() map[string]string {
	return map[string]string{
		"time":      "day",
		"people":    "crowded",
		"lighting":  "bright",
		"area":      "commercial",
		"feeling":   "safe",
		"transport": "yes-near",
	}
}

func riskyAnswers() map[string]string {
	return map[string]string{
		"time":      "night",
		"people":    "alone",
		"lighting":  "dark",
		"area":      "isolated",
		"feeling":   "unsafe",
		"transport": "no",
	}
}

func TestLevel(t *testing.T) {
	testCases := []struct {
		percentage float64
		expected   string
	}{
		{0, LevelSafe},
		{24.9, LevelSafe},
		{25, LevelCaution},
		{49.9, LevelCaution},
		{50, LevelModerateRisk},
		{74.9, LevelModerateRisk},
		{75, LevelHighRisk},
		{100, LevelHighRisk},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Level(tc.percentage), "percentage %v", tc.percentage)
	}
}

func TestAssess(t *testing.T) {
	responses, err := Resolve(calmAnswers())
	require.NoError(t, err)
	pct, level := Assess(responses)
	assert.Equal(t, 0.0, pct)
	assert.Equal(t, LevelSafe, level)

	responses, err = Resolve(riskyAnswers())
	require.NoError(t, err)
	pct, level = Assess(responses)
	assert.Equal(t, 100.0, pct)
	assert.Equal(t, LevelHighRisk, level)

	mixed := map[string]string{
		"time":      "evening",
		"people":    "few",
		"lighting":  "moderate",
		"area":      "residential",
		"feeling":   "alert",
		"transport": "yes-walk",
	}
	responses, err = Resolve(mixed)
	require.NoError(t, err)
	pct, level = Assess(responses)
	assert.InDelta(t, 7.0/18*100, pct, 1e-9)
	assert.Equal(t, LevelCaution, level)

	tips := Advise(responses, pct)
	require.Len(t, tips, 1)
	assert.Equal(t, models.PriorityMedium, tips[0].Priority)
	assert.Equal(t, "Timer", tips[0].Action)
}

func TestResolveRejects(t *testing.T) {
	unknownQuestion := calmAnswers()
	unknownQuestion["weather"] = "rain"

	unknownAnswer := calmAnswers()
	unknownAnswer["lighting"] = "neon"

	incomplete := calmAnswers()
	delete(incomplete, "transport")

	for name, answers := range map[string]map[string]string{
		"unknown question": unknownQuestion,
		"unknown answer":   unknownAnswer,
		"incomplete":       incomplete,
		"empty":            {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(answers)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestAdvise(t *testing.T) {
	responses, err := Resolve(riskyAnswers())
	require.NoError(t, err)

	tips := Advise(responses, 100)
	actions := make([]string, len(tips))
	for i, tip := range tips {
		actions[i] = tip.Action
	}
	assert.Equal(t, []string{"Panic button", "Share location", "View safe routes", "Timer", "View transport", "Fake call"}, actions)

	responses, err = Resolve(calmAnswers())
	require.NoError(t, err)
	tips = Advise(responses, 0)
	require.Len(t, tips, 1)
	assert.Equal(t, models.PriorityLow, tips[0].Priority)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := time.Date(2025, time.June, 1, 23, 30, 0, 0, time.UTC)
	svc := NewService(mem, clock.Fixed(now))

	loc := &models.GeoPoint{Lat: 41.3851, Lng: 2.1734}
	res, err := svc.Submit(ctx, riskyAnswers(), loc)
	require.NoError(t, err)
	assert.Equal(t, LevelHighRisk, res.Evaluation.Level)
	assert.Equal(t, 100.0, res.Evaluation.Percentage)
	assert.True(t, res.Evaluation.Timestamp.Equal(now))
	assert.NotEmpty(t, res.Evaluation.ID)
	assert.NotEmpty(t, res.Tips)

	stored, err := mem.ListEvaluations(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Evaluation.ID, stored[0].ID)
	assert.Equal(t, 3, stored[0].Responses["feeling"].Risk)

	_, err = svc.Submit(ctx, riskyAnswers(), &models.GeoPoint{Lat: 120, Lng: 0})
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = svc.Submit(ctx, map[string]string{"time": "day"}, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	stored, _ = mem.ListEvaluations(ctx)
	assert.Len(t, stored, 1)
}
