// Package evaluation scores the personal-safety self-assessment
// questionnaire and stores its results for the point scorer.
package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/1F47E/camina-segura/pkg/clock"
	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

// MaxRisk is the highest risk a single answer carries
const MaxRisk = 3

// Risk levels, ordered by percentage band
const (
	LevelSafe         = "safe"
	LevelCaution      = "caution"
	LevelModerateRisk = "moderate_risk"
	LevelHighRisk     = "high_risk"
)

// ErrInvalidResponse is returned for unknown questions, unknown answers
// or an incomplete questionnaire
var ErrInvalidResponse = errors.New("invalid response")

// Option is one possible answer to a question
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Risk  int    `json:"risk" yaml:"risk"`
}

// Question is one item of the questionnaire
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// Questions is the fixed questionnaire
var Questions = []Question{
	{ID: "time", Text: "What time is it?", Options: []Option{
		{"day", "Day (6:00 - 20:00)", 0},
		{"evening", "Evening (20:00 - 23:00)", 1},
		{"night", "Night (23:00 - 6:00)", 3},
	}},
	{ID: "people", Text: "How many people are around?", Options: []Option{
		{"crowded", "Very crowded", 0},
		{"moderate", "Some people", 1},
		{"few", "Few people", 2},
		{"alone", "I am alone", 3},
	}},
	{ID: "lighting", Text: "How is the lighting?", Options: []Option{
		{"bright", "Well lit", 0},
		{"moderate", "Moderate lighting", 1},
		{"dim", "Dim", 2},
		{"dark", "Very dark", 3},
	}},
	{ID: "area", Text: "What kind of area are you in?", Options: []Option{
		{"commercial", "Active commercial area", 0},
		{"residential", "Residential area", 1},
		{"industrial", "Industrial area", 2},
		{"isolated", "Isolated area", 3},
	}},
	{ID: "feeling", Text: "How do you feel?", Options: []Option{
		{"safe", "Safe and calm", 0},
		{"alert", "Alert but calm", 1},
		{"uncomfortable", "Uncomfortable", 2},
		{"unsafe", "Unsafe or in danger", 3},
	}},
	{ID: "transport", Text: "Is public transport nearby?", Options: []Option{
		{"yes-near", "Yes, very close", 0},
		{"yes-walk", "Yes, a few minutes walking", 1},
		{"far", "Far (>10 min)", 2},
		{"no", "No transport available", 3},
	}},
}

func findQuestion(id string) (Question, bool) {
	for _, q := range Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Resolve maps answer values to scored responses. Every question must be
// answered with one of its options.
func Resolve(answers map[string]string) (map[string]models.Response, error) {
	for id := range answers {
		if _, ok := findQuestion(id); !ok {
			return nil, fmt.Errorf("%w: unknown question %q", ErrInvalidResponse, id)
		}
	}

	responses := make(map[string]models.Response, len(Questions))
	for _, q := range Questions {
		value, ok := answers[q.ID]
		if !ok {
			return nil, fmt.Errorf("%w: question %q not answered", ErrInvalidResponse, q.ID)
		}

		found := false
		for _, o := range q.Options {
			if o.Value == value {
				responses[q.ID] = models.Response{Value: o.Value, Risk: o.Risk}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q is not an answer to %q", ErrInvalidResponse, value, q.ID)
		}
	}
	return responses, nil
}

// Assess returns the risk percentage and level of a set of responses
func Assess(responses map[string]models.Response) (float64, string) {
	total := 0
	for _, r := range responses {
		total += r.Risk
	}

	percentage := float64(total) / float64(len(Questions)*MaxRisk) * 100
	return percentage, Level(percentage)
}

// Level maps a risk percentage to its band
func Level(percentage float64) string {
	switch {
	case percentage < 25:
		return LevelSafe
	case percentage < 50:
		return LevelCaution
	case percentage < 75:
		return LevelModerateRisk
	default:
		return LevelHighRisk
	}
}

// Advise returns the questionnaire tips in rule order
func Advise(responses map[string]models.Response, percentage float64) []models.Recommendation {
	risky := func(id string) bool {
		r, ok := responses[id]
		return ok && r.Risk >= 2
	}

	recs := make([]models.Recommendation, 0, 4)
	if risky("feeling") {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "🚨",
			Message:  "Trust your instinct. If you feel unsafe, trigger the panic button or call a trusted contact now.",
			Action:   "Panic button",
		})
	}
	if risky("time") {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "🌙",
			Message:  "It is night. Consider a taxi or share your location with someone you trust.",
			Action:   "Share location",
		})
	}
	if risky("lighting") {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Icon:     "💡",
			Message:  "Poor lighting. Look for better lit routes or wait somewhere bright.",
			Action:   "View safe routes",
		})
	}
	if risky("people") {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Icon:     "👥",
			Message:  "Quiet area. Head somewhere busier or start a safety timer.",
			Action:   "Timer",
		})
	}
	if risky("transport") {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "🚕",
			Message:  "Limited transport. Look for nearby bus, metro or bike stations, or book a verified taxi.",
			Action:   "View transport",
		})
	}
	if percentage >= 50 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Icon:     "📞",
			Message:  "Keep in contact. Call someone you trust and stay on the line while you move.",
			Action:   "Fake call",
		})
	}
	if percentage < 25 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityLow,
			Icon:     "✨",
			Message:  "All good. Keep enjoying your walk and stay aware of your surroundings.",
		})
	}
	return recs
}

// Result is a stored evaluation together with its tips
type Result struct {
	Evaluation models.SafetyEvaluation `json:"evaluation"`
	Tips       []models.Recommendation `json:"tips"`
}

// Service assesses questionnaires and stores the outcome
type Service struct {
	store store.EvaluationStore
	clock clock.Clock
}

// NewService creates an evaluation service
func NewService(s store.EvaluationStore, c clock.Clock) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{store: s, clock: c}
}

// Submit validates the answers, assesses them and stores the evaluation.
// location may be nil when the device position is unknown.
func (s *Service) Submit(ctx context.Context, answers map[string]string, location *models.GeoPoint) (*Result, error) {
	responses, err := Resolve(answers)
	if err != nil {
		return nil, err
	}
	if location != nil && !geo.Valid(*location) {
		return nil, fmt.Errorf("%w: location out of range", ErrInvalidResponse)
	}

	percentage, level := Assess(responses)
	eval := models.SafetyEvaluation{
		ID:         uuid.NewString(),
		Timestamp:  s.clock.Now(),
		Location:   location,
		Level:      level,
		Percentage: percentage,
		Responses:  responses,
	}

	if err := s.store.AddEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	return &Result{Evaluation: eval, Tips: Advise(responses, percentage)}, nil
}
