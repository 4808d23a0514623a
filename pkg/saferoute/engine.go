// Package saferoute ties the stores, scorer, synthesizer and advisors
// together behind the entry points the application calls.
package saferoute

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/advice"
	"github.com/1F47E/camina-segura/pkg/clock"
	"github.com/1F47E/camina-segura/pkg/evaluation"
	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/history"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/routing"
	"github.com/1F47E/camina-segura/pkg/rtree"
	"github.com/1F47E/camina-segura/pkg/safety"
	"github.com/1F47E/camina-segura/pkg/store"
)

var (
	// ErrInvalidPoint is returned for coordinates outside [-90,90]/[-180,180]
	ErrInvalidPoint = errors.New("invalid coordinates")
	// ErrInvalidReport is returned for reports with an unknown type
	ErrInvalidReport = errors.New("invalid report")
)

// NearbyReporter is implemented by report stores that can run radius
// queries themselves
type NearbyReporter interface {
	ReportsWithin(ctx context.Context, center models.GeoPoint, radiusKm float64) ([]models.CommunityReport, error)
}

// Engine is safe for concurrent use
type Engine struct {
	reports     store.ReportStore
	evaluations store.EvaluationStore
	history     *history.Service
	evaluator   *evaluation.Service
	clock       clock.Clock
	log         logrus.FieldLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the system clock
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSeed makes waypoint jitter reproducible
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rnd = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger used for degraded reads
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine over the given stores
func New(reports store.ReportStore, evaluations store.EvaluationStore, hist store.HistoryStore, opts ...Option) *Engine {
	e := &Engine{
		reports:     reports,
		evaluations: evaluations,
		clock:       clock.System{},
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e.history = history.NewService(hist, e.clock)
	e.evaluator = evaluation.NewService(evaluations, e.clock)
	return e
}

// NewWithStore creates an engine backed by a single Store
func NewWithStore(s store.Store, opts ...Option) *Engine {
	return New(s, s, s, opts...)
}

// listReports never fails; read errors degrade to no reports
func (e *Engine) listReports(ctx context.Context) []models.CommunityReport {
	reports, err := e.reports.ListReports(ctx)
	if err != nil {
		e.log.WithError(err).Warn("failed to read community reports, scoring without them")
		return nil
	}
	return reports
}

func (e *Engine) listEvaluations(ctx context.Context) []models.SafetyEvaluation {
	evals, err := e.evaluations.ListEvaluations(ctx)
	if err != nil {
		e.log.WithError(err).Warn("failed to read safety evaluations, scoring without them")
		return nil
	}
	return evals
}

func (e *Engine) scorer(ctx context.Context) *safety.Scorer {
	return safety.NewScorer(safety.Snapshot{
		Reports:     rtree.NewReportIndex(e.listReports(ctx)),
		Evaluations: e.listEvaluations(ctx),
		Now:         e.clock.Now(),
	})
}

func validate(points ...models.GeoPoint) error {
	for _, p := range points {
		if !geo.Valid(p) {
			return fmt.Errorf("%w: %.6f,%.6f", ErrInvalidPoint, p.Lat, p.Lng)
		}
	}
	return nil
}

// CalculateSafeRoutes returns the three route variants from start to end,
// best first
func (e *Engine) CalculateSafeRoutes(ctx context.Context, start, end models.Endpoint) ([]models.Route, error) {
	if err := validate(start.GeoPoint, end.GeoPoint); err != nil {
		return nil, err
	}

	sc := e.scorer(ctx)

	e.mu.Lock()
	routes := routing.NewSynthesizer(sc, e.rnd).Synthesize(start.GeoPoint, end.GeoPoint)
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"recommended": routes[0].ID,
		"score":       routes[0].SafetyScore,
		"reports":     sc.Reports().Count(),
	}).Debug("routes calculated")

	return routes, nil
}

// GetRouteRecommendations returns the advisories for a route
func (e *Engine) GetRouteRecommendations(ctx context.Context, route models.Route) ([]models.Recommendation, error) {
	return advice.NewAdvisor(e.clock.Now(), e.listReports(ctx)).Recommend(route), nil
}

// SaveRouteToHistory records a confirmed route
func (e *Engine) SaveRouteToHistory(ctx context.Context, route models.Route, start, end models.Endpoint) error {
	rec, err := e.history.Save(ctx, route, start, end)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"route": rec.SelectedRouteID, "id": rec.ID}).Info("route saved to history")
	return nil
}

// GetRouteStatistics summarizes the history, nil when it is empty
func (e *Engine) GetRouteStatistics(ctx context.Context) (*models.Stats, error) {
	return e.history.Statistics(ctx)
}

// History returns the saved routes, newest first
func (e *Engine) History(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	return e.history.List(ctx)
}

// ScorePoint returns the safety score of a single coordinate
func (e *Engine) ScorePoint(ctx context.Context, p models.GeoPoint) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	return e.scorer(ctx).Score(p), nil
}

// ListReports returns every community report
func (e *Engine) ListReports(ctx context.Context) ([]models.CommunityReport, error) {
	return e.reports.ListReports(ctx)
}

// AddReport validates and stores a report, assigning its id and timestamp
// when missing
func (e *Engine) AddReport(ctx context.Context, r models.CommunityReport) (models.CommunityReport, error) {
	r.Type = models.NormalizeReportType(string(r.Type))
	if !r.Type.Valid() {
		return r, fmt.Errorf("%w: unknown type %q", ErrInvalidReport, r.Type)
	}
	if err := validate(r.Location); err != nil {
		return r, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = e.clock.Now()
	}
	if r.IsAnonymous {
		r.Username = ""
	}

	if err := e.reports.AddReport(ctx, r); err != nil {
		return r, fmt.Errorf("failed to save report: %w", err)
	}
	e.log.WithFields(logrus.Fields{"id": r.ID, "type": r.Type}).Info("report added")
	return r, nil
}

// MarkHelpful increments a report's helpful counter
func (e *Engine) MarkHelpful(ctx context.Context, id string) error {
	return e.reports.MarkHelpful(ctx, id)
}

// VerifyReport increments a report's verification counter
func (e *Engine) VerifyReport(ctx context.Context, id string) error {
	return e.reports.VerifyReport(ctx, id)
}

// ReportsNear returns reports within radiusKm of center, nearest first
func (e *Engine) ReportsNear(ctx context.Context, center models.GeoPoint, radiusKm float64) ([]rtree.Hit, error) {
	if err := validate(center); err != nil {
		return nil, err
	}

	if nr, ok := e.reports.(NearbyReporter); ok {
		reports, err := nr.ReportsWithin(ctx, center, radiusKm)
		if err != nil {
			return nil, err
		}
		return rtree.NewReportIndex(reports).Within(center, radiusKm), nil
	}

	reports, err := e.reports.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	return rtree.NewReportIndex(reports).Within(center, radiusKm), nil
}

// SubmitEvaluation assesses and stores a questionnaire
func (e *Engine) SubmitEvaluation(ctx context.Context, answers map[string]string, location *models.GeoPoint) (*evaluation.Result, error) {
	return e.evaluator.Submit(ctx, answers, location)
}
