package store

import (
	"context"
	"sync"

	"github.com/1F47E/camina-segura/pkg/models"
)

// Memory is a thread-safe in-process Store
type Memory struct {
	mu          sync.RWMutex
	reports     []models.CommunityReport
	evaluations []models.SafetyEvaluation
	history     []models.RouteHistoryRecord
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ListReports(ctx context.Context) ([]models.CommunityReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.CommunityReport(nil), m.reports...), nil
}

// AddReport stores r ahead of the existing reports, replacing any report
// with the same id
func (m *Memory) AddReport(ctx context.Context, r models.CommunityReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = upsertReport(m.reports, r)
	return nil
}

func (m *Memory) MarkHelpful(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return updateReport(m.reports, id, func(r *models.CommunityReport) { r.Helpful++ })
}

func (m *Memory) VerifyReport(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return updateReport(m.reports, id, func(r *models.CommunityReport) { r.VerifiedCount++ })
}

func (m *Memory) ListEvaluations(ctx context.Context) ([]models.SafetyEvaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.SafetyEvaluation(nil), m.evaluations...), nil
}

func (m *Memory) AddEvaluation(ctx context.Context, e models.SafetyEvaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = prepend(m.evaluations, e, EvaluationLimit)
	return nil
}

func (m *Memory) AppendHistory(ctx context.Context, rec models.RouteHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = prepend(m.history, rec, HistoryLimit)
	return nil
}

func (m *Memory) ListHistory(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RouteHistoryRecord(nil), m.history...), nil
}
