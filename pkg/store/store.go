// Package store defines the persistence contracts used by the routing engine
// and provides in-memory and file-backed implementations.
package store

import (
	"context"
	"errors"

	"github.com/1F47E/camina-segura/pkg/models"
)

const (
	// HistoryLimit caps the route history, newest first
	HistoryLimit = 50
	// EvaluationLimit caps the stored self-assessments, newest first
	EvaluationLimit = 50
)

// Keys used by key/value backed stores
const (
	KeyReports     = "communityReports"
	KeyEvaluations = "safetyEvaluations"
	KeyHistory     = "routeHistory"
)

// ErrNotFound is returned when a referenced record does not exist
var ErrNotFound = errors.New("not found")

// ReportStore holds community reports. AddReport replaces a report that
// has the same id.
type ReportStore interface {
	ListReports(ctx context.Context) ([]models.CommunityReport, error)
	AddReport(ctx context.Context, r models.CommunityReport) error
	MarkHelpful(ctx context.Context, id string) error
	VerifyReport(ctx context.Context, id string) error
}

// EvaluationStore holds self-assessment results
type EvaluationStore interface {
	ListEvaluations(ctx context.Context) ([]models.SafetyEvaluation, error)
	AddEvaluation(ctx context.Context, e models.SafetyEvaluation) error
}

// HistoryStore holds confirmed routes, newest first, capped at HistoryLimit
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec models.RouteHistoryRecord) error
	ListHistory(ctx context.Context) ([]models.RouteHistoryRecord, error)
}

// Store bundles the three collections
type Store interface {
	ReportStore
	EvaluationStore
	HistoryStore
}

// prepend inserts item at the head of list and truncates it to limit
func prepend[T any](list []T, item T, limit int) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	out = append(out, list...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// updateReport applies fn to the report with the given id
func updateReport(reports []models.CommunityReport, id string, fn func(*models.CommunityReport)) error {
	for i := range reports {
		if reports[i].ID == id {
			fn(&reports[i])
			return nil
		}
	}
	return ErrNotFound
}

// upsertReport returns reports with r at the head and any earlier report
// with the same id dropped
func upsertReport(reports []models.CommunityReport, r models.CommunityReport) []models.CommunityReport {
	out := make([]models.CommunityReport, 0, len(reports)+1)
	out = append(out, r)
	for _, existing := range reports {
		if existing.ID != r.ID {
			out = append(out, existing)
		}
	}
	return out
}
