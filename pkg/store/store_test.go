package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func backends(t *testing.T) map[string]Store {
	f, err := NewFile(t.TempDir(), quietLogger())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemory(),
		"file":   f,
	}
}

func report(id string) models.CommunityReport {
	return models.CommunityReport{
		ID:        id,
		Type:      models.ReportHarassment,
		Title:     "Report " + id,
		Location:  models.GeoPoint{Lat: 41.3851, Lng: 2.1734},
		Timestamp: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			reports, err := s.ListReports(ctx)
			require.NoError(t, err)
			assert.Empty(t, reports)

			require.NoError(t, s.AddReport(ctx, report("a")))
			require.NoError(t, s.AddReport(ctx, report("b")))

			reports, err = s.ListReports(ctx)
			require.NoError(t, err)
			require.Len(t, reports, 2)
			assert.Equal(t, "b", reports[0].ID)
			assert.Equal(t, "a", reports[1].ID)
			assert.True(t, reports[1].Timestamp.Equal(report("a").Timestamp))
		})
	}
}

func TestReportCounters(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddReport(ctx, report("a")))

			require.NoError(t, s.MarkHelpful(ctx, "a"))
			require.NoError(t, s.MarkHelpful(ctx, "a"))
			require.NoError(t, s.VerifyReport(ctx, "a"))

			assert.ErrorIs(t, s.MarkHelpful(ctx, "missing"), ErrNotFound)
			assert.ErrorIs(t, s.VerifyReport(ctx, "missing"), ErrNotFound)

			reports, err := s.ListReports(ctx)
			require.NoError(t, err)
			require.Len(t, reports, 1)
			assert.Equal(t, 2, reports[0].Helpful)
			assert.Equal(t, 1, reports[0].VerifiedCount)
		})
	}
}

func TestHistoryCap(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < HistoryLimit+1; i++ {
				require.NoError(t, s.AppendHistory(ctx, models.RouteHistoryRecord{ID: fmt.Sprint(i)}))
			}

			history, err := s.ListHistory(ctx)
			require.NoError(t, err)
			require.Len(t, history, HistoryLimit)
			assert.Equal(t, fmt.Sprint(HistoryLimit), history[0].ID)
			assert.Equal(t, "1", history[HistoryLimit-1].ID)
		})
	}
}

func TestEvaluationCap(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < EvaluationLimit+5; i++ {
				require.NoError(t, s.AddEvaluation(ctx, models.SafetyEvaluation{ID: fmt.Sprint(i)}))
			}

			evals, err := s.ListEvaluations(ctx)
			require.NoError(t, err)
			require.Len(t, evals, EvaluationLimit)
			assert.Equal(t, fmt.Sprint(EvaluationLimit+4), evals[0].ID)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.AddReport(ctx, report("a")))

	reports, _ := s.ListReports(ctx)
	reports[0].Title = "changed"

	reports, _ = s.ListReports(ctx)
	assert.Equal(t, "Report a", reports[0].Title)
}

func TestFileCorruptDocumentReadsEmpty(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"syntax error", "{not json"},
		{"wrong field type", `[{"id":"a","safetyScore":"oops"},{"id":"b","safetyScore":10}]`},
		{"not a list", `{"id":"a"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			path := filepath.Join(dir, KeyHistory+".json")
			require.NoError(t, os.WriteFile(path, []byte(tc.data), 0644))

			s, err := NewFile(dir, quietLogger())
			require.NoError(t, err)

			history, err := s.ListHistory(ctx)
			require.NoError(t, err)
			assert.Empty(t, history)

			// the corrupt document is kept aside
			kept, err := os.ReadFile(path + ".corrupt")
			require.NoError(t, err)
			assert.Equal(t, tc.data, string(kept))

			require.NoError(t, s.AppendHistory(ctx, models.RouteHistoryRecord{ID: "x"}))
			history, err = s.ListHistory(ctx)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, "x", history[0].ID)
		})
	}
}

func TestAddReportReplacesSameID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddReport(ctx, report("a")))
			require.NoError(t, s.AddReport(ctx, report("b")))

			updated := report("a")
			updated.Title = "updated"
			require.NoError(t, s.AddReport(ctx, updated))

			reports, err := s.ListReports(ctx)
			require.NoError(t, err)
			require.Len(t, reports, 2)
			assert.Equal(t, "a", reports[0].ID)
			assert.Equal(t, "updated", reports[0].Title)
			assert.Equal(t, "b", reports[1].ID)

			require.NoError(t, s.MarkHelpful(ctx, "a"))
			reports, err = s.ListReports(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, reports[0].Helpful)
		})
	}
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFile(dir, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s1.AddReport(ctx, report("a")))

	s2, err := NewFile(dir, quietLogger())
	require.NoError(t, err)
	reports, err := s2.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportHarassment, reports[0].Type)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, s.AppendHistory(ctx, models.RouteHistoryRecord{ID: fmt.Sprint(i)}))
				}(i)
			}
			wg.Wait()

			history, err := s.ListHistory(ctx)
			require.NoError(t, err)
			assert.Len(t, history, 20)
		})
	}
}
