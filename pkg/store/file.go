package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/models"
)

// File stores each collection as a JSON document in a directory, one file
// per key. Unreadable or corrupt documents are logged and read as empty.
type File struct {
	dir string
	log logrus.FieldLogger
	mu  sync.Mutex
}

// NewFile creates a file store rooted at dir, creating it if needed
func NewFile(dir string, log logrus.FieldLogger) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &File{dir: dir, log: log.WithField("backend", "file")}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// load reads the document for key. Missing documents read as empty.
// Corrupt ones also read as empty and are moved aside to <key>.json.corrupt
// so the next write does not destroy them.
func load[T any](f *File, key string) []T {
	path := f.path(key)
	log := f.log.WithField("key", key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("failed to read document, treating as empty")
		}
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.WithError(err).Warn("corrupt document, treating as empty")
		if err := os.Rename(path, path+".corrupt"); err != nil {
			log.WithError(err).Warn("failed to move corrupt document aside, next write replaces it")
		} else {
			log.WithField("path", path+".corrupt").Warn("corrupt document moved aside")
		}
		return nil
	}
	return items
}

// save writes v atomically via a temporary file and rename
func (f *File) save(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (f *File) reports() []models.CommunityReport {
	return load[models.CommunityReport](f, KeyReports)
}

func (f *File) ListReports(ctx context.Context) ([]models.CommunityReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports(), nil
}

func (f *File) AddReport(ctx context.Context, r models.CommunityReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.save(KeyReports, upsertReport(f.reports(), r))
}

func (f *File) MarkHelpful(ctx context.Context, id string) error {
	return f.updateReport(id, func(r *models.CommunityReport) { r.Helpful++ })
}

func (f *File) VerifyReport(ctx context.Context, id string) error {
	return f.updateReport(id, func(r *models.CommunityReport) { r.VerifiedCount++ })
}

func (f *File) updateReport(id string, fn func(*models.CommunityReport)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reports := f.reports()
	if err := updateReport(reports, id, fn); err != nil {
		return err
	}
	return f.save(KeyReports, reports)
}

func (f *File) evaluations() []models.SafetyEvaluation {
	return load[models.SafetyEvaluation](f, KeyEvaluations)
}

func (f *File) ListEvaluations(ctx context.Context) ([]models.SafetyEvaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evaluations(), nil
}

func (f *File) AddEvaluation(ctx context.Context, e models.SafetyEvaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(KeyEvaluations, prepend(f.evaluations(), e, EvaluationLimit))
}

func (f *File) history() []models.RouteHistoryRecord {
	return load[models.RouteHistoryRecord](f, KeyHistory)
}

func (f *File) AppendHistory(ctx context.Context, rec models.RouteHistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(KeyHistory, prepend(f.history(), rec, HistoryLimit))
}

func (f *File) ListHistory(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history(), nil
}
