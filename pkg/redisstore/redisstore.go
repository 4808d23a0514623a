// Package redisstore keeps reports, evaluations and route history in Redis.
// History and evaluations are capped lists, reports a hash keyed by id.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

// DefaultPrefix namespaces every key
const DefaultPrefix = "caminasegura"

// Store implements store.Store on a Redis client
type Store struct {
	rdb    *redis.Client
	prefix string
	log    logrus.FieldLogger
}

// Options configures the connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New connects to Redis and checks the connection
func New(ctx context.Context, opts Options, log logrus.FieldLogger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewWithClient(rdb, opts.Prefix, log), nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *redis.Client, prefix string, log logrus.FieldLogger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{rdb: rdb, prefix: prefix, log: log.WithField("backend", "redis")}
}

// Key returns the namespaced key for a collection
func (s *Store) Key(name string) string {
	return s.prefix + ":" + name
}

// Close closes the client
func (s *Store) Close() error {
	return s.rdb.Close()
}

// pushCapped prepends v to a list and trims it to limit in one transaction
func (s *Store) pushCapped(ctx context.Context, key string, v interface{}, limit int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

// decodeAll decodes JSON entries, skipping the ones that fail
func decodeAll[T any](log logrus.FieldLogger, key string, items []string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			log.WithError(err).WithField("key", key).Warn("skipping undecodable entry")
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *Store) AppendHistory(ctx context.Context, rec models.RouteHistoryRecord) error {
	return s.pushCapped(ctx, s.Key(store.KeyHistory), rec, store.HistoryLimit)
}

func (s *Store) ListHistory(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	key := s.Key(store.KeyHistory)
	data, err := s.rdb.LRange(ctx, key, 0, store.HistoryLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return decodeAll[models.RouteHistoryRecord](s.log, key, data), nil
}

func (s *Store) AddEvaluation(ctx context.Context, e models.SafetyEvaluation) error {
	return s.pushCapped(ctx, s.Key(store.KeyEvaluations), e, store.EvaluationLimit)
}

func (s *Store) ListEvaluations(ctx context.Context) ([]models.SafetyEvaluation, error) {
	key := s.Key(store.KeyEvaluations)
	data, err := s.rdb.LRange(ctx, key, 0, store.EvaluationLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluations: %w", err)
	}
	return decodeAll[models.SafetyEvaluation](s.log, key, data), nil
}

func (s *Store) AddReport(ctx context.Context, r models.CommunityReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.Key(store.KeyReports), r.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ListReports returns reports newest first
func (s *Store) ListReports(ctx context.Context) ([]models.CommunityReport, error) {
	key := s.Key(store.KeyReports)
	data, err := s.rdb.HVals(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	reports := decodeAll[models.CommunityReport](s.log, key, data)
	SortNewestFirst(reports)
	return reports, nil
}

// SortNewestFirst orders reports by timestamp descending, then by id
func SortNewestFirst(reports []models.CommunityReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].Timestamp.Equal(reports[j].Timestamp) {
			return reports[i].Timestamp.After(reports[j].Timestamp)
		}
		return reports[i].ID < reports[j].ID
	})
}

func (s *Store) MarkHelpful(ctx context.Context, id string) error {
	return s.updateReport(ctx, id, func(r *models.CommunityReport) { r.Helpful++ })
}

func (s *Store) VerifyReport(ctx context.Context, id string) error {
	return s.updateReport(ctx, id, func(r *models.CommunityReport) { r.VerifiedCount++ })
}

// updateReport runs an optimistic read-modify-write on one hash field
func (s *Store) updateReport(ctx context.Context, id string, fn func(*models.CommunityReport)) error {
	key := s.Key(store.KeyReports)

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		var r models.CommunityReport
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return fmt.Errorf("failed to decode report %s: %w", id, err)
		}
		fn(&r)

		updated, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, updated)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update report %s: too much contention", id)
}
