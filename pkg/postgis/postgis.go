package postgis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

// Options holds the connection settings
type Options struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	MaxConnections int
}

// ConnString builds the lib/pq connection string
func (o Options) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		o.Host, o.Port, o.User, o.Password, o.Database)
}

// Store implements store.Store on PostgreSQL with PostGIS
type Store struct {
	db *sql.DB
}

// Open connects to the database and ensures the schema exists
func Open(ctx context.Context, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", opts.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// schema creates the tables and their spatial indexes
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis;`,

	`CREATE TABLE IF NOT EXISTS community_reports (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		location GEOMETRY(POINT, 4326) NOT NULL,
		reported_at TIMESTAMPTZ NOT NULL,
		is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
		username TEXT NOT NULL DEFAULT '',
		verified_count INTEGER NOT NULL DEFAULT 0,
		helpful INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_community_reports_location ON community_reports USING GIST(location);`,

	`CREATE TABLE IF NOT EXISTS safety_evaluations (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		evaluated_at TIMESTAMPTZ NOT NULL,
		location GEOMETRY(POINT, 4326),
		level TEXT NOT NULL DEFAULT '',
		percentage DOUBLE PRECISION NOT NULL,
		responses JSONB NOT NULL DEFAULT '{}'
	);`,
	`CREATE INDEX IF NOT EXISTS idx_safety_evaluations_location ON safety_evaluations USING GIST(location);`,

	`CREATE TABLE IF NOT EXISTS route_history (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		saved_at TIMESTAMPTZ NOT NULL,
		start_location GEOMETRY(POINT, 4326) NOT NULL,
		start_address TEXT NOT NULL,
		end_location GEOMETRY(POINT, 4326) NOT NULL,
		end_address TEXT NOT NULL,
		selected_route TEXT NOT NULL,
		safety_score INTEGER NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		duration_minutes INTEGER NOT NULL
	);`,
}

// InitSchema creates the necessary tables and indexes
func (s *Store) InitSchema(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// trimQuery keeps the newest limit rows of a seq-ordered table
func trimQuery(table string) string {
	return fmt.Sprintf(`DELETE FROM %[1]s WHERE seq NOT IN (SELECT seq FROM %[1]s ORDER BY seq DESC LIMIT $1)`, table)
}

const insertReport = `
	INSERT INTO community_reports
		(id, type, title, description, location, reported_at, is_anonymous, username, verified_count, helpful)
	VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		type = EXCLUDED.type, title = EXCLUDED.title, description = EXCLUDED.description,
		location = EXCLUDED.location, reported_at = EXCLUDED.reported_at,
		is_anonymous = EXCLUDED.is_anonymous, username = EXCLUDED.username,
		verified_count = EXCLUDED.verified_count, helpful = EXCLUDED.helpful
`

const selectReports = `
	SELECT id, type, title, description, ST_Y(location), ST_X(location),
		reported_at, is_anonymous, username, verified_count, helpful
	FROM community_reports
`

func (s *Store) AddReport(ctx context.Context, r models.CommunityReport) error {
	_, err := s.db.ExecContext(ctx, insertReport, reportArgs(r)...)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
	}
	return nil
}

// reportArgs orders a report's columns for insertReport; PostGIS takes
// longitude first
func reportArgs(r models.CommunityReport) []interface{} {
	return []interface{}{
		r.ID, string(r.Type), r.Title, r.Description,
		r.Location.Lng, r.Location.Lat,
		r.Timestamp, r.IsAnonymous, r.Username, r.VerifiedCount, r.Helpful,
	}
}

// AddReports inserts reports in batches for seeding
func (s *Store) AddReports(ctx context.Context, reports []models.CommunityReport) error {
	const batchSize = 1000

	stmt, err := s.db.PrepareContext(ctx, insertReport)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for begin := 0; begin < len(reports); begin += batchSize {
		end := begin + batchSize
		if end > len(reports) {
			end = len(reports)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		txStmt := tx.StmtContext(ctx, stmt)

		for _, r := range reports[begin:end] {
			if _, err := txStmt.ExecContext(ctx, reportArgs(r)...); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
	}
	return nil
}

func (s *Store) ListReports(ctx context.Context) ([]models.CommunityReport, error) {
	return s.queryReports(ctx, selectReports+` ORDER BY reported_at DESC, id`)
}

// ReportsWithin returns the reports within radiusKm of center using the
// spatial index
func (s *Store) ReportsWithin(ctx context.Context, center models.GeoPoint, radiusKm float64) ([]models.CommunityReport, error) {
	query := selectReports + `
		WHERE ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY reported_at DESC, id
	`
	return s.queryReports(ctx, query, center.Lng, center.Lat, radiusKm*1000)
}

func (s *Store) queryReports(ctx context.Context, query string, args ...interface{}) ([]models.CommunityReport, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.CommunityReport
	for rows.Next() {
		var r models.CommunityReport
		var typ string
		if err := rows.Scan(&r.ID, &typ, &r.Title, &r.Description, &r.Location.Lat, &r.Location.Lng,
			&r.Timestamp, &r.IsAnonymous, &r.Username, &r.VerifiedCount, &r.Helpful); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Type = models.NormalizeReportType(typ)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

func (s *Store) MarkHelpful(ctx context.Context, id string) error {
	return s.increment(ctx, id, "helpful")
}

func (s *Store) VerifyReport(ctx context.Context, id string) error {
	return s.increment(ctx, id, "verified_count")
}

func (s *Store) increment(ctx context.Context, id, column string) error {
	query := fmt.Sprintf(`UPDATE community_reports SET %[1]s = %[1]s + 1 WHERE id = $1`, column)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddEvaluation(ctx context.Context, e models.SafetyEvaluation) error {
	responses, err := json.Marshal(e.Responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}

	var lng, lat sql.NullFloat64
	if e.Location != nil {
		lng = sql.NullFloat64{Float64: e.Location.Lng, Valid: true}
		lat = sql.NullFloat64{Float64: e.Location.Lat, Valid: true}
	}

	return s.insertCapped(ctx, "safety_evaluations", store.EvaluationLimit, `
		INSERT INTO safety_evaluations (id, evaluated_at, location, level, percentage, responses)
		VALUES ($1, $2,
			CASE WHEN $3::float8 IS NULL THEN NULL ELSE ST_SetSRID(ST_MakePoint($3, $4), 4326) END,
			$5, $6, $7)
	`, e.ID, e.Timestamp, lng, lat, e.Level, e.Percentage, responses)
}

func (s *Store) ListEvaluations(ctx context.Context) ([]models.SafetyEvaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, evaluated_at, ST_Y(location), ST_X(location), level, percentage, responses
		FROM safety_evaluations
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.SafetyEvaluation
	for rows.Next() {
		var e models.SafetyEvaluation
		var lat, lng sql.NullFloat64
		var responses []byte
		if err := rows.Scan(&e.ID, &e.Timestamp, &lat, &lng, &e.Level, &e.Percentage, &responses); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if lat.Valid && lng.Valid {
			e.Location = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		if err := json.Unmarshal(responses, &e.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses of %s: %w", e.ID, err)
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

func (s *Store) AppendHistory(ctx context.Context, rec models.RouteHistoryRecord) error {
	return s.insertCapped(ctx, "route_history", store.HistoryLimit, `
		INSERT INTO route_history
			(id, saved_at, start_location, start_address, end_location, end_address,
			 selected_route, safety_score, distance_km, duration_minutes)
		VALUES ($1, $2,
			ST_SetSRID(ST_MakePoint($3, $4), 4326), $5,
			ST_SetSRID(ST_MakePoint($6, $7), 4326), $8,
			$9, $10, $11, $12)
	`, rec.ID, rec.Timestamp,
		rec.Start.Lng, rec.Start.Lat, rec.Start.Address,
		rec.End.Lng, rec.End.Lat, rec.End.Address,
		string(rec.SelectedRouteID), rec.SafetyScore, rec.DistanceKm, rec.DurationMinutes)
}

func (s *Store) ListHistory(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, saved_at,
			ST_Y(start_location), ST_X(start_location), start_address,
			ST_Y(end_location), ST_X(end_location), end_address,
			selected_route, safety_score, distance_km, duration_minutes
		FROM route_history
		ORDER BY seq DESC
		LIMIT $1
	`, store.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.RouteHistoryRecord
	for rows.Next() {
		var rec models.RouteHistoryRecord
		var routeID string
		if err := rows.Scan(&rec.ID, &rec.Timestamp,
			&rec.Start.Lat, &rec.Start.Lng, &rec.Start.Address,
			&rec.End.Lat, &rec.End.Lng, &rec.End.Address,
			&routeID, &rec.SafetyScore, &rec.DistanceKm, &rec.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.SelectedRouteID = models.RouteID(routeID)
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// insertCapped runs an insert and trims the table to limit rows in one
// transaction
func (s *Store) insertCapped(ctx context.Context, table string, limit int, insert string, args ...interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, trimQuery(table), limit); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to trim %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// DatabaseStats returns database size and per-table row counts
func (s *Store) DatabaseStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var dbSize string
	err := s.db.QueryRowContext(ctx, `SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&dbSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get database size: %w", err)
	}
	stats["database_size"] = dbSize

	for _, table := range []string{"community_reports", "safety_evaluations", "route_history"} {
		var count int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}

	return stats, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
