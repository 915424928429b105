// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
)

// Config holds DuckDB store settings.
type Config struct {
	// Path to the database file. Empty opens an in-memory database.
	Path string

	// MaxMemory caps DuckDB's memory use, e.g. "512MB".
	MaxMemory string

	// Threads limits DuckDB's worker threads. Zero means NumCPU capped
	// at four.
	Threads int
}

// DefaultConfig returns production defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:      path,
		MaxMemory: "512MB",
	}
}

// Store persists flattened track events in DuckDB.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS track_events (
	event_id          VARCHAR PRIMARY KEY,
	schema_version    INTEGER NOT NULL,
	user_id           VARCHAR NOT NULL,
	source            VARCHAR NOT NULL,
	track_id          VARCHAR NOT NULL,
	track_name        VARCHAR,
	status            VARCHAR NOT NULL,
	duration_listened BIGINT NOT NULL,
	event_ts          BIGINT NOT NULL,
	inserted_at       TIMESTAMP NOT NULL DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS idx_track_events_user_ts ON track_events(user_id, event_ts);
`

// Open opens or creates the database and ensures the schema.
func Open(cfg Config) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
		if threads > 4 {
			threads = 4
		}
	}

	connStr := cfg.Path
	if connStr == "" {
		connStr = ":memory:"
	}
	// Extensions are never auto-fetched; restricted environments hang
	// on the download otherwise.
	connStr = fmt.Sprintf("%s?threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false", connStr, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open analytics database: %w", err)
	}

	// DuckDB is single-writer; one connection avoids write conflicts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Close after failed schema init")
		}
		return nil, fmt.Errorf("create analytics schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Msg("Analytics store opened")

	return &Store{db: db}, nil
}

// InsertTrackEvents atomically inserts a batch, skipping rows whose
// event id already exists. Returns the number of new rows; the
// difference from len(batch) is duplicates.
func (s *Store) InsertTrackEvents(ctx context.Context, batch []*events.TrackEvent) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Warn().Err(rbErr).Msg("Analytics transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO track_events (
		event_id, schema_version, user_id, source, track_id, track_name,
		status, duration_listened, event_ts
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Close insert statement")
		}
	}()

	inserted := 0
	for _, ev := range batch {
		res, execErr := stmt.ExecContext(ctx,
			ev.EventID,
			ev.GetSchemaVersion(),
			ev.UserID,
			ev.Source,
			ev.TrackID,
			ev.TrackName,
			ev.Status,
			ev.DurationListened,
			ev.Timestamp,
		)
		if execErr != nil {
			err = fmt.Errorf("insert event %s: %w", ev.EventID, execErr)
			return 0, err
		}
		if rows, raErr := res.RowsAffected(); raErr == nil {
			inserted += int(rows)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}

	if dup := len(batch) - inserted; dup > 0 {
		logging.Debug().
			Int("inserted", inserted).
			Int("duplicates", dup).
			Msg("Analytics batch had duplicate event ids")
	}
	return inserted, nil
}

// EventRow is one flattened track event as stored.
type EventRow struct {
	EventID          string `json:"event_id"`
	UserID           string `json:"user_id"`
	Source           string `json:"source"`
	TrackID          string `json:"track_id"`
	TrackName        string `json:"track_name,omitempty"`
	Status           string `json:"status"`
	DurationListened int64  `json:"duration_listened"`
	Timestamp        int64  `json:"timestamp"`
}

// RecentEventsByUser returns the user's newest events, newest first.
func (s *Store) RecentEventsByUser(ctx context.Context, userID string, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, user_id, source, track_id, track_name, status, duration_listened, event_ts
		FROM track_events
		WHERE user_id = ?
		ORDER BY event_ts DESC, event_id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Close recent events rows")
		}
	}()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		var trackName sql.NullString
		if err := rows.Scan(&r.EventID, &r.UserID, &r.Source, &r.TrackID, &trackName, &r.Status, &r.DurationListened, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		r.TrackName = trackName.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	metrics.RecordAnalyticsQuery("recent_events", time.Since(start))
	return out, nil
}

// StatusCounts returns per-status event counts for one user.
func (s *Store) StatusCounts(ctx context.Context, userID string) (map[string]int64, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM track_events
		WHERE user_id = ?
		GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Close status counts rows")
		}
	}()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	metrics.RecordAnalyticsQuery("status_counts", time.Since(start))
	return counts, nil
}

// EventCount returns the total number of stored events.
func (s *Store) EventCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
