package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funnelstack/funnel-probe/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	store_url  TEXT NOT NULL,
	status     TEXT NOT NULL,
	result     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
`

// SQLiteStore persists run records in a local SQLite database. Records and
// their results survive process restarts, unlike the memory backend.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. ttl <= 0 keeps records forever.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY churn under concurrent runners.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	var result sql.NullString
	if rec.Result != nil {
		payload, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		result = sql.NullString{String: string(payload), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, store_url, status, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			result = excluded.result`,
		rec.RunID, rec.StoreURL, string(rec.Status), result,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", rec.RunID, err)
	}

	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff); err != nil {
			return fmt.Errorf("prune expired runs: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, runID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, store_url, status, result, created_at
		FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT run_id, store_url, status, result, created_at
		FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		status    string
		result    sql.NullString
		createdAt string
	)
	if err := row.Scan(&rec.RunID, &rec.StoreURL, &status, &result, &createdAt); err != nil {
		return Record{}, err
	}
	rec.Status = models.RunStatus(status)
	if result.Valid {
		var parsed models.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &parsed); err != nil {
			return Record{}, fmt.Errorf("unmarshal result for %s: %w", rec.RunID, err)
		}
		rec.Result = &parsed
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at for %s: %w", rec.RunID, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}
