package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/job"
)

const defaultListLimit = 20

// timestampLayout is fixed width so timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists job results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("job store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure job store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save inserts or replaces the row for result.JobID.
func (s *Store) Save(ctx context.Context, result job.Result) error {
	if strings.TrimSpace(result.JobID) == "" {
		return errors.New("job result has no id")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, state, success, final_path, duration, size_bytes,
            started_at, finished_at, updated_at, result_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            success = excluded.success,
            final_path = excluded.final_path,
            duration = excluded.duration,
            size_bytes = excluded.size_bytes,
            started_at = excluded.started_at,
            finished_at = excluded.finished_at,
            updated_at = excluded.updated_at,
            result_json = excluded.result_json`,
		result.JobID,
		string(result.State),
		boolToInt(result.Success),
		nullableString(result.Artifacts[job.ArtifactFinal]),
		result.Duration,
		result.SizeBytes,
		nullableTime(result.StartedAt),
		nullableTime(result.FinishedAt),
		time.Now().UTC().Format(timestampLayout),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", result.JobID, err)
	}
	return nil
}

// Get fetches one result. A missing job yields nil without error.
func (s *Store) Get(ctx context.Context, id string) (*job.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM jobs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return decodeResult(payload)
}

// List returns the most recently started jobs first, optionally filtered by
// state. A non-positive limit uses the default.
func (s *Store) List(ctx context.Context, limit int, states ...job.State) ([]job.Result, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.query(ctx, limit, states)
}

// query lists jobs in the given states; limit < 0 means unbounded.
func (s *Store) query(ctx context.Context, limit int, states []job.State) ([]job.Result, error) {
	query := `SELECT result_json FROM jobs`
	args := make([]any, 0, len(states)+1)
	if len(states) > 0 {
		placeholders := make([]string, len(states))
		for i, state := range states {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		query += ` WHERE state IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY COALESCE(started_at, updated_at) DESC, id`
	if limit >= 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var results []job.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

// Stats counts jobs grouped by state.
func (s *Store) Stats(ctx context.Context) (map[job.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[job.State]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[job.State(state)] = count
	}
	return stats, rows.Err()
}

// MarkInterrupted fails every job left in a non-terminal state, as happens
// when a process exits mid-run. It returns the number of rows changed.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	var states []job.State
	for _, state := range job.States() {
		if !state.Terminal() {
			states = append(states, state)
		}
	}
	stale, err := s.query(ctx, -1, states)
	if err != nil {
		return 0, err
	}
	var changed int64
	for _, result := range stale {
		result.Fail(string(result.State), errors.New("interrupted before completion"))
		result.FinishedAt = time.Now().UTC()
		if err := s.Save(ctx, result); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func decodeResult(payload string) (*job.Result, error) {
	result := job.NewResult("")
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode job result: %w", err)
	}
	if result.Artifacts == nil {
		result.Artifacts = map[string]string{}
	}
	if result.Fallbacks == nil {
		result.Fallbacks = map[string]string{}
	}
	if result.Errors == nil {
		result.Errors = []job.Note{}
	}
	return &result, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timestampLayout)
}
