// internal/store/store.go
// Package store implements the run persistence gateway on SQLite. Results are
// written append-only; the same database file can safely receive results from
// concurrent workers thanks to WAL mode and a busy timeout.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/schemarena/schemarena/internal/run"
	"github.com/schemarena/schemarena/internal/validation"
)

//go:embed schema.sql
var schemaSQL string

// Store manages the SQLite database holding runs and results.
type Store struct {
	db     *sql.DB
	dbPath string
}

var _ run.Gateway = (*Store)(nil)

// New creates a Store and initializes the database at dbPath, which may be
// ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps writers serialized and is required for
	// ":memory:", where every new connection would see a fresh database.
	db.SetMaxOpenConns(1)

	// busy_timeout must come first so the remaining pragmas wait on locks
	// instead of failing when another process holds the database.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with backoff on lock errors that can
// occur during concurrent initialization of the same database file.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record with a snapshot of its configuration.
func (s *Store) CreateRun(ctx context.Context, testRun *run.TestRun) error {
	config, err := json.Marshal(testRun.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO runs (id, name, config, status, expected_tasks, error_message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		testRun.ID, testRun.Name, string(config), string(testRun.Status),
		testRun.ExpectedTasks, testRun.ErrorMessage, testRun.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SetRunStatus updates a run's status. It is idempotent for repeated
// identical statuses and refuses backward transitions; the run lifecycle only
// moves forward.
func (s *Store) SetRunStatus(ctx context.Context, runID string, status run.Status, at time.Time, errorMessage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, runID).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("run %s not found", runID)
		}
		return fmt.Errorf("read run status: %w", err)
	}
	if run.Status(current) == status {
		return nil
	}
	if !run.Status(current).CanTransitionTo(status) {
		return fmt.Errorf("illegal status transition %s -> %s for run %s", current, status, runID)
	}

	switch {
	case status == run.StatusRunning:
		_, err = tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, started_at = ? WHERE id = ?`,
			string(status), at, runID)
	case status.Terminal():
		_, err = tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`,
			string(status), at, errorMessage, runID)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return tx.Commit()
}

// AppendResult durably records one task outcome. The unique index makes a
// duplicate (run, model, item) write an error rather than a silent overwrite.
func (s *Store) AppendResult(ctx context.Context, result *run.TestResult) error {
	var violations any
	if len(result.Violations) > 0 {
		encoded, err := json.Marshal(result.Violations)
		if err != nil {
			return fmt.Errorf("marshal violations: %w", err)
		}
		violations = string(encoded)
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO results (run_id, model_id, item_id, raw_output, parse_status,
                             compliance_status, violations, execution_time_ms,
                             tokens_used, error_message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Model, result.ItemID,
		nullableString(result.RawOutput), result.ParseStatus,
		string(result.Compliance), violations,
		nullableFloat(result.ExecutionMs), nullableInt(result.TokensUsed),
		nullableString(result.ErrorMsg), createdAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// GetRun loads one run record by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*run.TestRun, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, config, status, expected_tasks, error_message,
               created_at, started_at, completed_at
        FROM runs WHERE id = ?`, runID)

	var testRun run.TestRun
	var config string
	var status string
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&testRun.ID, &testRun.Name, &config, &status,
		&testRun.ExpectedTasks, &testRun.ErrorMessage,
		&testRun.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	if err := json.Unmarshal([]byte(config), &testRun.Config); err != nil {
		return nil, fmt.Errorf("decode run config: %w", err)
	}
	testRun.Status = run.Status(status)
	if startedAt.Valid {
		t := startedAt.Time
		testRun.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		testRun.CompletedAt = &t
	}
	return &testRun, nil
}

// ListResults returns every result row for a run. Order is not part of the
// contract; rows come back in insertion order as a convenience.
func (s *Store) ListResults(ctx context.Context, runID string) ([]run.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, model_id, item_id, raw_output, parse_status,
               compliance_status, violations, execution_time_ms,
               tokens_used, error_message, created_at
        FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []run.TestResult
	for rows.Next() {
		var result run.TestResult
		var compliance string
		var rawOutput, violations, errorMessage sql.NullString
		var executionMs sql.NullFloat64
		var tokensUsed sql.NullInt64
		err := rows.Scan(&result.RunID, &result.Model, &result.ItemID,
			&rawOutput, &result.ParseStatus, &compliance, &violations,
			&executionMs, &tokensUsed, &errorMessage, &result.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		result.Compliance = validation.Compliance(compliance)
		if rawOutput.Valid {
			v := rawOutput.String
			result.RawOutput = &v
		}
		if violations.Valid && violations.String != "" {
			if err := json.Unmarshal([]byte(violations.String), &result.Violations); err != nil {
				return nil, fmt.Errorf("decode violations: %w", err)
			}
		}
		if executionMs.Valid {
			v := executionMs.Float64
			result.ExecutionMs = &v
		}
		if tokensUsed.Valid {
			v := int(tokensUsed.Int64)
			result.TokensUsed = &v
		}
		if errorMessage.Valid {
			v := errorMessage.String
			result.ErrorMsg = &v
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// ListRuns returns run records newest first, without their results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]run.TestRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]run.TestRun, 0, len(ids))
	for _, id := range ids {
		testRun, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *testRun)
	}
	return runs, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
