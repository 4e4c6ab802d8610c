// Package history records analyze runs and per-requirement coverage in a
// SQLite database so trends can be inspected across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/tracematrix/internal/correlate"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded analyze run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Catalog   string
	State     string
	Error     string
	Summary   correlate.Summary
	Statuses  []RequirementStatus
}

// RequirementStatus is the coverage of one requirement in a run.
type RequirementStatus struct {
	RequirementID string
	Status        string
	TestCount     int
	Justification string
}

// NewRun builds a run record from a correlation result. result may be nil
// for a failed run.
func NewRun(result *correlate.Result, catalog, state string, startedAt time.Time, duration time.Duration) *Run {
	run := &Run{
		StartedAt: startedAt,
		Duration:  duration,
		Catalog:   catalog,
		State:     state,
	}
	if result == nil {
		return run
	}
	run.Summary = result.Summary()
	for _, rc := range result.Requirements {
		st := RequirementStatus{
			RequirementID: rc.Requirement.ID,
			Status:        string(rc.Status),
			TestCount:     len(rc.Tests),
		}
		if rc.Justification != nil {
			st.Justification = rc.Justification.Text
		}
		run.Statuses = append(run.Statuses, st)
	}
	return run
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		// Ensure parent directory exists for file-based databases
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
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

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// RecordRun stores run and its requirement statuses in one transaction. An
// empty run.ID is replaced with a new UUID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, duration_ms, catalog, state, error_message, requirements, covered, justified, uncovered, tests, anomalies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.Catalog,
		run.State,
		run.Error,
		sum.Requirements,
		sum.Covered,
		sum.Justified,
		sum.Uncovered,
		sum.Tests,
		sum.Anomalies,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Statuses) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO requirement_status
			(run_id, requirement_id, status, test_count, justification) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare requirement status: %w", err)
		}
		defer stmt.Close()
		for _, st := range run.Statuses {
			if _, err := stmt.ExecContext(ctx, run.ID, st.RequirementID, st.Status, st.TestCount, st.Justification); err != nil {
				return fmt.Errorf("insert requirement status %s: %w", st.RequirementID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRuns returns recorded runs, most recent first. limit <= 0 returns all
// runs. Statuses are not loaded.
func (s *Store) GetRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, started_at, duration_ms, catalog, state, error_message,
		requirements, covered, justified, uncovered, tests, anomalies
		FROM runs
		ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its statuses.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, started_at, duration_ms, catalog, state, error_message,
		requirements, covered, justified, uncovered, tests, anomalies
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	run.Statuses, err = s.GetRequirementStatuses(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRequirementStatuses returns the statuses recorded for runID, ordered
// by requirement id.
func (s *Store) GetRequirementStatuses(ctx context.Context, runID string) ([]RequirementStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT requirement_id, status, test_count, justification
		FROM requirement_status
		WHERE run_id = ?
		ORDER BY requirement_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query requirement statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]RequirementStatus, 0)
	for rows.Next() {
		var st RequirementStatus
		var justification sql.NullString
		if err := rows.Scan(&st.RequirementID, &st.Status, &st.TestCount, &justification); err != nil {
			return nil, fmt.Errorf("scan requirement status: %w", err)
		}
		st.Justification = justification.String
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requirement statuses: %w", err)
	}
	return statuses, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		durationMs int64
		catalog    sql.NullString
		errMsg     sql.NullString
	)
	err := row.Scan(&run.ID, &startedAt, &durationMs, &catalog, &run.State, &errMsg,
		&run.Summary.Requirements, &run.Summary.Covered, &run.Summary.Justified,
		&run.Summary.Uncovered, &run.Summary.Tests, &run.Summary.Anomalies)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.Catalog = catalog.String
	run.Error = errMsg.String
	return &run, nil
}
