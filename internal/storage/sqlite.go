// Package storage persists benchmark runs, selections and audit events in
// SQLite. Runs are stored as a keyed row plus a JSON document, so the
// schema stays stable while the run shape evolves.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/internal/audit"
	"github.com/modelbench/modelbench/pkg/errors"
	"github.com/modelbench/modelbench/pkg/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	problem_type TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	doc          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_user_created ON runs(user_id, created_at);

CREATE TABLE IF NOT EXISTS selections (
	selection_id TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(run_id),
	model_name   TEXT NOT NULL,
	selected_at  TIMESTAMP NOT NULL,
	doc          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_selections_run ON selections(run_id);

CREATE TABLE IF NOT EXISTS audit_log (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	actor     TEXT NOT NULL,
	action    TEXT NOT NULL,
	entity    TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	detail    TEXT,
	at        TIMESTAMP NOT NULL
);
`

// RunSummary is the listing view of a persisted run.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	UserID          string            `json:"user_id"`
	ProblemType     bench.ProblemType `json:"problem_type"`
	CreatedAt       time.Time         `json:"created_at"`
	SuccessfulCount int               `json:"successful_count"`
	FailedCount     int               `json:"failed_count"`
	BestModelName   string            `json:"best_model_name,omitempty"`
}

// Store is a SQLite-backed repository for runs and selections.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "storage: open")
	}
	// modernc.org/sqlite serialises writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "storage: apply schema")
	}
	return &Store{db: db, logger: log.With("storage")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed run. The run's PersistedAt is stamped
// before the document is written; in-memory model objects are never part
// of the document, only payloads the registry produced.
func (s *Store) SaveRun(ctx context.Context, run *bench.BenchmarkRun) error {
	now := time.Now().UTC()
	run.PersistedAt = &now
	doc, err := json.Marshal(run)
	if err != nil {
		return errors.Wrap(err, "storage: marshal run")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, user_id, problem_type, created_at, doc) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.UserID, string(run.ProblemType), run.CreatedAt, string(doc))
	if err != nil {
		run.PersistedAt = nil
		return errors.Wrap(err, "storage: insert run")
	}
	s.logger.Debug().Str("run_id", run.RunID).Msg("run persisted")
	return nil
}

// GetRun loads one run by ID. Trained objects are not reattached; callers
// decode payloads when they need live models.
func (s *Store) GetRun(ctx context.Context, runID string) (*bench.BenchmarkRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM runs WHERE run_id = ?`, runID)
	return scanRun(row, runID)
}

// LastRun returns the most recently created run for the user, or for any
// user when userID is empty.
func (s *Store) LastRun(ctx context.Context, userID string) (*bench.BenchmarkRun, error) {
	var row *sql.Row
	if userID == "" {
		row = s.db.QueryRowContext(ctx, `SELECT doc FROM runs ORDER BY created_at DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT doc FROM runs WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
	}
	return scanRun(row, "latest")
}

// ListRuns returns run summaries newest first, optionally filtered by
// user. A non-positive limit returns everything.
func (s *Store) ListRuns(ctx context.Context, userID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows *sql.Rows
	var err error
	if userID == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM runs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "storage: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "storage: scan run")
		}
		var run bench.BenchmarkRun
		if err := json.Unmarshal([]byte(doc), &run); err != nil {
			return nil, errors.Wrap(err, "storage: unmarshal run")
		}
		out = append(out, RunSummary{
			RunID:           run.RunID,
			UserID:          run.UserID,
			ProblemType:     run.ProblemType,
			CreatedAt:       run.CreatedAt,
			SuccessfulCount: run.SuccessfulCount,
			FailedCount:     run.FailedCount,
			BestModelName:   run.BestModelName,
		})
	}
	return out, rows.Err()
}

// SaveSelection appends a selection record. Selections are immutable:
// there is no update path.
func (s *Store) SaveSelection(ctx context.Context, sel *bench.Selection) error {
	doc, err := json.Marshal(sel)
	if err != nil {
		return errors.Wrap(err, "storage: marshal selection")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO selections (selection_id, run_id, model_name, selected_at, doc) VALUES (?, ?, ?, ?, ?)`,
		sel.SelectionID, sel.RunID, sel.ModelName, sel.SelectedAt, string(doc))
	if err != nil {
		return errors.Wrap(err, "storage: insert selection")
	}
	return nil
}

// ListSelections returns the selections recorded for a run, oldest first.
func (s *Store) ListSelections(ctx context.Context, runID string) ([]bench.Selection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM selections WHERE run_id = ? ORDER BY selected_at`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "storage: list selections")
	}
	defer rows.Close()

	var out []bench.Selection
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "storage: scan selection")
		}
		var sel bench.Selection
		if err := json.Unmarshal([]byte(doc), &sel); err != nil {
			return nil, errors.Wrap(err, "storage: unmarshal selection")
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}

// AuditSink returns a durable audit sink writing to this store.
func (s *Store) AuditSink() audit.Sink {
	return &sqlSink{db: s.db}
}

type sqlSink struct {
	db *sql.DB
}

func (s *sqlSink) Record(ctx context.Context, e audit.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, entity, entity_id, detail, at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Actor, e.Action, e.Entity, e.EntityID, e.Detail, e.At)
	if err != nil {
		return errors.Wrap(err, "storage: insert audit event")
	}
	return nil
}

func scanRun(row *sql.Row, key string) (*bench.BenchmarkRun, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("run", key, "")
		}
		return nil, errors.Wrap(err, "storage: scan run")
	}
	var run bench.BenchmarkRun
	if err := json.Unmarshal([]byte(doc), &run); err != nil {
		return nil, errors.Wrap(err, "storage: unmarshal run")
	}
	return &run, nil
}
