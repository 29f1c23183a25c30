// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auditlog persists the append-only trail of refinement runs.
// Implements: prd004-audit-log (R1-R4);
//
//	docs/ARCHITECTURE § Audit Log.
package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/internal/refine"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "review.db"
)

// Store manages the audit log SQLite database. Iteration and decision
// rows are insert-only; a session row is finalized exactly once when the
// run ends (R1.1, R1.2).
type Store struct {
	db        *sql.DB
	reviewDir string
}

// NewStore opens or creates the audit database at reviewDir/index/review.db,
// creating the schema if needed (R1.3).
func NewStore(cfg types.AuditConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ReviewDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, reviewDir: cfg.ReviewDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project TEXT NOT NULL,
			seed_query TEXT NOT NULL,
			database_name TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT,
			stop_reason TEXT,
			final_query TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS iterations (
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			idx INTEGER NOT NULL,
			query TEXT NOT NULL,
			total_retrieved INTEGER NOT NULL,
			relevant INTEGER NOT NULL,
			irrelevant INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			precision REAL NOT NULL,
			critique TEXT,
			new_query TEXT,
			expected_improvement TEXT,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			iteration INTEGER NOT NULL,
			record_id TEXT NOT NULL,
			title TEXT,
			year INTEGER,
			doi TEXT,
			outcome TEXT NOT NULL,
			confidence REAL,
			reasoning TEXT,
			final_outcome TEXT NOT NULL,
			decided_by TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id, iteration)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginSession opens a new run in the trail and returns its log handle.
func (s *Store) BeginSession(ctx context.Context, project, seedQuery, database string) (*SessionLog, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (project, seed_query, database_name, started_at) VALUES (?, ?, ?, ?)`,
		project, seedQuery, database, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading session id: %w", err)
	}
	return &SessionLog{store: s, id: id}, nil
}

// SessionLog binds the append operations to one session row.
type SessionLog struct {
	store *Store
	id    int64
}

var _ refine.Recorder = (*SessionLog)(nil)

// ID returns the session's row id, stable across reopens.
func (l *SessionLog) ID() int64 { return l.id }

// AppendIteration inserts one finalized iteration. The row is never
// updated afterwards (R1.1).
func (l *SessionLog) AppendIteration(ctx context.Context, result types.IterationResult) error {
	var critique, newQuery, improvement string
	if result.Suggestion != nil {
		critique = result.Suggestion.Critique
		newQuery = result.Suggestion.NewQuery
		improvement = result.Suggestion.ExpectedImprovement
	}
	_, err := l.store.db.ExecContext(ctx,
		`INSERT INTO iterations
			(session_id, idx, query, total_retrieved, relevant, irrelevant, skipped, precision,
			 critique, new_query, expected_improvement, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.id, result.Index, result.Query, result.TotalRetrieved,
		result.RelevantCount, result.IrrelevantCount, result.SkippedCount, result.Precision,
		critique, newQuery, improvement, now(),
	)
	if err != nil {
		return fmt.Errorf("inserting iteration %d: %w", result.Index, err)
	}
	return nil
}

// AppendDecision inserts the final outcome for one record, keeping both
// the automated classification and who made the final call (R2.2).
func (l *SessionLog) AppendDecision(ctx context.Context, iteration int, record types.Record, cls types.Classification, final types.Outcome, decidedBy string) error {
	_, err := l.store.db.ExecContext(ctx,
		`INSERT INTO decisions
			(session_id, iteration, record_id, title, year, doi,
			 outcome, confidence, reasoning, final_outcome, decided_by, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.id, iteration, record.ID, record.Title, record.Year, record.DOI,
		string(cls.Outcome), cls.Confidence, cls.Reasoning, string(final), decidedBy, now(),
	)
	if err != nil {
		return fmt.Errorf("inserting decision for %s: %w", record.ID, err)
	}
	return nil
}

// Finish records how the run ended. Called exactly once per session.
func (l *SessionLog) Finish(ctx context.Context, status types.RunStatus, reason types.StopReason, finalQuery string) error {
	_, err := l.store.db.ExecContext(ctx,
		`UPDATE sessions SET finished_at = ?, status = ?, stop_reason = ?, final_query = ?
		 WHERE id = ? AND finished_at IS NULL`,
		now(), string(status), string(reason), finalQuery, l.id,
	)
	if err != nil {
		return fmt.Errorf("finalizing session %d: %w", l.id, err)
	}
	return nil
}

// SessionInfo is one row of the sessions table.
type SessionInfo struct {
	ID         int64  `json:"id" yaml:"id"`
	Project    string `json:"project" yaml:"project"`
	SeedQuery  string `json:"seed_query" yaml:"seed_query"`
	Database   string `json:"database" yaml:"database"`
	StartedAt  string `json:"started_at" yaml:"started_at"`
	FinishedAt string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
	StopReason string `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`
	FinalQuery string `json:"final_query,omitempty" yaml:"final_query,omitempty"`
}

// Sessions lists all runs, newest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, seed_query, COALESCE(database_name, ''), started_at,
			COALESCE(finished_at, ''), COALESCE(status, ''), COALESCE(stop_reason, ''), COALESCE(final_query, '')
		 FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Project, &info.SeedQuery, &info.Database,
			&info.StartedAt, &info.FinishedAt, &info.Status, &info.StopReason, &info.FinalQuery); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// Session returns one run's row.
func (s *Store) Session(ctx context.Context, id int64) (SessionInfo, error) {
	var info SessionInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project, seed_query, COALESCE(database_name, ''), started_at,
			COALESCE(finished_at, ''), COALESCE(status, ''), COALESCE(stop_reason, ''), COALESCE(final_query, '')
		 FROM sessions WHERE id = ?`, id,
	).Scan(&info.ID, &info.Project, &info.SeedQuery, &info.Database,
		&info.StartedAt, &info.FinishedAt, &info.Status, &info.StopReason, &info.FinalQuery)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("reading session %d: %w", id, err)
	}
	return info, nil
}

// Iterations returns a session's IterationResults in iteration order.
func (s *Store) Iterations(ctx context.Context, sessionID int64) ([]types.IterationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, query, total_retrieved, relevant, irrelevant, skipped, precision,
			COALESCE(critique, ''), COALESCE(new_query, ''), COALESCE(expected_improvement, '')
		 FROM iterations WHERE session_id = ? ORDER BY idx`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying iterations: %w", err)
	}
	defer rows.Close()

	var results []types.IterationResult
	for rows.Next() {
		var r types.IterationResult
		var critique, newQuery, improvement string
		if err := rows.Scan(&r.Index, &r.Query, &r.TotalRetrieved,
			&r.RelevantCount, &r.IrrelevantCount, &r.SkippedCount, &r.Precision,
			&critique, &newQuery, &improvement); err != nil {
			return nil, fmt.Errorf("scanning iteration: %w", err)
		}
		if newQuery != "" {
			r.Suggestion = &types.QuerySuggestion{
				Critique:            critique,
				NewQuery:            newQuery,
				ExpectedImprovement: improvement,
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DecisionInfo is one row of the decisions table.
type DecisionInfo struct {
	Iteration    int     `json:"iteration" yaml:"iteration"`
	RecordID     string  `json:"record_id" yaml:"record_id"`
	Title        string  `json:"title" yaml:"title"`
	Year         int     `json:"year,omitempty" yaml:"year,omitempty"`
	DOI          string  `json:"doi,omitempty" yaml:"doi,omitempty"`
	Outcome      string  `json:"outcome" yaml:"outcome"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	FinalOutcome string  `json:"final_outcome" yaml:"final_outcome"`
	DecidedBy    string  `json:"decided_by" yaml:"decided_by"`
}

// Decisions returns a session's per-record decisions in insertion order,
// which is retrieval order within each iteration (R2.1).
func (s *Store) Decisions(ctx context.Context, sessionID int64) ([]DecisionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, record_id, COALESCE(title, ''), COALESCE(year, 0), COALESCE(doi, ''),
			outcome, COALESCE(confidence, 0), COALESCE(reasoning, ''), final_outcome, decided_by
		 FROM decisions WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var decisions []DecisionInfo
	for rows.Next() {
		var d DecisionInfo
		if err := rows.Scan(&d.Iteration, &d.RecordID, &d.Title, &d.Year, &d.DOI,
			&d.Outcome, &d.Confidence, &d.Reasoning, &d.FinalOutcome, &d.DecidedBy); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
