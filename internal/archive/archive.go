// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive records each completed pipeline run, and the papers it
// delivered, in a SQLite database for the history command. Nothing in the
// pipeline reads the archive back, so papers can recur across runs.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// Run statuses.
const (
	StatusSent     = "sent"
	StatusEmpty    = "empty"
	StatusNoResult = "no-results"
	StatusFailed   = "failed"
)

// defaultLimit applies when Recent is called with a non-positive limit.
const defaultLimit = 20

// Run summarizes one pipeline invocation.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	WindowFrom string    `json:"window_from" yaml:"window_from"`
	WindowTo   string    `json:"window_to" yaml:"window_to"`
	Found      int       `json:"found" yaml:"found"`
	Kept       int       `json:"kept" yaml:"kept"`
	Status     string    `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`

	Papers []*types.PaperRecord `json:"papers,omitempty" yaml:"papers,omitempty"`
}

// Store wraps the archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			window_from TEXT,
			window_to TEXT,
			found INTEGER NOT NULL DEFAULT 0,
			kept INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_papers (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			paper_id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			venue TEXT,
			publication_date TEXT,
			source_url TEXT,
			relevance_score INTEGER,
			relevance_reason TEXT,
			summary_zh TEXT,
			summary_en TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_papers_paper_id ON run_papers(paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its delivered papers in one transaction. Recording
// the same run ID again replaces the earlier entry.
func (s *Store) Record(ctx context.Context, run Run, papers []*types.PaperRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_papers WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clearing run papers: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, window_from, window_to, found, kept, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			started_at=excluded.started_at, finished_at=excluded.finished_at,
			window_from=excluded.window_from, window_to=excluded.window_to,
			found=excluded.found, kept=excluded.kept,
			status=excluded.status, error=excluded.error`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.WindowFrom, run.WindowTo, run.Found, run.Kept, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_papers (run_id, position, paper_id, title, authors, venue, publication_date,
			source_url, relevance_score, relevance_reason, summary_zh, summary_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := stmt.ExecContext(ctx,
			run.ID, i, p.ID, p.Title, string(authorsJSON), p.Venue, p.PublicationDate,
			p.SourceURL, p.RelevanceScore, p.RelevanceReason, p.SummaryZH, p.SummaryEN,
		)
		if err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, without their papers.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, window_from, window_to, found, kept, status, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			from, to, errText sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &from, &to, &r.Found, &r.Kept, &r.Status, &errText); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.WindowFrom, r.WindowTo, r.Error = from.String, to.String, errText.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Papers returns the papers delivered by run id in digest order.
func (s *Store) Papers(ctx context.Context, runID string) ([]*types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, title, authors, venue, publication_date, source_url,
			relevance_score, relevance_reason, summary_zh, summary_en
		 FROM run_papers WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []*types.PaperRecord
	for rows.Next() {
		var (
			p       types.PaperRecord
			authors string
			reason  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &authors, &p.Venue, &p.PublicationDate, &p.SourceURL,
			&p.RelevanceScore, &reason, &p.SummaryZH, &p.SummaryEN); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		_ = json.Unmarshal([]byte(authors), &p.Authors)
		p.RelevanceReason = reason.String
		papers = append(papers, &p)
	}
	return papers, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
