//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

// Package storage persists run history, caches fetched articles, and
// archives generated artifacts. Every store is optional; the coordinator
// skips whatever is not configured.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/aaronlmathis/agenttoast/pipeline"
)

// RunStoreError wraps PostgreSQL-specific errors with the failing operation.
type RunStoreError struct {
	Op  string // Operation that failed (e.g., "connect", "save_run")
	Err error  // Underlying error
}

func (e *RunStoreError) Error() string {
	return fmt.Sprintf("run store %s: %v", e.Op, e.Err)
}

func (e *RunStoreError) Unwrap() error {
	return e.Err
}

// RunStoreOptions configures the run store.
type RunStoreOptions struct {
	DSN             string        // PostgreSQL connection string
	CreateTables    bool          // Create tables if they do not exist
	QueryTimeout    time.Duration // Timeout applied per statement
	MaxOpenConns    int           // Max open connections
	MaxIdleConns    int           // Max idle connections
	ConnMaxLifetime time.Duration // Max connection lifetime
}

// RunStoreOption configures RunStoreOptions.
type RunStoreOption func(*RunStoreOptions)

// WithRunStoreDSN sets the PostgreSQL connection string.
func WithRunStoreDSN(dsn string) RunStoreOption {
	return func(opts *RunStoreOptions) {
		opts.DSN = dsn
	}
}

// WithCreateTables enables table creation on connect.
func WithCreateTables(create bool) RunStoreOption {
	return func(opts *RunStoreOptions) {
		opts.CreateTables = create
	}
}

// WithRunStoreQueryTimeout sets the per-statement timeout.
func WithRunStoreQueryTimeout(timeout time.Duration) RunStoreOption {
	return func(opts *RunStoreOptions) {
		opts.QueryTimeout = timeout
	}
}

// WithRunStorePool configures the connection pool.
func WithRunStorePool(maxOpen, maxIdle int, maxLifetime time.Duration) RunStoreOption {
	return func(opts *RunStoreOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
		opts.ConnMaxLifetime = maxLifetime
	}
}

// RunStore records finished pipeline runs and their per-stage outcomes
// in PostgreSQL.
type RunStore struct {
	db   *sql.DB
	opts RunStoreOptions
}

const runTableDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	pipeline     TEXT NOT NULL,
	status       TEXT NOT NULL,
	abort_reason TEXT,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS run_stages (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT,
	attempts    INT NOT NULL,
	duration_ms BIGINT NOT NULL,
	PRIMARY KEY (run_id, stage)
);`

// NewRunStore connects to PostgreSQL and optionally creates the schema.
func NewRunStore(ctx context.Context, options ...RunStoreOption) (*RunStore, error) {
	opts := RunStoreOptions{
		QueryTimeout:    10 * time.Second,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.DSN == "" {
		return nil, &RunStoreError{Op: "validate", Err: fmt.Errorf("DSN is required")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &RunStoreError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &RunStoreError{Op: "connect", Err: err}
	}

	store := &RunStore{db: db, opts: opts}
	if opts.CreateTables {
		if err := store.createTables(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

func (s *RunStore) createTables(ctx context.Context) error {
	execCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(execCtx, runTableDDL); err != nil {
		return &RunStoreError{Op: "create_tables", Err: err}
	}
	return nil
}

// SaveRun writes an aggregated report and its sections in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, rep *pipeline.Report) error {
	execCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(execCtx, nil)
	if err != nil {
		return &RunStoreError{Op: "save_run", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(execCtx,
		`INSERT INTO runs (id, pipeline, status, abort_reason, started_at, finished_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		rep.RunID, rep.Pipeline, string(rep.Status), rep.AbortReason, rep.StartedAt, rep.FinishedAt)
	if err != nil {
		return &RunStoreError{Op: "save_run", Err: err}
	}

	for i, sec := range rep.Sections {
		status := "success"
		if !sec.Available {
			status = "unavailable"
		}
		_, err = tx.ExecContext(execCtx,
			`INSERT INTO run_stages (run_id, position, stage, status, reason, attempts, duration_ms)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
			rep.RunID, i, sec.Stage, status, sec.Reason, sec.Attempts, sec.Duration.Milliseconds())
		if err != nil {
			return &RunStoreError{Op: "save_stage", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &RunStoreError{Op: "save_run", Err: err}
	}
	return nil
}

// RunSummary is one row from the run history.
type RunSummary struct {
	ID          string
	Pipeline    string
	Status      string
	AbortReason string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RecentRuns returns the latest runs, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		`SELECT id, pipeline, status, COALESCE(abort_reason, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, &RunStoreError{Op: "recent_runs", Err: err}
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.Status, &r.AbortReason, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, &RunStoreError{Op: "recent_runs", Err: err}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &RunStoreError{Op: "recent_runs", Err: err}
	}
	return runs, nil
}

// Close releases the connection pool.
func (s *RunStore) Close() error {
	return s.db.Close()
}
