// Copyright 2026 Skillflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite provides a durable snapshot store for single-node
// deployments. Suspended executions survive a process restart.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/errors"
)

var _ engine.Store = (*Store)(nil)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path. ":memory:" keeps the store
	// process-local, which is useful in tests.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// New opens (and if needed creates) the snapshot database.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writes; a single connection avoids lock churn
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		execution_id TEXT PRIMARY KEY,
		skill_id TEXT NOT NULL,
		skill_version TEXT,
		step_index INTEGER NOT NULL,
		context TEXT NOT NULL,
		await_request TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_snapshots_expires_at ON snapshots(expires_at)`)
	return err
}

// Save persists a snapshot, replacing any previous row for the same id.
func (s *Store) Save(ctx context.Context, snap *engine.Snapshot) error {
	ctxJSON, err := json.Marshal(snap.Context)
	if err != nil {
		return fmt.Errorf("marshaling context: %w", err)
	}
	reqJSON, err := json.Marshal(snap.AwaitRequest)
	if err != nil {
		return fmt.Errorf("marshaling await request: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO snapshots
		(execution_id, skill_id, skill_version, step_index, context, await_request, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ExecutionID, snap.SkillID, snap.SkillVersion, snap.StepIndex,
		string(ctxJSON), string(reqJSON), string(snap.Status),
		snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		snap.ExpiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Find returns the snapshot for the id, with TTL expiry folded into its
// status.
func (s *Store) Find(ctx context.Context, id string) (*engine.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT execution_id, skill_id, skill_version, step_index,
		context, await_request, status, created_at, expires_at
		FROM snapshots WHERE execution_id = ?`, id)

	var snap engine.Snapshot
	var ctxJSON, reqJSON, status, createdAt, expiresAt string
	err := row.Scan(&snap.ExecutionID, &snap.SkillID, &snap.SkillVersion, &snap.StepIndex,
		&ctxJSON, &reqJSON, &status, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(ctxJSON), &snap.Context); err != nil {
		return nil, fmt.Errorf("unmarshaling context: %w", err)
	}
	if err := json.Unmarshal([]byte(reqJSON), &snap.AwaitRequest); err != nil {
		return nil, fmt.Errorf("unmarshaling await request: %w", err)
	}
	snap.Status = engine.SnapshotStatus(status)
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if snap.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	snap.Status = snap.EffectiveStatus(time.Now())
	return &snap, nil
}

// UpdateStatus transitions a snapshot atomically with a conditional
// update: the row must still hold the from status and, when transitioning
// out of active, must not have expired.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to engine.SnapshotStatus) error {
	query := `UPDATE snapshots SET status = ? WHERE execution_id = ? AND status = ?`
	args := []interface{}{string(to), id, string(from)}
	if from == engine.SnapshotActive {
		query += ` AND expires_at > ?`
		args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating snapshot status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating snapshot status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// lost the race or the row is gone; report which
	snap, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	return &errors.StateError{
		ExecutionID: id,
		State:       string(snap.Status),
		Message:     "execution is not " + string(from),
	}
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE execution_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if affected == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return nil
}

// SweepExpired removes snapshots past their expiry.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("sweeping snapshots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweeping snapshots: %w", err)
	}
	return int(affected), nil
}
