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

package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/skillflow/skillflow/pkg/errors"
)

// MemoryStore is the default snapshot store: a concurrent in-process map
// with TTL handling. Suspended executions do not survive a restart; use
// the sqlite or redis store for that.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]*Snapshot
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: map[string]*Snapshot{},
		now:       time.Now,
	}
}

// WithClock overrides the store's time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Save persists a snapshot.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ExecutionID] = snap
	return nil
}

// Find returns the snapshot for the id. An active snapshot past its
// expiry is returned as expired and is ineligible for resume.
func (s *MemoryStore) Find(_ context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if eff := snap.EffectiveStatus(s.now()); eff != snap.Status {
		snap.Status = eff
	}
	cp := *snap
	return &cp, nil
}

// UpdateStatus transitions the snapshot from one status to another
// atomically under the store lock.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, from, to SnapshotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if eff := snap.EffectiveStatus(s.now()); eff != from {
		return &errors.StateError{
			ExecutionID: id,
			State:       string(eff),
			Message:     "execution is not " + string(from),
		}
	}
	snap.Status = to
	return nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	delete(s.snapshots, id)
	return nil
}

// SweepExpired removes snapshots past their expiry.
func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, snap := range s.snapshots {
		if now.After(snap.ExpiresAt) {
			delete(s.snapshots, id)
			removed++
		}
	}
	return removed, nil
}

// StartSweeper runs a periodic sweep until the context is cancelled.
func StartSweeper(ctx context.Context, store Store, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := store.SweepExpired(ctx, now)
				if err != nil {
					logger.Warn("snapshot sweep failed", "error", err)
				} else if n > 0 {
					logger.Debug("swept expired snapshots", "count", n)
				}
			}
		}
	}()
}
