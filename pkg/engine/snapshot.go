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
	"time"

	"github.com/skillflow/skillflow/pkg/skill"
)

// SnapshotStatus is the lifecycle state of a stored snapshot.
type SnapshotStatus string

const (
	// SnapshotActive means the execution can be resumed.
	SnapshotActive SnapshotStatus = "active"
	// SnapshotResumed means the execution was resumed; a resumed snapshot
	// is never served again.
	SnapshotResumed SnapshotStatus = "resumed"
	// SnapshotExpired means the snapshot outlived its TTL.
	SnapshotExpired SnapshotStatus = "expired"
	// SnapshotCancelled means the execution was cancelled by the caller.
	SnapshotCancelled SnapshotStatus = "cancelled"
)

// DefaultSnapshotTTL is how long a suspended execution stays resumable.
const DefaultSnapshotTTL = 24 * time.Hour

// Snapshot is the durable record of a suspended execution.
type Snapshot struct {
	// ExecutionID identifies the suspended execution
	ExecutionID string `json:"execution_id"`

	// SkillID and SkillVersion identify the skill that was running
	SkillID      string `json:"skill_id"`
	SkillVersion string `json:"skill_version,omitempty"`

	// StepIndex is the index of the suspending await step
	StepIndex int `json:"step_index"`

	// Context is the whole execution context at suspension
	Context *ExecutionContext `json:"context"`

	// AwaitRequest is what the execution is waiting for
	AwaitRequest *AwaitRequest `json:"await_request"`

	// Status gates resumability; only active snapshots resume
	Status SnapshotStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSnapshot creates an active snapshot for a suspended execution.
func NewSnapshot(sk *skill.Skill, stepIndex int, ectx *ExecutionContext, req *AwaitRequest, ttl time.Duration, now time.Time) *Snapshot {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Snapshot{
		ExecutionID:  ectx.ExecutionID,
		SkillID:      sk.ID,
		SkillVersion: sk.Version,
		StepIndex:    stepIndex,
		Context:      ectx,
		AwaitRequest: req,
		Status:       SnapshotActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// EffectiveStatus folds TTL expiry into the stored status: an active
// snapshot past its expiry reads back as expired.
func (s *Snapshot) EffectiveStatus(now time.Time) SnapshotStatus {
	if s.Status == SnapshotActive && now.After(s.ExpiresAt) {
		return SnapshotExpired
	}
	return s.Status
}

// Store persists execution snapshots. Implementations must guarantee that
// no two resumes of the same id can both observe active status, which is
// why UpdateStatus is compare-and-swap.
type Store interface {
	// Save persists a snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Find returns the snapshot for the id, with TTL expiry already
	// folded into its status. Missing ids yield *errors.NotFoundError.
	Find(ctx context.Context, id string) (*Snapshot, error)

	// UpdateStatus transitions the snapshot from one status to another
	// atomically. A snapshot not in the from status yields
	// *errors.StateError.
	UpdateStatus(ctx context.Context, id string, from, to SnapshotStatus) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error

	// SweepExpired removes snapshots past their expiry, returning how
	// many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
