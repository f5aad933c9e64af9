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

package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "snapshots.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(id string, ttl time.Duration) *engine.Snapshot {
	ectx := engine.NewContext(map[string]interface{}{"x": "go"}, nil)
	ectx.ExecutionID = id
	ectx.AddStepResult(&engine.StepResult{StepName: "phase1", Status: skill.StatusSuccess, Output: "go"})
	ectx.AddStepResult(&engine.StepResult{StepName: "confirm", Status: skill.StatusAwaiting})

	schema := skill.NewSchema()
	schema.Add("approved", skill.FieldSpec{Type: skill.TypeBoolean, Required: true})

	now := time.Now()
	return &engine.Snapshot{
		ExecutionID:  id,
		SkillID:      "pauser",
		SkillVersion: "1.0.0",
		StepIndex:    1,
		Context:      ectx,
		AwaitRequest: &engine.AwaitRequest{Message: "ok?", InputSchema: schema},
		Status:       engine.SnapshotActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

func TestSaveFindRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSnapshot("e1", time.Hour)))

	got, err := s.Find(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "pauser", got.SkillID)
	assert.Equal(t, "1.0.0", got.SkillVersion)
	assert.Equal(t, 1, got.StepIndex)
	assert.Equal(t, engine.SnapshotActive, got.Status)

	require.NotNil(t, got.Context)
	assert.Equal(t, "e1", got.Context.ExecutionID)
	assert.Equal(t, []string{"phase1", "confirm"}, got.Context.StepOrder)
	assert.Equal(t, "go", got.Context.StepResults["phase1"].Output)

	require.NotNil(t, got.AwaitRequest)
	assert.Equal(t, "ok?", got.AwaitRequest.Message)
	approved, ok := got.AwaitRequest.InputSchema.Get("approved")
	require.True(t, ok)
	assert.Equal(t, skill.TypeBoolean, approved.Type)
	assert.True(t, approved.Required)
}

func TestFindMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Find(context.Background(), "nope")
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateStatusCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testSnapshot("e1", time.Hour)))

	require.NoError(t, s.UpdateStatus(ctx, "e1", engine.SnapshotActive, engine.SnapshotResumed))

	err := s.UpdateStatus(ctx, "e1", engine.SnapshotActive, engine.SnapshotResumed)
	var se *errors.StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "resumed", se.State)

	var nf *errors.NotFoundError
	assert.ErrorAs(t, s.UpdateStatus(ctx, "nope", engine.SnapshotActive, engine.SnapshotResumed), &nf)
}

func TestUpdateStatusConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testSnapshot("e1", time.Hour)))

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.UpdateStatus(ctx, "e1", engine.SnapshotActive, engine.SnapshotResumed)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "the conditional update admits exactly one transition")
}

func TestExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testSnapshot("e1", -time.Minute)))

	got, err := s.Find(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, engine.SnapshotExpired, got.Status)

	err = s.UpdateStatus(ctx, "e1", engine.SnapshotActive, engine.SnapshotResumed)
	var se *errors.StateError
	assert.ErrorAs(t, err, &se, "expired snapshots are not resumable")
}

func TestDeleteAndSweep(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSnapshot("old", -time.Minute)))
	require.NoError(t, s.Save(ctx, testSnapshot("fresh", time.Hour)))

	n, err := s.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Find(ctx, "old")
	assert.Error(t, err)

	require.NoError(t, s.Delete(ctx, "fresh"))
	var nf *errors.NotFoundError
	assert.ErrorAs(t, s.Delete(ctx, "fresh"), &nf)
}

func TestSaveReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("e1", time.Hour)
	require.NoError(t, s.Save(ctx, snap))
	snap.Status = engine.SnapshotCancelled
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Find(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, engine.SnapshotCancelled, got.Status)
}
