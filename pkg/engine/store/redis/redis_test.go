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

package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

// newTestStore connects to the Redis named by REDIS_ADDR, skipping the
// test when none is available.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis store tests")
	}
	s, err := New(context.Background(), Config{Addr: addr, KeyPrefix: "skillflow-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(id string, ttl time.Duration) *engine.Snapshot {
	ectx := engine.NewContext(map[string]interface{}{"x": "go"}, nil)
	ectx.ExecutionID = id

	schema := skill.NewSchema()
	schema.Add("approved", skill.FieldSpec{Type: skill.TypeBoolean, Required: true})

	now := time.Now()
	return &engine.Snapshot{
		ExecutionID:  id,
		SkillID:      "pauser",
		StepIndex:    0,
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
	assert.Equal(t, engine.SnapshotActive, got.Status)
	require.NotNil(t, got.Context)
	assert.Equal(t, "e1", got.Context.ExecutionID)
	require.NotNil(t, got.AwaitRequest)
	assert.Equal(t, "ok?", got.AwaitRequest.Message)

	_, err = s.Find(ctx, "missing")
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
	assert.Equal(t, 1, wins, "WATCH/MULTI admits exactly one transition")
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testSnapshot("e1", time.Hour)))

	require.NoError(t, s.Delete(ctx, "e1"))
	var nf *errors.NotFoundError
	assert.ErrorAs(t, s.Delete(ctx, "e1"), &nf)
}
