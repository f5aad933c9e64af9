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

// Package redis provides a snapshot store backed by Redis, for
// deployments where suspended executions must be resumable from any
// replica. Snapshot keys carry the TTL, so Redis itself retires expired
// executions.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/errors"
)

var _ engine.Store = (*Store)(nil)

const defaultKeyPrefix = "skillflow:snapshot:"

// casAttempts bounds optimistic retries when a WATCH conflicts.
const casAttempts = 5

// Store is a Redis-backed snapshot store.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// Config contains Redis connection configuration.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis database number.
	DB int

	// KeyPrefix overrides the default snapshot key prefix.
	KeyPrefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: prefix}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id
}

// Save persists a snapshot with its remaining TTL.
func (s *Store) Save(ctx context.Context, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	ttl := time.Until(snap.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, s.key(snap.ExecutionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Find returns the snapshot for the id. Redis retires keys at their TTL,
// so an expired execution usually reads back as not found; a snapshot
// that is still present but past its expiry is reported expired.
func (s *Store) Find(ctx context.Context, id string) (*engine.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	snap.Status = snap.EffectiveStatus(time.Now())
	return &snap, nil
}

// UpdateStatus transitions a snapshot atomically using WATCH/MULTI: the
// transaction aborts if another client touches the key between the read
// and the write, so two resumes cannot both observe active.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to engine.SnapshotStatus) error {
	key := s.key(id)

	transition := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return &errors.NotFoundError{Resource: "execution", ID: id}
		}
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
		var snap engine.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("unmarshaling snapshot: %w", err)
		}
		if eff := snap.EffectiveStatus(time.Now()); eff != from {
			return &errors.StateError{
				ExecutionID: id,
				State:       string(eff),
				Message:     "execution is not " + string(from),
			}
		}
		snap.Status = to
		updated, err := json.Marshal(&snap)
		if err != nil {
			return fmt.Errorf("marshaling snapshot: %w", err)
		}
		ttl := time.Until(snap.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Minute
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, transition, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return &errors.StateError{
		ExecutionID: id,
		State:       string(from),
		Message:     "too much contention updating execution status",
	}
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return nil
}

// SweepExpired is a no-op: Redis retires snapshot keys at their TTL.
func (s *Store) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
