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

// Package repository resolves skill ids to parsed skills. The file
// repository is the usual production source: a directory tree of
// Markdown skill documents, optionally hot-reloaded on change.
package repository

import (
	"sort"
	"sync"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

// SkillRepository resolves skill ids.
type SkillRepository interface {
	// Get returns the skill with the given id, or *errors.NotFoundError.
	Get(id string) (*skill.Skill, error)

	// List returns all known skills, sorted by id.
	List() []*skill.Skill
}

// MemoryRepository is a concurrent in-process repository, useful for
// tests and for embedding the engine with programmatically built skills.
type MemoryRepository struct {
	mu     sync.RWMutex
	skills map[string]*skill.Skill
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{skills: map[string]*skill.Skill{}}
}

// Put adds or replaces a skill.
func (r *MemoryRepository) Put(sk *skill.Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[sk.ID] = sk
}

// Remove deletes a skill; removing an unknown id is a no-op.
func (r *MemoryRepository) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.skills, id)
}

// Get returns the skill with the given id.
func (r *MemoryRepository) Get(id string) (*skill.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sk, ok := r.skills[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "skill", ID: id}
	}
	return sk, nil
}

// List returns all skills, sorted by id.
func (r *MemoryRepository) List() []*skill.Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*skill.Skill, 0, len(r.skills))
	for _, sk := range r.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
