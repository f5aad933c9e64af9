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

package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAdapterNotFound indicates the requested adapter is not registered.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrAdapterAlreadyRegistered indicates an adapter with this name already exists.
	ErrAdapterAlreadyRegistered = errors.New("adapter already registered")

	// ErrNoDefaultAdapter indicates no default adapter has been set.
	ErrNoDefaultAdapter = errors.New("no default adapter configured")
)

// Registry manages registered LLM adapters. The first adapter registered
// becomes the default unless SetDefault overrides it. It is safe for
// concurrent use.
type Registry struct {
	mu             sync.RWMutex
	adapters       map[string]Adapter
	defaultAdapter string
}

// NewRegistry creates a new adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return fmt.Errorf("cannot register nil adapter")
	}
	name := adapter.Name()
	if name == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("%w: %s", ErrAdapterAlreadyRegistered, name)
	}
	r.adapters[name] = adapter
	if r.defaultAdapter == "" {
		r.defaultAdapter = name
	}
	return nil
}

// Get retrieves an adapter by name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	return adapter, nil
}

// Default returns the default adapter.
func (r *Registry) Default() (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultAdapter == "" {
		return nil, ErrNoDefaultAdapter
	}
	return r.adapters[r.defaultAdapter], nil
}

// SetDefault selects which registered adapter prompt steps use.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; !exists {
		return fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	r.defaultAdapter = name
	return nil
}

// List returns all registered adapter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
