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

// Package llm provides abstractions for Large Language Model adapters.
// Prompt steps obtain an adapter from the registry and invoke it
// synchronously; the adapter hides provider-specific transport.
package llm

import (
	"context"
	"strings"
)

// Adapter is the interface prompt steps execute against.
type Adapter interface {
	// Name returns the unique identifier for this adapter (e.g., "static").
	Name() string

	// Complete sends a synchronous completion request and returns the full
	// response text. This method blocks until the response is complete.
	Complete(ctx context.Context, prompt string) (string, error)
}

// StaticAdapter returns a canned response for every prompt. With an empty
// response it echoes the prompt back, which makes skill runs reproducible
// offline and in tests.
type StaticAdapter struct {
	response string
}

// NewStaticAdapter creates a static adapter. An empty response means
// echo-the-prompt.
func NewStaticAdapter(response string) *StaticAdapter {
	return &StaticAdapter{response: response}
}

// Name returns the adapter identifier.
func (a *StaticAdapter) Name() string { return "static" }

// Complete returns the configured response, or the prompt itself when no
// response was configured.
func (a *StaticAdapter) Complete(_ context.Context, prompt string) (string, error) {
	if a.response != "" {
		return a.response, nil
	}
	return strings.TrimSpace(prompt), nil
}
