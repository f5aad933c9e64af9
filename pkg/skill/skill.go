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

// Package skill defines the immutable skill descriptor produced by the
// parser: the skill's identity, input schema, ordered steps, output contract,
// and references. Skills are read-only after construction and may be shared
// freely across concurrent executions.
package skill

import (
	"fmt"
	"strings"
)

// Skill is a parsed, validated skill descriptor.
//
// Fields are exported for serialisation and inspection but must not be
// mutated after Validate has been called; executions share one instance.
type Skill struct {
	// ID is the skill identifier from the "# skill:" heading
	ID string `json:"id" yaml:"id"`

	// Version is an optional semver-ish version string
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Description provides human-readable context about the skill
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Intents are the ordered intent phrases this skill responds to
	Intents []string `json:"intents,omitempty" yaml:"intents,omitempty"`

	// InputSchema declares the expected execution inputs
	InputSchema *Schema `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`

	// Steps are the ordered executable units of the skill
	Steps []*Step `json:"steps" yaml:"steps"`

	// OutputContract declares the shape of the final output
	OutputContract *Schema `json:"output_contract,omitempty" yaml:"output_contract,omitempty"`

	// References are external assets declared via reference directives
	References map[string]Reference `json:"references,omitempty" yaml:"references,omitempty"`

	// Extensions holds x-* section values, opaque to the engine
	Extensions map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Reference declares an external asset for the skill. Content loading is an
// external concern; the model only carries the slot.
type Reference struct {
	// Path is the declared asset path
	Path string `json:"path" yaml:"path"`

	// Type is inferred from the path extension (markdown, sql, json, text)
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Content is filled by an external loader, if at all
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// GetStep returns the step with the given name, or nil if absent.
func (s *Skill) GetStep(name string) *Step {
	for _, st := range s.Steps {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// Validate checks the structural invariants of a skill: non-empty trimmed id,
// at least one step, unique step names, and per-kind config requirements.
func (s *Skill) Validate() error {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		return fmt.Errorf("skill id cannot be empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("skill %q must declare at least one step", s.ID)
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, st := range s.Steps {
		if st == nil {
			return fmt.Errorf("skill %q: step %d is nil", s.ID, i)
		}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("skill %q: %w", s.ID, err)
		}
		if seen[st.Name] {
			return fmt.Errorf("skill %q: duplicate step name %q", s.ID, st.Name)
		}
		seen[st.Name] = true
	}

	if s.References == nil {
		s.References = map[string]Reference{}
	}
	if s.Extensions == nil {
		s.Extensions = map[string]string{}
	}
	return nil
}

// InferReferenceType maps a reference path to a coarse content type.
func InferReferenceType(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".markdown"):
		return "markdown"
	case strings.HasSuffix(lower, ".sql"):
		return "sql"
	case strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return "yaml"
	case strings.HasSuffix(lower, ".csv"):
		return "csv"
	default:
		return "text"
	}
}
