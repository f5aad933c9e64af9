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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/template"
)

// StepOutput wraps a successful step's raw output when bound under the
// step's own name in the variable view. Its string form is the output's
// string form, and the raw value is exposed under .value so
// {{step.value}} resolves.
type StepOutput struct {
	Value interface{} `json:"value"`
}

// String renders the wrapped value the way the evaluator would.
func (o StepOutput) String() string { return template.Stringify(o.Value) }

// Unwrap returns the raw output.
func (o StepOutput) Unwrap() interface{} { return o.Value }

// ExecutionContext is the mutable per-execution record. It is owned
// exclusively by one in-flight execution; on suspension the engine hands
// ownership to the store, and on resume the store hands it back. Tool
// executions may write variables concurrently, so Put is synchronized.
type ExecutionContext struct {
	// ExecutionID is a fresh opaque token, preserved across resume.
	ExecutionID string `json:"execution_id"`

	// Input is the caller-supplied input map, immutable after creation.
	Input map[string]interface{} `json:"input"`

	// StepOrder records step names in execution order.
	StepOrder []string `json:"step_order"`

	// StepResults maps step name to its result.
	StepResults map[string]*StepResult `json:"step_results"`

	// AwaitInputs maps await-step name to the user-supplied answers.
	AwaitInputs map[string]map[string]interface{} `json:"await_inputs,omitempty"`

	// Metadata carries caller-supplied context values, exposed under
	// context.* in the variable view.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// StartedAt is when the execution began.
	StartedAt time.Time `json:"started_at"`

	// ToolVariables holds names tools wrote through the output capability.
	ToolVariables map[string]interface{} `json:"tool_variables,omitempty"`

	// aliases are re-registered by the engine on resume, so they are not
	// persisted with the snapshot.
	aliases map[string]string

	mu sync.Mutex
}

// NewContext creates a context for a fresh execution.
func NewContext(input, metadata map[string]interface{}) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID:   uuid.NewString(),
		Input:         copyMap(input),
		StepResults:   map[string]*StepResult{},
		AwaitInputs:   map[string]map[string]interface{}{},
		Metadata:      copyMap(metadata),
		StartedAt:     time.Now(),
		ToolVariables: map[string]interface{}{},
	}
}

// ForResume reconstitutes a context equivalent to the state at suspension
// from a persisted context. Maps that round-tripped through a store come
// back nil when empty, so every map is rebuilt; the copy also keeps the
// resumed execution from mutating whatever the store handed out. Alias
// registrations are not persisted; the engine re-registers them for all
// pre-suspension steps after calling this.
func ForResume(persisted *ExecutionContext) *ExecutionContext {
	c := &ExecutionContext{
		ExecutionID:   persisted.ExecutionID,
		Input:         copyMap(persisted.Input),
		StepResults:   map[string]*StepResult{},
		AwaitInputs:   map[string]map[string]interface{}{},
		Metadata:      copyMap(persisted.Metadata),
		StartedAt:     persisted.StartedAt,
		ToolVariables: copyMap(persisted.ToolVariables),
	}
	for _, r := range persisted.OrderedResults() {
		c.AddStepResult(r)
	}
	for name, in := range persisted.AwaitInputs {
		c.AwaitInputs[name] = copyMap(in)
	}
	return c
}

// AddStepResult appends a result, preserving order. A result for an
// already-recorded step replaces the earlier one in place, which is how a
// resumed await step's synthetic success supersedes its awaiting record.
func (c *ExecutionContext) AddStepResult(r *StepResult) {
	if c.StepResults == nil {
		c.StepResults = map[string]*StepResult{}
	}
	if _, seen := c.StepResults[r.StepName]; !seen {
		c.StepOrder = append(c.StepOrder, r.StepName)
	}
	c.StepResults[r.StepName] = r
}

// RegisterVarAlias records that the named step's output is also visible
// under alias, raw rather than wrapped.
func (c *ExecutionContext) RegisterVarAlias(stepName, alias string) {
	if c.aliases == nil {
		c.aliases = map[string]string{}
	}
	c.aliases[stepName] = alias
}

// Put writes a named variable on behalf of a tool. It satisfies the tool
// output capability and overrides same-named step outputs in the view.
func (c *ExecutionContext) Put(name string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ToolVariables == nil {
		c.ToolVariables = map[string]interface{}{}
	}
	c.ToolVariables[name] = value
}

// AddAwaitInput records the user answers supplied when resuming past the
// named await step.
func (c *ExecutionContext) AddAwaitInput(stepName string, input map[string]interface{}) {
	if c.AwaitInputs == nil {
		c.AwaitInputs = map[string]map[string]interface{}{}
	}
	c.AwaitInputs[stepName] = copyMap(input)
}

// Elapsed is the time since the execution started, spanning suspensions.
func (c *ExecutionContext) Elapsed() time.Duration {
	return time.Since(c.StartedAt)
}

// OrderedResults returns step results in execution order.
func (c *ExecutionContext) OrderedResults() []*StepResult {
	out := make([]*StepResult, 0, len(c.StepOrder))
	for _, name := range c.StepOrder {
		out = append(out, c.StepResults[name])
	}
	return out
}

// BuildVariableView assembles the mapping the evaluator renders against:
// inputs first, then await answers, then successful step outputs (wrapped
// under the step name, raw under any alias), then tool-written variables,
// and finally the context sub-mapping.
func (c *ExecutionContext) BuildVariableView() map[string]interface{} {
	view := make(map[string]interface{}, len(c.Input)+len(c.StepOrder)+len(c.ToolVariables)+1)
	for k, v := range c.Input {
		view[k] = v
	}
	for _, name := range c.StepOrder {
		if answers, ok := c.AwaitInputs[name]; ok {
			for k, v := range answers {
				view[k] = v
			}
		}
	}
	for _, name := range c.StepOrder {
		r := c.StepResults[name]
		if r == nil || r.Status != skill.StatusSuccess {
			continue
		}
		view[name] = StepOutput{Value: r.Output}
		if alias, ok := c.aliases[name]; ok && alias != "" {
			view[alias] = r.Output
		}
	}
	c.mu.Lock()
	for k, v := range c.ToolVariables {
		view[k] = v
	}
	c.mu.Unlock()

	ctxMap := map[string]interface{}{
		"start_time": c.StartedAt.Format(time.RFC3339),
		"elapsed":    c.Elapsed().Milliseconds(),
	}
	for k, v := range c.Metadata {
		ctxMap[k] = v
	}
	view["context"] = ctxMap
	return view
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
