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

package skill

import (
	"fmt"
	"strings"

	"github.com/skillflow/skillflow/pkg/condition"
)

// StepKind enumerates the supported step kinds.
type StepKind string

const (
	KindTool     StepKind = "tool"
	KindPrompt   StepKind = "prompt"
	KindAwait    StepKind = "await"
	KindTemplate StepKind = "template"
)

// ValidStepKind reports whether k is a supported kind. The legacy "compose"
// kind is intentionally not supported and is rejected at parse time.
func ValidStepKind(k StepKind) bool {
	switch k {
	case KindTool, KindPrompt, KindAwait, KindTemplate:
		return true
	}
	return false
}

// StepStatus is the lifecycle status of one step execution.
type StepStatus string

const (
	StatusPending  StepStatus = "pending"
	StatusRunning  StepStatus = "running"
	StatusSuccess  StepStatus = "success"
	StatusFailed   StepStatus = "failed"
	StatusSkipped  StepStatus = "skipped"
	StatusAwaiting StepStatus = "awaiting"
)

// Terminal reports whether the status is a terminal state.
func (s StepStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusAwaiting:
		return true
	}
	return false
}

// MaxAwaitMessageLen bounds the await prompt shown to the caller.
const MaxAwaitMessageLen = 1000

// Step is one node in a skill's ordered step sequence. Identity and
// configuration are immutable; per-execution status lives in StepResult so
// one skill instance can serve concurrent executions.
type Step struct {
	// Name uniquely identifies the step within its skill
	Name string `json:"name" yaml:"name"`

	// Kind selects the executor (tool, prompt, await, template)
	Kind StepKind `json:"kind" yaml:"kind"`

	// When gates execution; nil means always run
	When *condition.Condition `json:"-" yaml:"-"`

	// WhenSource is the original guard text, kept for re-serialisation
	WhenSource string `json:"when,omitempty" yaml:"when,omitempty"`

	// VarName exposes the step output unwrapped under this alias
	VarName string `json:"var_name,omitempty" yaml:"var_name,omitempty"`

	// Exactly one of the following matches Kind.
	Tool     *ToolStepConfig     `json:"tool,omitempty" yaml:"tool,omitempty"`
	Prompt   *PromptStepConfig   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Await    *AwaitStepConfig    `json:"await,omitempty" yaml:"await,omitempty"`
	Template *TemplateStepConfig `json:"template,omitempty" yaml:"template,omitempty"`
}

// ToolStepConfig configures a TOOL step.
type ToolStepConfig struct {
	// ToolName identifies the tool in the registry
	ToolName string `json:"tool_name" yaml:"tool_name"`

	// InputTemplate is the nested input mapping; string leaves may contain
	// {{...}} placeholders rendered at execution time
	InputTemplate map[string]interface{} `json:"input_template" yaml:"input_template"`

	// OutputFields advisorily declares the variables the tool writes
	OutputFields []string `json:"output_fields,omitempty" yaml:"output_fields,omitempty"`
}

// PromptStepConfig configures a PROMPT step.
type PromptStepConfig struct {
	Template string `json:"template" yaml:"template"`
}

// TemplateStepConfig configures a TEMPLATE step.
type TemplateStepConfig struct {
	Template string `json:"template" yaml:"template"`
}

// AwaitStepConfig configures an AWAIT step.
type AwaitStepConfig struct {
	// Message is shown to the caller when execution pauses (1-1000 chars)
	Message string `json:"message" yaml:"message"`

	// InputSchema declares the fields the caller must supply on resume
	InputSchema *Schema `json:"input_schema" yaml:"input_schema"`
}

// Validate checks the per-kind invariants of the step.
func (st *Step) Validate() error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return fmt.Errorf("step name cannot be empty")
	}
	if !ValidStepKind(st.Kind) {
		return fmt.Errorf("step %q: unsupported kind %q", st.Name, st.Kind)
	}

	switch st.Kind {
	case KindTool:
		if st.Tool == nil || strings.TrimSpace(st.Tool.ToolName) == "" {
			return fmt.Errorf("step %q: tool steps require a tool name", st.Name)
		}
		if st.Tool.InputTemplate == nil {
			st.Tool.InputTemplate = map[string]interface{}{}
		}
	case KindPrompt:
		if st.Prompt == nil || strings.TrimSpace(st.Prompt.Template) == "" {
			return fmt.Errorf("step %q: prompt steps require a non-empty template", st.Name)
		}
	case KindTemplate:
		if st.Template == nil || st.Template.Template == "" {
			return fmt.Errorf("step %q: template steps require a template body", st.Name)
		}
	case KindAwait:
		if st.Await == nil {
			return fmt.Errorf("step %q: await steps require a configuration block", st.Name)
		}
		msg := strings.TrimSpace(st.Await.Message)
		if msg == "" {
			return fmt.Errorf("step %q: await message cannot be blank", st.Name)
		}
		if len(st.Await.Message) > MaxAwaitMessageLen {
			return fmt.Errorf("step %q: await message exceeds %d characters", st.Name, MaxAwaitMessageLen)
		}
		if st.Await.InputSchema.Len() == 0 {
			return fmt.Errorf("step %q: await steps require a non-empty input schema", st.Name)
		}
	}
	return nil
}
