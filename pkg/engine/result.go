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
	"time"

	"github.com/skillflow/skillflow/pkg/skill"
)

// StepResult is the immutable record of one step execution.
type StepResult struct {
	// StepName identifies the executed step
	StepName string `json:"step_name"`

	// Status is the terminal status (success, failed, skipped, awaiting)
	Status skill.StepStatus `json:"status"`

	// Output contains the step's output; nil for tool steps, whose
	// variables live in the context
	Output interface{} `json:"output,omitempty"`

	// Error contains the error message if the step failed
	Error string `json:"error,omitempty"`

	// DurationMS is the time taken to execute the step
	DurationMS int64 `json:"duration_ms"`
}

// AwaitRequest describes what a suspended execution is waiting for.
type AwaitRequest struct {
	// Message is the prompt shown to the caller
	Message string `json:"message"`

	// InputSchema describes the answers the caller must provide
	InputSchema *skill.Schema `json:"input_schema"`
}

// State classifies a skill result.
type State string

const (
	// StateSuccess indicates the skill ran to completion.
	StateSuccess State = "success"
	// StateFailure indicates a step failed or the output violated the contract.
	StateFailure State = "failure"
	// StateAwaiting indicates the execution is suspended on an await step.
	StateAwaiting State = "awaiting"
)

// Result is the three-valued outcome of executing or resuming a skill.
type Result struct {
	// State is success, failure, or awaiting
	State State `json:"state"`

	// ExecutionID identifies the execution; required to resume
	ExecutionID string `json:"execution_id"`

	// Output is the assembled output mapping, set on success
	Output map[string]interface{} `json:"output,omitempty"`

	// Error describes the failure, set on failure
	Error string `json:"error,omitempty"`

	// Await describes what the execution is waiting for, set on awaiting
	Await *AwaitRequest `json:"await,omitempty"`

	// Steps is the ordered step history, including skipped steps
	Steps []*StepResult `json:"steps"`

	// Duration is the elapsed execution time, spanning suspensions
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the skill ran to completion.
func (r *Result) Succeeded() bool { return r.State == StateSuccess }

// Awaiting reports whether the execution is suspended.
func (r *Result) Awaiting() bool { return r.State == StateAwaiting }
