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

// Package engine executes parsed skills: it walks the step list, renders
// templates and conditions against the execution context, dispatches to
// the per-kind executors, and suspends to a snapshot store when an await
// step needs human input.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/tools"
)

// LLMProvider is the engine's view of an LLM adapter.
type LLMProvider interface {
	// Complete makes a synchronous LLM call
	Complete(ctx context.Context, prompt string) (string, error)
}

// Listener observes skill and step execution. All hooks are optional
// behaviour; implementations must not block.
type Listener interface {
	OnSkillStart(sk *skill.Skill, executionID string)
	OnSkillComplete(sk *skill.Skill, result *Result)
	OnStepStart(st *skill.Step, index, total int)
	OnStepComplete(st *skill.Step, result *StepResult, index, total int)
}

// Engine runs skills against a tool registry, an LLM adapter, and a
// snapshot store. A single Engine is safe for concurrent executions;
// each execution owns its own context.
type Engine struct {
	tools    *tools.Registry
	llm      LLMProvider
	store    Store
	listener Listener
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// New creates an engine with an in-memory snapshot store.
func New(toolRegistry *tools.Registry, llm LLMProvider) *Engine {
	return &Engine{
		tools:  toolRegistry,
		llm:    llm,
		store:  NewMemoryStore(),
		logger: slog.Default(),
		ttl:    DefaultSnapshotTTL,
		now:    time.Now,
	}
}

// WithStore sets the snapshot store.
func (e *Engine) WithStore(store Store) *Engine {
	e.store = store
	return e
}

// WithLogger sets a custom logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// WithSnapshotTTL sets how long suspended executions stay resumable.
func (e *Engine) WithSnapshotTTL(ttl time.Duration) *Engine {
	if ttl > 0 {
		e.ttl = ttl
	}
	return e
}

// WithClock overrides the engine's time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SetListener installs an execution observer.
func (e *Engine) SetListener(l Listener) {
	e.listener = l
}

// Store exposes the snapshot store, for transports that list or cancel
// suspended executions.
func (e *Engine) Store() Store { return e.store }

// Execute runs a skill from the first step. The caller's input map is
// validated against the skill's input schema, with declared defaults
// applied first.
func (e *Engine) Execute(ctx context.Context, sk *skill.Skill, input map[string]interface{}) (*Result, error) {
	if sk == nil {
		return nil, fmt.Errorf("skill cannot be nil")
	}
	input = applyDefaults(sk.InputSchema, input)
	if err := sk.InputSchema.CheckInputs(input); err != nil {
		return nil, &errors.InputError{Field: "input", Message: err.Error()}
	}

	ectx := NewContext(input, nil)
	e.logger.Debug("executing skill", "skill", sk.ID, "execution_id", ectx.ExecutionID)
	e.emitSkillStart(sk, ectx.ExecutionID)
	return e.run(ctx, sk, ectx, 0)
}

// Resume continues a suspended execution past its await step. The
// snapshot must be active; the transition active to resumed happens
// before any further stepping, so a concurrent resume of the same id is
// rejected.
func (e *Engine) Resume(ctx context.Context, sk *skill.Skill, executionID string, userInput map[string]interface{}) (*Result, error) {
	if sk == nil {
		return nil, fmt.Errorf("skill cannot be nil")
	}
	snap, err := e.store.Find(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if snap.Status != SnapshotActive {
		return nil, &errors.StateError{
			ExecutionID: executionID,
			State:       string(snap.Status),
			Message:     "execution cannot be resumed",
		}
	}
	if snap.SkillID != sk.ID {
		return nil, &errors.StateError{
			ExecutionID: executionID,
			State:       string(snap.Status),
			Message:     fmt.Sprintf("execution belongs to skill %q", snap.SkillID),
		}
	}
	if snap.StepIndex < 0 || snap.StepIndex >= len(sk.Steps) {
		return nil, fmt.Errorf("snapshot step index %d out of range for skill %q", snap.StepIndex, sk.ID)
	}
	awaitStep := sk.Steps[snap.StepIndex]
	if awaitStep.Kind != skill.KindAwait {
		return nil, fmt.Errorf("step %q at snapshot index is not an await step", awaitStep.Name)
	}
	if err := awaitStep.Await.InputSchema.CheckInputs(userInput); err != nil {
		return nil, &errors.InputError{Field: "input", Message: err.Error()}
	}
	if err := e.store.UpdateStatus(ctx, executionID, SnapshotActive, SnapshotResumed); err != nil {
		return nil, err
	}

	ectx := ForResume(snap.Context)
	// alias registrations are not persisted; replay them for the steps
	// that ran before the suspension
	for j := 0; j <= snap.StepIndex; j++ {
		st := sk.Steps[j]
		if st.VarName != "" && st.Kind != skill.KindTool {
			ectx.RegisterVarAlias(st.Name, st.VarName)
		}
	}
	ectx.AddAwaitInput(awaitStep.Name, userInput)
	// a synthetic success for the await step makes {{await_step.field}}
	// and its alias resolve uniformly downstream
	ectx.AddStepResult(&StepResult{
		StepName: awaitStep.Name,
		Status:   skill.StatusSuccess,
		Output:   copyMap(userInput),
	})

	e.logger.Debug("resuming skill", "skill", sk.ID, "execution_id", executionID, "step_index", snap.StepIndex+1)
	e.emitSkillStart(sk, executionID)
	return e.run(ctx, sk, ectx, snap.StepIndex+1)
}

// run is the forward pass over steps from index start.
func (e *Engine) run(ctx context.Context, sk *skill.Skill, ectx *ExecutionContext, start int) (*Result, error) {
	total := len(sk.Steps)
	for i := start; i < total; i++ {
		st := sk.Steps[i]
		if st.VarName != "" && st.Kind != skill.KindTool {
			ectx.RegisterVarAlias(st.Name, st.VarName)
		}
		e.emitStepStart(st, i, total)

		if st.When != nil && !st.When.EvalVars(ectx.BuildVariableView()) {
			res := &StepResult{StepName: st.Name, Status: skill.StatusSkipped}
			ectx.AddStepResult(res)
			e.emitStepComplete(st, res, i, total)
			e.logger.Debug("step skipped by condition", "skill", sk.ID, "step", st.Name)
			continue
		}

		res, err := e.executeStep(ctx, st, ectx)
		if err != nil {
			return nil, err
		}
		ectx.AddStepResult(res)
		e.emitStepComplete(st, res, i, total)

		switch res.Status {
		case skill.StatusAwaiting:
			req := res.Output.(*AwaitRequest)
			snap := NewSnapshot(sk, i, ectx, req, e.ttl, e.now())
			if err := e.store.Save(ctx, snap); err != nil {
				return nil, fmt.Errorf("saving snapshot: %w", err)
			}
			e.logger.Info("execution suspended", "skill", sk.ID, "execution_id", ectx.ExecutionID, "step", st.Name)
			return e.finish(sk, &Result{
				State:       StateAwaiting,
				ExecutionID: ectx.ExecutionID,
				Await:       req,
				Steps:       ectx.OrderedResults(),
				Duration:    ectx.Elapsed(),
			}), nil

		case skill.StatusFailed:
			for j := i + 1; j < total; j++ {
				ectx.AddStepResult(&StepResult{StepName: sk.Steps[j].Name, Status: skill.StatusSkipped})
			}
			e.logger.Warn("step failed", "skill", sk.ID, "step", st.Name, "error", res.Error)
			stepErr := &errors.StepError{Step: st.Name, Message: res.Error}
			return e.finish(sk, &Result{
				State:       StateFailure,
				ExecutionID: ectx.ExecutionID,
				Error:       stepErr.Error(),
				Steps:       ectx.OrderedResults(),
				Duration:    ectx.Elapsed(),
			}), nil
		}
	}

	output := AssembleOutput(ectx.BuildVariableView(), sk.OutputContract)
	if check := ValidateOutput(output, sk.OutputContract); check.Failed {
		return e.finish(sk, &Result{
			State:       StateFailure,
			ExecutionID: ectx.ExecutionID,
			Error:       check.Message,
			Steps:       ectx.OrderedResults(),
			Duration:    ectx.Elapsed(),
		}), nil
	}
	return e.finish(sk, &Result{
		State:       StateSuccess,
		ExecutionID: ectx.ExecutionID,
		Output:      output,
		Steps:       ectx.OrderedResults(),
		Duration:    ectx.Elapsed(),
	}), nil
}

func (e *Engine) finish(sk *skill.Skill, r *Result) *Result {
	e.emitSkillComplete(sk, r)
	return r
}

func (e *Engine) emitSkillStart(sk *skill.Skill, executionID string) {
	if e.listener != nil {
		e.listener.OnSkillStart(sk, executionID)
	}
}

func (e *Engine) emitSkillComplete(sk *skill.Skill, r *Result) {
	if e.listener != nil {
		e.listener.OnSkillComplete(sk, r)
	}
}

func (e *Engine) emitStepStart(st *skill.Step, index, total int) {
	if e.listener != nil {
		e.listener.OnStepStart(st, index, total)
	}
}

func (e *Engine) emitStepComplete(st *skill.Step, r *StepResult, index, total int) {
	if e.listener != nil {
		e.listener.OnStepComplete(st, r, index, total)
	}
}

func applyDefaults(schema *skill.Schema, input map[string]interface{}) map[string]interface{} {
	out := copyMap(input)
	if schema == nil {
		return out
	}
	for _, name := range schema.Names {
		spec := schema.Fields[name]
		if spec.Default == nil {
			continue
		}
		if _, present := out[name]; !present {
			out[name] = spec.Default
		}
	}
	return out
}
