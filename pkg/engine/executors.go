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
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/template"
)

// executeStep dispatches on the step kind. Recoverable problems come back
// as a failed StepResult; an unknown kind is engine misuse and errors.
func (e *Engine) executeStep(ctx context.Context, st *skill.Step, ectx *ExecutionContext) (*StepResult, error) {
	start := time.Now()
	var res *StepResult
	switch st.Kind {
	case skill.KindTool:
		res = e.runTool(ctx, st, ectx)
	case skill.KindPrompt:
		res = e.runPrompt(ctx, st, ectx)
	case skill.KindTemplate:
		res = e.runTemplate(st, ectx)
	case skill.KindAwait:
		res = e.runAwait(st)
	default:
		return nil, fmt.Errorf("no executor for step kind %q", st.Kind)
	}
	res.StepName = st.Name
	res.DurationMS = time.Since(start).Milliseconds()
	return res, nil
}

func (e *Engine) runTool(ctx context.Context, st *skill.Step, ectx *ExecutionContext) *StepResult {
	if e.tools == nil {
		return failed("no tool registry configured")
	}
	tool, err := e.tools.Get(st.Tool.ToolName)
	if err != nil {
		return failed(fmt.Sprintf("tool %q is not registered", st.Tool.ToolName))
	}

	view := ectx.BuildVariableView()
	rendered, err := template.RenderStructure(st.Tool.InputTemplate, view)
	if err != nil {
		return failed(fmt.Sprintf("rendering tool inputs: %v", err))
	}
	inputs, _ := reviveJSON(rendered).(map[string]interface{})
	if inputs == nil {
		inputs = map[string]interface{}{}
	}

	if err := tool.ValidateInput(inputs); err != nil {
		return failed(fmt.Sprintf("invalid inputs for tool %q: %v", st.Tool.ToolName, err))
	}
	start := time.Now()
	if err := tool.Execute(ctx, inputs, ectx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedErr(&errors.TimeoutError{Operation: "tool call", Duration: time.Since(start), Cause: err})
		}
		return failedErr(&errors.ToolError{Tool: st.Tool.ToolName, Message: err.Error(), Cause: err})
	}
	// tool variables live in the context map, not the step output
	return &StepResult{Status: skill.StatusSuccess}
}

func (e *Engine) runPrompt(ctx context.Context, st *skill.Step, ectx *ExecutionContext) *StepResult {
	rendered, err := template.Render(st.Prompt.Template, ectx.BuildVariableView())
	if err != nil {
		return failed(fmt.Sprintf("rendering prompt: %v", err))
	}
	if e.llm == nil {
		return failedErr(&errors.ProviderError{Provider: "none", Message: "no LLM adapter configured"})
	}
	start := time.Now()
	response, err := e.llm.Complete(ctx, rendered)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedErr(&errors.TimeoutError{Operation: "LLM request", Duration: time.Since(start), Cause: err})
		}
		return failedErr(&errors.ProviderError{Provider: e.providerName(), Message: err.Error(), Cause: err})
	}
	if strings.TrimSpace(response) == "" {
		return failedErr(&errors.ProviderError{Provider: e.providerName(), Message: "returned an empty response"})
	}
	return &StepResult{Status: skill.StatusSuccess, Output: response}
}

// providerName asks the adapter for its name when it exposes one; the
// engine's LLMProvider interface itself only requires Complete.
func (e *Engine) providerName() string {
	if named, ok := e.llm.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "llm"
}

func (e *Engine) runTemplate(st *skill.Step, ectx *ExecutionContext) *StepResult {
	rendered, err := template.Render(st.Template.Template, ectx.BuildVariableView())
	if err != nil {
		return failed(fmt.Sprintf("rendering template: %v", err))
	}
	return &StepResult{Status: skill.StatusSuccess, Output: rendered}
}

func (e *Engine) runAwait(st *skill.Step) *StepResult {
	return &StepResult{
		Status: skill.StatusAwaiting,
		Output: &AwaitRequest{
			Message:     st.Await.Message,
			InputSchema: st.Await.InputSchema,
		},
	}
}

func failed(msg string) *StepResult {
	return &StepResult{Status: skill.StatusFailed, Error: msg}
}

// failedErr records a typed execution error as a failed result. StepResult
// carries the message rather than the error value because results are
// persisted in snapshots and returned over the wire.
func failedErr(err error) *StepResult {
	return &StepResult{Status: skill.StatusFailed, Error: err.Error()}
}

// reviveJSON walks a rendered structure and parses string leaves that look
// like JSON documents back into structured values, so a template producing
// `{"a": 1}` binds as a mapping rather than text.
func reviveJSON(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		trimmed := strings.TrimSpace(t)
		if len(trimmed) > 1 && (trimmed[0] == '{' || trimmed[0] == '[') {
			var parsed interface{}
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return parsed
			}
		}
		return t
	case map[string]interface{}:
		for k, val := range t {
			t[k] = reviveJSON(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = reviveJSON(val)
		}
		return t
	default:
		return v
	}
}
