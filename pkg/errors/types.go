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

// Package errors defines the structured error types used across the skill
// engine. Each type maps to one kind in the error taxonomy: parse errors carry
// source locations, execution-state errors map to HTTP 409, input errors to
// 400, and not-found errors to 404. Callers should match with errors.As.
package errors

import (
	"fmt"
	"time"
)

// ParseError represents a failure to parse a skill document.
// Line and Column are 1-based; Column is 0 when not available.
type ParseError struct {
	// Line is the 1-based line number where the problem was found
	Line int

	// Column is the 1-based column number, or 0 if unknown
	Column int

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// ValidationError represents user input validation failures.
// Use this for invalid user input, malformed data, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource (skill, execution, tool) does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "skill", "execution", "tool")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StateError represents an operation applied to an execution in the wrong
// state, such as resuming a snapshot that is already RESUMED, EXPIRED, or
// CANCELLED. Transports map this to HTTP 409.
type StateError struct {
	// ExecutionID identifies the execution
	ExecutionID string

	// State is the snapshot state that blocked the operation
	State string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("execution %s is %s: %s", e.ExecutionID, e.State, e.Message)
	}
	return fmt.Sprintf("execution %s is %s and cannot be resumed", e.ExecutionID, e.State)
}

// InputError represents await-input validation failures on resume.
// Transports map this to HTTP 400.
type InputError struct {
	// Field identifies which await-input field failed, if a single field
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// TemplateError represents a structural template failure, such as an
// unterminated placeholder or an unbalanced for loop. Missing variables are
// not errors; they render empty.
type TemplateError struct {
	// Template is a truncated excerpt of the offending template
	Template string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("template error in %q: %s", e.Template, e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// StepError represents a step-level execution failure. The engine captures
// these, marks the remaining steps skipped, and returns a failed result.
type StepError struct {
	// Step is the name of the failing step
	Step string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// ToolError represents a tool invocation failure.
type ToolError struct {
	// Tool is the name of the tool
	Tool string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s error: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a configuration loading or validation failure.
type ConfigError struct {
	// Key identifies the configuration key or section
	Key string

	// Reason is the human-readable error description
	Reason string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error in %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ProviderError represents a language-model adapter failure.
type ProviderError struct {
	// Provider is the name of the adapter (e.g., "static", "anthropic")
	Provider string

	// StatusCode is the HTTP status code, if applicable
	StatusCode int

	// Message is the human-readable error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s error", e.Provider)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "LLM request", "tool call")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
