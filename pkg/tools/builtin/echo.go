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

// Package builtin provides the tools shipped with the engine: echo for
// binding literal values, kv for a process-local key/value store, and jq
// for querying structured data.
package builtin

import (
	"context"

	"github.com/skillflow/skillflow/pkg/tools"
)

// Echo writes its input value back as a variable. Useful for binding
// computed literals and for exercising the tool pipeline in tests.
type Echo struct{}

// NewEcho creates the echo tool.
func NewEcho() *Echo {
	return &Echo{}
}

// Name returns the tool identifier.
func (e *Echo) Name() string { return "echo" }

// Description returns what the tool does.
func (e *Echo) Description() string {
	return "Writes the given value to a named variable"
}

// Schema returns the tool's input schema.
func (e *Echo) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"value": {Description: "the value to bind, any type"},
				"var":   {Type: "string", Description: "variable name, defaults to \"echo\""},
			},
			Required: []string{"value"},
		},
	}
}

// ValidateInput checks the inputs against the schema.
func (e *Echo) ValidateInput(inputs map[string]interface{}) error {
	return e.Schema().ValidateInputs(inputs)
}

// Execute binds the value.
func (e *Echo) Execute(_ context.Context, inputs map[string]interface{}, out tools.Output) error {
	name := "echo"
	if v, ok := inputs["var"].(string); ok && v != "" {
		name = v
	}
	out.Put(name, inputs["value"])
	return nil
}
