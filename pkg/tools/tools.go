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

// Package tools provides a registry system for skill tools.
//
// Tools are discrete functions invoked by tool steps. Each tool has a name,
// a schema describing its inputs, and an execution function. Tools do not
// return values directly; they write named variables through the Output
// capability, which the engine binds into the variable view of the running
// execution.
package tools

import (
	"fmt"
)

// Output is the capability handed to a tool at execution time. Variables
// written through Put become visible to later steps under the given name.
type Output interface {
	Put(name string, value interface{})
}

// Schema defines the input and output schema for a tool using JSON Schema
// conventions.
type Schema struct {
	// Inputs defines the expected input parameters
	Inputs *ParameterSchema `json:"inputs"`

	// Outputs defines the structure of written variables
	Outputs *ParameterSchema `json:"outputs,omitempty"`
}

// ParameterSchema defines a set of parameters.
type ParameterSchema struct {
	// Type is the JSON type (e.g., "object", "string", "number")
	Type string `json:"type"`

	// Properties defines nested properties (for type="object")
	Properties map[string]*Property `json:"properties,omitempty"`

	// Required lists the required property names
	Required []string `json:"required,omitempty"`

	// Description provides human-readable context
	Description string `json:"description,omitempty"`
}

// Property defines a single property in a parameter schema.
type Property struct {
	// Type is the JSON type of this property
	Type string `json:"type"`

	// Description explains what this property represents
	Description string `json:"description,omitempty"`

	// Enum lists allowed values
	Enum []interface{} `json:"enum,omitempty"`

	// Default provides a default value if not specified
	Default interface{} `json:"default,omitempty"`
}

// ValidateInputs checks the given inputs against the schema: required
// properties must be present, and present properties must coarsely match
// their declared type. Unknown properties are allowed.
func (s *Schema) ValidateInputs(inputs map[string]interface{}) error {
	if s == nil || s.Inputs == nil {
		return nil
	}
	for _, required := range s.Inputs.Required {
		if _, exists := inputs[required]; !exists {
			return fmt.Errorf("required input missing: %s", required)
		}
	}
	for name, prop := range s.Inputs.Properties {
		v, ok := inputs[name]
		if !ok || v == nil || prop.Type == "" {
			continue
		}
		if !matchesJSONType(v, prop.Type) {
			return fmt.Errorf("input %q: expected %s", name, prop.Type)
		}
		if len(prop.Enum) > 0 && !enumAllows(prop.Enum, v) {
			return fmt.Errorf("input %q: value not in %v", name, prop.Enum)
		}
	}
	return nil
}

func matchesJSONType(v interface{}, typ string) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number", "integer":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]interface{})
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	}
	return true
}

func enumAllows(enum []interface{}, v interface{}) bool {
	for _, e := range enum {
		if fmt.Sprintf("%v", e) == fmt.Sprintf("%v", v) {
			return true
		}
	}
	return false
}
