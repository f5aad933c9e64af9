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
	"regexp"
)

// FieldType enumerates the coarse value types a schema field may declare.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// ValidFieldType reports whether t is one of the supported field types.
func ValidFieldType(t FieldType) bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject:
		return true
	}
	return false
}

// MatchesType reports whether a runtime value matches the declared type.
// A nil value matches nothing; use Required to express presence.
func (t FieldType) MatchesType(v interface{}) bool {
	if v == nil {
		return false
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]interface{})
		return ok
	case TypeObject:
		_, ok := v.(map[string]interface{})
		return ok
	}
	return false
}

// FieldValidation carries the optional constraint block of a field.
type FieldValidation struct {
	// Pattern is a regular expression string values must match
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Min and Max bound numeric values (inclusive)
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// MinItems and MaxItems bound array lengths (inclusive)
	MinItems *int `json:"min_items,omitempty" yaml:"min_items,omitempty"`
	MaxItems *int `json:"max_items,omitempty" yaml:"max_items,omitempty"`

	// Message overrides the default constraint-violation message
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// FieldSpec describes one named field of an input schema or output contract.
type FieldSpec struct {
	Type        FieldType        `json:"type" yaml:"type"`
	Required    bool             `json:"required" yaml:"required"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Default     interface{}      `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []interface{}    `json:"options,omitempty" yaml:"options,omitempty"`
	UIHint      string           `json:"ui_hint,omitempty" yaml:"ui_hint,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// Schema is an ordered mapping of field name to FieldSpec. Declaration order
// is preserved for reproducible presentation and re-serialisation.
type Schema struct {
	// Names holds field names in declaration order
	Names []string `json:"names" yaml:"names"`

	// Fields maps field name to its spec
	Fields map[string]FieldSpec `json:"fields" yaml:"fields"`
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{Fields: map[string]FieldSpec{}}
}

// Add appends a field, replacing any earlier declaration of the same name.
func (s *Schema) Add(name string, spec FieldSpec) {
	if _, exists := s.Fields[name]; !exists {
		s.Names = append(s.Names, name)
	}
	s.Fields[name] = spec
}

// Get returns the spec for name.
func (s *Schema) Get(name string) (FieldSpec, bool) {
	spec, ok := s.Fields[name]
	return spec, ok
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Names)
}

// CheckInputs validates a value map against the schema: required fields must
// be present and non-nil, present fields must coarse-match their type, and
// any declared validation constraints must hold.
func (s *Schema) CheckInputs(values map[string]interface{}) error {
	if s == nil {
		return nil
	}
	for _, name := range s.Names {
		spec := s.Fields[name]
		v, ok := values[name]
		if !ok || v == nil {
			if spec.Required {
				return fmt.Errorf("field %q is required", name)
			}
			continue
		}
		if !spec.Type.MatchesType(v) {
			return fmt.Errorf("field %q must be of type %s", name, spec.Type)
		}
		if err := checkConstraints(name, spec, v); err != nil {
			return err
		}
	}
	return nil
}

func checkConstraints(name string, spec FieldSpec, v interface{}) error {
	if len(spec.Options) > 0 {
		found := false
		for _, opt := range spec.Options {
			if opt == v {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field %q must be one of the declared options", name)
		}
	}

	val := spec.Validation
	if val == nil {
		return nil
	}
	fail := func(def string) error {
		if val.Message != "" {
			return fmt.Errorf("field %q: %s", name, val.Message)
		}
		return fmt.Errorf("field %q: %s", name, def)
	}

	if s, ok := v.(string); ok && val.Pattern != "" {
		re, err := regexp.Compile(val.Pattern)
		if err != nil {
			return fmt.Errorf("field %q has invalid pattern: %w", name, err)
		}
		if !re.MatchString(s) {
			return fail("does not match pattern " + val.Pattern)
		}
	}
	if n, ok := toFloat(v); ok {
		if val.Min != nil && n < *val.Min {
			return fail(fmt.Sprintf("must be >= %v", *val.Min))
		}
		if val.Max != nil && n > *val.Max {
			return fail(fmt.Sprintf("must be <= %v", *val.Max))
		}
	}
	if arr, ok := v.([]interface{}); ok {
		if val.MinItems != nil && len(arr) < *val.MinItems {
			return fail(fmt.Sprintf("must have at least %d items", *val.MinItems))
		}
		if val.MaxItems != nil && len(arr) > *val.MaxItems {
			return fail(fmt.Sprintf("must have at most %d items", *val.MaxItems))
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
