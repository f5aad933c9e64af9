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

// Package template implements the {{...}} placeholder language used in
// prompts, template steps, and tool input configurations: variable paths,
// arithmetic, string concatenation, array and object indexing, and
// {{#for}}...{{/for}} iteration with {{_}} as the current element.
//
// Rendering is permissive about missing variables (they render empty) and
// strict about structure (unterminated sites and unbalanced loops fail).
package template

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Unwrapper is implemented by wrapper values (such as a step output wrapper)
// that carry an underlying raw value. Path resolution and iteration unwrap
// these transparently.
type Unwrapper interface {
	Unwrap() interface{}
}

// Stringify converts a value to its template string form. Nil renders empty,
// booleans render as "true"/"false", and numbers with an integral value
// render without a decimal point. Maps and slices render as compact JSON.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case fmt.Stringer:
		return t.String()
	case Unwrapper:
		return Stringify(t.Unwrap())
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AsNumber coerces a value to float64 for arithmetic and comparisons.
// Returns false for non-numeric values.
func AsNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case Unwrapper:
		return AsNumber(t.Unwrap())
	}
	return 0, false
}

// AsSequence coerces a value to a []interface{} for loop iteration.
// Returns false for non-sequence values.
func AsSequence(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case Unwrapper:
		return AsSequence(t.Unwrap())
	}
	return nil, false
}

func unwrap(v interface{}) interface{} {
	for {
		w, ok := v.(Unwrapper)
		if !ok {
			return v
		}
		v = w.Unwrap()
	}
}
