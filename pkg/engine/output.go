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
	"fmt"
	"strings"

	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/template"
)

// AssembleOutput builds the final output mapping from the variable view.
// With no contract the result is empty; side-effectful variables stay in
// the context. Otherwise every contract key is resolved against the view,
// as a bare name or a dotted path; missing fields become nil. The result
// holds exactly the contract's keys.
func AssembleOutput(view map[string]interface{}, contract *skill.Schema) map[string]interface{} {
	out := map[string]interface{}{}
	if contract.Len() == 0 {
		return out
	}
	for _, name := range contract.Names {
		out[name] = resolveOutputField(view, name)
	}
	return out
}

func resolveOutputField(view map[string]interface{}, name string) interface{} {
	path, err := template.ParsePath(name)
	if err != nil {
		return nil
	}
	v, ok := path.ResolveVars(view)
	if !ok {
		return nil
	}
	if u, wrapped := v.(interface{ Unwrap() interface{} }); wrapped {
		return u.Unwrap()
	}
	return v
}

// OutputCheck is the verdict of validating an assembled output.
type OutputCheck struct {
	Failed  bool
	Message string
}

// ValidateOutput checks an assembled output against the contract: required
// fields must be present and non-nil, present fields must coarsely match
// their declared type. Nested shapes inside object/array fields are not
// inspected.
func ValidateOutput(output map[string]interface{}, contract *skill.Schema) OutputCheck {
	if contract.Len() == 0 {
		return OutputCheck{}
	}
	var problems []string
	for _, name := range contract.Names {
		spec := contract.Fields[name]
		v, ok := output[name]
		if !ok || v == nil {
			if spec.Required {
				problems = append(problems, fmt.Sprintf("output field %q is required but missing", name))
			}
			continue
		}
		if !spec.Type.MatchesType(v) {
			problems = append(problems, fmt.Sprintf("output field %q must be of type %s", name, spec.Type))
		}
	}
	if len(problems) == 0 {
		return OutputCheck{}
	}
	return OutputCheck{Failed: true, Message: strings.Join(problems, "; ")}
}
