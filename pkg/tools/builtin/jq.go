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

package builtin

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/skillflow/skillflow/pkg/tools"
)

// JQ evaluates a jq expression over structured input data and binds the
// result. A query producing exactly one value binds that value; multiple
// values bind as an array.
type JQ struct{}

// NewJQ creates the jq tool.
func NewJQ() *JQ {
	return &JQ{}
}

// Name returns the tool identifier.
func (j *JQ) Name() string { return "jq" }

// Description returns what the tool does.
func (j *JQ) Description() string {
	return "Evaluates a jq expression over structured data"
}

// Schema returns the tool's input schema.
func (j *JQ) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"query": {Type: "string", Description: "jq expression"},
				"data":  {Description: "input document, any JSON-shaped value"},
				"var":   {Type: "string", Description: "variable name, defaults to \"result\""},
			},
			Required: []string{"query"},
		},
	}
}

// ValidateInput checks the inputs and compiles the query so syntax errors
// surface before execution.
func (j *JQ) ValidateInput(inputs map[string]interface{}) error {
	if err := j.Schema().ValidateInputs(inputs); err != nil {
		return err
	}
	query, _ := inputs["query"].(string)
	if _, err := gojq.Parse(query); err != nil {
		return fmt.Errorf("invalid jq query: %v", err)
	}
	return nil
}

// Execute runs the query.
func (j *JQ) Execute(ctx context.Context, inputs map[string]interface{}, out tools.Output) error {
	query, _ := inputs["query"].(string)
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid jq query: %v", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("jq compile: %v", err)
	}

	var results []interface{}
	iter := code.RunWithContext(ctx, inputs["data"])
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq evaluation: %v", err)
		}
		results = append(results, v)
	}

	name := "result"
	if v, ok := inputs["var"].(string); ok && v != "" {
		name = v
	}
	switch len(results) {
	case 0:
		out.Put(name, nil)
	case 1:
		out.Put(name, results[0])
	default:
		out.Put(name, results)
	}
	return nil
}
