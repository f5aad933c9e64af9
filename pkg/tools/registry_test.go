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

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/pkg/errors"
)

type fakeTool struct {
	name   string
	schema *Schema
	run    func(ctx context.Context, inputs map[string]interface{}, out Output) error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake" }
func (f *fakeTool) Schema() *Schema     { return f.schema }
func (f *fakeTool) ValidateInput(inputs map[string]interface{}) error {
	return f.schema.ValidateInputs(inputs)
}
func (f *fakeTool) Execute(ctx context.Context, inputs map[string]interface{}, out Output) error {
	if f.run != nil {
		return f.run(ctx, inputs, out)
	}
	return nil
}

type mapOutput map[string]interface{}

func (m mapOutput) Put(name string, value interface{}) { m[name] = value }

func newFake(name string, required ...string) *fakeTool {
	return &fakeTool{
		name: name,
		schema: &Schema{
			Inputs: &ParameterSchema{
				Type:     "object",
				Required: required,
				Properties: map[string]*Property{
					"text": {Type: "string"},
				},
			},
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFake("a")))

	assert.Error(t, r.Register(newFake("a")), "duplicate names rejected")
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&fakeTool{name: ""}))
	assert.Error(t, r.Register(&fakeTool{name: "noschema"}), "nil schema rejected")
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFake("a")))

	tool, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", tool.Name())

	_, err = r.Get("missing")
	require.Error(t, err)
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFake("zeta")))
	require.NoError(t, r.Register(newFake("alpha")))

	assert.Equal(t, []string{"alpha", "zeta"}, r.List())
	assert.True(t, r.Has("alpha"))
	assert.False(t, r.Has("beta"))
	assert.Len(t, r.ListTools(), 2)

	require.NoError(t, r.Unregister("alpha"))
	assert.False(t, r.Has("alpha"))
	assert.Error(t, r.Unregister("alpha"))
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	tool := newFake("writer", "text")
	tool.run = func(_ context.Context, inputs map[string]interface{}, out Output) error {
		out.Put("written", inputs["text"])
		return nil
	}
	require.NoError(t, r.Register(tool))

	out := mapOutput{}
	require.NoError(t, r.Execute(context.Background(), "writer", map[string]interface{}{"text": "hi"}, out))
	assert.Equal(t, "hi", out["written"])

	err := r.Execute(context.Background(), "writer", map[string]interface{}{}, out)
	require.Error(t, err, "missing required input")
	var ve *errors.ValidationError
	assert.ErrorAs(t, err, &ve)

	err = r.Execute(context.Background(), "nope", nil, out)
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSchemaValidateInputs(t *testing.T) {
	schema := &Schema{
		Inputs: &ParameterSchema{
			Type:     "object",
			Required: []string{"op"},
			Properties: map[string]*Property{
				"op":    {Type: "string", Enum: []interface{}{"get", "set"}},
				"count": {Type: "number"},
				"flags": {Type: "array"},
			},
		},
	}

	assert.NoError(t, schema.ValidateInputs(map[string]interface{}{"op": "get"}))
	assert.NoError(t, schema.ValidateInputs(map[string]interface{}{"op": "set", "count": 3}))
	assert.Error(t, schema.ValidateInputs(map[string]interface{}{}), "missing required")
	assert.Error(t, schema.ValidateInputs(map[string]interface{}{"op": 1}), "wrong type")
	assert.Error(t, schema.ValidateInputs(map[string]interface{}{"op": "drop"}), "enum violation")
	assert.Error(t, schema.ValidateInputs(map[string]interface{}{"op": "get", "flags": "x"}))
	assert.NoError(t, schema.ValidateInputs(map[string]interface{}{"op": "get", "extra": true}), "unknown keys pass")
}
