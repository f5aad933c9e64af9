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
	"sync"

	"github.com/skillflow/skillflow/pkg/tools"
)

// KV is a process-local key/value store shared by every execution that
// uses the same tool instance. Supported ops: get, set, delete.
type KV struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewKV creates an empty key/value tool.
func NewKV() *KV {
	return &KV{data: make(map[string]interface{})}
}

// Name returns the tool identifier.
func (k *KV) Name() string { return "kv" }

// Description returns what the tool does.
func (k *KV) Description() string {
	return "Reads and writes a process-local key/value store"
}

// Schema returns the tool's input schema.
func (k *KV) Schema() *tools.Schema {
	return &tools.Schema{
		Inputs: &tools.ParameterSchema{
			Type: "object",
			Properties: map[string]*tools.Property{
				"op":    {Type: "string", Enum: []interface{}{"get", "set", "delete"}},
				"key":   {Type: "string"},
				"value": {Description: "the value to store, required for set"},
				"var":   {Type: "string", Description: "variable name for get, defaults to the key"},
			},
			Required: []string{"op", "key"},
		},
	}
}

// ValidateInput checks the inputs against the schema.
func (k *KV) ValidateInput(inputs map[string]interface{}) error {
	if err := k.Schema().ValidateInputs(inputs); err != nil {
		return err
	}
	if inputs["op"] == "set" {
		if _, ok := inputs["value"]; !ok {
			return fmt.Errorf("set requires a value")
		}
	}
	return nil
}

// Execute performs the requested operation. A get of a missing key binds
// nil rather than failing, so skills can branch on the result.
func (k *KV) Execute(_ context.Context, inputs map[string]interface{}, out tools.Output) error {
	op, _ := inputs["op"].(string)
	key, _ := inputs["key"].(string)

	switch op {
	case "get":
		k.mu.RLock()
		value := k.data[key]
		k.mu.RUnlock()
		name := key
		if v, ok := inputs["var"].(string); ok && v != "" {
			name = v
		}
		out.Put(name, value)
	case "set":
		k.mu.Lock()
		k.data[key] = inputs["value"]
		k.mu.Unlock()
	case "delete":
		k.mu.Lock()
		delete(k.data, key)
		k.mu.Unlock()
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	return nil
}
