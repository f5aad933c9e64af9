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

package shared

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/pkg/engine"
)

func TestParseInputPairs(t *testing.T) {
	inputs, err := ParseInputPairs([]string{
		"name=Ada",
		"count=3",
		"approved=true",
		"tags=[\"a\",\"b\"]",
		"note=has = signs",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", inputs["name"])
	assert.Equal(t, float64(3), inputs["count"])
	assert.Equal(t, true, inputs["approved"])
	assert.Equal(t, []interface{}{"a", "b"}, inputs["tags"])
	assert.Equal(t, "has = signs", inputs["note"])
}

func TestParseInputPairsRejectsMalformed(t *testing.T) {
	_, err := ParseInputPairs([]string{"no-equals"})
	assert.Error(t, err)

	_, err = ParseInputPairs([]string{"=value"})
	assert.Error(t, err)
}

func TestCollectInputsPairsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"file","extra":1}`), 0o644))

	inputs, err := CollectInputs([]string{"name=flag"}, path)
	require.NoError(t, err)

	assert.Equal(t, "flag", inputs["name"])
	assert.Equal(t, float64(1), inputs["extra"])
}

func TestLoadInputFileRejectsNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))

	_, err := LoadInputFile(path)
	assert.Error(t, err)
}

func TestBuildAdapter(t *testing.T) {
	adapter, err := BuildAdapter("")
	require.NoError(t, err)
	assert.Nil(t, adapter)

	adapter, err = BuildAdapter("static:looks good")
	require.NoError(t, err)
	require.NotNil(t, adapter)
	assert.Equal(t, "static", adapter.Name())

	_, err = BuildAdapter("openai:gpt")
	assert.Error(t, err)
}

func TestBuildStore(t *testing.T) {
	cfg := config.Default()
	store, err := BuildStore(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := store.(*engine.MemoryStore)
	assert.True(t, ok, "memory store by default")

	cfg.Store.Type = "sqlite"
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "snapshots.db")
	store, err = BuildStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
}
