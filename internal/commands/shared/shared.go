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

// Package shared holds helpers used by several CLI commands: input
// parsing, adapter construction, store construction, and skill loading.
package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/engine/store/redis"
	"github.com/skillflow/skillflow/pkg/engine/store/sqlite"
	"github.com/skillflow/skillflow/pkg/llm"
	"github.com/skillflow/skillflow/pkg/repository"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/skill/parser"
)

// ParseInputPairs converts --input k=v pairs into an input map. Values
// that parse as JSON keep their native type; everything else stays a
// string.
func ParseInputPairs(pairs []string) (map[string]interface{}, error) {
	inputs := map[string]interface{}{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q: expected key=value", pair)
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			inputs[key] = parsed
		} else {
			inputs[key] = value
		}
	}
	return inputs, nil
}

// LoadInputFile loads a JSON input map from a file, or stdin when path
// is "-".
func LoadInputFile(path string) (map[string]interface{}, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
	}

	inputs := map[string]interface{}{}
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("input file must contain a JSON object: %w", err)
	}
	return inputs, nil
}

// MergeInputs overlays pair inputs on top of file inputs.
func MergeInputs(fromFile, fromPairs map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	for k, v := range fromFile {
		merged[k] = v
	}
	for k, v := range fromPairs {
		merged[k] = v
	}
	return merged
}

// CollectInputs combines --input pairs with an optional --input-file;
// pairs win on conflicts.
func CollectInputs(pairs []string, file string) (map[string]interface{}, error) {
	fromPairs, err := ParseInputPairs(pairs)
	if err != nil {
		return nil, err
	}
	if file == "" {
		return fromPairs, nil
	}
	fromFile, err := LoadInputFile(file)
	if err != nil {
		return nil, err
	}
	return MergeInputs(fromFile, fromPairs), nil
}

// BuildAdapter parses an adapter spec. "static:<response>" yields a
// static adapter, useful for offline runs; an empty spec yields nil.
func BuildAdapter(spec string) (llm.Adapter, error) {
	if spec == "" {
		return nil, nil
	}
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "static":
		return llm.NewStaticAdapter(arg), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q (supported: static:<response>)", kind)
	}
}

// BuildStore constructs the snapshot store named by the configuration.
func BuildStore(ctx context.Context, cfg *config.Config) (engine.Store, error) {
	switch cfg.Store.Type {
	case "sqlite":
		wal := cfg.Store.SQLite.WAL == nil || *cfg.Store.SQLite.WAL
		return sqlite.New(sqlite.Config{Path: cfg.Store.SQLite.Path, WAL: wal})
	case "redis":
		return redis.New(ctx, redis.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
	default:
		return engine.NewMemoryStore(), nil
	}
}

// LoadSkill resolves a skill argument: a path to a Markdown document,
// or a skill id looked up in the configured skills directory.
func LoadSkill(arg, skillsDir string, logger *slog.Logger) (*skill.Skill, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read skill file: %w", err)
		}
		return parser.Parse(string(data))
	}

	repo, err := repository.NewFileRepository(skillsDir, logger)
	if err != nil {
		return nil, err
	}
	return repo.Get(arg)
}

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResult prints an execution result for humans, or as JSON. It
// returns an error for failed executions so the CLI exits non-zero.
func PrintResult(result *engine.Result, jsonOut bool) error {
	if jsonOut {
		if err := PrintJSON(result); err != nil {
			return err
		}
		if result.State == engine.StateFailure {
			return fmt.Errorf("execution failed")
		}
		return nil
	}

	switch result.State {
	case engine.StateSuccess:
		fmt.Println("Status: completed")
		for k, v := range result.Output {
			fmt.Printf("  %s: %v\n", k, v)
		}
		return nil
	case engine.StateAwaiting:
		fmt.Println("Status: waiting for input")
		if result.Await != nil {
			fmt.Printf("  %s\n", result.Await.Message)
		}
		fmt.Printf("  Resume with: skillflow resume %s --input <field>=<value>\n", result.ExecutionID)
		return nil
	default:
		return fmt.Errorf("execution failed: %s", result.Error)
	}
}
