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

package parser

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skillflow/skillflow/pkg/condition"
	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

// stepBlock is the raw material of one "### step:" block.
type stepBlock struct {
	name     string
	line     int
	attrs    map[string]string // lowercased keys
	attrLine map[string]int
	whenSrc  string
	whenLine int
	fences   []fencedBlock // excluding the when fence
}

// parseSteps splits the steps section into step blocks and builds each step.
func parseSteps(sec section) ([]*skill.Step, error) {
	blocks, err := splitStepBlocks(sec)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, &errors.ParseError{Line: sec.startLine, Message: "steps section declares no '### step:' blocks"}
	}

	steps := make([]*skill.Step, 0, len(blocks))
	for _, b := range blocks {
		st, err := buildStep(b)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func splitStepBlocks(sec section) ([]*stepBlock, error) {
	var blocks []*stepBlock
	var cur *stepBlock
	var curLines []string
	var curBase int
	inFence := false

	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := fillBlock(cur, curLines, curBase); err != nil {
			return err
		}
		blocks = append(blocks, cur)
		cur = nil
		return nil
	}

	for i, raw := range sec.lines {
		lineNo := sec.lineBase + i
		trimmed := strings.TrimSpace(raw)

		if fenceRe.MatchString(trimmed) {
			inFence = !inFence
		}
		if !inFence || fenceRe.MatchString(trimmed) {
			if m := stepHeadingRe.FindStringSubmatch(trimmed); m != nil && !inFence {
				if err := flush(); err != nil {
					return nil, err
				}
				cur = &stepBlock{
					name:     m[1],
					line:     lineNo,
					attrs:    map[string]string{},
					attrLine: map[string]int{},
				}
				curLines = nil
				curBase = lineNo + 1
				continue
			}
		}
		if cur != nil {
			curLines = append(curLines, raw)
		} else if trimmed != "" && !strings.HasPrefix(trimmed, "<!--") {
			return nil, &errors.ParseError{Line: lineNo, Message: fmt.Sprintf("unexpected content before first step: %q", trimmed)}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// fillBlock extracts attributes and fenced blocks from a step body.
func fillBlock(b *stepBlock, lines []string, lineBase int) error {
	inFence := false
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if fenceRe.MatchString(trimmed) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := attributeRe.FindStringSubmatch(trimmed); m != nil {
			key := strings.ToLower(m[1])
			if _, dup := b.attrs[key]; dup {
				return &errors.ParseError{Line: lineBase + i, Message: fmt.Sprintf("step %q: duplicate attribute %q", b.name, key)}
			}
			b.attrs[key] = strings.TrimSpace(m[2])
			b.attrLine[key] = lineBase + i
		}
	}

	for _, f := range extractFences(lines, lineBase) {
		if f.lang == "when" {
			if b.whenSrc != "" {
				return &errors.ParseError{Line: f.line, Message: fmt.Sprintf("step %q: multiple when blocks", b.name)}
			}
			src, err := whenFromFence(f)
			if err != nil {
				return err
			}
			b.whenSrc = src
			b.whenLine = f.line
			continue
		}
		b.fences = append(b.fences, f)
	}

	if len(b.fences) > 1 {
		return &errors.ParseError{Line: b.fences[1].line, Message: fmt.Sprintf("step %q: at most one code block is allowed", b.name)}
	}
	if w, ok := b.attrs["when"]; ok {
		if b.whenSrc != "" {
			return &errors.ParseError{Line: b.attrLine["when"], Message: fmt.Sprintf("step %q: when declared both as attribute and block", b.name)}
		}
		b.whenSrc = w
		b.whenLine = b.attrLine["when"]
	}
	return nil
}

// whenFromFence reads the `expr:` entry of a ```when fence.
func whenFromFence(f fencedBlock) (string, error) {
	var body struct {
		Expr string `yaml:"expr"`
	}
	if err := yaml.Unmarshal([]byte(f.body), &body); err != nil {
		return "", yamlParseError(f, err)
	}
	if strings.TrimSpace(body.Expr) == "" {
		return "", &errors.ParseError{Line: f.line, Message: "when block requires an 'expr' entry"}
	}
	return strings.TrimSpace(body.Expr), nil
}

// buildStep determines the step kind and assembles its configuration.
func buildStep(b *stepBlock) (*skill.Step, error) {
	st := &skill.Step{
		Name:    strings.TrimSpace(b.name),
		VarName: b.attrs["varname"],
	}

	kind, err := determineKind(b)
	if err != nil {
		return nil, err
	}
	st.Kind = kind

	if b.whenSrc != "" {
		cond, err := condition.Parse(b.whenSrc)
		if err != nil {
			return nil, &errors.ParseError{Line: b.whenLine, Message: fmt.Sprintf("step %q: invalid when expression: %v", b.name, err)}
		}
		st.When = cond
		st.WhenSource = b.whenSrc
	}

	switch kind {
	case skill.KindTool:
		cfg, err := toolConfig(b)
		if err != nil {
			return nil, err
		}
		st.Tool = cfg
	case skill.KindPrompt:
		body := fenceBody(b)
		st.Prompt = &skill.PromptStepConfig{Template: body}
	case skill.KindTemplate:
		body := fenceBody(b)
		st.Template = &skill.TemplateStepConfig{Template: body}
	case skill.KindAwait:
		cfg, err := awaitConfig(b)
		if err != nil {
			return nil, err
		}
		st.Await = cfg
	}

	if err := st.Validate(); err != nil {
		return nil, &errors.ParseError{Line: b.line, Message: err.Error()}
	}
	return st, nil
}

func determineKind(b *stepBlock) (skill.StepKind, error) {
	if t, ok := b.attrs["type"]; ok {
		kind := skill.StepKind(strings.ToLower(t))
		if kind == "compose" {
			return "", &errors.ParseError{Line: b.attrLine["type"], Message: fmt.Sprintf("step %q: the compose step kind is no longer supported; use varName aliasing with a template step", b.name)}
		}
		if !skill.ValidStepKind(kind) {
			return "", &errors.ParseError{Line: b.attrLine["type"], Message: fmt.Sprintf("step %q: unknown step type %q", b.name, t)}
		}
		return kind, nil
	}
	if _, ok := b.attrs["tool"]; ok {
		return skill.KindTool, nil
	}
	for _, f := range b.fences {
		if f.lang == "prompt" {
			return skill.KindPrompt, nil
		}
	}
	for _, f := range b.fences {
		if f.lang == "yaml" || f.lang == "yml" {
			var probe struct {
				Message     *string   `yaml:"message"`
				InputSchema yaml.Node `yaml:"input_schema"`
			}
			if err := yaml.Unmarshal([]byte(f.body), &probe); err == nil &&
				probe.Message != nil && probe.InputSchema.Kind != 0 {
				return skill.KindAwait, nil
			}
		}
	}
	if len(b.fences) > 0 {
		return skill.KindTemplate, nil
	}
	return "", &errors.ParseError{Line: b.line, Message: fmt.Sprintf("step %q: cannot determine step kind; declare a **type** attribute", b.name)}
}

func fenceBody(b *stepBlock) string {
	if len(b.fences) == 0 {
		return ""
	}
	return b.fences[0].body
}

func toolConfig(b *stepBlock) (*skill.ToolStepConfig, error) {
	cfg := &skill.ToolStepConfig{
		ToolName:      b.attrs["tool"],
		InputTemplate: map[string]interface{}{},
	}
	if cfg.ToolName == "" {
		return nil, &errors.ParseError{Line: b.line, Message: fmt.Sprintf("step %q: tool steps require a **tool** attribute", b.name)}
	}
	if len(b.fences) == 0 {
		return cfg, nil
	}

	f := b.fences[0]
	var input map[string]interface{}
	if err := yaml.Unmarshal([]byte(f.body), &input); err != nil {
		return nil, yamlParseError(f, err)
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	// an output_schema sub-block is advisory: record field names only
	if rawOut, ok := input["output_schema"]; ok {
		delete(input, "output_schema")
		if outMap, ok := rawOut.(map[string]interface{}); ok {
			var root yaml.Node
			if err := yaml.Unmarshal([]byte(f.body), &root); err == nil {
				if m := documentMapping(&root); m != nil {
					cfg.OutputFields = orderedKeysOf(m, "output_schema")
				}
			}
			if cfg.OutputFields == nil {
				for k := range outMap {
					cfg.OutputFields = append(cfg.OutputFields, k)
				}
			}
			sort.Strings(cfg.OutputFields)
		}
	}
	cfg.InputTemplate = input
	return cfg, nil
}

// orderedKeysOf returns the keys of the named nested mapping in document
// order, or nil if the entry is not a mapping.
func orderedKeysOf(mapping *yaml.Node, name string) []string {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != name {
			continue
		}
		val := mapping.Content[i+1]
		if val.Kind != yaml.MappingNode {
			return nil
		}
		keys := make([]string, 0, len(val.Content)/2)
		for j := 0; j+1 < len(val.Content); j += 2 {
			keys = append(keys, val.Content[j].Value)
		}
		return keys
	}
	return nil
}

func awaitConfig(b *stepBlock) (*skill.AwaitStepConfig, error) {
	if len(b.fences) == 0 {
		return nil, &errors.ParseError{Line: b.line, Message: fmt.Sprintf("step %q: await steps require a yaml block", b.name)}
	}
	f := b.fences[0]

	var raw struct {
		Message     string    `yaml:"message"`
		InputSchema yaml.Node `yaml:"input_schema"`
	}
	if err := yaml.Unmarshal([]byte(f.body), &raw); err != nil {
		return nil, yamlParseError(f, err)
	}

	cfg := &skill.AwaitStepConfig{Message: raw.Message, InputSchema: skill.NewSchema()}
	if raw.InputSchema.Kind == yaml.MappingNode {
		schema, err := schemaFromMapping(&raw.InputSchema, true)
		if err != nil {
			return nil, &errors.ParseError{Line: f.line, Message: fmt.Sprintf("step %q: %v", b.name, err)}
		}
		cfg.InputSchema = schema
	}
	return cfg, nil
}
