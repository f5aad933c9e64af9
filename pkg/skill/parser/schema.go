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
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

// fencedBlock is one fenced code block extracted from section lines.
type fencedBlock struct {
	lang string
	body string
	line int // 1-based line of the opening fence
}

// extractFences scans section lines for fenced blocks.
func extractFences(lines []string, lineBase int) []fencedBlock {
	var blocks []fencedBlock
	var cur *fencedBlock
	var body []string

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		m := fenceRe.FindStringSubmatch(trimmed)
		if m == nil {
			if cur != nil {
				body = append(body, raw)
			}
			continue
		}
		if cur == nil {
			cur = &fencedBlock{lang: strings.ToLower(m[1]), line: lineBase + i}
			body = nil
		} else {
			cur.body = strings.Join(body, "\n")
			blocks = append(blocks, *cur)
			cur = nil
		}
	}
	return blocks
}

// parseSchemaSection parses an input/output section: a fenced yaml (or json)
// block mapping field names to specs. Shorthand "field: type" expands to a
// spec of that type with the section's required default.
func parseSchemaSection(sec section, requiredDefault bool) (*skill.Schema, error) {
	blocks := extractFences(sec.lines, sec.lineBase)
	if len(blocks) == 0 {
		// a bare section with no fenced block declares nothing
		return nil, nil
	}
	block := blocks[0]

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block.body), &root); err != nil {
		return nil, yamlParseError(block, err)
	}
	mapping := documentMapping(&root)
	if mapping == nil {
		return nil, &errors.ParseError{Line: block.line, Message: fmt.Sprintf("section %q must contain a mapping of field names", sec.name)}
	}
	schema, err := schemaFromMapping(mapping, requiredDefault)
	if err != nil {
		return nil, &errors.ParseError{Line: block.line, Message: err.Error()}
	}
	return schema, nil
}

// documentMapping unwraps a parsed yaml document down to its mapping node.
func documentMapping(root *yaml.Node) *yaml.Node {
	n := root
	for n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

// schemaFromMapping builds an ordered Schema from a yaml mapping node.
func schemaFromMapping(mapping *yaml.Node, requiredDefault bool) (*skill.Schema, error) {
	schema := skill.NewSchema()
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		value := mapping.Content[i+1]
		name := key.Value
		if name == "" {
			return nil, fmt.Errorf("schema field name cannot be empty (line %d)", key.Line)
		}

		spec, err := fieldSpecFromNode(name, value, requiredDefault)
		if err != nil {
			return nil, err
		}
		schema.Add(name, spec)
	}
	return schema, nil
}

// fieldSpecYAML mirrors the full field form. Required is a pointer so an
// absent key can fall back to the section default.
type fieldSpecYAML struct {
	Type        string                 `yaml:"type"`
	Required    *bool                  `yaml:"required"`
	Description string                 `yaml:"description"`
	Placeholder string                 `yaml:"placeholder"`
	Default     interface{}            `yaml:"default"`
	Options     []interface{}          `yaml:"options"`
	UIHint      string                 `yaml:"ui_hint"`
	Validation  *skill.FieldValidation `yaml:"validation"`
}

func fieldSpecFromNode(name string, value *yaml.Node, requiredDefault bool) (skill.FieldSpec, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		// shorthand: "field: type"
		ft := skill.FieldType(strings.TrimSpace(value.Value))
		if !skill.ValidFieldType(ft) {
			return skill.FieldSpec{}, fmt.Errorf("field %q: unknown type %q (line %d)", name, value.Value, value.Line)
		}
		return skill.FieldSpec{Type: ft, Required: requiredDefault}, nil

	case yaml.MappingNode:
		var raw fieldSpecYAML
		if err := value.Decode(&raw); err != nil {
			return skill.FieldSpec{}, fmt.Errorf("field %q: %v", name, err)
		}
		ft := skill.FieldType(strings.TrimSpace(raw.Type))
		if !skill.ValidFieldType(ft) {
			return skill.FieldSpec{}, fmt.Errorf("field %q: unknown type %q (line %d)", name, raw.Type, value.Line)
		}
		required := requiredDefault
		if raw.Required != nil {
			required = *raw.Required
		}
		return skill.FieldSpec{
			Type:        ft,
			Required:    required,
			Description: raw.Description,
			Placeholder: raw.Placeholder,
			Default:     raw.Default,
			Options:     raw.Options,
			UIHint:      raw.UIHint,
			Validation:  raw.Validation,
		}, nil
	}
	return skill.FieldSpec{}, fmt.Errorf("field %q: expected a type name or a mapping (line %d)", name, value.Line)
}

func yamlParseError(block fencedBlock, err error) error {
	return &errors.ParseError{Line: block.line, Message: fmt.Sprintf("invalid yaml: %v", err)}
}
