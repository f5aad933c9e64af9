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

	"github.com/skillflow/skillflow/pkg/skill"
)

// Format renders a skill model back to its canonical Markdown document form.
// Parsing the result yields a model equal to the input.
func Format(sk *skill.Skill) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# skill: %s\n", sk.ID)

	if sk.Version != "" {
		sb.WriteString("\n## version\n")
		sb.WriteString(sk.Version + "\n")
	}
	if sk.Description != "" {
		sb.WriteString("\n## description\n")
		sb.WriteString(sk.Description + "\n")
	}
	if len(sk.Intents) > 0 {
		sb.WriteString("\n## intent\n")
		for _, intent := range sk.Intents {
			sb.WriteString("- " + intent + "\n")
		}
	}
	if sk.InputSchema.Len() > 0 {
		sb.WriteString("\n## input\n")
		writeSchemaBlock(&sb, sk.InputSchema)
	}

	sb.WriteString("\n## steps\n")
	for _, st := range sk.Steps {
		writeStep(&sb, st)
	}

	if sk.OutputContract.Len() > 0 {
		sb.WriteString("\n## output\n")
		writeSchemaBlock(&sb, sk.OutputContract)
	}

	extKeys := make([]string, 0, len(sk.Extensions))
	for k := range sk.Extensions {
		extKeys = append(extKeys, k)
	}
	sort.Strings(extKeys)
	for _, k := range extKeys {
		fmt.Fprintf(&sb, "\n## %s\n%s\n", k, sk.Extensions[k])
	}

	refKeys := make([]string, 0, len(sk.References))
	for k := range sk.References {
		refKeys = append(refKeys, k)
	}
	sort.Strings(refKeys)
	if len(refKeys) > 0 {
		sb.WriteString("\n")
		for _, k := range refKeys {
			fmt.Fprintf(&sb, "<!-- reference: %s -->\n", sk.References[k].Path)
		}
	}

	return sb.String()
}

func writeStep(sb *strings.Builder, st *skill.Step) {
	fmt.Fprintf(sb, "\n### step: %s\n", st.Name)
	fmt.Fprintf(sb, "**type**: %s\n", st.Kind)
	if st.Kind == skill.KindTool && st.Tool != nil {
		fmt.Fprintf(sb, "**tool**: %s\n", st.Tool.ToolName)
	}
	if st.VarName != "" {
		fmt.Fprintf(sb, "**varName**: %s\n", st.VarName)
	}
	if st.WhenSource != "" {
		fmt.Fprintf(sb, "**when**: %s\n", st.WhenSource)
	}

	switch st.Kind {
	case skill.KindTool:
		if st.Tool != nil && (len(st.Tool.InputTemplate) > 0 || len(st.Tool.OutputFields) > 0) {
			body := map[string]interface{}{}
			for k, v := range st.Tool.InputTemplate {
				body[k] = v
			}
			if len(st.Tool.OutputFields) > 0 {
				outSchema := map[string]interface{}{}
				for _, f := range st.Tool.OutputFields {
					outSchema[f] = "string"
				}
				body["output_schema"] = outSchema
			}
			writeYAMLBlock(sb, body)
		}
	case skill.KindPrompt:
		writeFence(sb, "prompt", st.Prompt.Template)
	case skill.KindTemplate:
		writeFence(sb, "template", st.Template.Template)
	case skill.KindAwait:
		body := awaitYAML(st.Await)
		writeFence(sb, "yaml", strings.TrimRight(body, "\n"))
	}
}

func writeFence(sb *strings.Builder, lang, body string) {
	sb.WriteString("```" + lang + "\n")
	sb.WriteString(body)
	sb.WriteString("\n```\n")
}

func writeYAMLBlock(sb *strings.Builder, v interface{}) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return
	}
	writeFence(sb, "yaml", strings.TrimRight(string(b), "\n"))
}

func writeSchemaBlock(sb *strings.Builder, schema *skill.Schema) {
	sb.WriteString("```yaml\n")
	sb.WriteString(schemaYAML(schema))
	sb.WriteString("```\n")
}

// schemaYAML emits a schema in declaration order using the full field form,
// so required defaults survive the round trip regardless of section.
func schemaYAML(schema *skill.Schema) string {
	var sb strings.Builder
	for _, name := range schema.Names {
		spec := schema.Fields[name]
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  type: %s\n", spec.Type)
		fmt.Fprintf(&sb, "  required: %t\n", spec.Required)
		if spec.Description != "" {
			fmt.Fprintf(&sb, "  description: %s\n", quoteYAML(spec.Description))
		}
		if spec.Placeholder != "" {
			fmt.Fprintf(&sb, "  placeholder: %s\n", quoteYAML(spec.Placeholder))
		}
		if spec.Default != nil {
			writeInlineYAML(&sb, "default", spec.Default)
		}
		if len(spec.Options) > 0 {
			writeInlineYAML(&sb, "options", spec.Options)
		}
		if spec.UIHint != "" {
			fmt.Fprintf(&sb, "  ui_hint: %s\n", quoteYAML(spec.UIHint))
		}
		if spec.Validation != nil {
			writeInlineYAML(&sb, "validation", spec.Validation)
		}
	}
	return sb.String()
}

func writeInlineYAML(sb *strings.Builder, key string, v interface{}) {
	b, err := yaml.Marshal(map[string]interface{}{key: v})
	if err != nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		sb.WriteString("  " + line + "\n")
	}
}

func quoteYAML(s string) string {
	b, err := yaml.Marshal(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(string(b), "\n")
}

func awaitYAML(cfg *skill.AwaitStepConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "message: %s\n", quoteYAML(cfg.Message))
	sb.WriteString("input_schema:\n")
	for _, line := range strings.Split(strings.TrimRight(schemaYAML(cfg.InputSchema), "\n"), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}
