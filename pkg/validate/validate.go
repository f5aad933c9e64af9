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

// Package validate statically analyses skills: variable scoping, tool
// bindings, output contract producibility, and dead steps. It complements
// the parser, which only enforces document structure.
package validate

import (
	"fmt"
	"sort"
	"time"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/skill/parser"
	"github.com/skillflow/skillflow/pkg/template"
	"github.com/skillflow/skillflow/pkg/tools"
)

// Validator runs static checks over skills. The tool registry is
// optional; without one, tool bindings are not checked.
type Validator struct {
	tools *tools.Registry
}

// New creates a validator.
func New(toolRegistry *tools.Registry) *Validator {
	return &Validator{tools: toolRegistry}
}

// ValidateSource parses and then validates a Markdown skill document.
// Parse failures come back as a single syntax error issue.
func (v *Validator) ValidateSource(markdown string) *Report {
	started := time.Now()
	sk, err := parser.Parse(markdown)
	if err != nil {
		issue := Issue{Category: CategorySyntax, Level: LevelError, Message: err.Error()}
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			issue.Line = pe.Line
			issue.Message = pe.Message
		}
		return buildReport("", []Issue{issue}, started)
	}
	report := v.ValidateSkill(sk)
	report.Elapsed = time.Since(started)
	return report
}

// ValidateSkill validates an already-parsed skill.
func (v *Validator) ValidateSkill(sk *skill.Skill) *Report {
	started := time.Now()
	c := &checker{validator: v, skill: sk, scope: map[string]bool{
		"context": true,
		"_":       true,
	}}
	for _, name := range sk.InputSchema.Names {
		c.scope[name] = true
	}
	c.checkSchemaDefaults()
	for _, st := range sk.Steps {
		c.checkStep(st)
	}
	c.checkOutputContract()

	sortIssues(c.issues)
	return buildReport(sk.ID, c.issues, started)
}

type checker struct {
	validator    *Validator
	skill        *skill.Skill
	scope        map[string]bool
	hasToolSteps bool
	issues       []Issue
}

func (c *checker) add(issue Issue) {
	c.issues = append(c.issues, issue)
}

// checkSchemaDefaults flags declared defaults that contradict the field's
// own type.
func (c *checker) checkSchemaDefaults() {
	for _, name := range c.skill.InputSchema.Names {
		spec := c.skill.InputSchema.Fields[name]
		if spec.Default == nil {
			continue
		}
		if !spec.Type.MatchesType(spec.Default) {
			c.add(Issue{
				Category: CategorySchema,
				Level:    LevelWarning,
				Message:  fmt.Sprintf("input field %q declares a default that is not of type %s", name, spec.Type),
			})
		}
	}
}

func (c *checker) checkStep(st *skill.Step) {
	if st.When != nil {
		for _, name := range st.When.Variables() {
			if !c.scope[name] {
				c.add(Issue{
					Category:   CategoryDataFlow,
					Level:      LevelError,
					Step:       st.Name,
					Message:    fmt.Sprintf("when expression references %q, which is not in scope", name),
					Suggestion: "reference an input, an earlier step, or one of its aliases",
				})
			}
		}
		if st.When.IsLiteralFalse() {
			c.add(Issue{
				Category:   CategoryLogic,
				Level:      LevelSuggestion,
				Step:       st.Name,
				Message:    "when expression is constantly false; this step can never execute",
				Suggestion: "remove the step or fix the condition",
			})
		}
	}

	switch st.Kind {
	case skill.KindPrompt:
		c.checkTemplateRefs(st.Name, st.Prompt.Template)
	case skill.KindTemplate:
		c.checkTemplateRefs(st.Name, st.Template.Template)
	case skill.KindTool:
		c.checkToolStep(st)
	case skill.KindAwait:
		// the answers come into scope for the steps after the await
		for _, field := range st.Await.InputSchema.Names {
			c.scope[field] = true
		}
	}

	c.scope[st.Name] = true
	if st.VarName != "" {
		c.scope[st.VarName] = true
	}
	if st.Kind == skill.KindTool {
		c.hasToolSteps = true
		if st.Tool != nil {
			for _, f := range st.Tool.OutputFields {
				c.scope[f] = true
			}
		}
	}
}

// checkTemplateRefs flags references that cannot resolve at this point in
// the step sequence. The evaluator renders missing variables as empty, so
// these are warnings rather than errors.
func (c *checker) checkTemplateRefs(stepName, tmpl string) {
	roots, err := template.ExtractVariables(tmpl)
	if err != nil {
		c.add(Issue{
			Category: CategorySyntax,
			Level:    LevelError,
			Step:     stepName,
			Message:  fmt.Sprintf("template is malformed: %v", err),
		})
		return
	}
	for _, name := range sortedKeys(roots) {
		if !c.scope[name] {
			c.add(Issue{
				Category:   CategoryDataFlow,
				Level:      LevelWarning,
				Step:       stepName,
				Message:    fmt.Sprintf("template references %q, which is not in scope and will render empty", name),
				Suggestion: "reference an input, an earlier step, or one of its aliases",
			})
		}
	}
}

func (c *checker) checkToolStep(st *skill.Step) {
	cfg := st.Tool
	for _, leaf := range stringLeaves(cfg.InputTemplate) {
		c.checkTemplateRefs(st.Name, leaf)
	}

	if c.validator.tools == nil {
		return
	}
	tool, err := c.validator.tools.Get(cfg.ToolName)
	if err != nil {
		c.add(Issue{
			Category:   CategoryTool,
			Level:      LevelError,
			Step:       st.Name,
			Message:    fmt.Sprintf("tool %q is not registered", cfg.ToolName),
			Suggestion: "register the tool or fix the tool name",
		})
		return
	}

	schema := tool.Schema()
	if schema == nil || schema.Inputs == nil {
		return
	}
	for _, required := range schema.Inputs.Required {
		if _, ok := cfg.InputTemplate[required]; !ok {
			c.add(Issue{
				Category: CategoryTool,
				Level:    LevelError,
				Step:     st.Name,
				Message:  fmt.Sprintf("tool %q requires input %q, which the step does not provide", cfg.ToolName, required),
			})
		}
	}
	if len(schema.Inputs.Properties) > 0 {
		for _, key := range sortedMapKeys(cfg.InputTemplate) {
			if _, ok := schema.Inputs.Properties[key]; !ok {
				c.add(Issue{
					Category: CategoryTool,
					Level:    LevelWarning,
					Step:     st.Name,
					Message:  fmt.Sprintf("tool %q does not declare an input named %q", cfg.ToolName, key),
				})
			}
		}
	}
}

// checkOutputContract verifies each contract key can be produced by some
// step, alias, or context value. Tools may write arbitrary variables at
// runtime, so skills with tool steps get warnings instead of errors.
func (c *checker) checkOutputContract() {
	for _, name := range c.skill.OutputContract.Names {
		path, err := template.ParsePath(name)
		if err != nil {
			c.add(Issue{
				Category: CategorySchema,
				Level:    LevelError,
				Message:  fmt.Sprintf("output field %q is not a valid reference path", name),
			})
			continue
		}
		if c.scope[path.Root()] {
			continue
		}
		level := LevelError
		msg := fmt.Sprintf("output field %q matches no step, alias, or input", name)
		if c.hasToolSteps {
			level = LevelWarning
			msg += "; a tool may write it at runtime"
		}
		c.add(Issue{Category: CategoryDataFlow, Level: level, Message: msg})
	}
}

func stringLeaves(value interface{}) []string {
	var out []string
	switch v := value.(type) {
	case string:
		out = append(out, v)
	case map[string]interface{}:
		for _, key := range sortedMapKeys(v) {
			out = append(out, stringLeaves(v[key])...)
		}
	case []interface{}:
		for _, item := range v {
			out = append(out, stringLeaves(item)...)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedMapKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var levelRank = map[Level]int{LevelError: 0, LevelWarning: 1, LevelSuggestion: 2}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return levelRank[issues[i].Level] < levelRank[issues[j].Level]
	})
}
