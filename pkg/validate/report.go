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

package validate

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies what part of the skill an issue concerns.
type Category string

const (
	CategorySyntax   Category = "SYNTAX"
	CategorySchema   Category = "SCHEMA"
	CategoryLogic    Category = "LOGIC"
	CategoryTool     Category = "TOOL"
	CategoryDataFlow Category = "DATA_FLOW"
)

// Level is the severity of an issue.
type Level string

const (
	LevelError      Level = "ERROR"
	LevelWarning    Level = "WARNING"
	LevelSuggestion Level = "SUGGESTION"
)

// Issue is one finding of the validator.
type Issue struct {
	// Category classifies the finding
	Category Category `json:"category"`

	// Level is the severity
	Level Level `json:"level"`

	// Step names the step the issue concerns, when applicable
	Step string `json:"step,omitempty"`

	// Line is the source line, when known (syntax issues)
	Line int `json:"line,omitempty"`

	// Message describes the problem
	Message string `json:"message"`

	// Suggestion offers a fix, when one is obvious
	Suggestion string `json:"suggestion,omitempty"`
}

// Report is the outcome of validating a skill.
type Report struct {
	// Valid is true when no error-level issues were found
	Valid bool `json:"valid"`

	// SkillID identifies the validated skill, when it parsed
	SkillID string `json:"skill_id,omitempty"`

	// Summary is a one-line human-readable verdict
	Summary string `json:"summary"`

	// Issues lists all findings, errors first
	Issues []Issue `json:"issues"`

	// Counts tallies issues per level
	Counts map[Level]int `json:"counts"`

	// Elapsed is how long validation took
	Elapsed time.Duration `json:"elapsed"`
}

func buildReport(skillID string, issues []Issue, started time.Time) *Report {
	counts := map[Level]int{}
	for _, issue := range issues {
		counts[issue.Level]++
	}
	r := &Report{
		Valid:   counts[LevelError] == 0,
		SkillID: skillID,
		Issues:  issues,
		Counts:  counts,
		Elapsed: time.Since(started),
	}
	r.Summary = summarize(r)
	return r
}

func summarize(r *Report) string {
	if len(r.Issues) == 0 {
		return "valid, no issues found"
	}
	parts := []string{}
	for _, lvl := range []Level{LevelError, LevelWarning, LevelSuggestion} {
		if n := r.Counts[lvl]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(lvl))+plural(n)))
		}
	}
	verdict := "valid"
	if !r.Valid {
		verdict = "invalid"
	}
	return fmt.Sprintf("%s: %s", verdict, strings.Join(parts, ", "))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
