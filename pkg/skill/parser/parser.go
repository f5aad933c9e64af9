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

// Package parser turns a Markdown skill document into a skill.Skill
// descriptor. The format is tolerant of cosmetic variation (heading case,
// list styles) and strict about semantics: structural problems surface as
// *errors.ParseError values carrying a 1-based line number.
package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

var (
	skillHeadingRe = regexp.MustCompile(`(?i)^#\s*skill\s*:\s*(.+?)\s*$`)
	sectionRe      = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	stepHeadingRe  = regexp.MustCompile(`(?i)^###\s*step\s*:\s*(.+?)\s*$`)
	referenceRe    = regexp.MustCompile(`<!--\s*reference\s*:\s*(.+?)\s*-->`)
	attributeRe    = regexp.MustCompile(`^\*\*([A-Za-z_][A-Za-z0-9_]*)\*\*\s*:\s*(.*)$`)
	fenceRe        = regexp.MustCompile("^```([A-Za-z]*)\\s*$")
	bulletRe       = regexp.MustCompile(`^[-*]\s+(.*)$`)
)

// Parse parses a skill document. On failure it returns a *errors.ParseError
// describing the earliest problem encountered.
func Parse(markdown string) (*skill.Skill, error) {
	doc, err := split(markdown)
	if err != nil {
		return nil, err
	}

	sk := &skill.Skill{
		ID:         doc.id,
		References: map[string]skill.Reference{},
		Extensions: map[string]string{},
	}
	for _, ref := range doc.references {
		name := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
		sk.References[name] = skill.Reference{Path: ref, Type: skill.InferReferenceType(ref)}
	}

	for _, sec := range doc.sections {
		switch {
		case sec.name == "version":
			sk.Version = firstNonEmpty(sec.lines)
		case sec.name == "description":
			sk.Description = strings.TrimSpace(strings.Join(sec.lines, "\n"))
		case sec.name == "intent" || sec.name == "intents":
			sk.Intents = parseIntents(sec.lines)
		case sec.name == "input" || sec.name == "input_schema":
			schema, err := parseSchemaSection(sec, true)
			if err != nil {
				return nil, err
			}
			sk.InputSchema = schema
		case sec.name == "output" || sec.name == "output_schema":
			schema, err := parseSchemaSection(sec, false)
			if err != nil {
				return nil, err
			}
			sk.OutputContract = schema
		case sec.name == "steps":
			steps, err := parseSteps(sec)
			if err != nil {
				return nil, err
			}
			sk.Steps = steps
		case strings.HasPrefix(sec.name, "x-"):
			sk.Extensions[sec.name] = strings.TrimSpace(strings.Join(sec.lines, "\n"))
		}
		// unrecognised sections are ignored for forward compatibility
	}

	if err := sk.Validate(); err != nil {
		return nil, &errors.ParseError{Line: doc.line, Message: err.Error()}
	}
	return sk, nil
}

// IsValid reports whether the document parses. It never panics.
func IsValid(markdown string) bool {
	_, err := Parse(markdown)
	return err == nil
}

// document is the raw sectioned form of a skill file.
type document struct {
	id         string
	line       int // line of the skill heading
	references []string
	sections   []section
}

type section struct {
	name      string // lowercased heading text
	startLine int    // 1-based line of the heading
	lines     []string
	lineBase  int // 1-based line number of lines[0]
}

// split breaks the document into its H2 sections, honouring code fences so
// headings inside fenced blocks are not treated as structure.
func split(markdown string) (*document, error) {
	lines := strings.Split(markdown, "\n")
	doc := &document{}
	var current *section
	inFence := false

	flush := func() {
		if current != nil {
			doc.sections = append(doc.sections, *current)
			current = nil
		}
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if fenceRe.MatchString(trimmed) {
			inFence = !inFence
		}
		if inFence || fenceRe.MatchString(trimmed) {
			if current != nil {
				current.lines = append(current.lines, line)
			}
			continue
		}

		if m := referenceRe.FindStringSubmatch(line); m != nil {
			doc.references = append(doc.references, m[1])
			continue
		}

		if strings.HasPrefix(trimmed, "# ") || trimmed == "#" {
			if m := skillHeadingRe.FindStringSubmatch(trimmed); m != nil {
				if doc.id != "" {
					return nil, &errors.ParseError{Line: lineNo, Message: "duplicate skill heading"}
				}
				doc.id = m[1]
				doc.line = lineNo
				continue
			}
			if !strings.HasPrefix(trimmed, "##") {
				return nil, &errors.ParseError{Line: lineNo, Message: fmt.Sprintf("expected '# skill: <id>' heading, found %q", trimmed)}
			}
		}

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil && !strings.HasPrefix(trimmed, "###") {
			flush()
			current = &section{
				name:      strings.ToLower(strings.TrimSpace(m[1])),
				startLine: lineNo,
				lineBase:  lineNo + 1,
			}
			continue
		}

		if current != nil {
			current.lines = append(current.lines, line)
		} else if trimmed != "" && doc.id == "" {
			return nil, &errors.ParseError{Line: lineNo, Message: "document must start with '# skill: <id>'"}
		}
	}
	flush()

	if inFence {
		return nil, &errors.ParseError{Line: len(lines), Message: "unterminated code fence"}
	}
	if doc.id == "" {
		return nil, &errors.ParseError{Line: 1, Message: "missing '# skill: <id>' heading"}
	}
	return doc, nil
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return ""
}

func parseIntents(lines []string) []string {
	var intents []string
	seen := map[string]bool{}
	for _, l := range lines {
		m := bulletRe.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		intent := strings.TrimSpace(m[1])
		if intent != "" && !seen[intent] {
			seen[intent] = true
			intents = append(intents, intent)
		}
	}
	return intents
}
