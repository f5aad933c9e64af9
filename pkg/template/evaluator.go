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

package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skillflow/skillflow/pkg/errors"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Render substitutes every {{...}} site in the template and returns the
// resulting string. Missing variables render empty; structural errors
// (unterminated sites, unbalanced loops) return a TemplateError.
func Render(tmpl string, vars map[string]interface{}) (string, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	renderNodes(&sb, nodes, rootScope(vars))
	return sb.String(), nil
}

// RenderValue renders a template whose entire body may be a single bare path
// reference, in which case the referenced value is returned with its native
// type preserved (nil when missing). Any other template renders to a string.
func RenderValue(tmpl string, vars map[string]interface{}) (interface{}, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		if en, ok := nodes[0].(*exprNode); ok {
			if p, bare := en.expr.(*pathExpr); bare {
				v, _ := p.path.Resolve(rootScope(vars).lookup)
				return unwrap(v), nil
			}
		}
	}
	var sb strings.Builder
	renderNodes(&sb, nodes, rootScope(vars))
	return sb.String(), nil
}

// RenderStructure recursively renders a nested configuration value. String
// leaves pass through RenderValue so a leaf that is a single {{path}} keeps
// the referenced value's native type; maps and slices are rebuilt.
func RenderStructure(value interface{}, vars map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return RenderValue(v, vars)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			rendered, err := RenderStructure(val, vars)
			if err != nil {
				return nil, fmt.Errorf("in field %q: %w", k, err)
			}
			out[k] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			rendered, err := RenderStructure(val, vars)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}

// ExtractVariables returns the set of root identifiers the template
// references outside loop bodies, plus the sequence names of {{#for}} loops.
// Names bound inside loop bodies are excluded: mapping elements shadow the
// outer scope there, so static resolution is not possible.
func ExtractVariables(tmpl string) (map[string]struct{}, error) {
	nodes, err := parse(tmpl)
	if err != nil {
		return nil, err
	}
	roots := make(map[string]struct{})
	collectRoots(nodes, roots)
	return roots, nil
}

func collectRoots(nodes []node, roots map[string]struct{}) {
	for _, n := range nodes {
		switch t := n.(type) {
		case *exprNode:
			for _, p := range t.expr.paths() {
				if r := p.Root(); r != "_" {
					roots[r] = struct{}{}
				}
			}
		case *forNode:
			if r := t.path.Root(); r != "_" {
				roots[r] = struct{}{}
			}
			// loop bodies are skipped: element keys shadow the outer scope
		}
	}
}

// --- template tree ---

type node interface{}

type textNode struct {
	text string
}

type exprNode struct {
	src  string
	expr expr
}

type forNode struct {
	path *Path
	body []node
}

// parse splits the template into literal text, expression sites, and loop
// blocks. Unmatched single braces remain literal text.
func parse(tmpl string) ([]node, error) {
	nodes, _, err := parseBlock(tmpl, tmpl, false)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// parseBlock consumes nodes until end of input or, when inLoop is set, a
// closing {{/for}}. Returns the remaining input after the terminator.
func parseBlock(full, s string, inLoop bool) ([]node, string, error) {
	var nodes []node
	for {
		open := strings.Index(s, openDelim)
		if open < 0 {
			if inLoop {
				return nil, "", templateErr(full, "unbalanced {{#for}}: missing {{/for}}")
			}
			if s != "" {
				nodes = append(nodes, &textNode{text: s})
			}
			return nodes, "", nil
		}
		if open > 0 {
			nodes = append(nodes, &textNode{text: s[:open]})
		}
		close := strings.Index(s[open:], closeDelim)
		if close < 0 {
			return nil, "", templateErr(full, "unterminated {{")
		}
		body := strings.TrimSpace(s[open+len(openDelim) : open+close])
		s = s[open+close+len(closeDelim):]

		switch {
		case strings.HasPrefix(body, "#for"):
			target := strings.TrimSpace(strings.TrimPrefix(body, "#for"))
			p, err := ParsePath(target)
			if err != nil {
				return nil, "", templateErr(full, fmt.Sprintf("invalid #for target %q: %v", target, err))
			}
			inner, rest, err := parseBlock(full, s, true)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, &forNode{path: p, body: inner})
			s = rest
		case body == "/for":
			if !inLoop {
				return nil, "", templateErr(full, "{{/for}} without matching {{#for}}")
			}
			return nodes, s, nil
		default:
			ex, err := parseExpr(body)
			if err != nil {
				// an unparseable site renders empty rather than failing
				nodes = append(nodes, &exprNode{src: body, expr: &litExpr{}})
				continue
			}
			nodes = append(nodes, &exprNode{src: body, expr: ex})
		}
	}
}

func renderNodes(sb *strings.Builder, nodes []node, sc *scope) {
	for _, n := range nodes {
		switch t := n.(type) {
		case *textNode:
			sb.WriteString(t.text)
		case *exprNode:
			sb.WriteString(Stringify(t.expr.eval(sc)))
		case *forNode:
			v, ok := t.path.Resolve(sc.lookup)
			if !ok {
				continue
			}
			seq, ok := AsSequence(v)
			if !ok {
				continue
			}
			for _, elem := range seq {
				child := &scope{elem: unwrap(elem), parent: sc}
				renderNodes(sb, t.body, child)
			}
		}
	}
}

// --- scopes ---

// scope resolves identifiers against the current loop element first, then
// the enclosing scope, and finally the root variable map.
type scope struct {
	elem   interface{}
	parent *scope
	vars   map[string]interface{}
}

func rootScope(vars map[string]interface{}) *scope {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	return &scope{vars: vars}
}

func (s *scope) lookup(name string) (interface{}, bool) {
	if s.parent != nil {
		if name == "_" {
			return s.elem, true
		}
		if m, ok := s.elem.(map[string]interface{}); ok {
			if v, found := m[name]; found {
				return v, true
			}
		}
		return s.parent.lookup(name)
	}
	v, ok := s.vars[name]
	return v, ok
}

// --- expressions ---

type expr interface {
	eval(sc *scope) interface{}
	paths() []*Path
}

type litExpr struct {
	value interface{}
}

func (e *litExpr) eval(*scope) interface{} { return e.value }
func (e *litExpr) paths() []*Path          { return nil }

type pathExpr struct {
	path *Path
}

func (e *pathExpr) eval(sc *scope) interface{} {
	v, _ := e.path.Resolve(sc.lookup)
	return unwrap(v)
}

func (e *pathExpr) paths() []*Path { return []*Path{e.path} }

type binaryExpr struct {
	op    byte
	left  expr
	right expr
}

func (e *binaryExpr) paths() []*Path {
	return append(e.left.paths(), e.right.paths()...)
}

func (e *binaryExpr) eval(sc *scope) interface{} {
	l := e.left.eval(sc)
	r := e.right.eval(sc)

	if e.op == '+' {
		_, lstr := l.(string)
		_, rstr := r.(string)
		if lstr || rstr {
			return Stringify(l) + Stringify(r)
		}
	}

	lf, _ := AsNumber(l)
	rf, _ := AsNumber(r)
	switch e.op {
	case '+':
		return lf + rf
	case '-':
		return lf - rf
	case '*':
		return lf * rf
	case '/':
		if rf == 0 {
			return float64(0)
		}
		return lf / rf
	}
	return nil
}

// parseExpr parses the body of an expression site: additive over
// multiplicative over atoms (number and string literals, paths).
func parseExpr(src string) (expr, error) {
	p := &exprParser{rest: strings.TrimSpace(src)}
	ex, err := p.additive()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.rest != "" {
		return nil, fmt.Errorf("unexpected %q", p.rest)
	}
	return ex, nil
}

type exprParser struct {
	rest string
}

func (p *exprParser) skipSpace() {
	p.rest = strings.TrimLeft(p.rest, " \t\r\n")
}

func (p *exprParser) additive() (expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.rest == "" || (p.rest[0] != '+' && p.rest[0] != '-') {
			return left, nil
		}
		op := p.rest[0]
		p.rest = p.rest[1:]
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *exprParser) multiplicative() (expr, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.rest == "" || (p.rest[0] != '*' && p.rest[0] != '/') {
			return left, nil
		}
		op := p.rest[0]
		p.rest = p.rest[1:]
		right, err := p.atom()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *exprParser) atom() (expr, error) {
	p.skipSpace()
	if p.rest == "" {
		return nil, fmt.Errorf("expected operand")
	}

	if p.rest[0] == '"' {
		end := strings.IndexByte(p.rest[1:], '"')
		if end < 0 {
			return nil, fmt.Errorf("unterminated string literal")
		}
		lit := p.rest[1 : end+1]
		p.rest = p.rest[end+2:]
		return &litExpr{value: lit}, nil
	}

	if c := p.rest[0]; c >= '0' && c <= '9' {
		i := 1
		for i < len(p.rest) && (p.rest[i] == '.' || (p.rest[i] >= '0' && p.rest[i] <= '9')) {
			i++
		}
		n, err := strconv.ParseFloat(p.rest[:i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p.rest[:i])
		}
		p.rest = p.rest[i:]
		return &litExpr{value: n}, nil
	}

	// path atom: consume identifier/index characters
	i := 0
	for i < len(p.rest) {
		c := p.rest[i]
		if isIdentByte(c) || c == '.' || c == '[' || c == ']' || c == '#' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return nil, fmt.Errorf("unexpected %q", p.rest)
	}
	path, err := ParsePath(p.rest[:i])
	if err != nil {
		return nil, err
	}
	p.rest = p.rest[i:]
	return &pathExpr{path: path}, nil
}

func templateErr(tmpl, msg string) error {
	excerpt := tmpl
	if len(excerpt) > 60 {
		excerpt = excerpt[:57] + "..."
	}
	return &errors.TemplateError{Template: excerpt, Message: msg}
}
