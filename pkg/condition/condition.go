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

// Package condition parses and evaluates the boolean guard expressions used
// by per-step "when" gates. The grammar supports ||, &&, !, the comparison
// operators, literals (numbers, strings, true, false, null), parenthesised
// groups, and variable paths. Paths may be written bare (flag) or wrapped in
// template braces ({{flag}}) as the document format shows.
//
// Evaluation never errors: ordering comparisons with null or non-numeric
// operands are false, and equality across incompatible types is false.
// Parse errors are surfaced at skill parse time so an unparseable guard
// rejects the whole skill.
package condition

import (
	"fmt"

	"github.com/skillflow/skillflow/pkg/template"
)

// Condition is a parsed guard expression. Safe for concurrent use.
type Condition struct {
	source string
	root   node
}

// Parse parses a guard expression.
func Parse(source string) (*Condition, error) {
	lx, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: lx}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected %q in condition %q", p.peek().text, source)
	}
	return &Condition{source: source, root: root}, nil
}

// String returns the original expression text.
func (c *Condition) String() string {
	return c.source
}

// Eval evaluates the condition against a variable lookup.
func (c *Condition) Eval(lookup template.Lookup) bool {
	return truthy(c.root.eval(lookup))
}

// EvalVars evaluates the condition against a plain variable map.
func (c *Condition) EvalVars(vars map[string]interface{}) bool {
	return c.Eval(template.MapLookup(vars))
}

// Variables returns the root identifiers the condition references.
func (c *Condition) Variables() []string {
	seen := map[string]bool{}
	var out []string
	c.root.visit(func(p *template.Path) {
		if r := p.Root(); !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	})
	return out
}

// --- AST ---

type node interface {
	eval(lookup template.Lookup) interface{}
	visit(fn func(*template.Path))
}

type orNode struct{ terms []node }

func (n *orNode) eval(l template.Lookup) interface{} {
	for _, t := range n.terms {
		if truthy(t.eval(l)) {
			return true
		}
	}
	return false
}

func (n *orNode) visit(fn func(*template.Path)) {
	for _, t := range n.terms {
		t.visit(fn)
	}
}

type andNode struct{ terms []node }

func (n *andNode) eval(l template.Lookup) interface{} {
	for _, t := range n.terms {
		if !truthy(t.eval(l)) {
			return false
		}
	}
	return true
}

func (n *andNode) visit(fn func(*template.Path)) {
	for _, t := range n.terms {
		t.visit(fn)
	}
}

type notNode struct{ inner node }

func (n *notNode) eval(l template.Lookup) interface{} {
	return !truthy(n.inner.eval(l))
}

func (n *notNode) visit(fn func(*template.Path)) { n.inner.visit(fn) }

type cmpNode struct {
	op    string
	left  node
	right node
}

func (n *cmpNode) eval(l template.Lookup) interface{} {
	lv := n.left.eval(l)
	rv := n.right.eval(l)

	switch n.op {
	case "==":
		return valueEqual(lv, rv)
	case "!=":
		return !valueEqual(lv, rv)
	}

	// ordering: both sides must be numeric; null or non-numeric is false
	lf, lok := template.AsNumber(lv)
	rf, rok := template.AsNumber(rv)
	if !lok || !rok {
		return false
	}
	switch n.op {
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	case ">=":
		return lf >= rf
	}
	return false
}

func (n *cmpNode) visit(fn func(*template.Path)) {
	n.left.visit(fn)
	n.right.visit(fn)
}

type litNode struct{ value interface{} }

func (n *litNode) eval(template.Lookup) interface{} { return n.value }
func (n *litNode) visit(func(*template.Path))       {}

type pathNode struct{ path *template.Path }

func (n *pathNode) eval(l template.Lookup) interface{} {
	v, ok := n.path.Resolve(l)
	if !ok {
		return nil
	}
	return v
}

func (n *pathNode) visit(fn func(*template.Path)) { fn(n.path) }

// valueEqual compares by value within compatible types: string==string,
// number==number, bool==bool, null==null. Incompatible types are unequal.
func valueEqual(a, b interface{}) bool {
	a = deref(a)
	b = deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := template.AsNumber(a); aok {
		bf, bok := template.AsNumber(b)
		return bok && af == bf
	}
	if as, ok := a.(string); ok {
		bs, bok := b.(string)
		return bok && as == bs
	}
	if ab, ok := a.(bool); ok {
		bb, bok := b.(bool)
		return bok && ab == bb
	}
	return false
}

func deref(v interface{}) interface{} {
	if w, ok := v.(template.Unwrapper); ok {
		return deref(w.Unwrap())
	}
	return v
}

func truthy(v interface{}) bool {
	switch t := deref(v).(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := template.AsNumber(t); ok {
			return f != 0
		}
		return true
	}
}

// --- parser ---

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool   { return p.pos >= len(p.tokens) }
func (p *parser) peek() token   { return p.tokens[p.pos] }
func (p *parser) advance() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) match(kinds ...tokenKind) (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	for _, k := range kinds {
		if p.tokens[p.pos].kind == k {
			return p.advance(), true
		}
	}
	return token{}, false
}

func (p *parser) or() (node, error) {
	first, err := p.and()
	if err != nil {
		return nil, err
	}
	terms := []node{first}
	for {
		if _, ok := p.match(tokOr); !ok {
			break
		}
		next, err := p.and()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &orNode{terms: terms}, nil
}

func (p *parser) and() (node, error) {
	first, err := p.not()
	if err != nil {
		return nil, err
	}
	terms := []node{first}
	for {
		if _, ok := p.match(tokAnd); !ok {
			break
		}
		next, err := p.not()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &andNode{terms: terms}, nil
}

func (p *parser) not() (node, error) {
	if _, ok := p.match(tokNot); ok {
		inner, err := p.cmp()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.cmp()
}

func (p *parser) cmp() (node, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	op, ok := p.match(tokEq, tokNeq, tokLte, tokGte, tokLt, tokGt)
	if !ok {
		return left, nil
	}
	right, err := p.atom()
	if err != nil {
		return nil, err
	}
	return &cmpNode{op: op.text, left: left, right: right}, nil
}

func (p *parser) atom() (node, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("unexpected end of condition")
	}
	t := p.advance()
	switch t.kind {
	case tokLParen:
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(tokRParen); !ok {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	case tokNumber:
		return &litNode{value: t.number}, nil
	case tokString:
		return &litNode{value: t.text}, nil
	case tokTrue:
		return &litNode{value: true}, nil
	case tokFalse:
		return &litNode{value: false}, nil
	case tokNull:
		return &litNode{value: nil}, nil
	case tokPath:
		path, err := template.ParsePath(t.text)
		if err != nil {
			return nil, err
		}
		return &pathNode{path: path}, nil
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}

// IsLiteralFalse reports whether the condition is a constant that always
// evaluates false, used by static analysis to flag dead steps.
func (c *Condition) IsLiteralFalse() bool {
	if len(c.Variables()) > 0 {
		return false
	}
	return !c.Eval(func(string) (interface{}, bool) { return nil, false })
}
