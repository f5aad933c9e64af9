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
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Path is a parsed variable path: ident (. ident | [ index ])* where an
// index is a non-negative integer literal or #ident for variable indexing.
type Path struct {
	source   string
	segments []segment
}

type segmentKind int

const (
	segField segmentKind = iota
	segIndex
	segVarIndex
)

type segment struct {
	kind  segmentKind
	name  string // segField, segVarIndex
	index int    // segIndex
}

// Lookup resolves a root identifier to a value. The bool result reports
// whether the name is bound at all.
type Lookup func(name string) (interface{}, bool)

// MapLookup adapts a plain variable map to a Lookup.
func MapLookup(vars map[string]interface{}) Lookup {
	return func(name string) (interface{}, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// ParsePath parses a path expression such as "items[0].name" or
// "rows[#cursor].id". The leading segment must be an identifier or "_".
func ParsePath(s string) (*Path, error) {
	p := &Path{source: s}
	rest := strings.TrimSpace(s)
	if rest == "" {
		return nil, fmt.Errorf("empty path")
	}

	ident, tail, err := scanIdent(rest)
	if err != nil {
		return nil, err
	}
	p.segments = append(p.segments, segment{kind: segField, name: ident})
	rest = tail

	for rest != "" {
		switch rest[0] {
		case '.':
			ident, tail, err := scanIdent(rest[1:])
			if err != nil {
				return nil, fmt.Errorf("after %q: %w", s[:len(s)-len(rest)], err)
			}
			p.segments = append(p.segments, segment{kind: segField, name: ident})
			rest = tail
		case '[':
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return nil, fmt.Errorf("unterminated index in path %q", s)
			}
			inner := strings.TrimSpace(rest[1:close])
			if strings.HasPrefix(inner, "#") {
				name := strings.TrimSpace(inner[1:])
				if !isIdent(name) {
					return nil, fmt.Errorf("invalid variable index %q in path %q", inner, s)
				}
				p.segments = append(p.segments, segment{kind: segVarIndex, name: name})
			} else {
				n, err := strconv.Atoi(inner)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("invalid index %q in path %q", inner, s)
				}
				p.segments = append(p.segments, segment{kind: segIndex, index: n})
			}
			rest = rest[close+1:]
		default:
			return nil, fmt.Errorf("unexpected character %q in path %q", rest[0], s)
		}
	}
	return p, nil
}

// Root returns the leading identifier of the path.
func (p *Path) Root() string {
	return p.segments[0].name
}

// String returns the original path text.
func (p *Path) String() string {
	return p.source
}

// Resolve walks the path against the lookup. The bool result is false when
// the root or any intermediate segment is missing.
func (p *Path) Resolve(lookup Lookup) (interface{}, bool) {
	cur, ok := lookup(p.segments[0].name)
	if !ok {
		return nil, false
	}
	for _, seg := range p.segments[1:] {
		switch seg.kind {
		case segField:
			cur, ok = resolveField(cur, seg.name)
		case segIndex:
			cur, ok = resolveIndex(cur, seg.index)
		case segVarIndex:
			iv, found := lookup(seg.name)
			if !found {
				return nil, false
			}
			n, numeric := AsNumber(iv)
			if !numeric || n < 0 {
				return nil, false
			}
			cur, ok = resolveIndex(cur, int(n))
		}
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ResolveVars is Resolve against a plain variable map.
func (p *Path) ResolveVars(vars map[string]interface{}) (interface{}, bool) {
	return p.Resolve(MapLookup(vars))
}

// resolveField accesses a named member of a value: map key for mappings,
// and best-effort accessor lookup (exported field or niladic method,
// case-insensitive) for structured values. Wrappers are unwrapped on miss.
func resolveField(v interface{}, name string) (interface{}, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		val, ok := m[name]
		return val, ok
	case map[string]string:
		val, ok := m[name]
		return val, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.IsExported() && strings.EqualFold(f.Name, name) {
				return rv.Field(i).Interface(), true
			}
		}
		if got, ok := callAccessor(reflect.ValueOf(v), name); ok {
			return got, true
		}
	}

	if w, ok := v.(Unwrapper); ok {
		return resolveField(w.Unwrap(), name)
	}
	return nil, false
}

func callAccessor(rv reflect.Value, name string) (interface{}, bool) {
	for _, candidate := range []string{name, "Get" + name} {
		for i := 0; i < rv.NumMethod(); i++ {
			m := rv.Type().Method(i)
			if !strings.EqualFold(m.Name, candidate) {
				continue
			}
			if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
				continue
			}
			return rv.Method(i).Call(nil)[0].Interface(), true
		}
	}
	return nil, false
}

func resolveIndex(v interface{}, i int) (interface{}, bool) {
	seq, ok := AsSequence(v)
	if !ok || i >= len(seq) {
		return nil, false
	}
	return seq[i], true
}

func scanIdent(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("expected identifier")
	}
	if s[0] == '_' && (len(s) == 1 || !isIdentByte(s[1])) {
		return "_", s[1:], nil
	}
	if !unicode.IsLetter(rune(s[0])) && s[0] != '_' {
		return "", "", fmt.Errorf("expected identifier, found %q", s[0])
	}
	i := 1
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[:i], s[i:], nil
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return !(s[0] >= '0' && s[0] <= '9')
}
