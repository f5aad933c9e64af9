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

package condition

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokOr tokenKind = iota
	tokAnd
	tokNot
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokLParen
	tokRParen
	tokNumber
	tokString
	tokTrue
	tokFalse
	tokNull
	tokPath
)

type token struct {
	kind   tokenKind
	text   string
	number float64
}

// lex tokenizes a condition expression. Template braces around a path
// ({{flag.value}}) are stripped; the inner text becomes a path token.
func lex(src string) ([]token, error) {
	var tokens []token
	s := src
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			break
		}
		switch {
		case strings.HasPrefix(s, "{{"):
			end := strings.Index(s, "}}")
			if end < 0 {
				return nil, fmt.Errorf("unterminated {{ in condition %q", src)
			}
			inner := strings.TrimSpace(s[2:end])
			if inner == "" {
				return nil, fmt.Errorf("empty reference in condition %q", src)
			}
			tokens = append(tokens, token{kind: tokPath, text: inner})
			s = s[end+2:]
		case strings.HasPrefix(s, "||"):
			tokens = append(tokens, token{kind: tokOr, text: "||"})
			s = s[2:]
		case strings.HasPrefix(s, "&&"):
			tokens = append(tokens, token{kind: tokAnd, text: "&&"})
			s = s[2:]
		case strings.HasPrefix(s, "=="):
			tokens = append(tokens, token{kind: tokEq, text: "=="})
			s = s[2:]
		case strings.HasPrefix(s, "!="):
			tokens = append(tokens, token{kind: tokNeq, text: "!="})
			s = s[2:]
		case strings.HasPrefix(s, "<="):
			tokens = append(tokens, token{kind: tokLte, text: "<="})
			s = s[2:]
		case strings.HasPrefix(s, ">="):
			tokens = append(tokens, token{kind: tokGte, text: ">="})
			s = s[2:]
		case s[0] == '<':
			tokens = append(tokens, token{kind: tokLt, text: "<"})
			s = s[1:]
		case s[0] == '>':
			tokens = append(tokens, token{kind: tokGt, text: ">"})
			s = s[1:]
		case s[0] == '!':
			tokens = append(tokens, token{kind: tokNot, text: "!"})
			s = s[1:]
		case s[0] == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			s = s[1:]
		case s[0] == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			s = s[1:]
		case s[0] == '"' || s[0] == '\'':
			quote := s[0]
			end := strings.IndexByte(s[1:], quote)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal in condition %q", src)
			}
			tokens = append(tokens, token{kind: tokString, text: s[1 : end+1]})
			s = s[end+2:]
		case s[0] >= '0' && s[0] <= '9' || (s[0] == '-' && len(s) > 1 && s[1] >= '0' && s[1] <= '9'):
			i := 1
			for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
				i++
			}
			n, err := strconv.ParseFloat(s[:i], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in condition %q", s[:i], src)
			}
			tokens = append(tokens, token{kind: tokNumber, text: s[:i], number: n})
			s = s[i:]
		default:
			i := 0
			for i < len(s) {
				c := s[i]
				if isPathByte(c) {
					i++
					continue
				}
				break
			}
			if i == 0 {
				return nil, fmt.Errorf("unexpected character %q in condition %q", s[0], src)
			}
			word := s[:i]
			s = s[i:]
			switch word {
			case "true":
				tokens = append(tokens, token{kind: tokTrue, text: word})
			case "false":
				tokens = append(tokens, token{kind: tokFalse, text: word})
			case "null":
				tokens = append(tokens, token{kind: tokNull, text: word})
			default:
				tokens = append(tokens, token{kind: tokPath, text: word})
			}
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty condition")
	}
	return tokens, nil
}

func isPathByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' || c == '[' || c == ']' || c == '#' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
