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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skillerrors "github.com/skillflow/skillflow/pkg/errors"
)

func TestRenderSubstitution(t *testing.T) {
	vars := map[string]interface{}{
		"name":  "Ada",
		"count": 3,
		"ok":    true,
		"user":  map[string]interface{}{"email": "ada@example.com"},
	}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"plain text", "no placeholders", "no placeholders"},
		{"simple variable", "Hi {{name}}!", "Hi Ada!"},
		{"whitespace insensitive", "Hi {{  name  }}!", "Hi Ada!"},
		{"number", "n={{count}}", "n=3"},
		{"boolean", "ok={{ok}}", "ok=true"},
		{"nested path", "{{user.email}}", "ada@example.com"},
		{"missing renders empty", "Hi {{who}}!", "Hi !"},
		{"missing nested renders empty", "{{user.phone}}", ""},
		{"single brace literal", "a { b } c", "a { b } c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderArithmetic(t *testing.T) {
	vars := map[string]interface{}{
		"a": 6, "b": 3, "price": 2.5, "label": "total",
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{{a + b}}", "9"},
		{"{{a - b}}", "3"},
		{"{{a * b}}", "18"},
		{"{{a / b}}", "2"},
		{"{{a / 0}}", "0"},
		{"{{a + b * 2}}", "12"},
		{"{{price * 2}}", "5"},
		{"{{price + 0.25}}", "2.75"},
		{"{{label + \": \" + a}}", "total: 6"},
		{"{{\"x\" + 5}}", "x5"},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := Render(tt.tmpl, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderIndexing(t *testing.T) {
	vars := map[string]interface{}{
		"items": []interface{}{"first", "second", "third"},
		"rows": []interface{}{
			map[string]interface{}{"id": 10},
			map[string]interface{}{"id": 20},
		},
		"cursor": 1,
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{{items[0]}}", "first"},
		{"{{items[2]}}", "third"},
		{"{{items[9]}}", ""},
		{"{{rows[1].id}}", "20"},
		{"{{items[#cursor]}}", "second"},
		{"{{rows[#cursor].id}}", "20"},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := Render(tt.tmpl, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderForLoop(t *testing.T) {
	vars := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "A", "qty": 2},
			map[string]interface{}{"name": "B", "qty": 3},
		},
		"tags":   []interface{}{"x", "y"},
		"prefix": ">",
	}

	t.Run("element keys shadow outer scope", func(t *testing.T) {
		got, err := Render("{{#for items}}{{name}}×{{qty}},{{/for}}", vars)
		require.NoError(t, err)
		assert.Equal(t, "A×2,B×3,", got)
	})

	t.Run("arithmetic inside body", func(t *testing.T) {
		got, err := Render("{{#for items}}{{qty * 10}} {{/for}}", vars)
		require.NoError(t, err)
		assert.Equal(t, "20 30 ", got)
	})

	t.Run("current element", func(t *testing.T) {
		got, err := Render("{{#for tags}}[{{_}}]{{/for}}", vars)
		require.NoError(t, err)
		assert.Equal(t, "[x][y]", got)
	})

	t.Run("outer variables visible inside loop", func(t *testing.T) {
		got, err := Render("{{#for tags}}{{prefix}}{{_}}{{/for}}", vars)
		require.NoError(t, err)
		assert.Equal(t, ">x>y", got)
	})

	t.Run("missing sequence yields empty", func(t *testing.T) {
		got, err := Render("a{{#for nothing}}x{{/for}}b", vars)
		require.NoError(t, err)
		assert.Equal(t, "ab", got)
	})

	t.Run("non-sequence yields empty", func(t *testing.T) {
		got, err := Render("a{{#for prefix}}x{{/for}}b", vars)
		require.NoError(t, err)
		assert.Equal(t, "ab", got)
	})

	t.Run("nested loops", func(t *testing.T) {
		nested := map[string]interface{}{
			"outer": []interface{}{
				map[string]interface{}{"inner": []interface{}{"a", "b"}},
				map[string]interface{}{"inner": []interface{}{"c"}},
			},
		}
		got, err := Render("{{#for outer}}({{#for inner}}{{_}}{{/for}}){{/for}}", nested)
		require.NoError(t, err)
		assert.Equal(t, "(ab)(c)", got)
	})
}

func TestRenderStructuralErrors(t *testing.T) {
	var te *skillerrors.TemplateError

	_, err := Render("Hi {{who", nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &te)

	_, err = Render("{{#for xs}}x", nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &te)

	_, err = Render("x{{/for}}", nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &te)
}

func TestRenderIsPure(t *testing.T) {
	vars := map[string]interface{}{"n": 2, "xs": []interface{}{1, 2}}
	tmpl := "{{#for xs}}{{_ }}{{/for}}-{{n * 3}}"

	first, err := Render(tmpl, vars)
	require.NoError(t, err)
	second, err := Render(tmpl, vars)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderValuePreservesTypes(t *testing.T) {
	vars := map[string]interface{}{
		"n":    42,
		"obj":  map[string]interface{}{"k": []interface{}{1, 2}},
		"text": "hello",
	}

	v, err := RenderValue("{{n}}", vars)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = RenderValue("{{ obj.k }}", vars)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2}, v)

	v, err = RenderValue("{{missing}}", vars)
	require.NoError(t, err)
	assert.Nil(t, v)

	// anything beyond a bare path renders to string
	v, err = RenderValue("n={{n}}", vars)
	require.NoError(t, err)
	assert.Equal(t, "n=42", v)

	v, err = RenderValue("{{n + 1}}", vars)
	require.NoError(t, err)
	assert.Equal(t, "43", v)
}

func TestRenderStructure(t *testing.T) {
	vars := map[string]interface{}{
		"city":  "Oslo",
		"limit": 5,
	}
	input := map[string]interface{}{
		"query": "weather in {{city}}",
		"limit": "{{limit}}",
		"nested": map[string]interface{}{
			"tags": []interface{}{"{{city}}", "static"},
		},
	}

	out, err := RenderStructure(input, vars)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	assert.Equal(t, "weather in Oslo", m["query"])
	assert.Equal(t, 5, m["limit"]) // bare reference keeps native type
	nested := m["nested"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Oslo", "static"}, nested["tags"])
}

func TestExtractVariables(t *testing.T) {
	roots, err := ExtractVariables("Hi {{name}}, {{user.email}} {{#for items}}{{qty}}{{/for}} {{a + b}}")
	require.NoError(t, err)

	assert.Contains(t, roots, "name")
	assert.Contains(t, roots, "user")
	assert.Contains(t, roots, "items")
	assert.Contains(t, roots, "a")
	assert.Contains(t, roots, "b")
	// names inside loop bodies are not statically resolvable
	assert.NotContains(t, roots, "qty")
	assert.NotContains(t, roots, "_")
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "3", Stringify(3))
	assert.Equal(t, "2", Stringify(2.0))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, `{"a":1}`, Stringify(map[string]interface{}{"a": 1}))
}
