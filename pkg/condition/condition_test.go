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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalOn(t *testing.T, src string, vars map[string]interface{}) bool {
	t.Helper()
	c, err := Parse(src)
	require.NoError(t, err, "parsing %q", src)
	return c.EvalVars(vars)
}

func TestComparisons(t *testing.T) {
	vars := map[string]interface{}{
		"flag":  true,
		"off":   false,
		"count": 5,
		"name":  "Ada",
		"pi":    3.14,
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"flag == true", true},
		{"off == true", false},
		{"count == 5", true},
		{"count != 5", false},
		{"count != 6", true},
		{"name == \"Ada\"", true},
		{"name == 'Bob'", false},
		{"count > 3", true},
		{"count >= 5", true},
		{"count < 5", false},
		{"count <= 5", true},
		{"pi > 3", true},
		{"{{count}} == 5", true},
		{"{{name}} != null", true},
		{"missing == null", true},
		{"missing != null", false},
		{"name == null", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, evalOn(t, tt.expr, vars))
		})
	}
}

func TestNullAndTypeMismatch(t *testing.T) {
	vars := map[string]interface{}{"name": "Ada", "n": 1}

	tests := []struct {
		expr string
		want bool
	}{
		// ordering with null never errors, always false
		{"missing > 1", false},
		{"missing < 1", false},
		{"1 > missing", false},
		// ordering requires both sides numeric
		{"name > 1", false},
		{"name < 1", false},
		// equality across incompatible types is false
		{"name == 1", false},
		{"n == \"1\"", false},
		{"n == 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, evalOn(t, tt.expr, vars))
		})
	}
}

func TestBooleanOperators(t *testing.T) {
	vars := map[string]interface{}{"a": true, "b": false, "n": 3}

	tests := []struct {
		expr string
		want bool
	}{
		{"a && b", false},
		{"a || b", true},
		{"!b", true},
		{"!a", false},
		{"a && n > 2", true},
		{"b || n >= 3 && a", true},
		{"(a || b) && n == 3", true},
		{"!(n == 3)", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, evalOn(t, tt.expr, vars))
		})
	}
}

func TestPathResolution(t *testing.T) {
	vars := map[string]interface{}{
		"user": map[string]interface{}{
			"role": "admin",
			"tags": []interface{}{"x", "y"},
		},
	}

	assert.True(t, evalOn(t, "user.role == \"admin\"", vars))
	assert.True(t, evalOn(t, "user.tags[1] == \"y\"", vars))
	assert.False(t, evalOn(t, "user.tags[5] != null", vars))
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"count ==",
		"&& flag",
		"(a == 1",
		"a == 1)",
		"a @ b",
		"{{unterminated",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			assert.Error(t, err)
		})
	}
}

func TestVariables(t *testing.T) {
	c, err := Parse("{{user.role}} == \"admin\" && count > 2 || !flag")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "count", "flag"}, c.Variables())
}

func TestIsLiteralFalse(t *testing.T) {
	c, err := Parse("false")
	require.NoError(t, err)
	assert.True(t, c.IsLiteralFalse())

	c, err = Parse("1 == 2")
	require.NoError(t, err)
	assert.True(t, c.IsLiteralFalse())

	c, err = Parse("flag == true")
	require.NoError(t, err)
	assert.False(t, c.IsLiteralFalse())

	c, err = Parse("true")
	require.NoError(t, err)
	assert.False(t, c.IsLiteralFalse())
}
