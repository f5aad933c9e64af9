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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skillerrors "github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

const sampleDoc = "# skill: order-review\n" +
	"\n" +
	"<!-- reference: docs/policy.md -->\n" +
	"\n" +
	"## version\n" +
	"1.2.0\n" +
	"\n" +
	"## description\n" +
	"Reviews an order and asks for confirmation before archiving.\n" +
	"\n" +
	"## intent\n" +
	"- review order\n" +
	"- check order\n" +
	"- review order\n" +
	"\n" +
	"## input\n" +
	"```yaml\n" +
	"order_id: string\n" +
	"priority:\n" +
	"  type: number\n" +
	"  required: false\n" +
	"  description: \"1 is highest\"\n" +
	"```\n" +
	"\n" +
	"## steps\n" +
	"\n" +
	"### step: fetch\n" +
	"**tool**: kv\n" +
	"```yaml\n" +
	"op: get\n" +
	"key: \"order:{{order_id}}\"\n" +
	"var: order\n" +
	"```\n" +
	"\n" +
	"### step: summarize\n" +
	"**varName**: summary\n" +
	"```prompt\n" +
	"Summarize order {{order_id}} with priority {{priority}}.\n" +
	"```\n" +
	"\n" +
	"### step: confirm\n" +
	"**type**: await\n" +
	"```yaml\n" +
	"message: \"Archive this order?\"\n" +
	"input_schema:\n" +
	"  approved: boolean\n" +
	"```\n" +
	"\n" +
	"### step: archive\n" +
	"**varName**: archived\n" +
	"```when\n" +
	"expr: \"{{approved}} == true\"\n" +
	"```\n" +
	"```template\n" +
	"Order {{order_id}} archived: {{summary}}\n" +
	"```\n" +
	"\n" +
	"## output\n" +
	"```yaml\n" +
	"archived:\n" +
	"  type: string\n" +
	"  required: true\n" +
	"```\n" +
	"\n" +
	"## x-owner\n" +
	"fulfillment-team\n"

func TestParseSampleDocument(t *testing.T) {
	sk, err := Parse(sampleDoc)
	require.NoError(t, err)

	assert.Equal(t, "order-review", sk.ID)
	assert.Equal(t, "1.2.0", sk.Version)
	assert.Contains(t, sk.Description, "asks for confirmation")
	assert.Equal(t, []string{"review order", "check order"}, sk.Intents, "intents deduplicated, order kept")

	require.NotNil(t, sk.InputSchema)
	assert.Equal(t, []string{"order_id", "priority"}, sk.InputSchema.Names)
	orderID, _ := sk.InputSchema.Get("order_id")
	assert.Equal(t, skill.TypeString, orderID.Type)
	assert.True(t, orderID.Required, "input shorthand defaults required")
	priority, _ := sk.InputSchema.Get("priority")
	assert.Equal(t, skill.TypeNumber, priority.Type)
	assert.False(t, priority.Required)
	assert.Equal(t, "1 is highest", priority.Description)

	require.Len(t, sk.Steps, 4)

	fetch := sk.Steps[0]
	assert.Equal(t, skill.KindTool, fetch.Kind, "tool attribute infers kind")
	assert.Equal(t, "kv", fetch.Tool.ToolName)
	assert.Equal(t, "order:{{order_id}}", fetch.Tool.InputTemplate["key"])

	summarize := sk.Steps[1]
	assert.Equal(t, skill.KindPrompt, summarize.Kind, "prompt fence infers kind")
	assert.Equal(t, "summary", summarize.VarName)

	confirm := sk.Steps[2]
	assert.Equal(t, skill.KindAwait, confirm.Kind)
	assert.Equal(t, "Archive this order?", confirm.Await.Message)
	approved, ok := confirm.Await.InputSchema.Get("approved")
	require.True(t, ok)
	assert.Equal(t, skill.TypeBoolean, approved.Type)
	assert.True(t, approved.Required)

	archive := sk.Steps[3]
	assert.Equal(t, skill.KindTemplate, archive.Kind)
	require.NotNil(t, archive.When)
	assert.Equal(t, "{{approved}} == true", archive.WhenSource)
	assert.True(t, archive.When.EvalVars(map[string]interface{}{"approved": true}))

	require.NotNil(t, sk.OutputContract)
	archived, _ := sk.OutputContract.Get("archived")
	assert.True(t, archived.Required)

	assert.Equal(t, "fulfillment-team", sk.Extensions["x-owner"])
	ref, ok := sk.References["policy"]
	require.True(t, ok)
	assert.Equal(t, "docs/policy.md", ref.Path)
	assert.Equal(t, "markdown", ref.Type)
}

func TestRoundTrip(t *testing.T) {
	first, err := Parse(sampleDoc)
	require.NoError(t, err)

	second, err := Parse(Format(first))
	require.NoError(t, err, "formatted document must reparse")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the model:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}

func TestKindInference(t *testing.T) {
	t.Run("await inferred from yaml shape", func(t *testing.T) {
		doc := "# skill: s\n## steps\n### step: pause\n```yaml\nmessage: \"go on?\"\ninput_schema:\n  yes: boolean\n```\n"
		sk, err := Parse(doc)
		require.NoError(t, err)
		assert.Equal(t, skill.KindAwait, sk.Steps[0].Kind)
	})

	t.Run("generic fence falls back to template", func(t *testing.T) {
		doc := "# skill: s\n## steps\n### step: t\n```template\nhello {{name}}\n```\n"
		sk, err := Parse(doc)
		require.NoError(t, err)
		assert.Equal(t, skill.KindTemplate, sk.Steps[0].Kind)
	})

	t.Run("explicit type wins", func(t *testing.T) {
		doc := "# skill: s\n## steps\n### step: p\n**type**: prompt\n```prompt\nsay hi\n```\n"
		sk, err := Parse(doc)
		require.NoError(t, err)
		assert.Equal(t, skill.KindPrompt, sk.Steps[0].Kind)
	})

	t.Run("no fence no type fails", func(t *testing.T) {
		doc := "# skill: s\n## steps\n### step: empty\n"
		_, err := Parse(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot determine step kind")
	})
}

func TestParseErrors(t *testing.T) {
	var pe *skillerrors.ParseError

	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "missing skill heading",
			doc:     "## steps\n### step: a\n```template\nx\n```\n",
			wantMsg: "skill",
		},
		{
			name:    "no steps",
			doc:     "# skill: s\n## description\nnothing\n",
			wantMsg: "at least one step",
		},
		{
			name:    "duplicate step names",
			doc:     "# skill: s\n## steps\n### step: a\n```template\nx\n```\n### step: a\n```template\ny\n```\n",
			wantMsg: "duplicate step name",
		},
		{
			name:    "compose rejected",
			doc:     "# skill: s\n## steps\n### step: c\n**type**: compose\n",
			wantMsg: "compose",
		},
		{
			name:    "bad when expression",
			doc:     "# skill: s\n## steps\n### step: a\n**when**: x ==\n```template\nx\n```\n",
			wantMsg: "when expression",
		},
		{
			name:    "two code blocks",
			doc:     "# skill: s\n## steps\n### step: a\n```template\nx\n```\n```template\ny\n```\n",
			wantMsg: "at most one code block",
		},
		{
			name:    "await message too long",
			doc:     "# skill: s\n## steps\n### step: a\n**type**: await\n```yaml\nmessage: \"" + longString(1001) + "\"\ninput_schema:\n  ok: boolean\n```\n",
			wantMsg: "exceeds",
		},
		{
			name:    "unknown field type",
			doc:     "# skill: s\n## input\n```yaml\nname: text\n```\n## steps\n### step: a\n```template\nx\n```\n",
			wantMsg: "unknown type",
		},
		{
			name:    "unterminated fence",
			doc:     "# skill: s\n## steps\n### step: a\n```template\nx\n",
			wantMsg: "unterminated code fence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Greater(t, pe.Line, 0, "errors carry a line number")
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(sampleDoc))
	assert.False(t, IsValid("not a skill"))
	assert.False(t, IsValid(""))
}

func TestCaseInsensitiveHeadings(t *testing.T) {
	doc := "# SKILL: shouty\n## STEPS\n### STEP: a\n```template\nx\n```\n"
	sk, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "shouty", sk.ID)
	require.Len(t, sk.Steps, 1)
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
