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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/llm"
	"github.com/skillflow/skillflow/pkg/repository"
	"github.com/skillflow/skillflow/pkg/skill/parser"
	"github.com/skillflow/skillflow/pkg/tools"
)

const greeterDoc = "# skill: greeter\n" +
	"## input\n```yaml\nname: string\n```\n" +
	"## steps\n" +
	"### step: say\n**varName**: greeting\n```template\nHello, {{name}}!\n```\n" +
	"## output\n```yaml\ngreeting: string\n```\n"

const approvalDoc = "# skill: approval\n" +
	"## steps\n" +
	"### step: confirm\n**type**: await\n```yaml\nmessage: \"Proceed?\"\ninput_schema:\n  approved: boolean\n```\n" +
	"### step: done\n**varName**: verdict\n```template\n{{approved}}\n```\n" +
	"## output\n```yaml\nverdict: string\n```\n"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	repo := repository.NewMemoryRepository()
	for _, doc := range []string{greeterDoc, approvalDoc} {
		sk, err := parser.Parse(doc)
		require.NoError(t, err)
		repo.Put(sk)
	}

	llms := llm.NewRegistry()
	require.NoError(t, llms.Register(llm.NewStaticAdapter("fine")))

	handler := NewSkillsHandler(SkillsHandlerConfig{
		Repository: repo,
		Tools:      tools.NewRegistry(),
		LLMs:       llms,
		Store:      engine.NewMemoryStore(),
	})

	router := NewRouter(RouterConfig{Version: "test"}, nil)
	handler.RegisterRoutes(router.Mux())
	return router
}

func doJSON(t *testing.T, router *Router, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestListSkills(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t), http.MethodGet, "/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	skills, ok := body["skills"].([]interface{})
	require.True(t, ok)
	require.Len(t, skills, 2)

	first := skills[0].(map[string]interface{})
	assert.Equal(t, "approval", first["id"], "sorted by id")
	assert.Equal(t, float64(2), first["stepCount"])
}

func TestGetSkill(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/skills/greeter", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "greeter", body["id"])

	rec, body = doJSON(t, router, http.MethodGet, "/skills/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestExecuteSkill(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID: "greeter",
		Inputs:  map[string]interface{}{"name": "Ada"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)

	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "greeter", body["skillId"])
	output := body["output"].(map[string]interface{})
	assert.Equal(t, "Hello, Ada!", output["greeting"])
}

func TestExecuteInlineMarkdown(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillMarkdown: greeterDoc,
		Inputs:        map[string]interface{}{"name": "Grace"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)
	assert.Equal(t, "COMPLETED", body["status"])

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillMarkdown: "not a skill",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "neither skillId nor markdown")

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID:       "greeter",
		SkillMarkdown: greeterDoc,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "both skillId and markdown")

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID: "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID: "greeter",
		Inputs:  map[string]interface{}{"name": 42},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "wrong input type")

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID: "greeter",
		Adapter: "nonexistent",
		Inputs:  map[string]interface{}{"name": "Ada"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown adapter")
}

func TestAwaitAndResume(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillID: "approval",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)
	assert.Equal(t, "WAITING_FOR_INPUT", body["status"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Proceed?", body["awaitMessage"])
	require.NotNil(t, body["awaitSchema"])

	executionID, ok := body["executionId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, executionID)

	// rejected input leaves the snapshot resumable
	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: executionID,
		Inputs:      map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing required await input")

	rec, body = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: executionID,
		Inputs:      map[string]interface{}{"approved": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)
	assert.Equal(t, "COMPLETED", body["status"])
	output := body["output"].(map[string]interface{})
	assert.Equal(t, "true", output["verdict"])

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: executionID,
		Inputs:      map[string]interface{}{"approved": true},
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "second resume")

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: "no-such-execution",
		Inputs:      map[string]interface{}{"approved": true},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing executionId")
}

func TestResumeInlineMarkdown(t *testing.T) {
	// not registered in the repository, only known to the caller
	const adhocDoc = "# skill: adhoc-signoff\n" +
		"## steps\n" +
		"### step: confirm\n**type**: await\n```yaml\nmessage: \"Sign off?\"\ninput_schema:\n  approved: boolean\n```\n" +
		"### step: done\n**varName**: verdict\n```template\n{{approved}}\n```\n" +
		"## output\n```yaml\nverdict: string\n```\n"

	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/skills/execute", ExecuteRequest{
		SkillMarkdown: adhocDoc,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)
	require.Equal(t, "WAITING_FOR_INPUT", body["status"])
	executionID := body["executionId"].(string)
	require.NotEmpty(t, executionID)

	// without the document the catalogue cannot supply the skill
	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: executionID,
		Inputs:      map[string]interface{}{"approved": true},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID:   executionID,
		SkillID:       "approval",
		SkillMarkdown: adhocDoc,
		Inputs:        map[string]interface{}{"approved": true},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "skillId and skillMarkdown together")

	// a skill that does not match the snapshot is rejected, not consumed
	rec, _ = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID: executionID,
		SkillID:     "approval",
		Inputs:      map[string]interface{}{"approved": true},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = doJSON(t, router, http.MethodPost, "/skills/resume", ResumeRequest{
		ExecutionID:   executionID,
		SkillMarkdown: adhocDoc,
		Inputs:        map[string]interface{}{"approved": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %v", body)
	assert.Equal(t, "COMPLETED", body["status"])
	output := body["output"].(map[string]interface{})
	assert.Equal(t, "true", output["verdict"])
}

func TestValidateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/skills/validate", ValidateRequest{
		Markdown: greeterDoc,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["valid"])

	rec, body = doJSON(t, router, http.MethodPost, "/skills/validate", ValidateRequest{
		Markdown: "bogus",
	})
	require.Equal(t, http.StatusOK, rec.Code, "invalid documents still return a report")
	assert.Equal(t, false, body["valid"])

	rec, _ = doJSON(t, router, http.MethodPost, "/skills/validate", ValidateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateAllSkills(t *testing.T) {
	rec, body := doJSON(t, newTestRouter(t), http.MethodGet, "/validate/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	reports, ok := body["reports"].([]interface{})
	require.True(t, ok)
	assert.Len(t, reports, 2)
}

func TestMetricsEndpointRegistration(t *testing.T) {
	router := newTestRouter(t)
	router.SetMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "metric 1")
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "metric")
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	router := newTestRouter(t)
	srv := New(testServerConfig(), router, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
}
