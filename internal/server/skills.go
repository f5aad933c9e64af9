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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/skillflow/skillflow/internal/server/httputil"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/llm"
	"github.com/skillflow/skillflow/pkg/repository"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/skill/parser"
	"github.com/skillflow/skillflow/pkg/tools"
	"github.com/skillflow/skillflow/pkg/validate"
)

// SkillsHandler handles skill-related API requests. Each request builds
// an engine around the shared store, so callers can pick an LLM adapter
// per request.
type SkillsHandler struct {
	repo      repository.SkillRepository
	tools     *tools.Registry
	llms      *llm.Registry
	store     engine.Store
	validator *validate.Validator
	listener  engine.Listener
	ttl       time.Duration
	logger    *slog.Logger
}

// SkillsHandlerConfig configures a SkillsHandler.
type SkillsHandlerConfig struct {
	Repository repository.SkillRepository
	Tools      *tools.Registry
	LLMs       *llm.Registry
	Store      engine.Store
	Listener   engine.Listener
	TTL        time.Duration
	Logger     *slog.Logger
}

// NewSkillsHandler creates a skills handler.
func NewSkillsHandler(cfg SkillsHandlerConfig) *SkillsHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TTL == 0 {
		cfg.TTL = engine.DefaultSnapshotTTL
	}
	return &SkillsHandler{
		repo:      cfg.Repository,
		tools:     cfg.Tools,
		llms:      cfg.LLMs,
		store:     cfg.Store,
		validator: validate.New(cfg.Tools),
		listener:  cfg.Listener,
		ttl:       cfg.TTL,
		logger:    cfg.Logger,
	}
}

// RegisterRoutes registers skill API routes on the mux.
func (h *SkillsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /skills", h.handleList)
	mux.HandleFunc("GET /skills/{id}", h.handleGet)
	mux.HandleFunc("POST /skills/execute", h.handleExecute)
	mux.HandleFunc("POST /skills/resume", h.handleResume)
	mux.HandleFunc("POST /skills/validate", h.handleValidate)
	mux.HandleFunc("GET /validate/skills", h.handleValidateAll)
}

// SkillSummary is the list representation of a skill.
type SkillSummary struct {
	ID           string        `json:"id"`
	Version      string        `json:"version,omitempty"`
	Description  string        `json:"description,omitempty"`
	Intents      []string      `json:"intents,omitempty"`
	InputSchema  *skill.Schema `json:"inputSchema,omitempty"`
	OutputSchema *skill.Schema `json:"outputSchema,omitempty"`
	StepCount    int           `json:"stepCount"`
}

// ExecuteRequest is the request body for POST /skills/execute.
// Exactly one of SkillID or SkillMarkdown must be set.
type ExecuteRequest struct {
	SkillID       string                 `json:"skillId,omitempty"`
	SkillMarkdown string                 `json:"skillMarkdown,omitempty"`
	Inputs        map[string]interface{} `json:"inputs,omitempty"`
	Adapter       string                 `json:"adapter,omitempty"`
}

// ResumeRequest is the request body for POST /skills/resume. SkillID and
// SkillMarkdown are mutually exclusive and optional: executions of
// catalogue skills resolve through the repository by the snapshot's skill
// id, but an execution started from inline markdown must supply the
// document again, since the catalogue never saw it.
type ResumeRequest struct {
	ExecutionID   string                 `json:"executionId"`
	SkillID       string                 `json:"skillId,omitempty"`
	SkillMarkdown string                 `json:"skillMarkdown,omitempty"`
	Inputs        map[string]interface{} `json:"inputs,omitempty"`
	Adapter       string                 `json:"adapter,omitempty"`
}

// ValidateRequest is the request body for POST /skills/validate.
type ValidateRequest struct {
	Markdown string `json:"markdown"`
}

// ExecutionResponse is the wire form of an engine result.
type ExecutionResponse struct {
	Status       string                 `json:"status"`
	Success      bool                   `json:"success"`
	SkillID      string                 `json:"skillId"`
	Version      string                 `json:"version,omitempty"`
	ExecutionID  string                 `json:"executionId,omitempty"`
	Output       map[string]interface{} `json:"output,omitempty"`
	Error        string                 `json:"error,omitempty"`
	AwaitMessage string                 `json:"awaitMessage,omitempty"`
	AwaitSchema  *skill.Schema          `json:"awaitSchema,omitempty"`
	DurationMS   int64                  `json:"durationMs"`
	Steps        []*engine.StepResult   `json:"steps,omitempty"`
}

func (h *SkillsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	skills := h.repo.List()
	summaries := make([]SkillSummary, 0, len(skills))
	for _, sk := range skills {
		summaries = append(summaries, summarize(sk))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"skills": summaries})
}

func (h *SkillsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sk, err := h.repo.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sk)
}

func (h *SkillsHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var sk *skill.Skill
	switch {
	case req.SkillID != "" && req.SkillMarkdown != "":
		httputil.WriteError(w, http.StatusBadRequest, "skillId and skillMarkdown are mutually exclusive")
		return
	case req.SkillID != "":
		var err error
		sk, err = h.repo.Get(req.SkillID)
		if err != nil {
			writeErr(w, err)
			return
		}
	case req.SkillMarkdown != "":
		var err error
		sk, err = parser.Parse(req.SkillMarkdown)
		if err != nil {
			writeErr(w, err)
			return
		}
	default:
		httputil.WriteError(w, http.StatusBadRequest, "skillId or skillMarkdown is required")
		return
	}

	eng, err := h.newEngine(req.Adapter)
	if err != nil {
		writeErr(w, err)
		return
	}

	result, err := eng.Execute(r.Context(), sk, req.Inputs)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(sk, result))
}

func (h *SkillsHandler) handleResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ExecutionID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "executionId is required")
		return
	}

	snap, err := h.store.Find(r.Context(), req.ExecutionID)
	if err != nil {
		writeErr(w, err)
		return
	}

	var sk *skill.Skill
	switch {
	case req.SkillID != "" && req.SkillMarkdown != "":
		httputil.WriteError(w, http.StatusBadRequest, "skillId and skillMarkdown are mutually exclusive")
		return
	case req.SkillID != "":
		sk, err = h.repo.Get(req.SkillID)
	case req.SkillMarkdown != "":
		sk, err = parser.Parse(req.SkillMarkdown)
	default:
		sk, err = h.repo.Get(snap.SkillID)
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	eng, err := h.newEngine(req.Adapter)
	if err != nil {
		writeErr(w, err)
		return
	}

	result, err := eng.Resume(r.Context(), sk, req.ExecutionID, req.Inputs)
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(sk, result))
}

func (h *SkillsHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Markdown == "" {
		httputil.WriteError(w, http.StatusBadRequest, "markdown is required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.validator.ValidateSource(req.Markdown))
}

func (h *SkillsHandler) handleValidateAll(w http.ResponseWriter, r *http.Request) {
	skills := h.repo.List()
	reports := make([]*validate.Report, 0, len(skills))
	for _, sk := range skills {
		reports = append(reports, h.validator.ValidateSkill(sk))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// newEngine builds an engine around the shared snapshot store. An empty
// adapter name means the registry default; no registered default means
// prompt steps fail at execution time, which tool-only skills never hit.
func (h *SkillsHandler) newEngine(adapterName string) (*engine.Engine, error) {
	var provider llm.Adapter
	if h.llms != nil {
		var err error
		if adapterName != "" {
			provider, err = h.llms.Get(adapterName)
			if err != nil {
				return nil, &errors.NotFoundError{Resource: "adapter", ID: adapterName}
			}
		} else if provider, err = h.llms.Default(); err != nil {
			provider = nil
		}
	}

	eng := engine.New(h.tools, provider).
		WithStore(h.store).
		WithLogger(h.logger).
		WithSnapshotTTL(h.ttl)
	if h.listener != nil {
		eng.SetListener(h.listener)
	}
	return eng, nil
}

func summarize(sk *skill.Skill) SkillSummary {
	return SkillSummary{
		ID:           sk.ID,
		Version:      sk.Version,
		Description:  sk.Description,
		Intents:      sk.Intents,
		InputSchema:  sk.InputSchema,
		OutputSchema: sk.OutputContract,
		StepCount:    len(sk.Steps),
	}
}

func toResponse(sk *skill.Skill, result *engine.Result) *ExecutionResponse {
	resp := &ExecutionResponse{
		Success:     result.Succeeded(),
		SkillID:     sk.ID,
		Version:     sk.Version,
		ExecutionID: result.ExecutionID,
		Output:      result.Output,
		Error:       result.Error,
		DurationMS:  result.Duration.Milliseconds(),
		Steps:       result.Steps,
	}
	switch result.State {
	case engine.StateSuccess:
		resp.Status = "COMPLETED"
	case engine.StateAwaiting:
		resp.Status = "WAITING_FOR_INPUT"
		if result.Await != nil {
			resp.AwaitMessage = result.Await.Message
			resp.AwaitSchema = result.Await.InputSchema
		}
	default:
		resp.Status = "FAILED"
	}
	return resp
}

// writeErr maps structured errors onto HTTP status codes: not found to
// 404, wrong snapshot state to 409, bad input to 400.
func writeErr(w http.ResponseWriter, err error) {
	var (
		notFound   *errors.NotFoundError
		state      *errors.StateError
		input      *errors.InputError
		parse      *errors.ParseError
		validation *errors.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &state):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &input), errors.As(err, &parse), errors.As(err, &validation):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
