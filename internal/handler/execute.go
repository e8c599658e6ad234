package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/practice-platform/internal/model"
)

// Runner is the part of service.ExecutionService the execution routes need.
type Runner interface {
	Run(ctx context.Context, pathLanguage string, req model.ExecutionRequest) (*model.ExecutionResponse, error)
	Submit(ctx context.Context, slug string, req model.SubmitRequest) (*model.ExecutionResponse, error)
}

// ExecuteHandler handles code execution requests.
type ExecuteHandler struct {
	runner Runner
	logger *slog.Logger
}

// NewExecuteHandler creates a new ExecuteHandler.
func NewExecuteHandler(runner Runner, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		runner: runner,
		logger: logger,
	}
}

// HandleExecute handles POST /api/execute-{lang} and POST /api/execute.
//
// Execution failures (compile errors, timeouts) are part of a 200 response;
// only request-level problems produce a 4xx.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req model.ExecutionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.runner.Run(r.Context(), chi.URLParam(r, "lang"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSubmit handles POST /api/problems/{slug}/submit.
func (h *ExecuteHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.runner.Submit(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
