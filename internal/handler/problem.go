package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/practice-platform/internal/model"
)

// ProblemReader is the part of service.ProblemService the catalog routes need.
type ProblemReader interface {
	List(ctx context.Context, category, difficulty, search string) ([]model.Problem, error)
	Get(ctx context.Context, slug string) (*model.ProblemDetail, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// ProblemHandler serves the read-only catalog.
type ProblemHandler struct {
	problems ProblemReader
	logger   *slog.Logger
}

func NewProblemHandler(problems ProblemReader, logger *slog.Logger) *ProblemHandler {
	return &ProblemHandler{
		problems: problems,
		logger:   logger,
	}
}

// HandleList handles GET /api/problems?category=&difficulty=&search=
func (h *ProblemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	problems, err := h.problems.List(r.Context(), q.Get("category"), q.Get("difficulty"), q.Get("search"))
	if err != nil {
		writeEnvelopeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list(problems))
}

// HandleGet handles GET /api/problems/{slug}
func (h *ProblemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.problems.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeEnvelopeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: detail})
}

// HandleCategories handles GET /api/categories
func (h *ProblemHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.problems.Categories(r.Context())
	if err != nil {
		writeEnvelopeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list(categories))
}
