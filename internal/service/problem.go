// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services validate input, enforce
// limits and orchestrate the repository and the executor; repositories talk
// to the database. Services return apperror values and never see HTTP types.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/practice-platform/internal/apperror"
	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/repository"
)

// ProblemService serves the read side of the catalog.
type ProblemService struct {
	repo   repository.ProblemRepository
	logger *slog.Logger
}

func NewProblemService(repo repository.ProblemRepository, logger *slog.Logger) *ProblemService {
	return &ProblemService{
		repo:   repo,
		logger: logger,
	}
}

// List returns active problems matching every non-empty filter.
// An unknown difficulty is a validation error rather than an empty result.
func (s *ProblemService) List(ctx context.Context, category, difficulty, search string) ([]model.Problem, error) {
	filter := repository.ProblemFilter{
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
	}
	if difficulty = strings.TrimSpace(difficulty); difficulty != "" {
		d, ok := model.ParseDifficulty(difficulty)
		if !ok {
			return nil, apperror.ValidationFailed("difficulty", "difficulty must be one of Easy, Medium, Hard")
		}
		filter.Difficulty = d
	}

	problems, err := s.repo.ListProblems(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list problems", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	if problems == nil {
		problems = []model.Problem{}
	}
	return problems, nil
}

// Get returns a problem with its starter code and sample test cases.
// Hidden test cases are only ever used by Submit.
func (s *ProblemService) Get(ctx context.Context, slug string) (*model.ProblemDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperror.NotFound("problem", slug)
	}

	p, err := s.repo.GetProblemBySlug(ctx, slug)
	if err != nil {
		return nil, s.storeError("failed to load problem", slug, err)
	}

	code, err := s.repo.GetStarterCode(ctx, p.ID)
	if err != nil {
		return nil, s.storeError("failed to load starter code", slug, err)
	}
	cases, err := s.repo.ListTestCases(ctx, p.ID, true)
	if err != nil {
		return nil, s.storeError("failed to load test cases", slug, err)
	}

	if code == nil {
		code = map[string]string{}
	}
	if cases == nil {
		cases = []model.TestCase{}
	}
	return &model.ProblemDetail{Problem: *p, StarterCode: code, TestCases: cases}, nil
}

// Categories returns every category with its count of active problems.
func (s *ProblemService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// Ping reports whether the catalog store is reachable.
func (s *ProblemService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// storeError logs unexpected repository errors. NotFound is an ordinary
// outcome and passes through untouched.
func (s *ProblemService) storeError(msg, slug string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	s.logger.Error(msg,
		slog.String("slug", slug),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w", msg, err)
}
