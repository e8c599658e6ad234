// Package repository defines the persistence contracts for the problem catalog.
// Implementations live in subpackages: sqlstore (sqlite/postgres) and
// rediscache (a read-through cache in front of any ProblemRepository).
package repository

import (
	"context"

	"github.com/sakif/practice-platform/internal/model"
)

// ProblemFilter narrows ListProblems. Empty fields match everything and set
// fields are combined with AND.
type ProblemFilter struct {
	// Category matches case-insensitively.
	Category   string
	Difficulty model.Difficulty
	// Search is a case-insensitive substring of the title or category.
	Search string
}

// ProblemRepository is the read side of the catalog. Inactive problems are
// never returned.
type ProblemRepository interface {
	ListProblems(ctx context.Context, filter ProblemFilter) ([]model.Problem, error)
	GetProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	GetStarterCode(ctx context.Context, problemID string) (map[string]string, error)
	// ListTestCases returns cases ordered by execution order, then creation time.
	ListTestCases(ctx context.Context, problemID string, samplesOnly bool) ([]model.TestCase, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	Ping(ctx context.Context) error
}

// CatalogWriter loads the catalog. Upserts are keyed by category name and
// problem slug, so loading the same catalog twice is a no-op.
type CatalogWriter interface {
	UpsertCategory(ctx context.Context, c *model.Category) error
	// UpsertProblem replaces the problem's starter code and test cases.
	UpsertProblem(ctx context.Context, p *model.Problem, starterCode map[string]string, cases []model.TestCase) error
}
