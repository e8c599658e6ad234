// Package model defines the data structures used throughout the application.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Difficulty is the fixed three-level rating shown next to every problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty normalizes "easy", "EASY", "Easy" to the canonical value.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Problem is the listing/detail view of a practice problem.
//
// Category is a reference by name (many problems → one category).
// Inactive problems are soft-deleted: the repository never returns them
// from listing or detail queries.
type Problem struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Difficulty    Difficulty `json:"difficulty"`
	Category      string     `json:"category"`
	ProblemType   string     `json:"problemType"`
	Description   string     `json:"description"`
	Constraints   string     `json:"constraints"`
	Hints         []string   `json:"hints"`
	ExampleInput  string     `json:"exampleInput"`
	ExampleOutput string     `json:"exampleOutput"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TestCase is one (input, expected output) pair.
//
// InputData and ExpectedOutput stay as raw JSON at this layer: their shape
// depends on the problem type and is decoded by package problemtype.
type TestCase struct {
	ID             string          `json:"id,omitempty"`
	ProblemID      string          `json:"problemId,omitempty"`
	InputData      json.RawMessage `json:"inputData"`
	ExpectedOutput json.RawMessage `json:"expectedOutput"`
	IsSample       bool            `json:"isSample"`
	Explanation    string          `json:"explanation,omitempty"`
	ExecutionOrder int             `json:"executionOrder"`
	CreatedAt      time.Time       `json:"-"`
}

// ProblemDetail is what GET /api/problems/{slug} returns.
// StarterCode is keyed by language name ("javascript", "python", ...).
type ProblemDetail struct {
	Problem
	StarterCode map[string]string `json:"starterCode"`
	TestCases   []TestCase        `json:"testCases"`
}

// Category groups problems. ProblemCount is computed from active problems, never stored.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"displayOrder"`
	ProblemCount int       `json:"problemCount"`
	CreatedAt    time.Time `json:"-"`
}
