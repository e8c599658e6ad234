package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/practice-platform/internal/apperror"
	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/repository"
)

var _ repository.ProblemRepository = (*Store)(nil)

const problemColumns = `p.id, p.slug, p.title, p.difficulty, p.category, p.problem_type,
	p.description, p.problem_constraints, p.hints, p.example_input, p.example_output,
	p.is_active, p.created_at, p.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProblem(row scanner) (model.Problem, error) {
	var (
		p     model.Problem
		hints string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Difficulty, &p.Category, &p.ProblemType,
		&p.Description, &p.Constraints, &hints, &p.ExampleInput, &p.ExampleOutput,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(hints), &p.Hints); err != nil {
		return p, fmt.Errorf("decoding hints of %s: %w", p.Slug, err)
	}
	if p.Hints == nil {
		p.Hints = []string{}
	}
	return p, nil
}

// ListProblems returns active problems ordered by category display order,
// then difficulty, then title.
func (s *Store) ListProblems(ctx context.Context, f repository.ProblemFilter) ([]model.Problem, error) {
	where := []string{"p.is_active = ?"}
	args := []any{true}

	if f.Category != "" {
		where = append(where, "LOWER(p.category) = ?")
		args = append(args, strings.ToLower(f.Category))
	}
	if f.Difficulty != "" {
		where = append(where, "p.difficulty = ?")
		args = append(args, string(f.Difficulty))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		where = append(where, `(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.category) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + problemColumns + `
		FROM problems p
		LEFT JOIN categories c ON c.name = p.category
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY COALESCE(c.display_order, 0),
			CASE p.difficulty WHEN 'Easy' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END,
			p.title`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing problems: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning problem row: %w", err)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating problems: %w", err)
	}
	return problems, nil
}

// GetProblemBySlug returns NotFound for unknown and inactive problems alike.
func (s *Store) GetProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	row := s.conn.QueryRowContext(ctx, s.rebind(`SELECT `+problemColumns+`
		FROM problems p
		WHERE p.slug = ? AND p.is_active = ?`), slug, true)

	p, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("problem", slug)
		}
		return nil, fmt.Errorf("sqlstore: getting problem %s: %w", slug, err)
	}
	return &p, nil
}

func (s *Store) GetStarterCode(ctx context.Context, problemID string) (map[string]string, error) {
	rows, err := s.conn.QueryContext(ctx, s.rebind(
		`SELECT language, code FROM starter_code WHERE problem_id = ?`), problemID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing starter code: %w", err)
	}
	defer rows.Close()

	code := map[string]string{}
	for rows.Next() {
		var lang, src string
		if err := rows.Scan(&lang, &src); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning starter code: %w", err)
		}
		code[lang] = src
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating starter code: %w", err)
	}
	return code, nil
}

func (s *Store) ListTestCases(ctx context.Context, problemID string, samplesOnly bool) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input_data, expected_output, is_sample, explanation, execution_order, created_at
		FROM test_cases
		WHERE problem_id = ?`
	args := []any{problemID}
	if samplesOnly {
		query += ` AND is_sample = ?`
		args = append(args, true)
	}
	query += ` ORDER BY execution_order, created_at`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing test cases: %w", err)
	}
	defer rows.Close()

	cases := []model.TestCase{}
	for rows.Next() {
		var (
			tc            model.TestCase
			input, output string
		)
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &input, &output, &tc.IsSample,
			&tc.Explanation, &tc.ExecutionOrder, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning test case: %w", err)
		}
		tc.InputData = json.RawMessage(input)
		tc.ExpectedOutput = json.RawMessage(output)
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating test cases: %w", err)
	}
	return cases, nil
}

// ListCategories counts only active problems.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.conn.QueryContext(ctx, s.rebind(`
		SELECT c.id, c.name, c.description, c.display_order, COUNT(p.id)
		FROM categories c
		LEFT JOIN problems p ON p.category = c.name AND p.is_active = ?
		GROUP BY c.id, c.name, c.description, c.display_order
		ORDER BY c.display_order, c.name`), true)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder, &c.ProblemCount); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating categories: %w", err)
	}
	return categories, nil
}

// escapeLike makes %, _ and \ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
