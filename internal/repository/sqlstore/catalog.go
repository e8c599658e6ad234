package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/practice-platform/internal/apperror"
	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/repository"
)

var _ repository.CatalogWriter = (*Store)(nil)

// UpsertCategory inserts or updates a category by name and sets c.ID.
func (s *Store) UpsertCategory(ctx context.Context, c *model.Category) error {
	now := time.Now().UTC()
	err := s.conn.QueryRowContext(ctx, s.rebind(`
		INSERT INTO categories (id, name, description, display_order, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			description = excluded.description,
			display_order = excluded.display_order
		RETURNING id`),
		xid.New().String(), c.Name, c.Description, c.DisplayOrder, now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: upserting category %s: %w", c.Name, err)
	}
	return nil
}

// UpsertProblem writes a problem with its starter code and test cases in one
// transaction. Test cases without an execution order get their position.
func (s *Store) UpsertProblem(ctx context.Context, p *model.Problem, starterCode map[string]string, cases []model.TestCase) error {
	hints := p.Hints
	if hints == nil {
		hints = []string{}
	}
	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return fmt.Errorf("sqlstore: encoding hints: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	err = tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO problems (id, slug, title, difficulty, category, problem_type, description,
			problem_constraints, hints, example_input, example_output, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			difficulty = excluded.difficulty,
			category = excluded.category,
			problem_type = excluded.problem_type,
			description = excluded.description,
			problem_constraints = excluded.problem_constraints,
			hints = excluded.hints,
			example_input = excluded.example_input,
			example_output = excluded.example_output,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		RETURNING id`),
		xid.New().String(), p.Slug, p.Title, string(p.Difficulty), p.Category, p.ProblemType, p.Description,
		p.Constraints, string(hintsJSON), p.ExampleInput, p.ExampleOutput, p.IsActive, now, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: upserting problem %s: %w", p.Slug, err)
	}
	// RETURNING columns carry no declared type in sqlite, so timestamps are
	// read back with a plain SELECT.
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT created_at, updated_at FROM problems WHERE id = ?`), p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: reading back problem %s: %w", p.Slug, err)
	}

	if err := s.replaceStarterCode(ctx, tx, p.ID, starterCode); err != nil {
		return err
	}
	if err := s.replaceTestCases(ctx, tx, p.ID, cases, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing problem %s: %w", p.Slug, err)
	}
	return nil
}

func (s *Store) replaceStarterCode(ctx context.Context, tx *sql.Tx, problemID string, code map[string]string) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM starter_code WHERE problem_id = ?`), problemID); err != nil {
		return fmt.Errorf("sqlstore: clearing starter code: %w", err)
	}
	for lang, src := range code {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO starter_code (problem_id, language, code) VALUES (?, ?, ?)`),
			problemID, lang, src); err != nil {
			return fmt.Errorf("sqlstore: inserting starter code for %s: %w", lang, err)
		}
	}
	return nil
}

func (s *Store) replaceTestCases(ctx context.Context, tx *sql.Tx, problemID string, cases []model.TestCase, now time.Time) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM test_cases WHERE problem_id = ?`), problemID); err != nil {
		return fmt.Errorf("sqlstore: clearing test cases: %w", err)
	}
	for i := range cases {
		tc := &cases[i]
		if tc.ExecutionOrder == 0 {
			tc.ExecutionOrder = i + 1
		}
		tc.ID = xid.New().String()
		tc.ProblemID = problemID
		tc.CreatedAt = now

		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO test_cases (id, problem_id, input_data, expected_output, is_sample,
				explanation, execution_order, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			tc.ID, problemID, string(tc.InputData), string(tc.ExpectedOutput), tc.IsSample,
			tc.Explanation, tc.ExecutionOrder, tc.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("test case execution order", fmt.Sprintf("%s/%d", problemID, tc.ExecutionOrder))
			}
			return fmt.Errorf("sqlstore: inserting test case %d: %w", tc.ExecutionOrder, err)
		}
	}
	return nil
}
