// Package seed loads the built-in problem catalog into a CatalogWriter.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/sakif/practice-platform/internal/executor"
	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/problemtype"
	"github.com/sakif/practice-platform/internal/repository"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the decoded form of catalog.yaml.
type Catalog struct {
	Categories []CategorySpec `yaml:"categories"`
	Problems   []ProblemSpec  `yaml:"problems"`
}

type CategorySpec struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DisplayOrder int    `yaml:"displayOrder"`
}

type ProblemSpec struct {
	Slug          string            `yaml:"slug"`
	Title         string            `yaml:"title"`
	Difficulty    string            `yaml:"difficulty"`
	Category      string            `yaml:"category"`
	ProblemType   string            `yaml:"problemType"`
	Description   string            `yaml:"description"`
	Constraints   string            `yaml:"constraints"`
	Hints         []string          `yaml:"hints"`
	ExampleInput  string            `yaml:"exampleInput"`
	ExampleOutput string            `yaml:"exampleOutput"`
	Inactive      bool              `yaml:"inactive"`
	StarterCode   map[string]string `yaml:"starterCode"`
	TestCases     []CaseSpec        `yaml:"testCases"`
}

// CaseSpec holds input and expected values as plain YAML; they are
// converted to JSON before validation.
type CaseSpec struct {
	Input       any    `yaml:"input"`
	Expected    any    `yaml:"expected"`
	Sample      bool   `yaml:"sample"`
	Explanation string `yaml:"explanation"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a catalog document. Unknown keys are an error so typos in
// the YAML do not silently drop data.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return &c, nil
}

// entry is a problem ready to be written.
type entry struct {
	problem     model.Problem
	starterCode map[string]string
	cases       []model.TestCase
}

// build validates the whole catalog before anything is written.
func (c *Catalog) build() ([]model.Category, []entry, error) {
	var errs []error

	categories := make([]model.Category, 0, len(c.Categories))
	known := make(map[string]bool, len(c.Categories))
	for i, cs := range c.Categories {
		name := strings.TrimSpace(cs.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
			continue
		}
		if known[name] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate name %q", i, name))
			continue
		}
		known[name] = true
		categories = append(categories, model.Category{Name: name, Description: cs.Description, DisplayOrder: cs.DisplayOrder})
	}

	entries := make([]entry, 0, len(c.Problems))
	slugs := make(map[string]bool, len(c.Problems))
	for i, ps := range c.Problems {
		e, err := ps.build(known)
		if err != nil {
			errs = append(errs, fmt.Errorf("problems[%d] (%s): %w", i, ps.Title, err))
			continue
		}
		if slugs[e.problem.Slug] {
			errs = append(errs, fmt.Errorf("problems[%d]: duplicate slug %q", i, e.problem.Slug))
			continue
		}
		slugs[e.problem.Slug] = true
		entries = append(entries, e)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	return categories, entries, nil
}

func (ps ProblemSpec) build(categories map[string]bool) (entry, error) {
	if strings.TrimSpace(ps.Title) == "" {
		return entry{}, errors.New("title is required")
	}
	s := ps.Slug
	if s == "" {
		s = slug.Make(ps.Title)
	}
	if !slug.IsSlug(s) {
		return entry{}, fmt.Errorf("invalid slug %q", s)
	}
	difficulty, ok := model.ParseDifficulty(ps.Difficulty)
	if !ok {
		return entry{}, fmt.Errorf("unknown difficulty %q", ps.Difficulty)
	}
	if !categories[ps.Category] {
		return entry{}, fmt.Errorf("unknown category %q", ps.Category)
	}
	d, err := problemtype.Parse(ps.ProblemType)
	if err != nil {
		return entry{}, err
	}

	code := make(map[string]string, len(ps.StarterCode))
	for name, src := range ps.StarterCode {
		lang, err := executor.ParseLanguage(name)
		if err != nil {
			return entry{}, fmt.Errorf("starterCode: %w", err)
		}
		code[lang.String()] = src
	}

	if len(ps.TestCases) == 0 {
		return entry{}, errors.New("at least one test case is required")
	}
	cases := make([]model.TestCase, 0, len(ps.TestCases))
	samples := 0
	for i, cs := range ps.TestCases {
		tc, err := cs.build(d, i+1)
		if err != nil {
			return entry{}, fmt.Errorf("testCases[%d]: %w", i, err)
		}
		if tc.IsSample {
			samples++
		}
		cases = append(cases, tc)
	}
	if samples == 0 {
		return entry{}, errors.New("at least one sample test case is required")
	}

	hints := ps.Hints
	if hints == nil {
		hints = []string{}
	}
	return entry{
		problem: model.Problem{
			Slug:          s,
			Title:         strings.TrimSpace(ps.Title),
			Difficulty:    difficulty,
			Category:      ps.Category,
			ProblemType:   string(d.Type),
			Description:   strings.TrimSpace(ps.Description),
			Constraints:   strings.TrimSpace(ps.Constraints),
			Hints:         hints,
			ExampleInput:  ps.ExampleInput,
			ExampleOutput: ps.ExampleOutput,
			IsActive:      !ps.Inactive,
		},
		starterCode: code,
		cases:       cases,
	}, nil
}

func (cs CaseSpec) build(d problemtype.Descriptor, order int) (model.TestCase, error) {
	input, err := json.Marshal(cs.Input)
	if err != nil {
		return model.TestCase{}, fmt.Errorf("input: %w", err)
	}
	if _, err := d.DecodeInput(input); err != nil {
		return model.TestCase{}, fmt.Errorf("input: %w", err)
	}
	expected, err := json.Marshal(cs.Expected)
	if err != nil {
		return model.TestCase{}, fmt.Errorf("expected: %w", err)
	}
	if _, err := d.DecodeExpected(expected); err != nil {
		return model.TestCase{}, fmt.Errorf("expected: %w", err)
	}
	return model.TestCase{
		InputData:      input,
		ExpectedOutput: expected,
		IsSample:       cs.Sample,
		Explanation:    cs.Explanation,
		ExecutionOrder: order,
	}, nil
}

// Load validates the embedded catalog and writes it.
func Load(ctx context.Context, w repository.CatalogWriter, logger *slog.Logger) error {
	c, err := Default()
	if err != nil {
		return err
	}
	return LoadCatalog(ctx, w, c, logger)
}

// LoadCatalog validates c and upserts every category and problem. Nothing
// is written if validation fails.
func LoadCatalog(ctx context.Context, w repository.CatalogWriter, c *Catalog, logger *slog.Logger) error {
	categories, entries, err := c.build()
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	for i := range categories {
		if err := w.UpsertCategory(ctx, &categories[i]); err != nil {
			return fmt.Errorf("seeding category %q: %w", categories[i].Name, err)
		}
	}
	for i := range entries {
		e := &entries[i]
		if err := w.UpsertProblem(ctx, &e.problem, e.starterCode, e.cases); err != nil {
			return fmt.Errorf("seeding problem %q: %w", e.problem.Slug, err)
		}
		logger.Debug("seeded problem", "slug", e.problem.Slug, "test_cases", len(e.cases))
	}

	logger.Info("catalog seeded", "categories", len(categories), "problems", len(entries))
	return nil
}
