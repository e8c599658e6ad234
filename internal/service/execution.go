package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/practice-platform/internal/apperror"
	"github.com/sakif/practice-platform/internal/executor"
	"github.com/sakif/practice-platform/internal/grading"
	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/problemtype"
	"github.com/sakif/practice-platform/internal/repository"
)

// Limits bounds what a single execution request may ask for.
type Limits struct {
	MaxCodeSize  int
	MaxTestCases int
	// Parallelism caps how many test cases of one request run at once.
	// The executor itself bounds concurrency across requests.
	Parallelism int
	// RequestTimeout bounds the whole dispatch of one request, queueing
	// included. Zero means no bound.
	RequestTimeout time.Duration
}

const busyMessage = "all runners are busy, try again shortly"

// ExecutionService validates execution requests, runs every test case
// through the executor and grades the results.
type ExecutionService struct {
	exec   executor.Executor
	repo   repository.ProblemRepository
	limits Limits
	logger *slog.Logger
}

func NewExecutionService(exec executor.Executor, repo repository.ProblemRepository, limits Limits, logger *slog.Logger) *ExecutionService {
	if limits.Parallelism <= 0 {
		limits.Parallelism = 1
	}
	return &ExecutionService{
		exec:   exec,
		repo:   repo,
		limits: limits,
		logger: logger,
	}
}

// job is one test case ready to run.
type job struct {
	input    problemtype.Input
	expected problemtype.Expected
	hidden   bool
}

// Run grades caller-supplied test cases. pathLanguage comes from the route
// (/api/execute-{lang}) and wins over the body; a body naming a different
// language is rejected.
//
// Every error returned is a request-level error. Failures of individual runs
// are reported inside the response.
func (s *ExecutionService) Run(ctx context.Context, pathLanguage string, req model.ExecutionRequest) (*model.ExecutionResponse, error) {
	if err := s.validateCode(req.Code); err != nil {
		return nil, err
	}
	lang, err := resolveLanguage(pathLanguage, req.Language)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ProblemType) == "" {
		return nil, apperror.ValidationFailed("problemType", "problemType is required")
	}
	d, err := problemtype.Parse(req.ProblemType)
	if err != nil {
		return nil, apperror.ValidationFailed("problemType", err.Error())
	}

	if len(req.TestCases) == 0 {
		return nil, apperror.ValidationFailed("testCases", "at least one test case is required")
	}
	if len(req.TestCases) > s.limits.MaxTestCases {
		return nil, apperror.ValidationFailed("testCases",
			fmt.Sprintf("at most %d test cases are allowed", s.limits.MaxTestCases))
	}

	jobs := make([]job, len(req.TestCases))
	for i, tc := range req.TestCases {
		in, err := d.DecodeInput(tc.InputData)
		if err != nil {
			return nil, apperror.ValidationFailed(fmt.Sprintf("testCases[%d].inputData", i), err.Error())
		}
		exp, err := d.DecodeExpected(tc.ExpectedOutput)
		if err != nil {
			return nil, apperror.ValidationFailed(fmt.Sprintf("testCases[%d].expectedOutput", i), err.Error())
		}
		jobs[i] = job{input: in, expected: exp}
	}

	return s.dispatch(ctx, lang, req.Code, d, jobs)
}

// Submit grades code against every stored test case of a problem, samples
// and hidden cases alike, in execution order. Hidden cases report only
// whether they passed.
func (s *ExecutionService) Submit(ctx context.Context, slug string, req model.SubmitRequest) (*model.ExecutionResponse, error) {
	if err := s.validateCode(req.Code); err != nil {
		return nil, err
	}
	lang, err := resolveLanguage("", req.Language)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetProblemBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to load problem", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return nil, err
	}
	d, err := problemtype.Parse(p.ProblemType)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", p.Slug, err)
	}
	cases, err := s.repo.ListTestCases(ctx, p.ID, false)
	if err != nil {
		s.logger.Error("failed to load test cases", slog.String("slug", slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("loading test cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, apperror.ValidationFailed("testCases", "problem has no test cases")
	}

	jobs := make([]job, len(cases))
	for i, tc := range cases {
		in, err := d.DecodeInput(tc.InputData)
		if err != nil {
			return nil, fmt.Errorf("problem %s case %d input: %w", p.Slug, tc.ExecutionOrder, err)
		}
		exp, err := d.DecodeExpected(tc.ExpectedOutput)
		if err != nil {
			return nil, fmt.Errorf("problem %s case %d expected output: %w", p.Slug, tc.ExecutionOrder, err)
		}
		jobs[i] = job{input: in, expected: exp, hidden: !tc.IsSample}
	}

	return s.dispatch(ctx, lang, req.Code, d, jobs)
}

// dispatch runs jobs concurrently and writes each result at its own index,
// so the response order always equals the request order. If the request
// cannot get its cases through the shared executor within RequestTimeout the
// whole request fails with ErrUnavailable and the remaining cases are cancelled.
func (s *ExecutionService) dispatch(parent context.Context, lang executor.Language, code string, d problemtype.Descriptor, jobs []job) (*model.ExecutionResponse, error) {
	results := make([]model.ExecutionResult, len(jobs))

	ctx := parent
	if s.limits.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.limits.RequestTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.Parallelism)
	for i, j := range jobs {
		g.Go(func() error {
			res, err := s.exec.Execute(gctx, executor.Request{
				Language: lang,
				Code:     code,
				Problem:  d,
				Input:    j.input,
			})
			if errors.Is(err, executor.ErrBusy) {
				return apperror.Unavailable(busyMessage)
			}
			if err != nil {
				if _, ok := executor.AsFailure(err); !ok {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.logger.Error("execution failed",
						slog.String("language", lang.String()),
						slog.String("problem_type", string(d.Type)),
						slog.Int("test_case", i),
						slog.String("error", err.Error()),
					)
				}
			}
			results[i] = toResult(grading.Grade(res, err, j.expected, d.Order), res, err, j.hidden)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperror.Unavailable(busyMessage)
		}
		if errors.Is(err, apperror.ErrUnavailable) {
			s.logger.Warn("execution request shed",
				slog.String("language", lang.String()),
				slog.Int("test_cases", len(jobs)),
				slog.Duration("budget", s.limits.RequestTimeout),
			)
		}
		return nil, err
	}

	resp := &model.ExecutionResponse{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Passed() {
			resp.Passed++
		}
	}
	s.logger.Info("execution finished",
		slog.String("language", lang.String()),
		slog.String("problem_type", string(d.Type)),
		slog.Int("passed", resp.Passed),
		slog.Int("total", resp.Total),
	)
	return resp, nil
}

func toResult(v grading.Verdict, res *executor.Result, err error, hidden bool) model.ExecutionResult {
	out := model.ExecutionResult{ExpectedOutput: v.Expected, Hidden: hidden}
	if v.Error != "" {
		out.Error = v.Error
		out.Message = v.Message
		if f, ok := executor.AsFailure(err); ok {
			out.DurationMs = f.Duration.Milliseconds()
		}
	} else {
		actual, success := v.Actual, v.Success
		out.ActualOutput = &actual
		out.Success = &success
	}
	if res != nil {
		out.Stdout = res.Stdout
		out.Truncated = res.Truncated
		out.DurationMs = res.Duration.Milliseconds()
	}

	// Error details of a hidden case can quote its input.
	if hidden {
		out.ActualOutput = nil
		out.ExpectedOutput = ""
		out.Message = ""
		out.Stdout = ""
		out.Truncated = false
	}
	return out
}

func (s *ExecutionService) validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	if len(code) > s.limits.MaxCodeSize {
		return apperror.TooLarge("code", s.limits.MaxCodeSize)
	}
	return nil
}

// resolveLanguage picks the route language when present, else the body's.
func resolveLanguage(pathLanguage, bodyLanguage string) (executor.Language, error) {
	pathLanguage, bodyLanguage = strings.TrimSpace(pathLanguage), strings.TrimSpace(bodyLanguage)
	if pathLanguage == "" && bodyLanguage == "" {
		return "", apperror.ValidationFailed("language", "language is required")
	}

	name := pathLanguage
	if name == "" {
		name = bodyLanguage
	}
	lang, err := executor.ParseLanguage(name)
	if err != nil {
		return "", apperror.Unsupported("language", name)
	}

	if pathLanguage != "" && bodyLanguage != "" {
		other, err := executor.ParseLanguage(bodyLanguage)
		if err != nil || other != lang {
			return "", apperror.ValidationFailed("language",
				fmt.Sprintf("language %q does not match endpoint language %q", bodyLanguage, lang))
		}
	}
	return lang, nil
}
