package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ErrToolNotFound is returned by a Session when the compiler or interpreter
// is not installed where the backend runs.
var ErrToolNotFound = errors.New("toolchain not installed")

// Backend starts sessions bound to one scratch directory.
type Backend interface {
	Open(ctx context.Context, dir *Dir) (Session, error)
}

// Session runs commands with the scratch directory as working directory.
//
// Exec returns the exit code of a command that ran to completion. It returns
// an error only when the command could not be run or was interrupted; after
// ctx ends the error must wrap ctx.Err().
type Session interface {
	Exec(ctx context.Context, argv []string, stdout, stderr io.Writer) (int, error)
	Close() error
}

// Config holds the limits every run is held to.
type Config struct {
	// Timeout covers compilation and execution together.
	Timeout   time.Duration
	MaxOutput int
}

// Sandbox implements Executor on top of a Backend.
type Sandbox struct {
	backend    Backend
	scratch    *Scratch
	toolchains map[Language]Toolchain
	config     Config
	logger     *slog.Logger
	marker     func() string
}

func NewSandbox(backend Backend, scratch *Scratch, cfg Config, logger *slog.Logger) *Sandbox {
	return &Sandbox{
		backend:    backend,
		scratch:    scratch,
		toolchains: DefaultToolchains(),
		config:     cfg,
		logger:     logger,
		marker:     newMarker,
	}
}

func (s *Sandbox) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	tc, ok := s.toolchains[req.Language]
	if !ok {
		return nil, &Failure{Kind: UnsupportedLanguage, Detail: fmt.Sprintf("language %q is not supported", req.Language)}
	}
	if req.Input == nil {
		return nil, errors.New("request has no input")
	}

	marker := s.marker()
	files, err := tc.render(req.Code, newCall(req.Problem, req.Input, marker))
	if err != nil {
		return nil, fmt.Errorf("rendering harness: %w", err)
	}

	dir, err := s.scratch.Create()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := dir.Remove(); err != nil {
			s.logger.Warn("failed to remove scratch dir", slog.String("dir", dir.Path), slog.String("error", err.Error()))
		}
	}()

	for name, content := range files {
		if err := dir.WriteFile(name, content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	sess, err := s.backend.Open(runCtx, dir)
	if err != nil {
		return nil, s.interrupted(ctx, runCtx, start, req.Language, fmt.Errorf("opening session: %w", err))
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("failed to close session", slog.String("error", err.Error()))
		}
	}()

	if len(tc.Compile) > 0 {
		stdout, stderr := newCapture(s.config.MaxOutput), newCapture(s.config.MaxOutput)
		code, err := sess.Exec(runCtx, tc.Compile, stdout, stderr)
		if err != nil {
			return nil, s.interrupted(ctx, runCtx, start, req.Language, err)
		}
		if code != 0 {
			detail := diagnostics(stderr)
			if detail == "" {
				detail = diagnostics(stdout)
			}
			return nil, &Failure{Kind: CompileError, Detail: detail, Duration: time.Since(start)}
		}
	}

	stdout, stderr := newCapture(s.config.MaxOutput), newCapture(s.config.MaxOutput)
	code, err := sess.Exec(runCtx, tc.Run, stdout, stderr)
	if err == nil && runCtx.Err() != nil {
		// Killed by the deadline but the backend saw an ordinary exit.
		err = runCtx.Err()
	}
	if err != nil {
		return nil, s.interrupted(ctx, runCtx, start, req.Language, err)
	}
	if code != 0 {
		detail := diagnostics(stderr)
		if detail == "" {
			detail = fmt.Sprintf("process exited with status %d", code)
		}
		return nil, &Failure{Kind: RuntimeError, Detail: detail, Duration: time.Since(start)}
	}

	logs, value, found, truncated := stdout.result(marker)
	if !found && !truncated {
		return nil, &Failure{Kind: RuntimeError, Detail: "solution produced no result", Duration: time.Since(start)}
	}

	return &Result{
		Output:    value,
		Stdout:    logs,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

// interrupted classifies an error from Open or Exec. A cancelled caller is
// returned as is; an expired run deadline is a TimeoutError.
func (s *Sandbox) interrupted(parent, run context.Context, start time.Time, lang Language, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return &Failure{
			Kind:     TimeoutError,
			Detail:   fmt.Sprintf("execution exceeded %d ms", s.config.Timeout.Milliseconds()),
			Duration: time.Since(start),
		}
	}
	if errors.Is(err, ErrToolNotFound) {
		return &Failure{
			Kind:     UnsupportedLanguage,
			Detail:   fmt.Sprintf("%s is not available on this server", lang),
			Duration: time.Since(start),
		}
	}
	return err
}

func diagnostics(c *capture) string {
	out := strings.TrimSpace(c.String())
	if c.Truncated() {
		out += "\n... (truncated)"
	}
	return out
}
