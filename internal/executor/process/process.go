// Package process runs solutions as local child processes. It needs the
// language toolchains on the host and offers no isolation beyond a private
// working directory, so it is meant for development and CI.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sakif/practice-platform/internal/executor"
)

// waitDelay bounds how long Wait blocks on output pipes after the child is
// killed, in case a grandchild still holds them.
const waitDelay = time.Second

// Backend implements executor.Backend with os/exec.
type Backend struct {
	env []string
}

func New() *Backend {
	return &Backend{
		env: []string{
			"PATH=" + os.Getenv("PATH"),
			"LANG=C.UTF-8",
		},
	}
}

func (b *Backend) Open(ctx context.Context, dir *executor.Dir) (executor.Session, error) {
	env := append([]string{"HOME=" + dir.Path, "TMPDIR=" + dir.Path}, b.env...)
	return &session{dir: dir.Path, env: env}, nil
}

type session struct {
	dir string
	env []string
}

func (s *session) Exec(ctx context.Context, argv []string, stdout, stderr io.Writer) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.dir
	cmd.Env = s.env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("%s: %w", argv[0], ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return -1, fmt.Errorf("%w: %s", executor.ErrToolNotFound, argv[0])
	}
	return -1, fmt.Errorf("running %s: %w", argv[0], err)
}

// Close is a no-op; the scratch directory is owned by the sandbox.
func (s *session) Close() error { return nil }
