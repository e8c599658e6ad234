// Package docker runs solutions inside throwaway containers taken from a
// pre-warmed pool.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/practice-platform/internal/executor"
)

// Shell exit codes for "not executable" and "not found".
const (
	exitNotExecutable = 126
	exitNotFound      = 127
)

// Backend implements executor.Backend using Docker.
type Backend struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New connects to the daemon, makes sure the image exists and starts the pool.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.MountPath == "" {
		return nil, fmt.Errorf("docker backend needs a mount path")
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := ensureImage(ctx, cli, cfg.Image, logger); err != nil {
		_ = cli.Close()
		return nil, err
	}

	b := &Backend{
		cli:    cli,
		config: cfg,
		logger: logger,
		pool:   NewPool(cli, cfg, logger),
	}
	b.pool.Start()

	return b, nil
}

// ensureImage pulls the image only when it is not already present, so a
// locally built runner image works without a registry.
func ensureImage(ctx context.Context, cli *client.Client, ref string, logger *slog.Logger) error {
	if _, err := cli.ImageInspect(ctx, ref); err == nil {
		return nil
	}

	logger.Info("pulling docker image", slog.String("image", ref))
	reader, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()
	// The pull finishes when the progress stream ends.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	logger.Info("docker image is ready", slog.String("image", ref))
	return nil
}

// Close shuts down the pool and the docker client.
func (b *Backend) Close() error {
	b.pool.Stop()
	return b.cli.Close()
}

// Open takes a container from the pool and unpacks the files of dir into
// its private MountPath. The container sees nothing of other runs.
func (b *Backend) Open(ctx context.Context, dir *executor.Dir) (executor.Session, error) {
	id, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}
	s := &session{
		backend:     b,
		containerID: id,
		workDir:     b.config.MountPath,
	}
	if err := s.upload(ctx, dir.Path); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

type session struct {
	backend     *Backend
	containerID string
	workDir     string
}

// upload streams a tar of dir into the container through tar's stdin.
func (s *session) upload(ctx context.Context, dir string) error {
	archive, err := archiveDir(dir)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	code, err := s.run(ctx, []string{"tar", "-x", "-f", "-", "-C", s.workDir}, archive, io.Discard, &stderr)
	if err != nil {
		return fmt.Errorf("unpacking run files: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("unpacking run files: tar exited with %d: %s", code, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *session) Exec(ctx context.Context, argv []string, stdout, stderr io.Writer) (int, error) {
	code, err := s.run(ctx, argv, nil, stdout, stderr)
	if err != nil {
		return -1, err
	}
	switch code {
	case exitNotExecutable, exitNotFound:
		return -1, fmt.Errorf("%w: %s exited with %d", executor.ErrToolNotFound, argv[0], code)
	}
	return code, nil
}

// run executes argv in the container, feeding stdin when it is not nil, and
// returns the exit code.
func (s *session) run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cli := s.backend.cli

	execResp, err := cli.ContainerExecCreate(ctx, s.containerID, container.ExecOptions{
		AttachStdin:  stdin != nil,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   s.workDir,
		Cmd:          argv,
	})
	if err != nil {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		return -1, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		return -1, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	if stdin != nil {
		go func() {
			_, _ = io.Copy(attachResp.Conn, stdin)
			_ = attachResp.CloseWrite()
		}()
	}

	done := make(chan error, 1)
	go func() {
		// Docker multiplexes both streams over one connection.
		_, err := stdcopy.StdCopy(stdout, stderr, attachResp.Reader)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return -1, fmt.Errorf("failed to read exec output: %w", err)
		}
	case <-ctx.Done():
		// Close removes the container, which kills the exec.
		return -1, ctx.Err()
	}

	inspectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	inspect, err := cli.ContainerExecInspect(inspectCtx, execResp.ID)
	if err != nil {
		return -1, fmt.Errorf("failed to inspect exec: %w", err)
	}
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	return inspect.ExitCode, nil
}

func (s *session) Close() error {
	s.backend.pool.Remove(s.containerID)
	return nil
}
