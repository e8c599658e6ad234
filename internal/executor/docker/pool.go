package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Pool keeps PoolSize idle containers ready. Each container serves exactly
// one run and is removed afterwards, so no state leaks between solutions.
type Pool struct {
	cli        *client.Client
	config     Config
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewPool(cli *client.Client, cfg Config, logger *slog.Logger) *Pool {
	return &Pool{
		cli:        cli,
		config:     cfg,
		logger:     logger,
		containers: make(chan string, cfg.PoolSize),
		done:       make(chan struct{}),
	}
}

// Start begins filling the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting docker container pool manager",
			slog.Int("poolSize", p.config.PoolSize),
			slog.String("image", p.config.Image),
		)
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and removes every idle container.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down docker container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.Remove(id)
			default:
				return
			}
		}
	})
}

// Acquire blocks until a container is ready or ctx ends.
// The caller owns the container and must Remove it.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("container pool is stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Remove force removes a container, killing anything still running in it.
func (p *Pool) Remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Error("failed to remove container", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// manager blocks on the channel send, so it wakes only when a container
// has been taken.
func (p *Pool) manager() {
	defer p.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-p.done:
			return
		default:
		}

		id, err := p.create()
		if err != nil {
			p.logger.Error("failed to create pre-warmed container", slog.String("error", err.Error()))
			select {
			case <-time.After(backoff):
				backoff = min(backoff*2, 30*time.Second)
			case <-p.done:
				return
			}
			continue
		}
		backoff = time.Second

		select {
		case p.containers <- id:
		case <-p.done:
			p.Remove(id)
			return
		}
	}
}

// create starts an idle container: no network, read-only root, and two
// private tmpfs mounts, /tmp and MountPath. Nothing from the host is mounted;
// a run's files are unpacked into MountPath when the container is acquired.
func (p *Pool) create() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pids := p.config.PidsLimit
	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:     p.config.MemoryLimit,
			MemorySwap: p.config.MemoryLimit,
			NanoCPUs:   int64(p.config.CPULimit * 1e9),
			PidsLimit:  &pids,
		},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,nosuid,size=64m",
			// exec so compiled binaries can run; 1777 so "nobody" can write.
			p.config.MountPath: "rw,exec,nosuid,size=64m,mode=1777",
		},
		CapDrop:     []string{"ALL"},
		SecurityOpt: []string{"no-new-privileges"},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:           p.config.Image,
		Cmd:             []string{"sleep", "infinity"},
		User:            "nobody",
		WorkingDir:      p.config.MountPath,
		NetworkDisabled: true,
		Env:             []string{"HOME=/tmp", "LANG=C.UTF-8"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.Remove(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}
