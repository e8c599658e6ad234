package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const scratchPrefix = "run-"

// Scratch hands out per-run directories under a shared root.
type Scratch struct {
	root string
	mode fs.FileMode
}

// NewScratch creates root if needed. mode is applied to every run directory.
func NewScratch(root string, mode fs.FileMode) (*Scratch, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving scratch root: %w", err)
	}
	return &Scratch{root: abs, mode: mode}, nil
}

func (s *Scratch) Root() string { return s.root }

// Dir is one run's scratch directory.
type Dir struct {
	Name string
	Path string
}

// Create makes a new uniquely named directory.
func (s *Scratch) Create() (*Dir, error) {
	name := scratchPrefix + uuid.NewString()
	path := filepath.Join(s.root, name)
	if err := os.Mkdir(path, s.mode); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	// Mkdir is subject to the umask.
	if err := os.Chmod(path, s.mode); err != nil {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("chmod scratch dir: %w", err)
	}
	return &Dir{Name: name, Path: path}, nil
}

func (d *Dir) WriteFile(name string, content string) error {
	return os.WriteFile(filepath.Join(d.Path, name), []byte(content), 0o644)
}

func (d *Dir) Remove() error {
	return os.RemoveAll(d.Path)
}

// Sweep removes run directories last modified before now minus retention.
// It returns how many it removed.
func (s *Scratch) Sweep(retention time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading scratch root: %w", err)
	}

	cutoff := now.Add(-retention)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), scratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Sweeper runs Sweep periodically in the background.
type Sweeper struct {
	scratch   *Scratch
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewSweeper(scratch *Scratch, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		scratch:   scratch,
		retention: retention,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start sweeps once immediately, which clears leftovers from a previous
// crash, then every interval until Stop.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting scratch sweeper",
			slog.String("root", s.scratch.Root()),
			slog.Duration("retention", s.retention),
			slog.Duration("interval", s.interval),
		)
		s.wg.Add(1)
		go s.loop()
	})
}

// Stop waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	n, err := s.scratch.Sweep(s.retention, time.Now())
	if err != nil {
		s.logger.Warn("scratch sweep incomplete", slog.String("error", err.Error()))
	}
	if n > 0 {
		s.logger.Info("removed stale scratch directories", slog.Int("count", n))
	}
}
