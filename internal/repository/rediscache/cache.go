// Package rediscache is a read-through cache in front of a ProblemRepository.
//
// The catalog is read-mostly and only changes when the seed loader runs, so
// entries simply expire after a TTL and Invalidate drops everything after a
// reload. Redis being unavailable never fails a read: the cache logs and
// falls through to the wrapped repository.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/practice-platform/internal/model"
	"github.com/sakif/practice-platform/internal/repository"
)

const keyPrefix = "practice:catalog:"

var _ repository.ProblemRepository = (*Repository)(nil)

// Repository decorates a ProblemRepository with a redis cache.
type Repository struct {
	next   repository.ProblemRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func New(next repository.ProblemRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Repository {
	return &Repository{next: next, client: client, ttl: ttl, logger: logger}
}

// Connect builds a client and verifies the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *Repository) ListProblems(ctx context.Context, f repository.ProblemFilter) ([]model.Problem, error) {
	key := keyPrefix + "problems:" + strings.Join([]string{
		strings.ToLower(f.Category), string(f.Difficulty), strings.ToLower(f.Search),
	}, "\x1f")
	return cached(ctx, r, key, func(ctx context.Context) ([]model.Problem, error) {
		return r.next.ListProblems(ctx, f)
	})
}

// GetProblemBySlug caches hits only; a NotFound is cheap to recompute and
// must not outlive a catalog reload.
func (r *Repository) GetProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return cached(ctx, r, keyPrefix+"problem:"+slug, func(ctx context.Context) (*model.Problem, error) {
		return r.next.GetProblemBySlug(ctx, slug)
	})
}

func (r *Repository) GetStarterCode(ctx context.Context, problemID string) (map[string]string, error) {
	return cached(ctx, r, keyPrefix+"starter:"+problemID, func(ctx context.Context) (map[string]string, error) {
		return r.next.GetStarterCode(ctx, problemID)
	})
}

func (r *Repository) ListTestCases(ctx context.Context, problemID string, samplesOnly bool) ([]model.TestCase, error) {
	key := fmt.Sprintf("%scases:%s:%t", keyPrefix, problemID, samplesOnly)
	return cached(ctx, r, key, func(ctx context.Context) ([]model.TestCase, error) {
		return r.next.ListTestCases(ctx, problemID, samplesOnly)
	})
}

func (r *Repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return cached(ctx, r, keyPrefix+"categories", func(ctx context.Context) ([]model.Category, error) {
		return r.next.ListCategories(ctx)
	})
}

// Ping reports the health of the source of truth, not of the cache.
func (r *Repository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Invalidate deletes every catalog entry.
func (r *Repository) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rediscache: scanning keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("rediscache: deleting keys: %w", err)
	}
	r.logger.Info("catalog cache invalidated", slog.Int("keys", len(keys)))
	return nil
}

// loadTimeout bounds a shared load, which no single caller can cancel.
const loadTimeout = 10 * time.Second

// cached serves key from redis or loads it. Concurrent misses for the same
// key share one load. The load runs detached from the caller that started
// it; each caller stops waiting when its own ctx ends.
func cached[T any](ctx context.Context, r *Repository, key string, load func(context.Context) (T, error)) (T, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		r.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	ch := r.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := load(shared)
		if err != nil {
			return v, err
		}
		if raw, err := json.Marshal(v); err == nil {
			if err := r.client.Set(shared, key, raw, r.ttl).Err(); err != nil {
				r.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
