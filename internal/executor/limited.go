package executor

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when no slot freed up while there was still time to
// finish a run before the caller's deadline.
var ErrBusy = errors.New("executor: no free slot before the deadline")

// Limited bounds how many runs execute at once across all requests.
//
// A caller whose ctx has a deadline stops waiting once less than reserve
// remains, so a run that does start can still complete. Callers without a
// deadline wait until a slot frees or their ctx ends.
type Limited struct {
	inner   Executor
	sem     *semaphore.Weighted
	reserve time.Duration
}

// NewLimited allows n concurrent runs. reserve is the time one run needs,
// typically the execution timeout plus backend overhead.
func NewLimited(inner Executor, n int, reserve time.Duration) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{inner: inner, sem: semaphore.NewWeighted(int64(n)), reserve: reserve}
}

func (l *Limited) Execute(ctx context.Context, req Request) (*Result, error) {
	waitCtx := ctx
	if deadline, ok := ctx.Deadline(); ok && l.reserve > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithDeadline(ctx, deadline.Add(-l.reserve))
		defer cancel()
	}

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
	defer l.sem.Release(1)
	return l.inner.Execute(ctx, req)
}
