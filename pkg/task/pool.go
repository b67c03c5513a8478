package task

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// Pool bounds the number of task closures running concurrently. The
// process-global pool backs Async; its size can be adjusted once at
// startup from configuration.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a pool that runs at most n closures concurrently.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

var defaultPool = NewPool(runtime.GOMAXPROCS(0))

// SetDefaultPoolSize replaces the process-global pool's worker count. It
// should be called once during startup, before any Async calls.
func SetDefaultPoolSize(n int) {
	defaultPool = NewPool(n)
}

// Async schedules fn for execution on the default pool and returns a
// Future observing its result. fn always runs on a goroutine distinct
// from the caller, bounded by the pool's worker count.
func Async[T any](ctx context.Context, fn func(ctx context.Context, n Notifier) (T, error)) Future[T] {
	return AsyncOn(defaultPool, ctx, fn)
}

// AsyncOn schedules fn on p and returns a Future observing its result.
// The scheduling goroutine is spawned immediately; it blocks on p's
// semaphore until a worker slot is free, so a caller can queue more work
// than the pool's size without deadlocking the caller itself.
func AsyncOn[T any](p *Pool, ctx context.Context, fn func(ctx context.Context, n Notifier) (T, error)) Future[T] {
	promise, future := New[T]()

	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			promise.Fail(ralpherrors.Wrap(err, ralpherrors.KindCanceled, "waiting for a worker"))
			return
		}
		defer p.sem.Release(1)

		notifier := promise.Notifier()
		if notifier.CancellationRequested() {
			promise.Fail(ralpherrors.New(ralpherrors.KindCanceled, "task canceled before it started"))
			return
		}

		result, err := fn(ctx, notifier)
		if err != nil {
			promise.Fail(err)
			return
		}
		promise.Resolve(result)
	}()

	return future
}
