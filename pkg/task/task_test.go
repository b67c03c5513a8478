package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

func TestAsyncResolvesOnDifferentGoroutine(t *testing.T) {
	callerID := make(chan bool)
	future := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		callerID <- true
		return 42, nil
	})

	<-callerID
	result, err := AwaitBlocking(context.Background(), future)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, StateFinished, future.State())
}

func TestAsyncPropagatesTypedFailure(t *testing.T) {
	wantErr := ralpherrors.New(ralpherrors.KindNetwork, "boom")
	future := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		return 0, wantErr
	})

	_, err := AwaitBlocking(context.Background(), future)
	assert.Equal(t, wantErr, err)
	assert.Equal(t, StateFailed, future.State())
}

func TestThenComposesOnSuccess(t *testing.T) {
	upstream := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		return 2, nil
	})
	downstream := Then(upstream, func(v int) (string, error) {
		if v == 2 {
			return "two", nil
		}
		return "", nil
	})

	result, err := AwaitBlocking(context.Background(), downstream)
	require.NoError(t, err)
	assert.Equal(t, "two", result)
}

func TestThenCatchRecoversFromFailure(t *testing.T) {
	upstream := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		return 0, ralpherrors.New(ralpherrors.KindNetwork, "unreachable")
	})
	downstream := ThenCatch(upstream,
		func(v int) (int, error) { return v, nil },
		func(err error) (int, error) { return -1, nil },
	)

	result, err := AwaitBlocking(context.Background(), downstream)
	require.NoError(t, err)
	assert.Equal(t, -1, result)
}

func TestThenPropagatesUnhandledFailure(t *testing.T) {
	wantErr := ralpherrors.New(ralpherrors.KindNetwork, "unreachable")
	upstream := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		return 0, wantErr
	})
	downstream := Then(upstream, func(v int) (int, error) { return v, nil })

	_, err := AwaitBlocking(context.Background(), downstream)
	assert.Equal(t, wantErr, err)
}

func TestCancelIsCooperativeAndIdempotent(t *testing.T) {
	started := make(chan struct{})
	future := Async(context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		close(started)
		for !n.CancellationRequested() {
			time.Sleep(time.Millisecond)
		}
		return 0, ralpherrors.New(ralpherrors.KindCanceled, "canceled by request")
	})

	<-started
	future.Cancel()
	future.Cancel()

	_, err := AwaitBlocking(context.Background(), future)
	assert.Error(t, err)
	assert.Equal(t, StateCanceled, future.State())
}

func TestSubscribeBeforeTerminationIsCalledOnce(t *testing.T) {
	promise, future := New[int]()
	calls := 0
	future.Subscribe(func(st State, v int, err error) {
		calls++
	})
	promise.Resolve(7)
	promise.Resolve(99) // second settle is a no-op

	// give the synchronous subscriber dispatch a moment in case it were
	// (incorrectly) asynchronous
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestSubscribeAfterTerminationReplaysSynchronously(t *testing.T) {
	promise, future := New[int]()
	promise.Resolve(5)

	var got int
	future.Subscribe(func(st State, v int, err error) {
		got = v
	})
	assert.Equal(t, 5, got)
}

func TestAwaitDelegatesProgressAndStatus(t *testing.T) {
	pool := NewPool(2)
	proceed := make(chan struct{})
	sub := AsyncOn(pool, context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		<-proceed
		n.Progress(1, 2)
		n.SetStatus("working")
		return 9, nil
	})

	outer := AsyncOn(pool, context.Background(), func(ctx context.Context, n Notifier) (int, error) {
		if err := n.Await(ctx, sub); err != nil {
			return 0, err
		}
		return 1, nil
	})

	// let outer attach to sub before sub reports anything
	time.Sleep(20 * time.Millisecond)
	close(proceed)

	result, err := AwaitBlocking(context.Background(), outer)
	require.NoError(t, err)
	assert.Equal(t, 1, result)
	current, total := outer.Progress()
	assert.Equal(t, int64(1), current)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "working", outer.Status())
}

func TestAwaitBlockingRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	promise, future := New[int]()
	cancel()

	_, err := AwaitBlocking(ctx, future)
	assert.Error(t, err)
	_ = promise
}
