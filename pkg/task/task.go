// Package task implements the async task abstraction: a Promise/Future
// pair with progress, status, cooperative cancellation and progress
// delegation between a subordinate and an outer task.
package task

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// State is a task's lifecycle state.
type State int

const (
	StateRunning State = iota
	StateFinished
	StateCanceled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// state is the shared, non-generic core behind a Promise/Future pair. It
// holds everything that doesn't depend on the result type T, so progress
// delegation and cancellation can be expressed without generics.
type state struct {
	id uuid.UUID

	mu              sync.Mutex
	terminal        State
	result          any
	err             error
	progressCurrent int64
	progressTotal   int64
	status          string
	mirror          *state
	subscribers     []func()

	done            chan struct{}
	once            sync.Once
	cancelRequested atomic.Bool
}

func newState() *state {
	return &state{id: uuid.New(), done: make(chan struct{})}
}

// resolve transitions s to a terminal state exactly once. Subsequent
// calls are no-ops, since a Promise may only be settled once.
func (s *state) resolve(terminal State, result any, err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.terminal = terminal
		s.result = result
		s.err = err
		subs := s.subscribers
		s.subscribers = nil
		s.mu.Unlock()

		close(s.done)
		for _, sub := range subs {
			sub()
		}
	})
}

func (s *state) setProgress(current, total int64) {
	s.mu.Lock()
	s.progressCurrent, s.progressTotal = current, total
	mirror := s.mirror
	s.mu.Unlock()
	if mirror != nil {
		mirror.setProgress(current, total)
	}
}

func (s *state) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	mirror := s.mirror
	s.mu.Unlock()
	if mirror != nil {
		mirror.setStatus(status)
	}
}

func (s *state) setMirror(outer *state) {
	s.mu.Lock()
	s.mirror = outer
	s.mu.Unlock()
}

// awaitDelegated blocks until s terminates, mirroring its progress and
// status onto outer for the duration, then returns s's terminal error (nil
// on success).
func (s *state) awaitDelegated(ctx context.Context, outer *state) error {
	s.setMirror(outer)
	select {
	case <-s.done:
	case <-ctx.Done():
		s.setMirror(nil)
		return ctx.Err()
	}
	s.setMirror(nil)
	return s.err
}

// subscribe registers fn to run exactly once when s terminates. If s is
// already terminal, fn runs synchronously before subscribe returns.
func (s *state) subscribe(fn func()) {
	s.mu.Lock()
	if s.terminal != StateRunning {
		s.mu.Unlock()
		fn()
		return
	}
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Promise is the producer side of a task: it owns the eventual result
// slot and settles it exactly once.
type Promise[T any] struct {
	s *state
}

// Future is the consumer side of a task: cheaply copyable, observable,
// and awaitable.
type Future[T any] struct {
	s *state
}

// New creates a linked Promise/Future pair in the Running state.
func New[T any]() (Promise[T], Future[T]) {
	s := newState()
	return Promise[T]{s}, Future[T]{s}
}

// ID returns the task's correlation identifier.
func (f Future[T]) ID() uuid.UUID { return f.s.id }

// Resolve settles the promise with a successful result. A second call is
// a no-op.
func (p Promise[T]) Resolve(value T) {
	p.s.resolve(StateFinished, value, nil)
}

// Fail settles the promise with a typed failure. If err classifies as
// KindCanceled the task's terminal state is Canceled rather than Failed.
func (p Promise[T]) Fail(err error) {
	terminal := StateFailed
	if ralpherrors.Is(err, ralpherrors.KindCanceled) {
		terminal = StateCanceled
	}
	var zero T
	p.s.resolve(terminal, zero, err)
}

// Notifier returns the in-task API bound to this promise's underlying
// task state, for producer closures to report progress and observe
// cancellation.
func (p Promise[T]) Notifier() Notifier {
	return Notifier{s: p.s}
}

// Future returns the consumer handle linked to this promise.
func (p Promise[T]) Future() Future[T] {
	return Future[T]{p.s}
}

// State returns the task's current lifecycle state.
func (f Future[T]) State() State {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.terminal
}

// Progress returns the most recently reported (current, total) counters.
func (f Future[T]) Progress() (current, total int64) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.progressCurrent, f.s.progressTotal
}

// Status returns the most recently reported status string.
func (f Future[T]) Status() string {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.status
}

// Cancel requests cancellation. It is cooperative: the producer observes
// it via Notifier.CancellationRequested and decides whether and when to
// stop. Idempotent.
func (f Future[T]) Cancel() {
	f.s.cancelRequested.Store(true)
}

// Subscribe registers onTerminal to run exactly once when the task
// reaches a terminal state, receiving its state, result and error.
// Observers attached after termination are called synchronously with
// the already-settled terminal values.
func (f Future[T]) Subscribe(onTerminal func(State, T, error)) {
	f.s.subscribe(func() {
		f.s.mu.Lock()
		terminal, err := f.s.terminal, f.s.err
		result, _ := f.s.result.(T)
		f.s.mu.Unlock()
		onTerminal(terminal, result, err)
	})
}

// awaitDelegated implements AnyFuture, letting a Notifier mirror this
// future's progress/status upward while awaiting it.
func (f Future[T]) awaitDelegated(ctx context.Context, outer *state) error {
	return f.s.awaitDelegated(ctx, outer)
}

// AnyFuture is the type-erased view of a Future used by Notifier.Await,
// since Go methods cannot introduce new type parameters.
type AnyFuture interface {
	awaitDelegated(ctx context.Context, outer *state) error
}

// AwaitBlocking blocks the calling goroutine until f terminates,
// returning its result or rethrowing its typed failure.
func AwaitBlocking[T any](ctx context.Context, f Future[T]) (T, error) {
	var zero T
	select {
	case <-f.s.done:
	case <-ctx.Done():
		return zero, ralpherrors.Wrap(ctx.Err(), ralpherrors.KindCanceled, "awaiting task")
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.terminal == StateFailed || f.s.terminal == StateCanceled {
		return zero, f.s.err
	}
	result, _ := f.s.result.(T)
	return result, nil
}

// Then composes a continuation that runs after f terminates, producing a
// new Future[U]. An upstream failure skips onValue and propagates to the
// result future unchanged; see ThenCatch to intercept it.
func Then[T, U any](f Future[T], onValue func(T) (U, error)) Future[U] {
	return ThenCatch(f, onValue, nil)
}

// ThenCatch composes a continuation with an error handler. If f fails or
// is canceled, onError (when non-nil) gets a chance to recover; if
// onError is nil or itself errors, the failure propagates to the result.
func ThenCatch[T, U any](f Future[T], onValue func(T) (U, error), onError func(error) (U, error)) Future[U] {
	promise, future := New[U]()

	f.Subscribe(func(st State, value T, err error) {
		go func() {
			if st == StateFinished {
				result, cbErr := onValue(value)
				if cbErr != nil {
					promise.Fail(cbErr)
					return
				}
				promise.Resolve(result)
				return
			}

			if onError != nil {
				result, cbErr := onError(err)
				if cbErr == nil {
					promise.Resolve(result)
					return
				}
				promise.Fail(cbErr)
				return
			}
			promise.Fail(err)
		}()
	})

	return future
}
