package task

import "context"

// Notifier is the in-task API available to a producer closure scheduled
// via Async: report progress, report status, await a subordinate task
// while mirroring its progress upward, and observe cancellation requests.
type Notifier struct {
	s *state
}

// Progress reports (current, total) progress counters. Monotonic updates
// are the caller's responsibility; Notifier itself does not enforce
// monotonicity, only storage and delegation.
func (n Notifier) Progress(current, total int64) {
	n.s.setProgress(current, total)
}

// SetStatus reports a human-readable status string.
func (n Notifier) SetStatus(status string) {
	n.s.setStatus(status)
}

// Await blocks until sub terminates, mirroring its progress and status
// onto n's task for the duration, and returns sub's terminal error (nil
// on success). This is how a composite task like "fetch then checkout"
// reports a single unified progress stream.
func (n Notifier) Await(ctx context.Context, sub AnyFuture) error {
	return sub.awaitDelegated(ctx, n.s)
}

// CancellationRequested reports whether the task's Future.Cancel was
// called. Producers should poll this at natural suspension points and
// return a Canceled-kind failure if set.
func (n Notifier) CancellationRequested() bool {
	return n.s.cancelRequested.Load()
}
