package gitremote

import (
	"regexp"

	"github.com/cperrin88/ralph/pkg/task"
)

var progressCounts = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// progressSink adapts go-git's line-oriented sideband progress text into
// the (current,total) counters a Notifier reports. go-git writes lines
// like "Receiving objects: 42% (21/50)"; only the parenthesized counts
// are structured enough to trust.
type progressSink struct {
	notifier task.Notifier
	phase    string
}

func newProgressSink(n task.Notifier, phase string) *progressSink {
	n.SetStatus(phase)
	return &progressSink{notifier: n, phase: phase}
}

func (s *progressSink) Write(p []byte) (int, error) {
	if m := progressCounts.FindSubmatch(p); m != nil {
		current := parseIntOrZero(string(m[1]))
		total := parseIntOrZero(string(m[2]))
		s.notifier.Progress(current, total)
	}
	return len(p), nil
}

func parseIntOrZero(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
