package credential

import "strings"

// Entry binds a URL prefix to credential Material to use when a Query's
// URL starts with that prefix. Longer prefixes are matched first.
type Entry struct {
	URLPrefix string
	Material  Material
}

// NewStaticBroker builds a Broker backed by a fixed table of
// URL-prefix-keyed credentials, typically loaded from configuration. It
// never prompts: a Query with no matching entry resolves Invalid so the
// caller can try the next allowed Type, or Error once all are exhausted.
func NewStaticBroker(entries []Entry) Broker {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	// Longest prefix first, so a specific entry wins over a shorter
	// catch-all one registered for the same host.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j].URLPrefix) > len(sorted[j-1].URLPrefix); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	return func(q Query) Response {
		for _, e := range sorted {
			if !strings.HasPrefix(q.URL, e.URLPrefix) {
				continue
			}
			if len(q.Allowed) > 0 && q.Allowed[0] != e.Material.Type {
				continue
			}
			return Response{Outcome: Valid, Material: e.Material}
		}
		return Response{Outcome: Invalid}
	}
}
