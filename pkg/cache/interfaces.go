package cache

import "time"

// Manager reports on and reclaims disk space used by a scope's source
// mirrors (the git working trees checked out under "<scope root>/sources").
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to remove from a scope's mirror cache.
type CleanOptions struct {
	All     bool
	Mirrors bool
	// Stale restricts the clean to mirror directories that no longer
	// correspond to a registered source, instead of wiping every mirror.
	Stale bool
	// Known lists the source names currently registered in the scope,
	// used to decide which mirror directories are stale. Ignored unless
	// Stale is set.
	Known []string
}

// CleanResult reports how much space a Clean call reclaimed.
type CleanResult struct {
	TotalFreed  int64
	MirrorFreed int64
	StaleFreed  int64
}

// Info summarizes the on-disk footprint of a scope's mirror cache.
type Info struct {
	Directory    string
	TotalSize    int64
	MirrorSize   int64
	MirrorCount  int
	LastCleaned  time.Time
}
