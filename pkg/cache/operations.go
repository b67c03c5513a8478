package cache

import (
	"fmt"
	"time"

	"github.com/cperrin88/ralph/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Operation wraps a Manager with the higher-level, human-readable behavior
// the CLI's "cache" command exposes.
type Operation struct {
	manager Manager
}

// NewOperation creates a cache operation over manager.
func NewOperation(manager Manager) *Operation {
	return &Operation{manager: manager}
}

// Clean cleans the mirror cache based on the provided flags.
func (op *Operation) Clean(all, mirrors, stale bool) (string, error) {
	options := CleanOptions{
		All:     all,
		Mirrors: mirrors,
		Stale:   stale,
	}

	if !all && !mirrors && !stale {
		options.All = true
	}

	logger.Debug("Cleaning source mirror cache", logrus.Fields{
		"all":     options.All,
		"mirrors": options.Mirrors,
		"stale":   options.Stale,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.TotalFreed == 0 {
		return "No files were removed from the cache.", nil
	}

	msg := fmt.Sprintf("Successfully cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	if result.MirrorFreed > 0 {
		msg += fmt.Sprintf("\n- Mirrors: %s", formatBytes(result.MirrorFreed))
	}
	if result.StaleFreed > 0 {
		msg += fmt.Sprintf("\n- Stale mirrors: %s", formatBytes(result.StaleFreed))
	}
	return msg, nil
}

// GetInfo returns a human-readable summary of the mirror cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	lastCleaned := "never"
	if !info.LastCleaned.IsZero() {
		lastCleaned = info.LastCleaned.Format(time.RFC1123)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:    %s
  Total Size:   %s
  Mirrors:      %s (%d sources)
  Last Cleaned: %s`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.MirrorSize),
		info.MirrorCount,
		lastCleaned,
	), nil
}

// GetDirectory returns the scope root the underlying manager operates on.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// SetDirectory changes the scope root the underlying manager operates on.
func (op *Operation) SetDirectory(dir string) error {
	if dir == "" {
		return fmt.Errorf("cache directory cannot be empty")
	}

	logger.Debug("Setting cache directory", logrus.Fields{"directory": dir})
	return op.manager.SetDirectory(dir)
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
