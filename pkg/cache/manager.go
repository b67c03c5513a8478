package cache

import (
	"os"
	"path/filepath"
	"time"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// mirrorsDirName is the fixed subdirectory, inside a scope root, that holds
// one git working tree per registered source.
const mirrorsDirName = "sources"

// DefaultManager implements Manager over a single scope root directory
// (a project's vendor dir, or the user/system config dir).
type DefaultManager struct {
	directory string
}

// NewManager creates a cache manager rooted at directory.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{directory: directory}
}

// Clean removes mirror directories according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	if !options.Mirrors && !options.Stale {
		options.All = true
	}

	mirrorsDir := filepath.Join(cm.directory, mirrorsDirName)

	if options.All || options.Mirrors {
		size, err := cleanDirectory(mirrorsDir)
		if err != nil {
			return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "cleaning mirror cache")
		}
		result.MirrorFreed = size
		result.TotalFreed += size
		return result, nil
	}

	if options.Stale {
		size, err := cm.cleanStaleMirrors(mirrorsDir, options.Known)
		if err != nil {
			return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "cleaning stale mirrors")
		}
		result.StaleFreed = size
		result.TotalFreed += size
	}

	return result, nil
}

// cleanStaleMirrors removes mirror directories whose name is not in known.
func (cm *DefaultManager) cleanStaleMirrors(mirrorsDir string, known []string) (int64, error) {
	entries, err := os.ReadDir(mirrorsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "reading "+mirrorsDir)
	}

	keep := make(map[string]bool, len(known))
	for _, name := range known {
		keep[name] = true
	}

	var freed int64
	for _, entry := range entries {
		if !entry.IsDir() || keep[entry.Name()] {
			continue
		}
		dir := filepath.Join(mirrorsDir, entry.Name())
		size, _, err := getDirSizeAndFiles(dir)
		if err != nil {
			return freed, err
		}
		if err := os.RemoveAll(dir); err != nil {
			return freed, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "removing "+dir)
		}
		freed += size
	}
	return freed, nil
}

// GetInfo returns a summary of the mirror cache's disk usage.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{
		Directory:   cm.directory,
		LastCleaned: time.Now(),
	}

	mirrorsDir := filepath.Join(cm.directory, mirrorsDirName)
	entries, err := os.ReadDir(mirrorsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "reading "+mirrorsDir)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		size, _, err := getDirSizeAndFiles(filepath.Join(mirrorsDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		info.MirrorSize += size
		info.MirrorCount++
	}
	info.TotalSize = info.MirrorSize

	return info, nil
}

// GetDirectory returns the scope root this manager operates on.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory changes the scope root this manager operates on.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// cleanDirectory removes dir and returns the number of bytes it held,
// leaving an empty directory with MirrorDirPerm behind.
func cleanDirectory(dir string) (int64, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	size, _, err := getDirSizeAndFiles(dir)
	if err != nil {
		return 0, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "removing "+dir)
	}
	if err := os.MkdirAll(dir, os.FileMode(MirrorDirPerm)); err != nil {
		return size, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "recreating "+dir)
	}
	return size, nil
}

// getDirSizeAndFiles walks dir, summing file sizes and counting regular files.
func getDirSizeAndFiles(dir string) (size int64, count int, err error) {
	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		return 0, 0, nil
	}

	walkErr := filepath.Walk(dir, func(_ string, info os.FileInfo, innerErr error) error {
		if innerErr != nil {
			return innerErr
		}
		if !info.IsDir() {
			size += info.Size()
			count++
		}
		return nil
	})
	if walkErr != nil {
		return size, count, ralpherrors.Wrap(walkErr, ralpherrors.KindFilesystem, "walking "+dir)
	}
	return size, count, nil
}
