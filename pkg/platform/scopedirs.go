package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// SystemConfigDir returns the fixed OS-wide root for the "system" database
// scope, e.g. "/etc/ralph" on Unix.
func SystemConfigDir() string {
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			return filepath.Join(pd, "ralph")
		}
		return `C:\ProgramData\ralph`
	}
	return "/etc/ralph"
}

// UserConfigDir returns the per-user root for the "user" database scope,
// honoring $XDG_CONFIG_HOME on Unix and the OS equivalent elsewhere.
func UserConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ralph"), nil
}

// ProjectVendorDir returns the root for the "project" database scope
// given the project's root directory.
func ProjectVendorDir(projectDir string) string {
	return filepath.Join(projectDir, "vendor")
}
