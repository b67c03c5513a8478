package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectVendorDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/dev/myapp", "vendor"), ProjectVendorDir("/home/dev/myapp"))
}

func TestUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir, err := UserConfigDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Contains(t, dir, "ralph")
	assert.Contains(t, dir, home)
}

func TestSystemConfigDirIsAbsolute(t *testing.T) {
	assert.True(t, filepath.IsAbs(SystemConfigDir()))
}

func TestValidOSAndArch(t *testing.T) {
	assert.Contains(t, ValidOS(), OSLinux)
	assert.Contains(t, ValidOS(), OSDarwin)
	assert.Contains(t, ValidArch(), ArchAMD64)
	assert.Contains(t, ValidArch(), ArchARM64)
}
