package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cperrin88/ralph/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, 5, cfg.Settings.MaxConcurrent)
	assert.Equal(t, "text", cfg.Settings.OutputFormat)
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  log_level: debug
  platform:
    os: linux
    arch: amd64
    prefer_native: true
http_credentials:
  - url_prefix: https://git.example.com/
    basic:
      username: alice
      password: s3cret`

	err := os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "linux", cfg.Settings.Platform.OS)
	assert.Equal(t, "amd64", cfg.Settings.Platform.Arch)
	assert.True(t, cfg.Settings.Platform.PreferNative)
	require.Len(t, cfg.HTTPCredentials, 1)
	assert.Equal(t, "https://git.example.com/", cfg.HTTPCredentials[0].URLPrefix)
	require.NotNil(t, cfg.HTTPCredentials[0].Basic)
	assert.Equal(t, "alice", cfg.HTTPCredentials[0].Basic.Username)
}

func TestLoadConfigMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.Platform.OS = "linux"
	cfg.Settings.Platform.Arch = "amd64"

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	err := cfg.SaveConfig(configPath)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	loadedCfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, loadedCfg)

	assert.Equal(t, "debug", loadedCfg.Settings.LogLevel)
	assert.Equal(t, "linux", loadedCfg.Settings.Platform.OS)
	assert.Equal(t, "amd64", loadedCfg.Settings.Platform.Arch)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			config: DefaultConfig(),
		},
		{
			name: "invalid OS",
			config: &Config{
				Settings: Settings{
					OutputFormat:  "text",
					LogLevel:      "info",
					MaxConcurrent: 1,
					Platform: PlatformConfig{
						OS:   "invalid-os",
						Arch: "amd64",
					},
				},
			},
			wantErr: true,
			errMsg:  "invalid platform os",
		},
		{
			name: "invalid Arch",
			config: &Config{
				Settings: Settings{
					OutputFormat:  "text",
					LogLevel:      "info",
					MaxConcurrent: 1,
					Platform: PlatformConfig{
						OS:   "linux",
						Arch: "invalid-arch",
					},
				},
			},
			wantErr: true,
			errMsg:  "invalid platform arch",
		},
		{
			name: "invalid output format",
			config: &Config{
				Settings: Settings{
					OutputFormat:  "xml",
					LogLevel:      "info",
					MaxConcurrent: 1,
				},
			},
			wantErr: true,
			errMsg:  "invalid output_format",
		},
		{
			name: "zero max concurrent",
			config: &Config{
				Settings: Settings{
					OutputFormat:  "text",
					LogLevel:      "info",
					MaxConcurrent: 0,
				},
			},
			wantErr: true,
			errMsg:  "max_concurrent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))
}
