// Package config manages ralph's ambient settings: the handful of
// process-wide knobs (HTTP timeout, worker pool size, log level, output
// format, platform override, per-prefix HTTP credentials) that are not
// part of any scoped package database. Sources, groups and installed
// packages all live under pkg/database instead.
package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/fsutil"
	"github.com/cperrin88/ralph/pkg/platform"
)

// Config is the root of the on-disk settings file.
type Config struct {
	Settings        Settings               `yaml:"settings"`
	HTTPCredentials []HTTPCredentialConfig `yaml:"http_credentials,omitempty"`
}

// PlatformConfig overrides the auto-detected target platform.
type PlatformConfig struct {
	OS           string `yaml:"os,omitempty"`
	Arch         string `yaml:"arch,omitempty"`
	PreferNative bool   `yaml:"prefer_native,omitempty"`
}

// Settings holds the general, non-scoped application settings.
type Settings struct {
	HTTPTimeout   time.Duration  `yaml:"http_timeout"`
	MaxConcurrent int            `yaml:"max_concurrent"`
	OutputFormat  string         `yaml:"output_format"` // text, json
	LogLevel      string         `yaml:"log_level"`     // panic, fatal, error, warn, info, debug, trace
	Platform      PlatformConfig `yaml:"platform,omitempty"`
}

// Default configuration values.
const (
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultMaxConcurrent = 5
	YAMLIndent           = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			HTTPTimeout:   DefaultHTTPTimeout,
			MaxConcurrent: DefaultMaxConcurrent,
			OutputFormat:  "text",
			LogLevel:      "info",
			Platform: PlatformConfig{
				OS:           runtime.GOOS,
				Arch:         runtime.GOARCH,
				PreferNative: true,
			},
		},
	}
}

// LoadConfig loads configuration from path, falling back to DefaultConfig
// if the file does not exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, ralpherrors.New(ralpherrors.KindBadArgument, "config path must not be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindBadArgument, "resolving config path "+path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "opening config file "+path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "reading config data")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindSourceFormat, "parsing config yaml")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the configuration to path atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return ralpherrors.New(ralpherrors.KindBadArgument, "config path must not be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindBadArgument, "resolving config path "+path)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating temp config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return ralpherrors.Wrap(err, ralpherrors.KindLogic, "encoding config")
	}
	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "replacing config file")
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindLogic, "marshaling config")
	}
	return data, nil
}

// Validate checks that the configuration holds acceptable values.
func (c *Config) Validate() error {
	if c == nil {
		return ralpherrors.New(ralpherrors.KindBadArgument, "nil config")
	}
	if c.Settings.HTTPTimeout < 0 {
		return ralpherrors.New(ralpherrors.KindBadArgument, "http_timeout cannot be negative")
	}
	if c.Settings.MaxConcurrent < 1 {
		return ralpherrors.New(ralpherrors.KindBadArgument, "max_concurrent must be at least 1")
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Settings.OutputFormat] {
		return ralpherrors.New(ralpherrors.KindBadArgument, "invalid output_format %q", c.Settings.OutputFormat)
	}

	validLevels := map[string]bool{"panic": true, "fatal": true, "error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return ralpherrors.New(ralpherrors.KindBadArgument, "invalid log_level %q", c.Settings.LogLevel)
	}

	if err := validatePlatform(c.Settings.Platform); err != nil {
		return err
	}
	return nil
}

func validatePlatform(p PlatformConfig) error {
	if p.OS != "" {
		switch p.OS {
		case platform.OSWindows, platform.OSLinux, platform.OSDarwin,
			platform.OSFreeBSD, platform.OSOpenBSD, platform.OSNetBSD:
		default:
			return ralpherrors.New(ralpherrors.KindBadArgument, "invalid platform os %q", p.OS)
		}
	}
	if p.Arch != "" {
		switch p.Arch {
		case "amd64", "386", "arm", "arm64":
		default:
			return ralpherrors.New(ralpherrors.KindBadArgument, "invalid platform arch %q", p.Arch)
		}
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path under
// the user's config directory.
func GetDefaultConfigPath() (string, error) {
	dir, err := platform.UserConfigDir()
	if err != nil {
		return "", ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "resolving user config directory")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.Platform.OS == "" {
		c.Settings.Platform.OS = defaults.Settings.Platform.OS
	}
	if c.Settings.Platform.Arch == "" {
		c.Settings.Platform.Arch = defaults.Settings.Platform.Arch
	}
}
