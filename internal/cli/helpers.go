package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/cperrin88/ralph/pkg/config"
	"github.com/cperrin88/ralph/pkg/credential"
	"github.com/cperrin88/ralph/pkg/database"
	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/gitremote"
	"github.com/cperrin88/ralph/pkg/logger"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/task"
)

// These variables are set by cmd/ralph's root command, mirroring the
// persistent flags every subcommand reads.
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig reads the ambient configuration from ConfigPath, falling
// back to the default per-user location, and applies it process-wide:
// the logger's level and color mode, the async task pool's worker count,
// the git HTTP client's timeout, and the credential broker. Every
// subcommand that touches the database or the network calls this before
// doing so.
func loadConfig() (*config.Config, error) {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("resolving default config path: %w", err)
		}
		path = defaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}

	logLevel := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		logLevel = "debug"
	}
	noColor := NoColor != nil && *NoColor
	logger.InitLogger(logLevel, noColor)

	task.SetDefaultPoolSize(cfg.Settings.MaxConcurrent)
	gitremote.SetHTTPTimeout(cfg.Settings.HTTPTimeout)

	credential.SetBroker(credential.NewStaticBroker(cfg.CredentialEntries()))
	return cfg, nil
}

// openDatabase resolves and opens the database chain up to and including
// scope: system alone, user chained to system, or project chained to
// user chained to system. projectDir is only consulted when scope is
// database.ScopeProject.
func openDatabase(scope database.Scope, projectDir string) (*database.Database, error) {
	var systemDB, userDB *database.Database
	var err error

	systemRoot, err := database.DatabasePath(database.ScopeSystem, "")
	if err != nil {
		return nil, err
	}
	systemDB, err = database.Create(database.ScopeSystem, systemRoot, nil)
	if err != nil {
		return nil, err
	}
	if scope == database.ScopeSystem {
		return systemDB, nil
	}

	userRoot, err := database.DatabasePath(database.ScopeUser, "")
	if err != nil {
		return nil, err
	}
	userDB, err = database.Create(database.ScopeUser, userRoot, systemDB)
	if err != nil {
		return nil, err
	}
	if scope == database.ScopeUser {
		return userDB, nil
	}

	projectRoot, err := database.DatabasePath(database.ScopeProject, projectDir)
	if err != nil {
		return nil, err
	}
	return database.Create(database.ScopeProject, projectRoot, userDB)
}

// parseScope maps a --database flag value to a database.Scope.
func parseScope(s string) (database.Scope, error) {
	switch database.Scope(s) {
	case database.ScopeProject, database.ScopeUser, database.ScopeSystem:
		return database.Scope(s), nil
	default:
		return "", ralpherrors.New(ralpherrors.KindBadArgument, "unknown --database scope %q", s)
	}
}

// parseConfigFlags turns a list of "K=V" strings into a
// model.PackageConfiguration.
func parseConfigFlags(pairs []string) (model.PackageConfiguration, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	cfg := make(model.PackageConfiguration, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, ralpherrors.New(ralpherrors.KindBadArgument, "--config value %q is not in K=V form", pair)
		}
		cfg[key] = value
	}
	return cfg, nil
}

func currentProjectDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "resolving current directory")
	}
	return dir, nil
}
