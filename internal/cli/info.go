package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and configuration summary",
		Long:  "Display the resolved configuration and a summary of the target database scope: its root directory, registered sources and group count.",
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		return runInfo(*scope)
	}
	return cmd
}

func runInfo(scopeFlag string) error {
	target, err := resolveTargetScope(scopeFlag)
	if err != nil {
		return err
	}
	projectDir, err := currentProjectDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(target, projectDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	fmt.Printf("Scope:          %s\n", db.Scope())
	fmt.Printf("Root:           %s\n", db.Root())
	fmt.Printf("Sources:        %d (own and inherited)\n", len(db.SourcesVisible()))
	fmt.Printf("Groups:         %d\n", len(db.GroupNames()))
	fmt.Printf("Output format:  %s\n", cfg.Settings.OutputFormat)
	fmt.Printf("Log level:      %s\n", cfg.Settings.LogLevel)
	fmt.Printf("Max concurrent: %d\n", cfg.Settings.MaxConcurrent)
	fmt.Printf("Platform:       %s/%s\n", cfg.Settings.Platform.OS, cfg.Settings.Platform.Arch)
	return nil
}
