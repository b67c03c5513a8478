package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/acquire"
	"github.com/cperrin88/ralph/pkg/logger"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "remove PACKAGE[@REQUIREMENT]...",
		Short: "Remove packages from a group",
		Long: `Resolve each query and remove the resolved package from the named
group. Removing a package that is not installed is not an error. No
network access is performed.`,
		Args: cobra.MinimumNArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.Flags().StringVar(&group, "group", "", "installation group name (default group if omitted)")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runRemove(*scope, group, args)
	}
	return cmd
}

func runRemove(scopeFlag, group string, queries []string) error {
	target, err := resolveTargetScope(scopeFlag)
	if err != nil {
		return err
	}
	projectDir, err := currentProjectDir()
	if err != nil {
		return err
	}
	if _, err := loadConfig(); err != nil {
		return err
	}
	db, err := openDatabase(target, projectDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	pipeline := acquire.NewPipeline(db)
	result, err := pipeline.Remove(context.Background(), group, queries)
	if err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			logger.Error("Remove failed", logrus.Fields{"query": outcome.Query, "error": outcome.Err.Error()})
			continue
		}
		logger.Success("Removed", logrus.Fields{"query": outcome.Query, "group": group})
	}

	return result.Err()
}
