package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/acquire"
	"github.com/cperrin88/ralph/pkg/logger"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		group       string
		configPairs []string
	)

	cmd := &cobra.Command{
		Use:   "install PACKAGE[@REQUIREMENT]...",
		Short: "Install packages into a group",
		Long: `Resolve each "name[@requirement]" query to the highest matching
version visible from the target database and install it into the named
group. A failing query does not abort the batch: every query is attempted
and the command exits non-zero only if at least one failed.`,
		Args: cobra.MinimumNArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.Flags().StringVar(&group, "group", "", "installation group name (default group if omitted)")
	cmd.Flags().StringArrayVar(&configPairs, "config", nil, "K=V configuration entries applied to every installed package")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runInstall(*scope, group, configPairs, args)
	}
	return cmd
}

func runInstall(scopeFlag, group string, configPairs, queries []string) error {
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

	cfg, err := parseConfigFlags(configPairs)
	if err != nil {
		return err
	}

	pipeline := acquire.NewPipeline(db)
	result, err := pipeline.Install(context.Background(), group, queries, cfg)
	if err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			logger.Error("Install failed", logrus.Fields{"query": outcome.Query, "error": outcome.Err.Error()})
			continue
		}
		logger.Success("Installed", logrus.Fields{
			"query":   outcome.Query,
			"package": outcome.Package.Name,
			"version": outcome.Package.Version.String(),
			"group":   group,
		})
	}

	return result.Err()
}
