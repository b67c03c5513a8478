package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/acquire"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "check PACKAGE[@REQUIREMENT]...",
		Short: "Check whether packages are installed in a group",
		Long:  "Resolve each query and report whether the resolved package is a member of the named group's installed set. Touches no network.",
		Args:  cobra.MinimumNArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.Flags().StringVar(&group, "group", "", "installation group name (default group if omitted)")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runCheck(*scope, group, args)
	}
	return cmd
}

func runCheck(scopeFlag, group string, queries []string) error {
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
	result, err := pipeline.Check(context.Background(), group, queries)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(w, "QUERY\tSTATUS\tDETAIL")
	for _, outcome := range result.Outcomes {
		status := "installed"
		detail := fmt.Sprintf("%s@%s", outcome.Package.Name, outcome.Package.Version.String())
		if outcome.Err != nil {
			status = "not installed"
			detail = outcome.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", outcome.Query, status, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return result.Err()
}
