package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/database"
	"github.com/cperrin88/ralph/pkg/logger"
	"github.com/cperrin88/ralph/pkg/task"
	"github.com/sirupsen/logrus"
)

// NewSourcesCmd creates the sources command with its list/add/remove/show/
// update subcommands.
func NewSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage package sources",
		Long:  "Register, inspect and synchronize the git-mirrored sources a database draws packages from.",
	}

	cmd.AddCommand(
		newSourcesListCmd(),
		newSourcesAddCmd(),
		newSourcesRemoveCmd(),
		newSourcesShowCmd(),
		newSourcesUpdateCmd(),
	)

	return cmd
}

func databaseFlag(cmd *cobra.Command) *string {
	scope := string(database.ScopeProject)
	cmd.Flags().StringVar(&scope, "database", scope, "database scope to target: project, user or system")
	return &scope
}

func resolveTargetScope(scopeFlag string) (database.Scope, error) {
	return parseScope(scopeFlag)
}

func newSourcesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible sources",
		Long: `List the sources visible from the target database scope.

Listing with --database=project also shows user and system sources;
--database=user additionally shows system sources, for visibility.`,
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		return runSourcesList(*scope)
	}
	return cmd
}

func runSourcesList(scopeFlag string) error {
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

	sources := db.SourcesVisible()
	if len(sources) == 0 {
		fmt.Println("No sources registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tURL\tSTATE\tLAST UPDATED")
	for _, src := range sources {
		lastUpdated := "never"
		if !src.LastUpdated().IsZero() {
			lastUpdated = src.LastUpdated().Format("2006-01-02T15:04:05Z")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.Name(), src.URL(), src.State(), lastUpdated)
	}
	return w.Flush()
}

func newSourcesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Register a new source",
		Args:  cobra.ExactArgs(2),
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runSourcesAdd(*scope, args[0], args[1])
	}
	return cmd
}

func runSourcesAdd(scopeFlag, name, url string) error {
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

	src, err := db.RegisterSource(name, url)
	if err != nil {
		return fmt.Errorf("registering source %s: %w", name, err)
	}

	logger.Info("Registered source, syncing", logrus.Fields{"name": name, "url": url})
	_, err = task.AwaitBlocking(context.Background(), src.Update(context.Background()))
	if err != nil {
		return fmt.Errorf("syncing newly registered source %s: %w", name, err)
	}
	if err := db.PersistSources(); err != nil {
		return fmt.Errorf("persisting sync state for %s: %w", name, err)
	}

	logger.Success("Source registered and synced", logrus.Fields{"name": name})
	return nil
}

func newSourcesRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Unregister a source",
		Args:  cobra.ExactArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runSourcesRemove(*scope, args[0])
	}
	return cmd
}

func runSourcesRemove(scopeFlag, name string) error {
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

	if err := db.UnregisterSource(name); err != nil {
		return fmt.Errorf("removing source %s: %w", name, err)
	}
	logger.Success("Source removed", logrus.Fields{"name": name})
	return nil
}

func newSourcesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show details about one source",
		Args:  cobra.ExactArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runSourcesShow(*scope, args[0])
	}
	return cmd
}

func runSourcesShow(scopeFlag, name string) error {
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

	src, ok := db.Source(name)
	if !ok {
		return fmt.Errorf("no source named %q registered at this scope", name)
	}

	fmt.Printf("Name:         %s\n", src.Name())
	fmt.Printf("URL:          %s\n", src.URL())
	fmt.Printf("State:        %s\n", src.State())
	fmt.Printf("Mirror:       %s\n", src.MirrorDir())
	fmt.Printf("Packages:     %d\n", len(src.Packages()))
	if !src.LastUpdated().IsZero() {
		fmt.Printf("Last updated: %s\n", src.LastUpdated().Format("2006-01-02T15:04:05Z"))
	} else {
		fmt.Println("Last updated: never")
	}
	return nil
}

func newSourcesUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [NAME...]",
		Short: "Synchronize one, several, or all registered sources",
		Long:  "Re-clones or pulls each named source's mirror. With no names, updates every source registered at this scope.",
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runSourcesUpdate(*scope, args)
	}
	return cmd
}

func runSourcesUpdate(scopeFlag string, names []string) error {
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

	if len(names) == 0 {
		for _, src := range db.SourcesVisible() {
			if own, ok := db.Source(src.Name()); ok && own == src {
				names = append(names, src.Name())
			}
		}
	}

	var failed int
	for _, name := range names {
		src, ok := db.Source(name)
		if !ok {
			logger.Error("Unknown source, skipping", logrus.Fields{"name": name})
			failed++
			continue
		}
		logger.Info("Updating source", logrus.Fields{"name": name})
		if _, err := task.AwaitBlocking(context.Background(), src.Update(context.Background())); err != nil {
			logger.Error("Failed to update source", logrus.Fields{"name": name, "error": err.Error()})
			failed++
			continue
		}
		if err := db.PersistSources(); err != nil {
			logger.Error("Failed to persist sync state", logrus.Fields{"name": name, "error": err.Error()})
			failed++
			continue
		}
		logger.Success("Source up to date", logrus.Fields{"name": name})
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed to update", failed, len(names))
	}
	return nil
}
