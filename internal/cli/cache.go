package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/cache"
	"github.com/cperrin88/ralph/pkg/database"
)

// NewCacheCmd creates the cache command with its info/clean subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and reclaim disk space used by source mirrors",
		Long:  "Report on, or remove, the git working trees a database scope has checked out under its sources directory.",
	}

	cmd.AddCommand(newCacheInfoCmd(), newCacheCleanCmd())
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the mirror cache's disk usage",
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		return runCacheInfo(*scope)
	}
	return cmd
}

func runCacheInfo(scopeFlag string) error {
	db, err := openScopeDatabase(scopeFlag)
	if err != nil {
		return err
	}

	op := cache.NewOperation(cache.NewManager(db.Root()))
	summary, err := op.GetInfo()
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

func newCacheCleanCmd() *cobra.Command {
	var all, mirrors, stale bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached source mirrors",
		Long:  "Remove mirror working trees from the target scope. With no flags, removes every mirror; --stale removes only mirrors whose source is no longer registered.",
	}
	scope := databaseFlag(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "remove every mirror (default)")
	cmd.Flags().BoolVar(&mirrors, "mirrors", false, "remove every mirror")
	cmd.Flags().BoolVar(&stale, "stale", false, "remove only mirrors of unregistered sources")

	cmd.RunE = func(*cobra.Command, []string) error {
		return runCacheClean(*scope, all, mirrors, stale)
	}
	return cmd
}

func runCacheClean(scopeFlag string, all, mirrors, stale bool) error {
	db, err := openScopeDatabase(scopeFlag)
	if err != nil {
		return err
	}

	manager := cache.NewManager(db.Root())
	if stale {
		known := make([]string, 0, len(db.SourcesVisible()))
		for _, src := range db.SourcesVisible() {
			if own, ok := db.Source(src.Name()); ok && own == src {
				known = append(known, src.Name())
			}
		}
		result, err := manager.Clean(cache.CleanOptions{Stale: true, Known: known})
		if err != nil {
			return fmt.Errorf("cleaning stale mirrors: %w", err)
		}
		fmt.Printf("Freed %d bytes from stale mirrors.\n", result.TotalFreed)
		return nil
	}

	op := cache.NewOperation(manager)
	summary, err := op.Clean(all, mirrors, false)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// openScopeDatabase opens the database chain for scopeFlag using the
// current working directory as the project root.
func openScopeDatabase(scopeFlag string) (*database.Database, error) {
	target, err := resolveTargetScope(scopeFlag)
	if err != nil {
		return nil, err
	}
	projectDir, err := currentProjectDir()
	if err != nil {
		return nil, err
	}
	if _, err := loadConfig(); err != nil {
		return nil, err
	}
	db, err := openDatabase(target, projectDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
