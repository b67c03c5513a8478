package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/model"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search WILDCARD",
		Short: "Search package names visible from a database scope",
		Long:  "Search every source visible from the target scope for package names matching a shell-style wildcard.",
		Args:  cobra.ExactArgs(1),
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runSearch(*scope, args[0])
	}
	return cmd
}

func runSearch(scopeFlag, pattern string) error {
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

	names := db.PackageNames()
	var matched []string
	for _, name := range names {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return fmt.Errorf("invalid wildcard %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)

	if len(matched) == 0 {
		fmt.Printf("No packages matched %q\n", pattern)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSIONS")
	for _, name := range matched {
		pkgs, err := db.FindPackages(context.Background(), name, model.AnyVersion)
		if err != nil {
			return fmt.Errorf("listing versions of %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, versionList(pkgs))
	}
	return w.Flush()
}

func versionList(pkgs []model.Package) string {
	out := ""
	for i, p := range pkgs {
		if i > 0 {
			out += ", "
		}
		out += p.Version.String()
	}
	return out
}
