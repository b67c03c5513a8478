package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/ralph/pkg/model"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify database consistency",
		Long:  "Check that every installed package in every group at the target scope still resolves against its source, reporting any that no longer do.",
	}
	scope := databaseFlag(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		return runVerify(*scope)
	}
	return cmd
}

func runVerify(scopeFlag string) error {
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

	var problems int
	for _, groupName := range db.GroupNames() {
		group := db.Group(groupName)
		for _, entry := range group.Installed() {
			candidates, err := db.FindPackages(context.Background(), entry.Package.Name, model.AnyVersion)
			if err != nil {
				fmt.Printf("group %s: %s@%s: error checking: %v\n", groupName, entry.Package.Name, entry.Package.Version, err)
				problems++
				continue
			}
			if !anyMatches(candidates, entry.Package) {
				fmt.Printf("group %s: %s@%s is installed but no longer resolvable from any visible source\n",
					groupName, entry.Package.Name, entry.Package.Version)
				problems++
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("verify found %d problem(s)", problems)
	}
	fmt.Println("Database is consistent")
	return nil
}

func anyMatches(candidates []model.Package, want model.Package) bool {
	for _, c := range candidates {
		if c.Equal(want) {
			return true
		}
	}
	return false
}
