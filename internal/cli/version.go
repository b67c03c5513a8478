package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags; it defaults to "dev" for
// locally built binaries.
var Version = "dev"

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ralph version",
		RunE: func(*cobra.Command, []string) error {
			fmt.Println(Version)
			return nil
		},
	}
}
