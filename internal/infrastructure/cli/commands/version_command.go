package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/version"
)

// NewVersionCommand prints build metadata. --short prints only the version,
// for scripts that compare it.
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show qa version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version.Short())
				return nil
			}
			fmt.Fprint(out, version.Describe())
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	return cmd
}
