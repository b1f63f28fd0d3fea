package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/infrastructure/store"
	"github.com/doeshing/qa/internal/pkg/filesystem"
)

// NewImportLegacyCommand imports records kept as <id>.query/.command/.result/.meta files.
func NewImportLegacyCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <dir>",
		Short: "Import records from the per-field file layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := store.ImportLegacy(cmd.Context(), filesystem.ExpandPath(args[0]), container.Store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d records into %s\n", report.Imported, container.Store.Location())
			for _, id := range report.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s\n", id)
			}
			return nil
		},
	}
}
