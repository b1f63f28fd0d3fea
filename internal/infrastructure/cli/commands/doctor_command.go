package commands

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose config, store, rules and generator setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd, cmd.OutOrStdout(), container)
		},
	}
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, out io.Writer, container *app.Container) error {
	if container.DoctorService == nil {
		return errors.New("doctor service unavailable")
	}

	report, err := container.DoctorService.Run(cmd.Context())

	// Display report even if there were errors
	helpers.RenderHealth(out, report)

	if err != nil {
		return errors.Wrap(err, "diagnostics completed with errors")
	}
	if !report.Healthy() {
		return &helpers.ExitError{Code: helpers.ExitFailure, Err: errors.New("health checks failed"), Silent: true}
	}
	return nil
}
