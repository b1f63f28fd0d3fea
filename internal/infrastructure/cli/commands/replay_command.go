package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/application/replay"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// NewReplayCommand re-runs a stored command with placeholder bindings. The
// process exits with the command's own exit code.
func NewReplayCommand(container *app.Container) *cobra.Command {
	var (
		dryRun  bool
		quiet   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay <id> [name=value...]",
		Short: "Re-run a stored command, substituting {{placeholders}}",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := helpers.ParseID(args[0])
			if err != nil {
				return err
			}
			bindings, err := helpers.ParseBindings(args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dryRun {
				rec, ok, err := container.Store.Get(ctx, id)
				if err != nil {
					return err
				}
				if !ok || rec.Command == "" {
					return errors.Wrapf(domain.ErrNotFound, "record %d has no command", id)
				}
				command, missing := replay.Substitute(rec.Command, bindings)
				fmt.Fprintln(cmd.OutOrStdout(), command)
				if len(missing) > 0 {
					helpers.PrintWarnings(cmd.ErrOrStderr(), []string{"unbound placeholders: " + strings.Join(missing, ", ")})
				}
				return nil
			}

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			code, err := container.ReplayEngine.Replay(ctx, id, bindings)
			if err != nil {
				return err
			}
			if !quiet {
				rec, ok, err := container.Store.Get(ctx, id)
				if err == nil && ok && rec.Result != nil {
					fmt.Fprint(cmd.OutOrStdout(), rec.Result.Output)
				}
			}
			return helpers.CommandExit(code)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the substituted command without running it")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the captured output")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound execution time (0 for none)")
	return cmd
}
