package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/cli/commands"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
	WorkDir    string
}

// NewRootCmd wires the cobra root command. The caller owns the returned
// container and must Close it.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, *app.Container, error) {
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
		WorkDir:    opts.WorkDir,
	})
	if err != nil {
		return nil, nil, err
	}

	var verbose bool
	root := &cobra.Command{
		Use:   "qa",
		Short: "qa - query cache for shell command generation",
		Long: "qa remembers natural-language queries and the shell commands that answered them,\n" +
			"reusing a command when a new query matches a stored template or is similar enough\n" +
			"to one that succeeded before.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", opts.Verbose, "Enable debug logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(domain.ErrInvalidArgument, err.Error())
	})

	root.AddCommand(
		commands.NewNewCommand(container),
		commands.NewAskCommand(container),
		commands.NewSimilarCommand(container),
		commands.NewTemplateCommand(container),
		commands.NewSaveCommandCommand(container),
		commands.NewSaveResultCommand(container),
		commands.NewSaveMetaCommand(container),
		commands.NewShowCommand(container),
		commands.NewListCommand(container),
		commands.NewSearchCommand(container),
		commands.NewRankCommand(container),
		commands.NewStatsCommand(container),
		commands.NewCleanCommand(container),
		commands.NewReplayCommand(container),
		commands.NewRulesCommand(container),
		commands.NewImportLegacyCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, container, nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, opts Options, args []string, in io.Reader, out, errOut io.Writer) int {
	if hasVerboseFlag(args) {
		opts.Verbose = true
	}
	root, container, err := NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return helpers.ExitCode(err)
	}
	defer func() {
		if cerr := container.Close(); cerr != nil {
			fmt.Fprintln(errOut, "error:", cerr)
		}
	}()

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err = root.ExecuteContext(ctx)
	if err != nil && !helpers.IsSilent(err) {
		fmt.Fprintln(errOut, "error:", err)
	}
	return helpers.ExitCode(err)
}

// hasVerboseFlag lets the logger be built before cobra parses flags.
func hasVerboseFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--verbose" || arg == "--verbose=true" {
			return true
		}
	}
	return false
}
