package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// NewNewCommand records a query as a pending record and prints its id.
func NewNewCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "new <query...>",
		Short: "Record a new query and print its id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := helpers.JoinArgs(args)
			if text == "" {
				return errors.Wrap(domain.ErrInvalidArgument, "query is empty")
			}
			id, err := container.Store.Create(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

// NewAskCommand resolves a query through templates, similar queries and the
// generator, and optionally runs the result.
func NewAskCommand(container *app.Container) *cobra.Command {
	var (
		run       bool
		yes       bool
		threshold int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Find or generate a command for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if cmd.Flags().Changed("threshold") {
				container.QueryService.Threshold = threshold
			}

			res, err := container.QueryService.Resolve(ctx, helpers.JoinArgs(args))
			if errors.Is(err, domain.ErrNoGenerator) {
				fmt.Fprintln(cmd.ErrOrStderr(), MsgNoGenerator)
				fmt.Fprintln(cmd.OutOrStdout(), res.ID)
				return &helpers.ExitError{Code: helpers.ExitNoMatch, Err: err, Silent: true}
			}
			if err != nil {
				return err
			}
			helpers.RenderResolution(cmd.OutOrStdout(), res)
			if !run {
				return nil
			}

			approved, err := helpers.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Run this command?", res.Command, yes)
			if err != nil || !approved {
				return err
			}
			result, err := container.QueryService.Run(ctx, res.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Output)
			return helpers.CommandExit(result.ExitCode)
		},
	}

	cmd.Flags().BoolVarP(&run, "run", "r", false, "Execute the command and record its result")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Run without confirmation")
	cmd.Flags().IntVar(&threshold, "threshold", container.Config.Matching.SimilarityThreshold, "Minimum similarity score for reuse (0-100)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Duration(container.Config.Execution.TimeoutSeconds)*time.Second, "Bound generation and execution time")
	return cmd
}

// NewSimilarCommand prints the id of the best similar successful query.
func NewSimilarCommand(container *app.Container) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "similar <query...>",
		Short: "Print the id of a similar successful query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 100 {
				return errors.Wrapf(domain.ErrInvalidArgument, "threshold must be 0-100, got %d", threshold)
			}
			m, ok, err := container.Matcher.FindSimilar(cmd.Context(), helpers.JoinArgs(args), threshold)
			if err != nil {
				return err
			}
			if !ok {
				return helpers.NoMatch()
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "t", container.Config.Matching.SimilarityThreshold, "Minimum similarity score (0-100)")
	return cmd
}

// NewTemplateCommand prints the matching template id followed by its bindings.
func NewTemplateCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "template <query...>",
		Short: "Match a query against stored {{placeholder}} templates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok, err := container.Matcher.FindTemplate(cmd.Context(), helpers.JoinArgs(args))
			if err != nil {
				return err
			}
			if !ok {
				return helpers.NoMatch()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, m.ID)
			for _, pair := range sortedPairs(m.Bindings) {
				fmt.Fprintln(out, pair.String())
			}
			return nil
		},
	}
}

func sortedPairs(bindings map[string]string) []domain.MetaPair {
	var meta domain.Meta
	for name, value := range bindings {
		meta = append(meta, domain.MetaPair{Key: name, Value: value})
	}
	sort.Slice(meta, func(i, j int) bool { return meta[i].Key < meta[j].Key })
	return meta
}
