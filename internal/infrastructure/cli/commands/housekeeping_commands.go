package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// NewListCommand lists recent records.
func NewListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := container.Housekeeping.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			helpers.RenderListings(cmd.OutOrStdout(), listings, MsgNoRecords)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultListLimit, "Max records to show (0 for all)")
	return cmd
}

// NewSearchCommand does a literal substring search over query text.
func NewSearchCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: "Find queries containing text (case-sensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := container.Housekeeping.Search(cmd.Context(), helpers.JoinArgs(args), limit)
			if err != nil {
				return err
			}
			helpers.RenderListings(cmd.OutOrStdout(), listings, MsgNoSearchResults)
			if len(listings) == 0 {
				return helpers.NoMatch()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultSearchLimit, "Max results (0 for all)")
	return cmd
}

// NewRankCommand ranks stored queries by similarity. Read-only.
func NewRankCommand(container *app.Container) *cobra.Command {
	var minScore int

	cmd := &cobra.Command{
		Use:   "rank <query...>",
		Short: "Rank stored queries by similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minScore < 0 || minScore > 100 {
				return errors.Wrapf(domain.ErrInvalidArgument, "min-score must be 0-100, got %d", minScore)
			}
			ranked, err := container.Housekeeping.RankSimilar(cmd.Context(), helpers.JoinArgs(args), minScore)
			if err != nil {
				return err
			}
			helpers.RenderRanked(cmd.OutOrStdout(), ranked)
			return nil
		},
	}

	cmd.Flags().IntVarP(&minScore, "min-score", "m", container.Config.Matching.RankMinScore, "Lowest score to show (0-100)")
	return cmd
}

// NewStatsCommand prints store statistics.
func NewStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := container.Housekeeping.Stats(cmd.Context())
			if err != nil {
				return err
			}
			helpers.RenderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

// NewCleanCommand removes old finished records.
func NewCleanCommand(container *app.Container) *cobra.Command {
	var (
		days   int
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove finished queries older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			plan, err := container.Housekeeping.Plan(ctx, days)
			if err != nil {
				return err
			}
			if len(plan.Removed) == 0 {
				fmt.Fprintln(out, MsgNothingToClean)
				return nil
			}
			question := fmt.Sprintf("Remove %d records older than %d days?", len(plan.Removed), days)
			if dryRun {
				fmt.Fprintln(out, question)
				for _, id := range plan.Removed {
					fmt.Fprintln(out, id)
				}
				return nil
			}
			approved, err := helpers.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question, "", yes)
			if err != nil {
				return err
			}
			if !approved {
				fmt.Fprintln(out, MsgCleanCancelled)
				return nil
			}
			report, err := container.Housekeeping.Clean(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d records", len(report.Removed))
			if len(report.Protected) > 0 {
				fmt.Fprintf(out, " (%d kept as reuse sources)", len(report.Protected))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", container.Config.Housekeeping.CleanDays, "Age cutoff in days")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed")
	return cmd
}
