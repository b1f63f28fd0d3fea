package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
	"github.com/doeshing/qa/internal/infrastructure/rules"
)

// NewRulesCommand creates the rules command with all subcommands. Only the
// global rule file is ever modified.
func NewRulesCommand(container *app.Container) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or edit generator rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showAllRules(cmd, container)
		},
	}

	rulesCmd.AddCommand(
		&cobra.Command{
			Use:   "all",
			Short: "Show global and project rules",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showAllRules(cmd, container)
			},
		},
		newRulesAddCommand(container),
		newRulesRemoveCommand(container),
		newRulesClearCommand(container),
		newRulesResetCommand(container),
	)
	return rulesCmd
}

func showAllRules(cmd *cobra.Command, container *app.Container) error {
	set, err := container.Rules.All(cmd.Context())
	if err != nil {
		return err
	}
	helpers.RenderRules(cmd.OutOrStdout(), set)
	return nil
}

func newRulesAddCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <rule...>",
		Short: "Append a global rule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Rules.Add(cmd.Context(), helpers.JoinArgs(args))
		},
	}
}

func newRulesRemoveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <line>",
		Short: "Remove a global rule by line number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rules.ParseRuleIndex(args[0])
			if err != nil {
				return err
			}
			removed, err := container.Rules.Remove(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", removed)
			return nil
		},
	}
}

func newRulesClearCommand(container *app.Container) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every global rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			approved, err := helpers.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Remove all global rules?", container.Rules.GlobalPath(), yes)
			if err != nil {
				return err
			}
			if !approved {
				fmt.Fprintln(cmd.OutOrStdout(), MsgRulesCancelled)
				return nil
			}
			return container.Rules.Clear(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newRulesResetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default global rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Rules.Reset(cmd.Context())
		},
	}
}
