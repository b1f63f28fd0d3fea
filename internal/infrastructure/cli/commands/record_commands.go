package commands

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/doeshing/qa/internal/app"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/infrastructure/cli/helpers"
)

// NewSaveCommandCommand stores the command for a record.
func NewSaveCommandCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "save-command <id> <command...>",
		Short: "Store the command generated for a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := helpers.ParseID(args[0])
			if err != nil {
				return err
			}
			command := helpers.JoinArgs(args[1:])
			if command == "" {
				return errors.Wrap(domain.ErrInvalidArgument, "command is empty")
			}
			return container.Store.SetCommand(cmd.Context(), id, command)
		},
	}
}

// NewSaveResultCommand stores an execution result. Output comes from the
// remaining arguments, or from stdin with --stdin.
func NewSaveResultCommand(container *app.Container) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "save-result <id> <exit-code> [output...]",
		Short: "Store the exit code and output of a record's command",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := helpers.ParseID(args[0])
			if err != nil {
				return err
			}
			code, err := helpers.ParseInt("exit code", args[1])
			if err != nil {
				return err
			}
			output := helpers.JoinArgs(args[2:])
			if fromStdin {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "read output")
				}
				output = string(raw)
			}
			return container.Store.SetResult(cmd.Context(), id, code, output)
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read command output from stdin")
	return cmd
}

// NewSaveMetaCommand sets (or appends) key=value metadata on a record.
func NewSaveMetaCommand(container *app.Container) *cobra.Command {
	var appendPairs bool

	cmd := &cobra.Command{
		Use:   "save-meta <id> <key=value...>",
		Short: "Set metadata on a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := helpers.ParseID(args[0])
			if err != nil {
				return err
			}
			pairs, err := helpers.ParseMetaPairs(args[1:])
			if err != nil {
				return err
			}
			if err := checkStatusPairs(cmd, container, id, pairs); err != nil {
				return err
			}
			if appendPairs {
				return container.Store.AppendMeta(cmd.Context(), id, pairs...)
			}
			return container.Store.SetMeta(cmd.Context(), id, pairs...)
		},
	}

	cmd.Flags().BoolVarP(&appendPairs, "append", "a", false, "Append instead of replacing existing keys")
	return cmd
}

// checkStatusPairs validates status= values before they reach the store and
// normalizes them in place.
func checkStatusPairs(cmd *cobra.Command, container *app.Container, id int64, pairs []domain.MetaPair) error {
	var statuses []domain.Status
	for i, p := range pairs {
		if p.Key != domain.MetaStatus {
			continue
		}
		status, err := domain.ParseStatus(p.Value)
		if err != nil {
			return err
		}
		pairs[i].Value = string(status)
		statuses = append(statuses, status)
	}
	if len(statuses) == 0 {
		return nil
	}
	rec, ok, err := container.Store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "record %d", id)
	}
	current := rec.Status()
	for _, status := range statuses {
		if err := domain.CheckTransition(current, status); err != nil {
			return errors.Wrapf(err, "record %d", id)
		}
		current = status
	}
	return nil
}

// NewShowCommand prints a full record, or a single field with --field.
func NewShowCommand(container *app.Container) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := helpers.ParseID(args[0])
			if err != nil {
				return err
			}
			rec, ok, err := container.Store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrapf(domain.ErrNotFound, "record %d", id)
			}
			out := cmd.OutOrStdout()
			if field == "" {
				helpers.RenderRecord(out, rec)
				return nil
			}
			return printField(out, rec, field)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "Print one field: query|command|output|exit|status or a meta key")
	return cmd
}

func printField(out io.Writer, rec domain.QueryRecord, field string) error {
	switch field {
	case "query":
		fmt.Fprintln(out, rec.Query)
	case "command":
		if rec.Command == "" {
			return helpers.NoMatch()
		}
		fmt.Fprintln(out, rec.Command)
	case "output", "exit":
		if rec.Result == nil {
			return helpers.NoMatch()
		}
		if field == "exit" {
			fmt.Fprintln(out, rec.Result.ExitCode)
		} else {
			fmt.Fprint(out, rec.Result.Output)
		}
	case "status":
		fmt.Fprintln(out, rec.Status())
	default:
		v, ok := rec.Meta.Get(field)
		if !ok {
			return helpers.NoMatch()
		}
		fmt.Fprintln(out, v)
	}
	return nil
}
