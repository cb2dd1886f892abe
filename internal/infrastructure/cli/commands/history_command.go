package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/helpers"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(rt *Runtime) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored conversations",
	}

	historyCmd.AddCommand(
		newHistorySessionsCommand(rt),
		newHistoryShowCommand(rt),
		newHistoryClearCommand(rt),
		newHistoryPruneCommand(rt),
	)

	return historyCmd
}

func newHistorySessionsCommand(rt *Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"list"},
		Short:   "List sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			sessions, err := container.HistoryStore.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			renderer := helpers.NewRenderer(cmd.OutOrStdout())
			if asJSON {
				return renderer.JSON(sessions)
			}
			renderer.Sessions(sessions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sessions as JSON")
	return cmd
}

func newHistoryShowCommand(rt *Runtime) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			messages, err := container.HistoryStore.Conversation(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			renderer := helpers.NewRenderer(cmd.OutOrStdout())
			if asJSON {
				return renderer.JSON(messages)
			}
			renderer.Conversation(messages)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Most recent messages to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print messages as JSON")
	return cmd
}

func newHistoryClearCommand(rt *Runtime) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [session-id]",
		Short: "Delete one session, or every session with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("pass a session id or --all")
			}
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			if err := container.HistoryStore.Clear(cmd.Context(), sessionID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every stored session")
	return cmd
}

func newHistoryPruneCommand(rt *Runtime) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions idle for longer than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				cfg, err := container.Config.Load(cmd.Context())
				if err != nil {
					return err
				}
				days = cfg.GetHistoryRetentionDays()
			}
			if days <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}

			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := container.HistoryStore.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s) idle for more than %d day(s).\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default from config)")
	return cmd
}
