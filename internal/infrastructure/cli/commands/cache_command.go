package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	msgCacheDisabled = "Classification cache disabled (ai.cache_ttl is 0)."
	msgCacheCleared  = "Classification cache cleared."
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(rt *Runtime) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the AI classification cache",
	}

	cacheCmd.AddCommand(
		newCacheStatsCommand(rt),
		newCacheClearCommand(rt),
	)

	return cacheCmd
}

// newCacheStatsCommand creates the 'cache stats' subcommand
func newCacheStatsCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			if container.ReplyCache == nil {
				fmt.Fprintln(cmd.OutOrStdout(), msgCacheDisabled)
				return nil
			}
			n, err := container.ReplyCache.Len()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Directory: %s\nEntries:   %d\n", container.ReplyCache.Dir(), n)
			return nil
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached classification reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			if container.ReplyCache == nil {
				fmt.Fprintln(cmd.OutOrStdout(), msgCacheDisabled)
				return nil
			}
			if err := container.ReplyCache.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msgCacheCleared)
			return nil
		},
	}
}
