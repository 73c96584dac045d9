package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage the syndication feed",
	}
	feedCmd.AddCommand(newFeedSyncCommand(ctx))
	return feedCmd
}

// Feed sync always goes through the daemon: the synchronizer owns the
// episode store and the object store write path.
func newFeedSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the published feed with the episode catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialDaemon()
			if err != nil {
				return fmt.Errorf("feed sync requires a running daemon: %w", err)
			}
			diff, err := client.SyncFeed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(diff.Added) == 0 && len(diff.Updated) == 0 && len(diff.Removed) == 0 {
				fmt.Fprintln(out, "Feed already up to date")
				return nil
			}
			printFeedChange(out, "Added", diff.Added)
			printFeedChange(out, "Updated", diff.Updated)
			printFeedChange(out, "Removed", diff.Removed)
			return nil
		},
	}
}

func printFeedChange(out io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d): %s\n", label, len(names), strings.Join(names, ", "))
}
