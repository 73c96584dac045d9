package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/garywelz/copernicus-web-sub000/internal/jobaccess"
	"github.com/garywelz/copernicus-web-sub000/internal/preflight"
	"github.com/garywelz/copernicus-web-sub000/internal/textutil"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			client, dialErr := ctx.dialDaemon()
			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			if dialErr != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				fmt.Fprintln(out)
				return renderLocalStatus(cmd, ctx, colorize)
			}

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Workflow", boolKind(status.Workflow.Running), textutil.Ternary(status.Workflow.Running, "yes", "no"), colorize))
			fmt.Fprintln(out, renderStatusLine("Episodes", statusInfo, strconv.Itoa(status.EpisodeCount), colorize))
			if status.Workflow.LastError != "" {
				fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Stage Health", colorize) {
				fmt.Fprintln(out, line)
			}
			if len(status.Workflow.StageHealth) == 0 {
				fmt.Fprintln(out, renderStatusLine("Stages", statusWarn, "not configured", colorize))
			}
			for _, health := range status.Workflow.StageHealth {
				kind := statusOK
				message := "Ready"
				if !health.Ready {
					kind = statusError
					message = health.Detail
				}
				fmt.Fprintln(out, renderStatusLine(health.Name, kind, message, colorize))
			}
			fmt.Fprintln(out)

			renderQueueStats(cmd, status.Workflow.QueueStats, colorize)
			return nil
		},
	}
}

// renderLocalStatus covers the daemon-down path: run the dependency checks
// directly and read queue stats from the store.
func renderLocalStatus(cmd *cobra.Command, ctx *commandContext, colorize bool) error {
	out := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range preflight.RunFeatureChecks(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(out)

	return ctx.withAccess(func(access jobaccess.Access) error {
		stats, err := access.Stats(cmd.Context())
		if err != nil {
			return err
		}
		renderQueueStats(cmd, stats, colorize)
		return nil
	})
}

func renderQueueStats(cmd *cobra.Command, stats map[string]int, colorize bool) {
	out := cmd.OutOrStdout()
	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := buildJobStatsRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return
	}
	fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(out)
}

func boolKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusWarn
}
