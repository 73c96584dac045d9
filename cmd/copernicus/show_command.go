package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/garywelz/copernicus-web-sub000/internal/api"
	"github.com/garywelz/copernicus-web-sub000/internal/jobaccess"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show details for one generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withAccess(func(access jobaccess.Access) error {
				for {
					job, err := access.Describe(cmd.Context(), id)
					if err != nil {
						return err
					}
					if job == nil {
						return fmt.Errorf("job %d not found", id)
					}
					printJob(cmd, *job)
					if !watch || isTerminalStatus(job.Status) {
						return nil
					}
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-time.After(2 * time.Second):
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job reaches a terminal status")
	return cmd
}

func printJob(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Job #%d", job.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Topic", statusInfo, job.Topic, colorize))
	fmt.Fprintln(out, renderStatusLine("Category", statusInfo, job.Category, colorize))
	fmt.Fprintln(out, renderStatusLine("Kind", statusInfo, job.Kind, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), displayStatus(job.Status), colorize))
	if job.Progress.Stage != "" {
		progress := fmt.Sprintf("%s %.0f%%", job.Progress.Stage, job.Progress.Percent)
		if job.Progress.Message != "" {
			progress += " - " + job.Progress.Message
		}
		fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, progress, colorize))
	}
	if job.CanonicalName != "" {
		fmt.Fprintln(out, renderStatusLine("Canonical name", statusOK, job.CanonicalName, colorize))
	}
	if job.DurationSeconds > 0 {
		duration := time.Duration(job.DurationSeconds * float64(time.Second)).Round(time.Second)
		fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, duration.String(), colorize))
	}
	if job.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
	}
	if job.NeedsReview {
		fmt.Fprintln(out, renderStatusLine("Needs review", statusWarn, job.ReviewReason, colorize))
	}
	if created := api.ParseJobTime(job.CreatedAt); !created.IsZero() {
		fmt.Fprintln(out, renderStatusLine("Created", statusInfo, created.Local().Format(time.RFC1123), colorize))
	}
	if len(job.Artifacts) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Artifacts", colorize) {
			fmt.Fprintln(out, line)
		}
		kinds := make([]string, 0, len(job.Artifacts))
		for kind := range job.Artifacts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintln(out, renderStatusLine(kind, statusOK, job.Artifacts[kind], colorize))
		}
	}
}

func jobStatusKind(status string) statusKind {
	switch status {
	case string(queue.StatusCompleted):
		return statusOK
	case string(queue.StatusFailed):
		return statusError
	default:
		return statusInfo
	}
}

func isTerminalStatus(status string) bool {
	return status == string(queue.StatusCompleted) || status == string(queue.StatusFailed)
}
