package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/media"
	"scribe/internal/notifications"
	"scribe/internal/workflow"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage submitted transcription jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsWatchCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				var statuses []jobs.Status
				for _, value := range listStatuses {
					status, err := jobs.ParseStatus(value)
					if err != nil {
						return err
					}
					statuses = append(statuses, status)
				}

				records, err := store.ListByStatus(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}

				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.JobName,
						rec.SourceName,
						humanize.Bytes(uint64(rec.SourceSize)),
						rec.Mode,
						statusLabel(rec.Status, colorize),
						humanize.Time(rec.UpdatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Job", "Source", "Size", "Mode", "Status", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit records as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-name-or-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				rec, err := resolveRecord(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, rec)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:          %s (id %d)\n", rec.JobName, rec.ID)
				fmt.Fprintf(out, "Status:       %s\n", statusLabel(rec.Status, shouldColorize(out)))
				if rec.RemoteStatus != "" {
					fmt.Fprintf(out, "Remote:       %s\n", remoteStatusLabel(rec.RemoteStatus))
				}
				fmt.Fprintf(out, "Source:       %s (%s, %s)\n", rec.SourceName, rec.SourceKind, humanize.Bytes(uint64(rec.SourceSize)))
				fmt.Fprintf(out, "Mode:         %s\n", describeMode(rec))
				if rec.MediaURI != "" {
					fmt.Fprintf(out, "Media:        %s\n", rec.MediaURI)
				}
				if rec.ProgressMessage != "" {
					fmt.Fprintf(out, "Progress:     %d%% (%s)\n", rec.ProgressPercent, rec.ProgressMessage)
				} else {
					fmt.Fprintf(out, "Progress:     %d%%\n", rec.ProgressPercent)
				}
				if rec.ConversationPath != "" {
					fmt.Fprintf(out, "Conversation: %s\n", rec.ConversationPath)
				}
				if rec.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:        %s\n", rec.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:      %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Updated:      %s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the record as JSON")
	return cmd
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "watch <job-name>",
		Short: "Resume polling an in-flight job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				hub := notifications.NewHub()
				submitter, err := workflow.NewSubmitter(cfg, store,
					workflow.WithSink(hub),
					workflow.WithLogger(ctx.fileLogger()),
				)
				if err != nil {
					return err
				}

				rec, runErr := runWithProgress(cmd, hub, jsonOut, func(runCtx context.Context) (*jobs.Record, error) {
					return submitter.Watch(runCtx, args[0])
				})
				if runErr != nil {
					return runErr
				}
				return reportOutcome(cmd, rec, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the final record as JSON")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "retry <job-name-or-id>",
		Short: "Resubmit a failed job under a fresh name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				rec, err := resolveRecord(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				request, err := retryRequest(rec)
				if err != nil {
					return err
				}

				hub := notifications.NewHub()
				submitter, err := workflow.NewSubmitter(cfg, store,
					workflow.WithSink(hub),
					workflow.WithLogger(ctx.fileLogger()),
				)
				if err != nil {
					return err
				}

				retried, runErr := runWithProgress(cmd, hub, jsonOut, func(runCtx context.Context) (*jobs.Record, error) {
					return submitter.Run(runCtx, request)
				})
				if runErr != nil {
					return runErr
				}
				return reportOutcome(cmd, retried, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the final record as JSON")
	return cmd
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove job records from the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				for _, arg := range args {
					id, err := strconv.ParseInt(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid job id %q", arg)
					}
					if err := store.Remove(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed job %d\n", id)
				}
				return nil
			})
		},
	}
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				stats, err := store.GetStats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}
				if stats.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}

				rows := make([][]string, 0, len(stats.ByStatus)+1)
				for _, status := range jobs.AllStatuses() {
					count, ok := stats.ByStatus[status]
					if !ok {
						continue
					}
					rows = append(rows, []string{string(status), strconv.FormatInt(count, 10)})
				}
				rows = append(rows, []string{"total", strconv.FormatInt(stats.Total, 10)})
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit stats as JSON")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete job records in bulk",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []jobs.Status
			switch {
			case clearAll:
			case clearCompleted && clearFailed:
				statuses = []jobs.Status{jobs.StatusCompleted, jobs.StatusFailed}
			case clearCompleted:
				statuses = []jobs.Status{jobs.StatusCompleted}
			case clearFailed:
				statuses = []jobs.Status{jobs.StatusFailed}
			default:
				return fmt.Errorf("specify --completed, --failed, or --all")
			}

			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job record(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed jobs")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every job record")
	return cmd
}

// resolveRecord accepts either a numeric ledger ID or a job name.
func resolveRecord(ctx context.Context, store *jobs.Store, arg string) (*jobs.Record, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64); err == nil {
		return store.GetByID(ctx, id)
	}
	return store.GetByName(ctx, arg)
}

func retryRequest(rec *jobs.Record) (workflow.Request, error) {
	if !rec.Status.Terminal() || rec.Status == jobs.StatusCompleted {
		return workflow.Request{}, fmt.Errorf("job %s is %s; only failed or unconfirmed jobs can be retried", rec.JobName, rec.Status)
	}
	if rec.SourcePath == "" {
		return workflow.Request{}, fmt.Errorf("job %s has no stored source path; recorded captures cannot be retried", rec.JobName)
	}

	source, err := media.Selected(rec.SourcePath)
	if err != nil {
		return workflow.Request{}, err
	}
	selection, err := selectionFromRecord(rec)
	if err != nil {
		return workflow.Request{}, err
	}

	// A fresh job name so the resubmission never collides with the failed
	// attempt.
	return workflow.Request{Source: source, Selection: selection}, nil
}

func describeMode(rec *jobs.Record) string {
	switch rec.Mode {
	case "speaker_partitioning":
		return fmt.Sprintf("speaker partitioning (max %d speakers)", rec.MaxSpeakers)
	case "channel_identification":
		return fmt.Sprintf("channel identification (channel 0 %s)", strings.ToLower(rec.Channel0Role))
	default:
		return rec.Mode
	}
}
