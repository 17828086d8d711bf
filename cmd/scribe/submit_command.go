package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/audioanalysis"
	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/media"
	"scribe/internal/notifications"
	"scribe/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		stdinFlag   bool
		formatFlag  string
		nameFlag    string
		modeFlag    string
		maxSpeakers int
		channel0    string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "submit [audio-file]",
		Short: "Upload an audio file and run it through transcription",
		Long: `Submit uploads the audio payload, creates a transcription job, and polls it
until the transcription completes or fails. Progress renders live; the
conversation path prints on success.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := buildSource(args, stdinFlag, formatFlag, cmd.InOrStdin())
			if err != nil {
				return err
			}
			selection, err := buildSelection(modeFlag, maxSpeakers, channel0)
			if err != nil {
				return err
			}

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
					return submitter.Run(runCtx, workflow.Request{
						JobName:   nameFlag,
						Source:    source,
						Selection: selection,
					})
				})
				if runErr != nil {
					return runErr
				}
				return reportOutcome(cmd, rec, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the audio payload from standard input")
	cmd.Flags().StringVar(&formatFlag, "format", "wav", "Audio format for --stdin payloads")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Job name (generated when omitted)")
	cmd.Flags().StringVar(&modeFlag, "mode", "speaker", "Analysis mode: speaker or channel")
	cmd.Flags().IntVar(&maxSpeakers, "max-speakers", audioanalysis.MinSpeakers, "Maximum speaker count for speaker mode")
	cmd.Flags().StringVar(&channel0, "channel-0", "clinician", "Channel 0 participant for channel mode: clinician or patient")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the final job record as JSON")

	return cmd
}

func buildSource(args []string, fromStdin bool, format string, stdin io.Reader) (media.Source, error) {
	if fromStdin {
		if len(args) > 0 {
			return media.Source{}, fmt.Errorf("--stdin cannot be combined with a file argument")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return media.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
		if ext == "" {
			ext = "wav"
		}
		name := fmt.Sprintf("recording-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
		return media.Recorded(name, data), nil
	}
	if len(args) == 0 {
		return media.Source{}, fmt.Errorf("an audio file argument is required (or use --stdin)")
	}
	return media.Selected(args[0])
}

func buildSelection(mode string, maxSpeakers int, channel0 string) (audioanalysis.Selection, error) {
	parsedMode, err := audioanalysis.ParseMode(mode)
	if err != nil {
		return audioanalysis.Selection{}, err
	}
	selection := audioanalysis.Selection{Mode: parsedMode}
	switch parsedMode {
	case audioanalysis.ModeSpeakerPartitioning:
		selection.MaxSpeakers = maxSpeakers
	case audioanalysis.ModeChannelIdentification:
		role, err := audioanalysis.ParseRole(channel0)
		if err != nil {
			return audioanalysis.Selection{}, err
		}
		selection.Channel0 = role
	}
	return selection, nil
}

// runWithProgress renders hub events while fn runs, with SIGINT/SIGTERM
// cancelling the submission.
func runWithProgress(cmd *cobra.Command, hub *notifications.Hub, jsonOut bool, fn func(context.Context) (*jobs.Record, error)) (*jobs.Record, error) {
	events, cancelSub := hub.Subscribe()
	done := make(chan struct{})
	renderer := newProgressRenderer(cmd.ErrOrStderr(), jsonOut)
	go renderer.consume(events, done)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := fn(runCtx)

	cancelSub()
	<-done
	return rec, err
}

func reportOutcome(cmd *cobra.Command, rec *jobs.Record, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, rec)
	}
	out := cmd.OutOrStdout()
	switch rec.Status {
	case jobs.StatusCompleted:
		fmt.Fprintf(out, "Job %s completed\n", rec.JobName)
		fmt.Fprintf(out, "Conversation: %s\n", rec.ConversationPath)
	case jobs.StatusUnconfirmed:
		fmt.Fprintf(out, "Job %s was accepted but returned no recognizable status\n", rec.JobName)
		fmt.Fprintln(out, "Check the service console; `scribe jobs watch` can resume polling once the job appears")
	default:
		fmt.Fprintf(out, "Job %s ended in state %s\n", rec.JobName, rec.Status)
	}
	return nil
}
