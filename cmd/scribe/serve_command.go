package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only jobs API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}

				server, err := api.NewServer(cfg, store, logger)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if err := server.Start(runCtx); err != nil {
					return err
				}
				defer server.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Serving jobs API on %s (ctrl-c to stop)\n", server.Addr())
				<-runCtx.Done()
				return nil
			})
		},
	}
}
