package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/scenes"
	"storyreel/internal/workflow"
)

// newRunCommand processes the queue in the foreground until interrupted.
// It shares the daemon's lock, so it cannot run alongside storyreeld.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the video queue in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *scenes.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				manager, err := workflow.NewManager(runCtx, cfg, store, logger)
				if err != nil {
					return fmt.Errorf("build workflow manager: %w", err)
				}
				for _, check := range manager.Health(runCtx) {
					fmt.Fprintln(cmd.OutOrStdout(), check.String())
				}

				d, err := daemon.New(cfg, store, logger, manager)
				if err != nil {
					return err
				}
				if err := d.Start(runCtx); err != nil {
					return err
				}
				defer d.Stop()

				fmt.Fprintln(cmd.OutOrStdout(), "Processing queue; press Ctrl-C to stop.")
				<-runCtx.Done()
				return nil
			})
		},
	}
}
