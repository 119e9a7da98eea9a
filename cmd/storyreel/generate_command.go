package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/scenes"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Queue a new narrated video for the given topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				return fmt.Errorf("topic must not be empty")
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "landscape", "portrait":
			default:
				return fmt.Errorf("unsupported format %q (use landscape or portrait)", format)
			}

			return ctx.withStore(func(_ *config.Config, store *scenes.Store) error {
				video, err := store.NewVideo(cmd.Context(), topic, format)
				if err != nil {
					return fmt.Errorf("queue video: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued video #%d (%s)\n", video.ID, format)
				fmt.Fprintln(out, "Run `storyreel run` or start storyreeld to process the queue.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "landscape", "Output format: landscape or portrait")
	return cmd
}
