package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/scenes"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queued videos and their scene progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *scenes.Store) error {
				var filters []scenes.VideoStatus
				if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
					for _, raw := range strings.Split(trimmed, ",") {
						filters = append(filters, scenes.VideoStatus(strings.ToLower(strings.TrimSpace(raw))))
					}
				}

				videos, err := store.ListVideos(cmd.Context(), filters...)
				if err != nil {
					return fmt.Errorf("list videos: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No videos queued.")
					return nil
				}

				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(videos))
				for _, video := range videos {
					rows = append(rows, []string{
						fmt.Sprintf("%d", video.ID),
						videoTitle(video),
						colorizeVideoStatus(video.Status, colorize),
						sceneProgress(cmd, store, video.ID),
						video.OutputFormat,
						truncate(video.FinalFile, 48),
					})
				}

				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Status", "Scenes", "Format", "Output"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Comma-separated status filter (pending,processing,completed,failed)")
	return cmd
}

func videoTitle(video *scenes.Video) string {
	if title := strings.TrimSpace(video.Title); title != "" {
		return truncate(title, 40)
	}
	return truncate(video.Prompt, 40)
}

func sceneProgress(cmd *cobra.Command, store *scenes.Store, videoID int64) string {
	checkpoint, err := store.CheckpointForVideo(cmd.Context(), videoID)
	if err != nil {
		if errors.Is(err, scenes.ErrNotFound) {
			return "-"
		}
		return "?"
	}
	if checkpoint.FailedCount > 0 {
		return fmt.Sprintf("%d/%d (%d failed)", checkpoint.CompletedCount, checkpoint.TotalCount, checkpoint.FailedCount)
	}
	return fmt.Sprintf("%d/%d", checkpoint.CompletedCount, checkpoint.TotalCount)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
