package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/scenes"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <video-id>",
		Short: "Requeue an interrupted video from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *scenes.Store) error {
				video, err := store.VideoByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load video: %w", err)
				}
				checkpoint, err := store.CheckpointForVideo(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, scenes.ErrNotFound) {
						return fmt.Errorf("video #%d has no checkpoint; it has not started yet", id)
					}
					return fmt.Errorf("load checkpoint: %w", err)
				}
				// A video can fail after every scene completed, when the final
				// composition breaks. Requeueing it reruns just that step.
				if video.Status == scenes.VideoFailed && checkpoint.Status == scenes.CheckpointCompleted {
					video.Status = scenes.VideoPending
					video.ErrorMessage = ""
					if err := store.UpdateVideo(cmd.Context(), video); err != nil {
						return fmt.Errorf("requeue video: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Video #%d requeued for composition: all %d scenes already complete\n",
						id, checkpoint.TotalCount)
					return nil
				}
				if !checkpoint.CanResume {
					return fmt.Errorf("video #%d is not resumable (status %s)", id, checkpoint.Status)
				}

				requeued, err := store.ResumeScenes(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("requeue scenes: %w", err)
				}
				video.Status = scenes.VideoPending
				video.ErrorMessage = ""
				if err := store.UpdateVideo(cmd.Context(), video); err != nil {
					return fmt.Errorf("requeue video: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Video #%d requeued: %d of %d scenes already complete, %d requeued\n",
					id, checkpoint.CompletedCount, checkpoint.TotalCount, requeued)
				return nil
			})
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <video-id>",
		Short: "Reset failed scenes of a video and requeue it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *scenes.Store) error {
				video, err := store.VideoByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load video: %w", err)
				}
				count, err := store.RetryFailedScenes(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("retry failed scenes: %w", err)
				}
				if count == 0 {
					if video.Status != scenes.VideoFailed {
						fmt.Fprintf(cmd.OutOrStdout(), "Video #%d has no failed scenes\n", id)
						return nil
					}
					// No scene to reset means the failure happened during
					// composition; requeue so the final assembly reruns.
					video.Status = scenes.VideoPending
					video.ErrorMessage = ""
					if err := store.UpdateVideo(cmd.Context(), video); err != nil {
						return fmt.Errorf("requeue video: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Video #%d has no failed scenes; requeued it for composition\n", id)
					return nil
				}

				video.Status = scenes.VideoPending
				video.ErrorMessage = ""
				if err := store.UpdateVideo(cmd.Context(), video); err != nil {
					return fmt.Errorf("requeue video: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d failed scene(s) of video #%d and requeued it\n", count, id)
				return nil
			})
		},
	}
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var feedback string
	var mediaOnly bool

	cmd := &cobra.Command{
		Use:   "regenerate <scene-id>",
		Short: "Regenerate one scene, optionally keeping its narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *scenes.Store) error {
				scene, err := store.RegenerateScene(cmd.Context(), id, feedback, mediaOnly)
				if err != nil {
					return fmt.Errorf("regenerate scene: %w", err)
				}

				video, err := store.VideoByID(cmd.Context(), scene.VideoID)
				if err != nil {
					return fmt.Errorf("load video: %w", err)
				}
				video.Status = scenes.VideoPending
				if err := store.UpdateVideo(cmd.Context(), video); err != nil {
					return fmt.Errorf("requeue video: %w", err)
				}

				mode := "full"
				if mediaOnly {
					mode = "media-only"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scene #%d queued for %s regeneration (video #%d requeued)\n",
					scene.ID, mode, scene.VideoID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&feedback, "feedback", "", "Guidance applied to the regeneration prompt")
	cmd.Flags().BoolVar(&mediaOnly, "media-only", false, "Keep narration audio and subtitles, redo visuals only")
	return cmd
}
