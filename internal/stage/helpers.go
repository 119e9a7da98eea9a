package stage

import (
	"strings"

	"storyreel/internal/scenes"
	"storyreel/internal/services"
)

// RequireNarration validates that a scene carries narration text.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func RequireNarration(scene *scenes.Scene) error {
	if scene == nil || strings.TrimSpace(scene.Narration) == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "require narration",
			"Scene narration missing; regenerate the script", nil)
	}
	return nil
}

// RequireMedia validates that a scene already has a generated media artifact.
func RequireMedia(scene *scenes.Scene) error {
	if scene == nil || strings.TrimSpace(scene.MediaURL) == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "require media",
			"Scene media missing; rerun media generation", nil)
	}
	return nil
}

// RequireAudio validates that a scene has synthesized narration audio.
func RequireAudio(scene *scenes.Scene) error {
	if scene == nil || strings.TrimSpace(scene.AudioURL) == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "require audio",
			"Scene audio missing; rerun narration synthesis", nil)
	}
	return nil
}
