package workflow

import (
	"context"

	"storyreel/internal/stage"
)

// Health reports the readiness of every pipeline stage.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	probes := []stage.Handler{
		m.newMediaStage(nil),
		m.newNarrationStage(nil),
	}
	checks := make([]stage.Health, 0, len(probes))
	for _, probe := range probes {
		checks = append(checks, probe.HealthCheck(ctx))
	}
	return checks
}

// Healthy reports whether every stage passed its readiness probe.
func Healthy(checks []stage.Health) bool {
	for _, check := range checks {
		if !check.Ready {
			return false
		}
	}
	return true
}
