package stage

import (
	"context"
	"log/slog"

	"storyreel/internal/scenes"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *scenes.Scene) error
	Execute(context.Context, *scenes.Scene) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept a stage-scoped logger
// before execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
