// Package logging builds the application's slog loggers and provides the
// standardized structured field names used across the pipeline. Loggers carry
// video/scene/stage context derived from context.Context so records from
// concurrent scene workers stay attributable.
package logging
