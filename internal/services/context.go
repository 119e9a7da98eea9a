package services

import "context"

type contextKey string

const (
	videoIDKey      contextKey = "video_id"
	sceneIDKey      contextKey = "scene_id"
	stageKey        contextKey = "stage"
	requestIDKey    contextKey = "request_id"
	apiKeyKey       contextKey = "api_key"
	creatorIDKey    contextKey = "creator_id"
	outputFormatKey contextKey = "output_format"
)

// WithVideoID annotates context with the video identifier.
func WithVideoID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext extracts the video identifier if present.
func VideoIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(videoIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithSceneID annotates context with the scene identifier.
func WithSceneID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sceneIDKey, id)
}

// SceneIDFromContext extracts the scene identifier if present.
func SceneIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(sceneIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the workflow stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAPIKey annotates context with the generation API key active for this
// request. Clients read the key from context so per-creator keys flow through
// the call chain explicitly.
func WithAPIKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, apiKeyKey, key)
}

// APIKeyFromContext extracts the active generation API key if present.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(apiKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCreatorID annotates context with the active creator identifier.
func WithCreatorID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, creatorIDKey, id)
}

// CreatorIDFromContext extracts the creator identifier if present.
func CreatorIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(creatorIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOutputFormat annotates context with the active output format
// (for example "landscape" or "shorts").
func WithOutputFormat(ctx context.Context, format string) context.Context {
	if format == "" {
		return ctx
	}
	return context.WithValue(ctx, outputFormatKey, format)
}

// OutputFormatFromContext extracts the output format if present.
func OutputFormatFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(outputFormatKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
