package ratelimit

import (
	"strings"
	"sync"

	"storyreel/internal/config"
)

// Registry caches one limiter per model name with lazy creation. It is the
// process-wide source of truth for pacing, shared by every worker.
type Registry struct {
	mu        sync.Mutex
	limiters  map[string]*Limiter
	overrides map[string]config.RateLimit
}

// NewRegistry constructs a registry seeded with per-model config overrides.
func NewRegistry(overrides map[string]config.RateLimit) *Registry {
	normalized := make(map[string]config.RateLimit, len(overrides))
	for model, override := range overrides {
		normalized[normalizeModel(model)] = override
	}
	return &Registry{
		limiters:  make(map[string]*Limiter),
		overrides: normalized,
	}
}

// For returns the limiter owning the given model name, creating it on first use.
func (r *Registry) For(model string) *Limiter {
	key := normalizeModel(model)
	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[key]; ok {
		return limiter
	}
	profile := DefaultProfile()
	if override, ok := r.overrides[key]; ok {
		profile = ProfileFromConfig(override)
	}
	limiter := NewLimiter(profile)
	r.limiters[key] = limiter
	return limiter
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
