// Package dispatch wraps generation calls with bounded retries, adaptive
// rate-limit admission, prompt sanitization for content-policy rejections,
// and fallback to a secondary model. Every attempt reports its outcome to
// the owning model's rate limiter.
package dispatch
