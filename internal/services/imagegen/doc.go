// Package imagegen renders still images for narrated slides through an
// OpenAI-compatible image API. Safety rejections surface as
// services.ContentPolicyError so the dispatcher can sanitize the prompt and
// retry before falling back to another model.
package imagegen
