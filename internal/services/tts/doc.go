// Package tts synthesizes narration audio for scenes. Voices come from a
// built-in catalog embedded as TOML; unknown voice names are rejected before
// any network call so configuration mistakes fail fast.
package tts
