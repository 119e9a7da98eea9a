// Package workflow coordinates end-to-end video generation.
//
// The Manager polls the store for pending videos, expands each prompt into a
// scripted scene list, and drives a bounded pool of scene workers through the
// per-scene stages: media generation, narration synthesis with subtitle
// alignment, and completion. Once every scene settles it assembles the final
// video through the composition pipeline and records the outcome.
//
// Progress is checkpointed after every scene transition, so a daemon restart
// resumes exactly where the previous run stopped instead of regenerating
// finished scenes.
package workflow
