// Package scenes persists videos and their scenes in SQLite and exposes
// helpers for driving the scene lifecycle.
//
// The Store manages database connections, schema initialization, status
// transitions along the lifecycle graph, worker claims, and regeneration.
// After every scene status change it recomputes the video's checkpoint row, a
// derived read model that interrupted runs consult to resume without redoing
// completed scenes.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses, extend the transition graph in models.go and the
// schema in schema.go together.
package scenes
