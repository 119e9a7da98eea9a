// Command storyreel is the operator CLI for the narrated video pipeline:
// queueing topics, inspecting progress, retrying failures, and running the
// queue in the foreground.
package main
