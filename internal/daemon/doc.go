// Package daemon hosts the long-running storyreel process. It owns the
// single-instance lock file and ties the workflow manager's lifecycle to
// process signals.
package daemon
