// Package config loads, normalizes, and validates Storyreel's TOML
// configuration. A single Config value is constructed at startup and passed
// explicitly to every subsystem; nothing reads configuration ambiently.
package config
