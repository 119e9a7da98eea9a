// Package storage pushes finished videos and intermediate artifacts to an
// S3-compatible bucket. It is optional; with storage disabled the pipeline
// leaves artifacts on the local filesystem and the client reports ErrDisabled.
package storage
