// Package videogen drives asynchronous video clip generation for opening
// scenes. A generation request starts a server-side operation; the client
// polls it at a fixed interval inside a bounded window and downloads the
// finished clip. A window that closes before the operation completes reports
// services.ErrTimeout so the dispatcher treats it as retryable.
package videogen
