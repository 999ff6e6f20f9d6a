// Package tasks runs best-effort background work for the client.
//
// # Delivery Contract
//
// [Queue] accepts jobs without blocking the caller:
//
//  1. [Queue.Submit] never waits. A full or closed queue drops the job and reports it.
//  2. Each accepted job runs at most once. Failures are logged and not retried.
//  3. Jobs are paced by a token bucket (golang.org/x/time/rate).
//
// Dropped and failed jobs call [Job.OnDrop] with the reason, which is where callers journal them.
//
// # Progress Reporting
//
// An optional [Update] channel receives job lifecycle events. Sends use select with default
// so a slow reader never stalls the workers.
//
// # Set Logs
//
// [SetLogRecorder] adapts the queue to workout set logging: it submits a write through the
// data facade and journals the entry in the local dropped_set_logs table when the write
// is dropped or fails.
package tasks
