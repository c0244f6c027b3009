// Package metrics accumulates connection observability samples.
//
// The Recorder keeps three bounded histories:
//   - Close codes reported when a connection terminates (last 100)
//   - Reconnect attempts with their backoff (last 100)
//   - Finalized connection sessions with their duration (last 50)
//
// Older samples age out in FIFO order, so every aggregate in a Snapshot
// describes the recent window rather than the whole process lifetime.
package metrics
