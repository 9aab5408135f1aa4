// Package progress aggregates per-file byte counts into overall download
// progress.
//
// Workers report through a per-task Tracker; any observer may call
// Aggregator.Snapshot or Aggregator.Tasks at any time. Rendering is left to
// the caller.
package progress
