package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/handiism/tlc-downloader/internal/model"
)

// Snapshot is a point-in-time view of overall progress.
type Snapshot struct {
	TotalBytes       int64
	TransferredBytes int64
	// CompletedTasks counts tasks that reached any terminal state.
	CompletedTasks int
	TotalTasks     int
}

// Percent returns transferred/total in the range [0, 1].
func (s Snapshot) Percent() float64 {
	if s.TotalBytes <= 0 {
		if s.TotalTasks > 0 {
			return float64(s.CompletedTasks) / float64(s.TotalTasks)
		}
		return 0
	}
	p := float64(s.TransferredBytes) / float64(s.TotalBytes)
	if p > 1 {
		p = 1
	}
	return p
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s / %s (%d/%d files)",
		FormatBytes(s.TransferredBytes), FormatBytes(s.TotalBytes),
		s.CompletedTasks, s.TotalTasks)
}

// TaskSnapshot is a point-in-time view of one task.
type TaskSnapshot struct {
	Name    string
	Written int64
	Total   int64
	Status  model.Status
}

// Tracker holds the counters of a single task.
//
// A task's counters only grow until it reaches a terminal status.
type Tracker struct {
	name    string
	agg     *Aggregator
	written atomic.Int64
	total   atomic.Int64
	status  atomic.Int32
}

// Name returns the task name.
func (t *Tracker) Name() string { return t.name }

// Total returns the task's expected size, 0 if unknown.
func (t *Tracker) Total() int64 { return t.total.Load() }

// Written returns the bytes reported for the task.
func (t *Tracker) Written() int64 { return t.written.Load() }

// SetStatus records a non-terminal status change.
func (t *Tracker) SetStatus(s model.Status) {
	t.status.Store(int32(s))
}

// Add reports n transferred bytes for the task and the overall run.
func (t *Tracker) Add(n int64) {
	if n <= 0 {
		return
	}
	t.written.Add(n)
	t.agg.transferred.Add(n)
}

// Grow raises the task's expected size and the overall total by n.
// Used when a transfer reveals a length the size probe missed.
func (t *Tracker) Grow(n int64) {
	if n <= 0 {
		return
	}
	t.total.Add(n)
	t.agg.total.Add(n)
}

// Credit reports the task's remaining expected bytes as transferred, so the
// overall total still reaches completion for skipped or failed tasks.
func (t *Tracker) Credit() {
	remaining := t.total.Load() - t.written.Load()
	t.Add(remaining)
}

// Rollback withdraws every byte reported for the task from the overall
// counter. It is the only way transferred bytes can decrease and is used
// when a cancelled task's partial file is deleted.
func (t *Tracker) Rollback() {
	n := t.written.Swap(0)
	t.agg.transferred.Add(-n)
}

// Finish records the terminal status and counts the task as completed.
// Only the first call has an effect.
func (t *Tracker) Finish(s model.Status) {
	for {
		old := model.Status(t.status.Load())
		if old.IsTerminal() {
			return
		}
		if t.status.CompareAndSwap(int32(old), int32(s)) {
			t.agg.completed.Add(1)
			return
		}
	}
}

// Snapshot returns the task's current counters.
func (t *Tracker) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		Name:    t.name,
		Written: t.written.Load(),
		Total:   t.total.Load(),
		Status:  model.Status(t.status.Load()),
	}
}

// Aggregator accumulates per-task byte counts into overall totals.
//
// All counters are atomics, so workers report and observers read
// concurrently without locks. The set of tasks is fixed at construction.
//
// Example:
//
//	agg := progress.NewAggregator(tasks)
//	tr := agg.Tracker(0)
//	tr.Add(4096)
//	tr.Finish(model.StatusCompleted)
//	fmt.Println(agg.Snapshot())
type Aggregator struct {
	total       atomic.Int64
	transferred atomic.Int64
	completed   atomic.Int32
	trackers    []*Tracker
}

// NewAggregator creates one tracker per task, seeded with the task's
// expected size. The overall total is the sum of those sizes.
func NewAggregator(tasks []*model.Task) *Aggregator {
	a := &Aggregator{trackers: make([]*Tracker, len(tasks))}
	for i, task := range tasks {
		tr := &Tracker{name: task.Filename, agg: a}
		tr.total.Store(task.ExpectedSize)
		a.total.Add(task.ExpectedSize)
		a.trackers[i] = tr
	}
	return a
}

// Tracker returns the tracker for the i-th task.
func (a *Aggregator) Tracker(i int) *Tracker {
	return a.trackers[i]
}

// Snapshot returns the current overall progress.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		TotalBytes:       a.total.Load(),
		TransferredBytes: a.transferred.Load(),
		CompletedTasks:   int(a.completed.Load()),
		TotalTasks:       len(a.trackers),
	}
}

// Tasks returns a snapshot of every task in planning order.
func (a *Aggregator) Tasks() []TaskSnapshot {
	out := make([]TaskSnapshot, len(a.trackers))
	for i, tr := range a.trackers {
		out[i] = tr.Snapshot()
	}
	return out
}
