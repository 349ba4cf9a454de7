package scan

import (
	"sync/atomic"
	"time"
)

// WorkerProgress is the per-worker progress handle. The worker is the
// only writer of the progress fields and the orchestrator the only
// writer of the cancel flag, so neither side ever takes a lock.
type WorkerProgress struct {
	total    int64
	done     atomic.Int64
	path     atomic.Pointer[string]
	canceled atomic.Bool
}

func newWorkerProgress(total int) *WorkerProgress {
	return &WorkerProgress{total: int64(total)}
}

// advance records one finished file.
func (wp *WorkerProgress) advance(path string) {
	wp.path.Store(&path)
	wp.done.Add(1)
}

// cancel asks the worker to stop at its next file boundary.
func (wp *WorkerProgress) cancel() {
	wp.canceled.Store(true)
}

func (wp *WorkerProgress) isCanceled() bool {
	return wp.canceled.Load()
}

// fraction returns the worker's completed share of its batch.
func (wp *WorkerProgress) fraction() float64 {
	if wp.total == 0 {
		return 1
	}
	return float64(wp.done.Load()) / float64(wp.total)
}

// Progress is a point-in-time snapshot of a running scan. The overall
// fraction is the mean of the per-worker fractions, so a stalled batch
// is visible instead of being averaged away by file counts.
type Progress struct {
	Fraction    float64
	FilesDone   int
	FilesTotal  int
	CurrentPath string
	Elapsed     time.Duration
}

// ProgressFunc receives snapshots at the polling cadence and once more
// after the pool drains. Callbacks run on the orchestrator goroutine
// and should return quickly.
type ProgressFunc func(Progress)

func snapshotProgress(handles []*WorkerProgress, start time.Time) Progress {
	var sum float64
	var done, total int64
	var current string
	for _, wp := range handles {
		sum += wp.fraction()
		done += wp.done.Load()
		total += wp.total
		if p := wp.path.Load(); p != nil && *p != "" {
			current = *p
		}
	}

	var fraction float64
	if len(handles) > 0 {
		fraction = sum / float64(len(handles))
	}

	return Progress{
		Fraction:    fraction,
		FilesDone:   int(done),
		FilesTotal:  int(total),
		CurrentPath: current,
		Elapsed:     time.Since(start),
	}
}
