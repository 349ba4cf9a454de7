package scan

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/refscan/internal/corpus"
	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/types"
)

// ErrCanceled is returned when a scan stops before completing. Partial
// matches are discarded: a canceled scan publishes no results.
var ErrCanceled = errors.New("scan canceled")

// Options configure one parallel scan.
type Options struct {
	// Root is the absolute project root the corpus paths are relative to.
	Root string

	// Meta selects sidecar participation for every file in the scan.
	Meta types.MetaMode

	// GUIDOnly keeps matching at the cheap substring level even for
	// tokens that carry a local id. The same-file short-form rule
	// still applies.
	GUIDOnly bool

	// Workers caps the pool size; 0 means one worker per CPU. The
	// effective size never exceeds the corpus length.
	Workers int

	// MaxFileSize overrides the loader's size bound when positive.
	MaxFileSize int64

	// OnProgress, when set, receives snapshots at the polling cadence.
	OnProgress ProgressFunc
}

// RawMatches is the scheduler's output: for each corpus path with at
// least one hit, the indexes of the tokens that matched it. Paths with
// no hits are absent. Unreadable counts the files that failed to load
// and were treated as non-matches.
type RawMatches struct {
	TokenCount int
	ByPath     map[string][]int
	Unreadable int
}

// Scan runs every token over the corpus with a fixed worker pool.
//
// The corpus is split into contiguous batches, one goroutine per
// batch. Workers share nothing but their own loader and progress
// handle; per-batch results are merged single-threaded after the pool
// drains, so no match-collection lock exists anywhere. Cancellation is
// cooperative at file granularity: an in-flight file is always
// finished, and a canceled scan returns ErrCanceled with no matches.
func Scan(ctx context.Context, tokens []types.ReferenceToken, c corpus.Corpus, opts Options) (RawMatches, error) {
	raw := RawMatches{TokenCount: len(tokens), ByPath: make(map[string][]int)}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batches := c.Batches(workers)
	if len(batches) == 0 || len(tokens) == 0 {
		return raw, nil
	}

	debug.LogScan("scanning %d files with %d workers, %d tokens\n", c.Len(), len(batches), len(tokens))

	handles := make([]*WorkerProgress, len(batches))
	results := make([]map[string][]int, len(batches))
	unreadable := make([]int, len(batches))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		wp := newWorkerProgress(len(batch))
		handles[i] = wp

		g.Go(func() error {
			loader := NewLoader()
			if opts.MaxFileSize > 0 {
				loader.MaxFileSize = opts.MaxFileSize
			}

			found := make(map[string][]int)
			for _, rel := range batch {
				// Check before starting the next file, never mid-read.
				if wp.isCanceled() || gctx.Err() != nil {
					return ErrCanceled
				}

				content, err := loader.Load(opts.Root, rel, opts.Meta)
				if err != nil {
					// Unreadable files are non-matches, not failures.
					// The count surfaces once, after the scan.
					debug.LogScan("load %s: %v\n", rel, err)
					unreadable[i]++
					wp.advance(rel)
					continue
				}

				var hit []int
				for ti := range tokens {
					if Matches(tokens[ti], content, rel, opts.GUIDOnly) {
						hit = append(hit, ti)
					}
				}
				if len(hit) > 0 {
					found[rel] = hit
				}
				wp.advance(rel)
			}
			results[i] = found
			return nil
		})
	}

	// The orchestrator samples the handles until the pool drains. On
	// outside cancellation it flips every cancel flag and then still
	// waits for the join: workers own their loaders and must finish
	// their current file first.
	join := make(chan error, 1)
	go func() { join <- g.Wait() }()

	ticker := time.NewTicker(types.ProgressPollInterval)
	defer ticker.Stop()

	var waitErr error
poll:
	for {
		select {
		case waitErr = <-join:
			break poll
		case <-ctx.Done():
			for _, wp := range handles {
				wp.cancel()
			}
			waitErr = <-join
			break poll
		case <-ticker.C:
			if opts.OnProgress != nil {
				opts.OnProgress(snapshotProgress(handles, start))
			}
		}
	}

	if waitErr != nil {
		if errors.Is(waitErr, ErrCanceled) || errors.Is(waitErr, context.Canceled) {
			return RawMatches{TokenCount: len(tokens)}, ErrCanceled
		}
		return RawMatches{TokenCount: len(tokens)}, waitErr
	}

	// Batches are disjoint, so the single-threaded merge never sees a
	// key twice.
	for _, found := range results {
		for path, hit := range found {
			raw.ByPath[path] = hit
		}
	}
	for _, n := range unreadable {
		raw.Unreadable += n
	}

	if opts.OnProgress != nil {
		opts.OnProgress(snapshotProgress(handles, start))
	}

	debug.LogScan("scan complete: %d matching files, %d unreadable, in %v\n",
		len(raw.ByPath), raw.Unreadable, time.Since(start))
	return raw, nil
}
