package corpus

// Corpus is the finite, ordered set of project-relative file paths one
// scan operates on. The path slice is fixed at enumeration time, so a
// scan is restartable: re-enumerating with the same filter over an
// unchanged tree yields the same corpus in the same order.
type Corpus struct {
	paths []string
}

// New wraps an already-enumerated path list.
func New(paths []string) Corpus {
	return Corpus{paths: paths}
}

// Paths returns the corpus paths in enumeration order.
func (c Corpus) Paths() []string {
	return c.paths
}

// Len returns the number of files in the corpus.
func (c Corpus) Len() int {
	return len(c.paths)
}

// Batches splits the corpus into contiguous slices for the scan
// workers: batch size is ceil(len/workers) and empty tails are
// dropped, so the batch count never exceeds min(len, workers).
// Batches share the corpus backing array; workers must treat them
// as read-only.
func (c Corpus) Batches(workers int) [][]string {
	n := len(c.paths)
	if n == 0 || workers <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers

	batches := make([][]string, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, c.paths[start:end])
	}
	return batches
}
