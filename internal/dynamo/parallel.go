package dynamo

import "golang.org/x/sync/errgroup"

// ParallelFor runs fn over [0, n) in contiguous chunks of at least minChunk
// indices on up to workers goroutines. fn must only touch state owned by
// its own range. It returns the first error once every chunk has ended.
func ParallelFor(n, minChunk, workers int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}
	minChunk = max(minChunk, 1)
	chunks := min(max(workers, 1), (n+minChunk-1)/minChunk)
	if chunks == 1 {
		return fn(0, n)
	}

	size := (n + chunks - 1) / chunks
	var g errgroup.Group
	for start := 0; start < n; start += size {
		start := start
		end := min(start+size, n)
		g.Go(func() error { return fn(start, end) })
	}
	return g.Wait()
}
