package wde

import "sync"

// forEachRange splits [0, n) into contiguous chunks across workers
// goroutines and calls fn(start, end) for each chunk. Falls back to a
// single call when workers <= 1 or n <= 1.
//
// Chunks never overlap, so fn may write to disjoint slice ranges without
// synchronization; the caller aggregates afterwards in index order, which
// keeps results bitwise identical regardless of the worker count.
func forEachRange(workers, n int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	perWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
