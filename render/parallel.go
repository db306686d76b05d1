package render

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a configured worker cap to an actual worker count:
// one per CPU, bounded by limit when limit > 0.
func Workers(limit int) int {
	n := runtime.NumCPU()
	if limit > 0 && limit < n {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ForEachRow partitions height rows across workers and runs fn on each
// contiguous slice [y0, y1). fn instances run concurrently and must only
// touch their own rows; ForEachRow joins all workers before returning.
// With one worker (or few rows) it runs inline.
func ForEachRow(height, workers int, fn func(worker, y0, y1 int) error) error {
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		return fn(0, 0, height)
	}

	var g errgroup.Group
	rowsPer := height / workers
	extra := height % workers

	y := 0
	for w := 0; w < workers; w++ {
		y0 := y
		y1 := y0 + rowsPer
		if w < extra {
			y1++
		}
		y = y1

		worker := w
		g.Go(func() error {
			return fn(worker, y0, y1)
		})
	}

	return g.Wait()
}
