package pass

import (
	"runtime"
	"sync"
)

// parallelRows is the minimum row count worth splitting across workers.
// Below it goroutine overhead dominates.
const parallelRows = 64

// Rows runs fn over the rows [0, h) in contiguous bands, one band per
// worker. Each band counts non-finite values in its own Clamp; the counts
// are added to k after every band returns. fn may read any cell but must
// write only cells in rows [y0, y1).
func Rows(h int, k *Clamp, fn func(y0, y1 int, k *Clamp)) {
	workers := min(runtime.GOMAXPROCS(0), h)
	if h < parallelRows || workers <= 1 {
		fn(0, h, k)
		return
	}

	band := (h + workers - 1) / workers
	clamps := make([]Clamp, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := i * band
		y1 := min(y0+band, h)
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(i, y0, y1 int) {
			defer wg.Done()
			fn(y0, y1, &clamps[i])
		}(i, y0, y1)
	}
	wg.Wait()

	for _, c := range clamps {
		k.Cells += c.Cells
	}
}
