package tt

import (
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesshash/internal/threads"
)

// bindThreshold is the thread count above which clearing goroutines are
// pinned to CPUs.
const bindThreshold = 8

// Clear zeroes the whole table. The entries are split into one contiguous
// slice per configured thread, the last slice taking the remainder, and the
// slices are zeroed in parallel. Clear returns once every slice is done.
func (t *Table) Clear() {
	count := len(t.entries)
	if count == 0 {
		return
	}

	n := 1
	if t.threads != nil {
		n = max(t.threads.Threads(), 1)
	}

	var g errgroup.Group
	for idx := range n {
		g.Go(func() error {
			// Thread binding gives faster search on systems with a first-touch policy
			if n > bindThreshold {
				if err := threads.Bind(idx); err != nil {
					t.log.Debug("bind clear worker", "worker", idx, "error", err)
				}
			}

			// Each goroutine zeroes its part of the table
			stride := count / n
			start := stride * idx
			end := start + stride
			if idx == n-1 {
				end = count
			}
			clear(t.entries[start:end])
			return nil
		})
	}
	_ = g.Wait()
}
