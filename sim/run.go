package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iBaer/molflow-core/particle"
)

// Run dispatches every worker in its own goroutine, each advancing its
// particle in batches of stepsPerDispatch and then attempting to merge its
// thread-local state into the global state via the timed-mutex reducer
// (spec §4.D/§4.E, §5's fixed worker-pool model). Run blocks until ctx is
// cancelled or every worker's SimulationMCStep returns false (its source is
// exhausted); it returns the number of workers that ran out of source.
func (d *Driver) Run(ctx context.Context, stepsPerDispatch int) int {
	timeout := time.Duration(d.Cfg.Derived.ReductionTimeoutNs)
	backoff := time.Duration(d.Cfg.Reduction.RetryBackoffUs) * time.Microsecond

	var wg sync.WaitGroup
	var mu sync.Mutex
	exhausted := 0

	for i, w := range d.Workers {
		wg.Add(1)
		go func(id int, worker *particle.Worker) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if !worker.SimulationMCStep(stepsPerDispatch) {
					mu.Lock()
					exhausted++
					mu.Unlock()
					return
				}
				if !d.tryReduce(id, timeout, backoff) {
					slog.Warn("reduce_timeout", "worker", id)
				}
			}
		}(i, w)
	}
	wg.Wait()
	return exhausted
}

// tryReduce merges worker id's thread-local state into the global state and
// resets it on success (the driver's responsibility per spec §4.E).
func (d *Driver) tryReduce(id int, timeout, backoff time.Duration) bool {
	w := d.Workers[id]
	if !d.Reducer.UpdateMCHits(w.Thread, timeout, backoff) {
		return false
	}
	w.Thread.Reset()
	return true
}
