package particle

import (
	"github.com/iBaer/molflow-core/intersect"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
)

// Worker owns one particle, one thread-local observable buffer and one RNG.
// Workers never touch another worker's state, and the only Model field they
// write is a volatile facet's IsReady flag (cleared on its first hit); the
// only synchronized access point is reduce.Reducer.UpdateMCHits.
type Worker struct {
	Model  *model.Model
	Oracle intersect.Oracle
	Thread *observe.ThreadState
	RNG    *sampler.RNG

	// RemainingDes is the per-worker desorption budget; negative means
	// unlimited. StartFromSource decrements it on every successful spawn.
	RemainingDes int64

	P Particle
}

// NewWorker allocates a worker bound to a model, oracle and thread-local
// buffer. desorptionLimit<=0 means no per-worker cap (matches the config
// package's "0 = unlimited" convention); it is stored internally as -1.
func NewWorker(m *model.Model, oracle intersect.Oracle, thread *observe.ThreadState, rng *sampler.RNG, desorptionLimit int64) *Worker {
	if desorptionLimit <= 0 {
		desorptionLimit = -1
	}
	w := &Worker{Model: m, Oracle: oracle, Thread: thread, RNG: rng, RemainingDes: desorptionLimit}
	w.P.reset()
	return w
}

// NormalizeDesorptionLimit applies the config package's "0 = unlimited"
// convention, returning the internal sentinel (-1) RemainingDes expects.
func NormalizeDesorptionLimit(limit int64) int64 {
	if limit <= 0 {
		return -1
	}
	return limit
}

// rnd draws a uniform random number in [0,1) from the worker's RNG.
func (w *Worker) rnd() float64 {
	return w.RNG.Float64()
}

func (w *Worker) facet(id int) *model.Facet {
	return &w.Model.Facets[id]
}
