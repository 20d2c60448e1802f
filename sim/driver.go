// Package sim wires the model, observable buffers, intersection oracle and
// a fixed worker pool into a runnable simulation, following the teacher's
// init/reset/step-budget lifecycle shape (spec §4.F, §5).
package sim

import (
	"fmt"
	"log/slog"

	"github.com/iBaer/molflow-core/config"
	"github.com/iBaer/molflow-core/intersect"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/particle"
	"github.com/iBaer/molflow-core/reduce"
	"github.com/iBaer/molflow-core/sampler"
)

// Driver owns the model snapshot, the global observable state, and one
// worker per simulation thread. It is not safe for concurrent use of its
// lifecycle methods (Load/Reset/SetNParticle); only the worker goroutines
// launched by Run execute concurrently with each other.
type Driver struct {
	Model   *model.Model
	Cfg     *config.Config
	Global  *observe.GlobalState
	Reducer *reduce.Reducer
	Oracle  intersect.Oracle

	Workers []*particle.Worker
}

// LoadSimulation validates m, allocates the per-thread observable buffers
// and scratch sized to its dimensions, and attaches a fresh intersection
// oracle (spec §4.F). Returns an error wrapping the sanity-check log if
// strict validation finds any problems.
func LoadSimulation(m *model.Model, cfg *config.Config) (*Driver, error) {
	errCount, log := SanityCheckModel(m, true)
	if errCount > 0 {
		return nil, fmt.Errorf("model failed sanity check (%d errors): %v", errCount, log)
	}

	normalizeUntexturedCounters(m, func(msg string) { slog.Warn("model_normalize", "detail", msg) })

	m.LowFluxMode = cfg.LowFlux.Enabled
	m.LowFluxCutoff = cfg.LowFlux.Cutoff

	// GasMass/HalfLife of 0 are never physically valid, so a geometry file
	// that omits them falls back to the config default; UseMaxwellDistribution
	// and EnableDecay are left geometry-authoritative since their false
	// zero-value is indistinguishable from an explicit false in the file.
	if m.GasMass == 0 {
		m.GasMass = cfg.Physics.GasMass
	}
	if m.HalfLife == 0 {
		m.HalfLife = cfg.Physics.HalfLife
	}

	d := &Driver{Model: m, Cfg: cfg}
	d.Oracle = &intersect.LinearScan{Model: m}

	perFacet := facetDims(m, cfg)
	nbMoments := len(m.MomentTimes)
	h := cfg.Histogram

	d.Global = observe.NewGlobalState(nbMoments, h.BounceBinCount, h.DistanceBinCount, h.TimeBinCount, perFacet, cfg.Caches.HitCacheSize, cfg.Caches.LeakCacheSize)
	d.Reducer = reduce.NewReducer(d.Global, m)

	slog.Info("simulation_loaded",
		"facets", len(m.Facets),
		"vertices", len(m.Vertices),
		"moments", nbMoments,
		"threads", cfg.Run.Threads,
	)

	if err := d.SetNParticle(cfg.Run.Threads, cfg.Run.FixedSeed); err != nil {
		return nil, err
	}
	return d, nil
}

func facetDims(m *model.Model, cfg *config.Config) []observe.FacetDims {
	dims := make([]observe.FacetDims, len(m.Facets))
	for i := range m.Facets {
		f := &m.Facets[i]
		d := observe.FacetDims{}
		if f.IsTextured {
			d.TexW, d.TexH = f.TexWidth, f.TexHeight
		}
		if f.ProfileType != model.ProfileNone {
			d.ProfileSize = cfg.Caches.ProfileSize
		}
		if f.AngleMap != nil {
			d.AngleMapSize = len(f.AngleMap.Counts)
		}
		dims[i] = d
	}
	return dims
}

// SetNParticle (re)allocates n workers, each with its own thread-local
// state and RNG, discarding any previous workers and their in-flight
// particles (spec §4.F).
func (d *Driver) SetNParticle(n int, fixedSeed bool) error {
	if n <= 0 {
		return fmt.Errorf("sim: SetNParticle: n must be positive, got %d", n)
	}
	perFacet := facetDims(d.Model, d.Cfg)
	nbMoments := len(d.Model.MomentTimes)
	h := d.Cfg.Histogram

	workers := make([]*particle.Worker, n)
	for i := 0; i < n; i++ {
		thread := observe.NewThreadState(nbMoments, h.BounceBinCount, h.DistanceBinCount, h.TimeBinCount, perFacet, d.Cfg.Caches.HitCacheSize, d.Cfg.Caches.LeakCacheSize, i)
		rng := sampler.NewWorkerRNG(d.Cfg.Run.Seed, i, fixedSeed)
		workers[i] = particle.NewWorker(d.Model, d.Oracle, thread, rng, d.Cfg.Run.DesorptionLimit)
	}
	d.Workers = workers
	return nil
}

// RebuildAccelStructure rebuilds the intersection oracle from the current
// model; a no-op for the linear-scan reference oracle beyond re-pointing it
// at the model, but the hook exists so a BVH-backed oracle can be swapped in
// without changing driver wiring (spec §1 Non-goals, §6).
func (d *Driver) RebuildAccelStructure() {
	d.Oracle = &intersect.LinearScan{Model: d.Model}
	for _, w := range d.Workers {
		w.Oracle = d.Oracle
	}
}

// ResetSimulation zeroes the global state and every worker's thread-local
// state and particle, without reallocating buffers (spec §4.F).
func (d *Driver) ResetSimulation() {
	d.Global.Reset()
	for _, w := range d.Workers {
		w.Thread.Reset()
		w.P = particle.Particle{LastHitFacet: -1, TeleportedFrom: -1}
		w.RemainingDes = particle.NormalizeDesorptionLimit(d.Cfg.Run.DesorptionLimit)
	}
}

// ClearSimulation releases the driver's buffers entirely; the driver must
// be reloaded via LoadSimulation before further use.
func (d *Driver) ClearSimulation() {
	d.Global = nil
	d.Reducer = nil
	d.Workers = nil
}

// GetHitsSize estimates the serialized size in bytes of the global hit
// state, used by callers to size export buffers ahead of time.
func (d *Driver) GetHitsSize() int64 {
	if d.Global == nil {
		return 0
	}
	const scalarBytes = 8
	size := int64(0)
	for i := range d.Global.Facets {
		fs := &d.Global.Facets[i]
		for m := range fs.Texture {
			size += int64(len(fs.Texture[m])) * 3 * scalarBytes
			size += int64(len(fs.Direction[m])) * 4 * scalarBytes
		}
		for m := range fs.Profile {
			size += int64(len(fs.Profile[m])) * 3 * scalarBytes
		}
	}
	size += int64(len(d.Global.HitCache.Buf)) * 4 * scalarBytes
	size += int64(len(d.Global.LeakCache.Buf)) * 6 * scalarBytes
	return size
}
