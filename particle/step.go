package particle

import (
	"math"

	"github.com/iBaer/molflow-core/intersect"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

// SimulationMCStep advances the worker's particle through up to nbStep
// bounce/transition events, re-sourcing a new particle in place whenever
// the current one ends its life. It returns false the moment
// StartFromSource itself fails (no available source, or the worker's
// desorption budget is exhausted), at which point the caller should stop
// dispatching further steps to this worker (spec §4.D).
func (w *Worker) SimulationMCStep(nbStep int) bool {
	for i := 0; i < nbStep; i++ {
		if !w.stepOnce() {
			return false
		}
	}
	return true
}

func (w *Worker) stepOnce() bool {
	p := &w.P
	m := w.Model

	// 1. (Re)source the particle if its previous life ended.
	if p.LastHitFacet < 0 {
		if !w.StartFromSource() {
			return false
		}
	}

	// 2. Ask the intersection oracle for the next collision.
	opacityAt := func(facetID int, t float64) float64 {
		return w.facet(facetID).GetOpacityAt(&m.Params, t)
	}
	result := w.Oracle.Intersect(p.Position, p.Direction, p.StructureID, p.ParticleTime, opacityAt, w.rnd)

	// 3. No hit: the particle leaked out of the geometry.
	if !result.Hit {
		w.recordLeak()
		p.reset()
		return true
	}

	// 4. Drain queued transparent passes, then advance to the hit point.
	for _, th := range result.Transparent {
		w.RegisterTransparentPass(th)
	}
	prevTime := p.ParticleTime
	p.Position = r3.Add(p.Position, r3.Scale(result.Distance, p.Direction))
	p.ParticleTime += result.Distance / (100 * p.Velocity)

	// 5. End-of-life check (time-of-flight past latestMoment, or decay).
	if w.checkEndOfLife(prevTime) {
		p.reset()
		return true
	}

	// 6. Dispatch by facet kind; both branches charge the hop's distance
	// (weighted by oriRatio) to the distance counters before acting.
	f := w.facet(result.FacetID)
	w.increaseDistanceCounters(result.Distance * p.OriRatio)
	switch {
	case f.TeleportDest != 0:
		w.PerformTeleport(result.FacetID, result.ColU, result.ColV)
	default:
		w.handleOrdinaryFacet(result.FacetID, result.ColU, result.ColV)
	}
	return true
}

// increaseDistanceCounters charges a hop's distance to the particle's own
// travelled-distance accumulator and both thread-local distance totals
// (spec §4.D step 6's "increase distance counters").
func (w *Worker) increaseDistanceCounters(weightedDistance float64) {
	w.P.DistanceTraveled += weightedDistance
	w.Thread.DistTraveledTotal += weightedDistance
	w.Thread.DistTraveledTotalFullHitsOnly += weightedDistance
}

func (w *Worker) checkEndOfLife(prevTime float64) bool {
	p := &w.P
	m := w.Model
	expired := !m.CalcConstantFlow && p.ParticleTime > m.LatestMoment
	decayed := m.EnableDecay && p.ParticleTime > p.ExpectedDecayMoment
	if !expired && !decayed {
		return false
	}
	remainingFlight := math.Min(m.LatestMoment, p.ExpectedDecayMoment-prevTime)
	if remainingFlight > 0 {
		w.Thread.DistTraveledTotal += p.Velocity * 100 * remainingFlight * p.OriRatio
	}
	return true
}

func (w *Worker) recordLeak() {
	p := &w.P
	w.Thread.NbLeakTotal++
	w.Thread.LeakCache.Push(observe.LeakRecord{
		X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
		DirX: p.Direction.X, DirY: p.Direction.Y, DirZ: p.Direction.Z,
	})
}

// momentIndex looks up (and caches) the current moment bin for the
// particle's time, per spec §4.C LookupMomentIndex.
func (w *Worker) momentIndex(t float64) int {
	idx := w.Model.LookupMomentIndex(t, w.P.LastMomentIndex)
	if idx < 0 {
		idx = 0
	}
	w.P.LastMomentIndex = idx
	return idx
}

// handleOrdinaryFacet implements step 6's "Ordinary" branch: sticking
// evaluation, absorption or bounce, including the low-flux weight split.
func (w *Worker) handleOrdinaryFacet(facetID int, colU, colV float64) {
	p := &w.P
	f := w.facet(facetID)

	if f.IsVolatile {
		if f.IsReady {
			w.recordAbsorb(facetID, colU, colV, p.OriRatio)
			f.IsReady = false
		}
		p.reset()
		return
	}

	sticking := f.GetStickingAt(&w.Model.Params, p.ParticleTime)

	if !w.Model.LowFluxMode {
		if w.rnd() < sticking {
			w.recordAbsorb(facetID, colU, colV, p.OriRatio)
			p.reset()
			return
		}
		w.PerformBounce(facetID, colU, colV)
		return
	}

	oriRatioBefore := p.OriRatio
	p.OriRatio = oriRatioBefore * sticking
	w.recordAbsorb(facetID, colU, colV, p.OriRatio)
	p.OriRatio = oriRatioBefore * (1 - sticking)
	if p.OriRatio < w.Model.LowFluxCutoff {
		p.reset()
		return
	}
	w.PerformBounce(facetID, colU, colV)
}

func (w *Worker) recordAbsorb(facetID int, colU, colV, weight float64) {
	p := &w.P
	f := w.facet(facetID)
	w.Thread.Global.NbMCHit++
	w.Thread.Global.NbHitEquiv += weight
	w.Thread.Global.NbAbsEquiv += weight
	fs := &w.Thread.Facets[facetID]
	m := w.momentIndex(p.ParticleTime)
	fs.Hits[0].NbMCHit++
	fs.Hits[0].NbHitEquiv += weight
	fs.Hits[0].NbAbsEquiv += weight
	if m > 0 {
		fs.Hits[m].NbMCHit++
		fs.Hits[m].NbHitEquiv += weight
		fs.Hits[m].NbAbsEquiv += weight
	}
	observe.RecordHistograms(&w.Thread.GlobalHistogram, fs, m, w.Model.GlobalHistogram, float64(p.NbBounces), p.DistanceTraveled, p.ParticleTime-p.GenerationTime)
	vOrt := p.Velocity * math.Abs(r3.Dot(p.Direction, f.Frame.N))
	ortFactor := sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	if f.CountAbs {
		observe.RecordHitOnTexture(fs, f, colU, colV, m, weight, true, 1.0, ortFactor, vOrt)
	}
	if f.AngleMap != nil {
		theta := math.Acos(math.Abs(r3.Dot(p.Direction, f.Frame.N)))
		phi := math.Atan2(r3.Dot(p.Direction, f.Frame.NV), r3.Dot(p.Direction, f.Frame.NU))
		observe.RecordAngleMap(fs, f.AngleMap, theta, phi)
	}
	w.Thread.HitCache.Push(observe.HitRecord{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, Type: observe.HitAbs})
}

// RegisterTransparentPass folds a partially-opaque crossing into the
// crossed facet's counters without ending the ray (spec §4.D.5).
func (w *Worker) RegisterTransparentPass(th intersect.TransparentHit) {
	p := &w.P
	f := w.facet(th.FacetID)
	fs := &w.Thread.Facets[th.FacetID]
	m := w.momentIndex(p.ParticleTime)

	velFactor := 2.0
	ortFactor := 2.0 * sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	vOrt := p.Velocity * math.Abs(r3.Dot(p.Direction, f.Frame.N))

	add := func(idx int) {
		fs.Hits[idx].NbMCHit++
		fs.Hits[idx].NbHitEquiv += p.OriRatio
		fs.Hits[idx].Sum1PerOrtVelocity += velFactor / vOrt
		fs.Hits[idx].SumVOrt += ortFactor * vOrt
	}
	add(0)
	if m > 0 {
		add(m)
	}

	if f.CountTrans {
		observe.RecordHitOnTexture(fs, f, th.ColU, th.ColV, m, p.OriRatio, true, velFactor, ortFactor, vOrt)
	}
	observe.ProfileFacet(fs, f, m, 0, th.ColU/f.TexWidthD, th.ColV/f.TexHeightD, r3.Dot(p.Direction, f.Frame.N), p.Velocity, w.profileMaxSpeed(f), velFactor, ortFactor, vOrt)
	if f.CountDirection {
		observe.RecordDirectionVector(fs, f, th.ColU, th.ColV, m, p.OriRatio, p.Direction.X, p.Direction.Y, p.Direction.Z, p.Velocity)
	}
}
