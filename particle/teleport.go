package particle

import (
	"math"

	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

// PerformTeleport routes a particle through a teleport facet (spec §4.D.3):
// incidence angles are preserved across source/destination frames, position
// is mapped at the same local (u,v) with resampling on a miss, and the
// destination structure becomes current unless it is universal.
func (w *Worker) PerformTeleport(srcID int, colU, colV float64) {
	p := &w.P
	src := w.facet(srcID)

	destID := src.TeleportDest - 1
	if src.TeleportDest == -1 {
		destID = p.TeleportedFrom
	}
	if destID < 0 || destID >= len(w.Model.Facets) {
		w.recordTeleportFailure()
		return
	}
	dst := w.facet(destID)

	w.recordTeleportSource(srcID, colU, colV)

	theta, phi := sampler.CartesianToPolar(p.Direction, src.Frame.NU, src.Frame.NV, src.Frame.N)
	p.Direction = sampler.PolarToCartesian(dst.Frame.NU, dst.Frame.NV, dst.Frame.N, theta, phi, false)

	u, v := colU, colV
	if !dst.IsInFacet(u, v) {
		found := false
		for try := 0; try < maxPositionTries; try++ {
			u = w.rnd() * dst.Frame.Ulen
			v = w.rnd() * dst.Frame.Vlen
			if dst.IsInFacet(u, v) {
				found = true
				break
			}
		}
		if !found {
			w.recordLeak()
			p.reset()
			return
		}
	}

	p.Position = dst.ToWorld(u, v)
	if dst.SuperIdx != -1 {
		p.StructureID = dst.SuperIdx
	}
	p.TeleportedFrom = src.GlobalID
	p.LastHitFacet = destID

	w.recordTeleportDest(destID, u, v)
}

// recordTeleportSource charges the source facet's counters (doubled,
// matching the desorption/transparent-pass convention) and pushes the
// HIT_TELEPORTSOURCE marker.
func (w *Worker) recordTeleportSource(srcID int, colU, colV float64) {
	p := &w.P
	f := w.facet(srcID)
	fs := &w.Thread.Facets[srcID]
	m := w.momentIndex(p.ParticleTime)

	ortFactor := 2.0 * sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	vOrt := p.Velocity * math.Abs(r3.Dot(p.Direction, f.Frame.N))

	add := func(idx int) {
		fs.Hits[idx].NbMCHit++
		fs.Hits[idx].Sum1PerOrtVelocity += 2.0 / vOrt
		fs.Hits[idx].SumVOrt += ortFactor * vOrt
	}
	add(0)
	if m > 0 {
		add(m)
	}
	if f.CountTrans {
		observe.RecordHitOnTexture(fs, f, colU, colV, m, p.OriRatio, true, 2.0, ortFactor, vOrt)
	}
	observe.ProfileFacet(fs, f, m, 0, colU/f.TexWidthD, colV/f.TexHeightD, r3.Dot(p.Direction, f.Frame.N), p.Velocity, w.profileMaxSpeed(f), 2.0, ortFactor, vOrt)
	if f.CountDirection {
		observe.RecordDirectionVector(fs, f, colU, colV, m, p.OriRatio, p.Direction.X, p.Direction.Y, p.Direction.Z, p.Velocity)
	}

	w.Thread.HitCache.Push(observe.HitRecord{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, Type: observe.HitTeleportSource})
}

// recordTeleportDest pushes the HIT_TELEPORTDEST marker at the destination
// position; counters were already charged to the source facet.
func (w *Worker) recordTeleportDest(destID int, u, v float64) {
	p := &w.P
	w.Thread.HitCache.Push(observe.HitRecord{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, Type: observe.HitTeleportDest})
}

// recordTeleportFailure marks a broken teleport link (missing destination)
// without respawning the particle; the caller (stepOnce) already advanced
// its distance/time counters for this segment.
func (w *Worker) recordTeleportFailure() {
	p := &w.P
	w.Thread.HitCache.Push(observe.HitRecord{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, Type: observe.HitRef})
}
