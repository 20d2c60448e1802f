package particle

import (
	"log/slog"
	"math"

	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

const maxPositionTries = 1000

// StartFromSource reinitializes the worker's particle at a freshly sampled
// desorption facet (spec §4.D.1). Returns false when no source is available
// or the per-worker desorption budget is exhausted, the two conditions under
// which SimulationMCStep ends the run for this worker.
func (w *Worker) StartFromSource() bool {
	if w.RemainingDes == 0 {
		return false
	}
	srcID, ok := w.selectSourceFacet()
	if !ok {
		return false
	}
	src := w.facet(srcID)
	if src.SuperIdx == -1 {
		slog.Error("desorption_source_universal_facet", "facet", srcID)
		return false
	}

	m := w.Model
	p := &w.P
	p.reset()
	p.StructureID = src.SuperIdx
	p.TeleportedFrom = -1

	idCurve := outgassingIDCurve(m, src)
	p.GenerationTime = sampler.GenerateDesorptionTime(idCurve, m.LatestMoment, w.rnd())
	p.ParticleTime = p.GenerationTime
	p.LastMomentIndex = 0

	p.ExpectedDecayMoment = sampler.DecayMoment(p.ParticleTime, m.HalfLife, m.EnableDecay, w.rnd())

	var cdf *model.Curve
	if src.DesorbType != model.DesorbNone {
		cdf = pickCDF(m, src)
	}
	p.Velocity = sampler.GenerateRandomVelocity(cdf, m.UseMaxwellDistribution, w.rnd(), src.Temperature, m.GasMass)

	p.OriRatio = 1

	u, v := w.sampleSourcePosition(src)
	p.Position = src.ToWorld(u, v)

	reverse := false
	if src.Is2Sided {
		reverse = w.rnd() > 0.5
	}
	var theta, phi float64
	if src.DesorbType == model.DesorbAngleMap && src.AngleMap != nil {
		theta, phi = sampler.SampleAngleMapDirection(src.AngleMap, w.rnd(), w.rnd())
	} else {
		theta, phi = sampler.SampleDesorptionDirection(src.DesorbType, src.DesorbTypeN, w.rnd(), w.rnd())
	}
	p.Direction = sampler.PolarToCartesian(src.Frame.NU, src.Frame.NV, src.Frame.N, theta, phi, reverse)

	p.LastHitFacet = srcID
	w.RemainingDes--

	w.recordDesorption(src, srcID, u, v)
	return true
}

// selectSourceFacet draws a facet weighted by its outgassing contribution
// (spec §4.D.1): target = r*totalDesorbedMolecules, first facet whose
// cumulative contribution reaches target wins.
func (w *Worker) selectSourceFacet() (int, bool) {
	m := w.Model
	if m.TotalDesorbedMolecules <= 0 {
		return -1, false
	}
	target := w.rnd() * m.TotalDesorbedMolecules
	running := 0.0
	for i := range m.Facets {
		f := &m.Facets[i]
		if f.DesorbType == model.DesorbNone {
			continue
		}
		running += facetOutgassingContribution(m, f)
		if running >= target {
			return i, true
		}
	}
	return -1, false
}

func facetOutgassingContribution(m *model.Model, f *model.Facet) float64 {
	kT := sampler.KB * f.Temperature
	if kT <= 0 {
		return 0
	}
	if f.OutgassingMap != nil {
		return m.LatestMoment * f.OutgassingMap.Total() / kT
	}
	if idCurve := outgassingIDCurve(m, f); idCurve != nil {
		return idCurve.LastY() / kT
	}
	return m.LatestMoment * f.Outgassing / kT
}

func outgassingIDCurve(m *model.Model, f *model.Facet) *model.Curve {
	if f.OutgassingParamID < 0 || f.OutgassingParamID >= len(m.Params.IDs) {
		return nil
	}
	return &m.Params.IDs[f.OutgassingParamID]
}

// pickCDF returns the facet's assigned Maxwell-Boltzmann speed CDF: f.CDFID
// is resolved once at load time (geometry.assignCDFs) to the catalog entry
// matching the facet's temperature, mirroring Molflow's per-facet
// CDFId/IDid lookup (original_source/src/Simulation/Particle.cpp) rather
// than recomputing a distribution per desorption. Returns nil when the
// facet has no assigned CDF (temperature <= 0); whether the CDF is used at
// all is decided by the caller's useMaxwellDistribution check.
func pickCDF(m *model.Model, f *model.Facet) *model.Curve {
	if f.CDFID < 0 || f.CDFID >= len(m.Params.CDFs) {
		return nil
	}
	return &m.Params.CDFs[f.CDFID]
}

// sampleSourcePosition reject-samples a local (u,v) point inside the source
// facet, up to maxPositionTries attempts; map facets first draw a cell by
// CDF and resample within it. On exhaustion it falls back to the map cell's
// centre or the facet's area-weighted centroid (spec §4.D.1's tolerated rare
// bias).
func (w *Worker) sampleSourcePosition(f *model.Facet) (u, v float64) {
	if f.OutgassingMap != nil {
		cell := f.OutgassingMap.SampleCell(w.rnd())
		u0, v0, u1, v1 := f.OutgassingMap.CellBounds(cell, f.TexWidthD, f.TexHeightD)
		for try := 0; try < maxPositionTries; try++ {
			cu := u0 + w.rnd()*(u1-u0)
			cv := v0 + w.rnd()*(v1-v0)
			if f.IsInFacet(cu, cv) {
				return cu, cv
			}
		}
		return (u0 + u1) / 2, (v0 + v1) / 2
	}

	for try := 0; try < maxPositionTries; try++ {
		cu := w.rnd() * f.Frame.Ulen
		cv := w.rnd() * f.Frame.Vlen
		if f.IsInFacet(cu, cv) {
			return cu, cv
		}
	}
	rel := r3.Sub(f.Center, f.Frame.O)
	return r3.Dot(rel, f.Frame.NU), r3.Dot(rel, f.Frame.NV)
}

func (w *Worker) recordDesorption(f *model.Facet, id int, u, v float64) {
	velFactor := 2.0
	ortFactor := sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	vOrt := w.P.Velocity * math.Abs(r3.Dot(w.P.Direction, f.Frame.N))

	hitType := observe.HitDes
	if f.IsMoving && w.Model.MotionType != model.MotionNone {
		hitType = observe.HitMoving
	}
	w.Thread.HitCache.Push(observe.HitRecord{X: w.P.Position.X, Y: w.P.Position.Y, Z: w.P.Position.Z, Type: hitType})

	w.Thread.Global.NbDesorbed++

	fs := &w.Thread.Facets[id]
	gh := &fs.Hits[0]
	gh.NbDesorbed++
	gh.Sum1PerOrtVelocity += velFactor / vOrt
	gh.SumVOrt += ortFactor * vOrt
	gh.Sum1PerVelocity += 1.0 / w.P.Velocity

	observe.ProfileFacet(fs, f, 0, 0, u/f.TexWidthD, v/f.TexHeightD, 0, w.P.Velocity, w.profileMaxSpeed(f), velFactor, ortFactor, vOrt)
	if f.CountDes {
		observe.RecordHitOnTexture(fs, f, u, v, 0, w.P.OriRatio, true, velFactor, ortFactor, vOrt)
	}
}
