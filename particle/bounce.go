package particle

import (
	"math"

	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

// PerformBounce reflects the particle off an ordinary (non-teleport) facet
// it was not absorbed by (spec §4.D.2): link pass-through, back-hit
// handling, incoming/outgoing observable recording, velocity accommodation
// and sojourn delay, and the new direction draw.
func (w *Worker) PerformBounce(facetID int, colU, colV float64) {
	p := &w.P
	f := w.facet(facetID)

	w.Thread.Global.NbMCHit++
	w.Thread.Global.NbHitEquiv += p.OriRatio

	if f.SuperDest != 0 {
		w.passThroughLink(facetID, f, colU, colV)
		return
	}

	incidence := r3.Dot(p.Direction, f.Frame.N)
	revert := f.Is2Sided && incidence > 0

	m := w.momentIndex(p.ParticleTime)
	fs := &w.Thread.Facets[facetID]
	ortFactor := sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	vOrt := p.Velocity * math.Abs(incidence)

	recordIncoming := func(idx int) {
		fs.Hits[idx].NbMCHit++
		fs.Hits[idx].Sum1PerOrtVelocity += 1.0 / vOrt
		fs.Hits[idx].SumVOrt += ortFactor * vOrt
	}
	recordIncoming(0)
	if m > 0 {
		recordIncoming(m)
	}
	if f.CountRefl {
		observe.RecordHitOnTexture(fs, f, colU, colV, m, p.OriRatio, true, 1.0, ortFactor, vOrt)
	}
	theta := math.Acos(math.Abs(incidence))
	observe.ProfileFacet(fs, f, m, theta, colU/f.TexWidthD, colV/f.TexHeightD, incidence, p.Velocity, w.profileMaxSpeed(f), 1.0, ortFactor, vOrt)
	if f.AngleMap != nil {
		phi := math.Atan2(r3.Dot(p.Direction, f.Frame.NV), r3.Dot(p.Direction, f.Frame.NU))
		observe.RecordAngleMap(fs, f.AngleMap, theta, phi)
	}

	freshSample := sampler.GenerateRandomVelocity(pickCDF(w.Model, f), w.Model.UseMaxwellDistribution, w.rnd(), f.Temperature, w.Model.GasMass)
	p.Velocity = sampler.UpdateVelocity(p.Velocity, f.AccommodationFactor, f.Temperature, w.Model.GasMass, w.Model.UseMaxwellDistribution, freshSample)

	if f.EnableSojournTime {
		delay := sampler.SojournDelay(f.SojournFreq, f.SojournE, f.Temperature, w.rnd())
		p.ParticleTime += delay
	}

	n := f.Frame.N
	if revert {
		n = r3.Scale(-1, n)
	}
	pick := w.rnd()
	var theta2, phi2 float64
	switch {
	case pick < f.Reflect.DiffusePart:
		theta2, phi2 = sampler.SampleReflectionHemisphere(n, 0, w.rnd(), w.rnd())
		p.Direction = sampler.PolarToCartesian(f.Frame.NU, f.Frame.NV, n, theta2, phi2, false)
	case pick < f.Reflect.DiffusePart+f.Reflect.SpecularPart:
		p.Direction = sampler.SpecularReflect(p.Direction, n)
	default:
		theta2, phi2 = sampler.SampleReflectionHemisphere(n, f.Reflect.CosineExponent, w.rnd(), w.rnd())
		p.Direction = sampler.PolarToCartesian(f.Frame.NU, f.Frame.NV, n, theta2, phi2, false)
	}

	if f.IsMoving && w.Model.MotionType != model.MotionNone {
		w.TreatMovingFacet()
	}

	if f.CountRefl {
		vOrtOut := p.Velocity * math.Abs(r3.Dot(p.Direction, f.Frame.N))
		observe.RecordHitOnTexture(fs, f, colU, colV, m, p.OriRatio, false, 1.0, 1.0, vOrtOut)
		observe.ProfileFacet(fs, f, m, theta, colU/f.TexWidthD, colV/f.TexHeightD, r3.Dot(p.Direction, f.Frame.N), p.Velocity, w.profileMaxSpeed(f), 1.0, 1.0, vOrtOut)
	}

	p.NbBounces++
	p.LastHitFacet = facetID
}

// passThroughLink implements PerformBounce's link-facet branch: the ray
// continues unchanged into the linked structure.
func (w *Worker) passThroughLink(facetID int, f *model.Facet, colU, colV float64) {
	p := &w.P
	m := w.momentIndex(p.ParticleTime)
	fs := &w.Thread.Facets[facetID]
	ortFactor := sampler.VOrtFactor(w.Model.UseMaxwellDistribution)
	vOrt := p.Velocity * math.Abs(r3.Dot(p.Direction, f.Frame.N))

	add := func(idx int) {
		fs.Hits[idx].NbMCHit++
		fs.Hits[idx].Sum1PerOrtVelocity += 1.0 / vOrt
		fs.Hits[idx].SumVOrt += ortFactor * vOrt
	}
	add(0)
	if m > 0 {
		add(m)
	}
	if f.CountTrans {
		observe.RecordHitOnTexture(fs, f, colU, colV, m, p.OriRatio, true, 1.0, ortFactor, vOrt)
	}
	if f.CountDirection {
		observe.RecordDirectionVector(fs, f, colU, colV, m, p.OriRatio, p.Direction.X, p.Direction.Y, p.Direction.Z, p.Velocity)
	}

	p.StructureID = f.SuperDest - 1
	if f.IsMoving && w.Model.MotionType != model.MotionNone {
		w.TreatMovingFacet()
	}
	p.LastHitFacet = facetID
}

// profileMaxSpeed bounds the velocity-ratio profile bins (§4.D.7's
// VELOCITY/ORT_VELOCITY/TAN_VELOCITY dot*v/maxSpeed); the frozen Model
// snapshot carries no separate histogram normalizer, so a practical ceiling
// of 3x the facet's mean thermal speed is used instead.
func (w *Worker) profileMaxSpeed(f *model.Facet) float64 {
	return 3 * sampler.NonMaxwellSpeed(f.Temperature, w.Model.GasMass)
}
