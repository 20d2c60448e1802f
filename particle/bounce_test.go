package particle

import (
	"math"
	"testing"

	"github.com/iBaer/molflow-core/intersect"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

func bounceTestFacet() model.Facet {
	return model.Facet{
		Frame:     model.Frame{N: r3.Vec{X: 0, Y: 0, Z: 1}, NU: r3.Vec{X: 1}, NV: r3.Vec{Y: 1}},
		TexWidthD: 1, TexHeightD: 1,
		Temperature:     300,
		StickingParamID: -1, OpacityParamID: -1, OutgassingParamID: -1, CDFID: -1,
		Reflect: model.ReflectType{DiffusePart: 1},
		CountRefl: true,
	}
}

func newBounceTestWorker(t *testing.T, f model.Facet) *Worker {
	t.Helper()
	m := &model.Model{
		Facets:  []model.Facet{f},
		GasMass: 28,
	}
	oracle := &intersect.LinearScan{Model: m}
	thread := observe.NewThreadState(0, 1, 1, 1, []observe.FacetDims{{}}, 8, 8, 0)
	rng := sampler.NewWorkerRNG(1, 0, true)
	w := NewWorker(m, oracle, thread, rng, 100)
	w.P.Velocity = 100
	w.P.Direction = r3.Vec{X: 0, Y: 0, Z: -1}
	w.P.OriRatio = 1
	w.P.LastHitFacet = -1
	return w
}

func TestPerformBounceUpdatesDirectionVelocityAndCounters(t *testing.T) {
	w := newBounceTestWorker(t, bounceTestFacet())

	w.PerformBounce(0, 0.5, 0.5)

	if w.P.NbBounces != 1 {
		t.Errorf("P.NbBounces = %d, want 1", w.P.NbBounces)
	}
	if w.P.LastHitFacet != 0 {
		t.Errorf("P.LastHitFacet = %d, want 0", w.P.LastHitFacet)
	}
	// a diffuse reflection off N=(0,0,1) always leaves the surface, dir.Z>=0.
	if w.P.Direction.Z < 0 {
		t.Errorf("P.Direction.Z = %v, want >= 0 after diffuse reflection off an upward normal", w.P.Direction.Z)
	}
	if w.P.Velocity <= 0 {
		t.Errorf("P.Velocity = %v, want positive after UpdateVelocity", w.P.Velocity)
	}
	if w.Thread.Global.NbMCHit != 1 {
		t.Errorf("Thread.Global.NbMCHit = %d, want 1", w.Thread.Global.NbMCHit)
	}
}

func TestPerformBounceUsesAssignedCDFForFreshSpeedSample(t *testing.T) {
	f := bounceTestFacet()
	f.CDFID = 0
	w := newBounceTestWorker(t, f)
	w.Model.UseMaxwellDistribution = true
	w.Model.Params.CDFs = []model.Curve{{X: []float64{0, 50, 300}, Y: []float64{0, 0.5, 1}}}
	f.AccommodationFactor = 1 // force the fresh sample to be used outright

	w.Model.Facets[0] = f
	w.PerformBounce(0, 0.5, 0.5)

	if w.P.Velocity < 0 || w.P.Velocity > 300 {
		t.Errorf("P.Velocity = %v, want a value drawn from the assigned CDF's domain [0,300]", w.P.Velocity)
	}
}

func TestPerformBounceSpecularReflectsAboutNormal(t *testing.T) {
	f := bounceTestFacet()
	f.Reflect = model.ReflectType{SpecularPart: 1}
	w := newBounceTestWorker(t, f)

	w.PerformBounce(0, 0.5, 0.5)

	want := r3.Vec{X: 0, Y: 0, Z: 1}
	if math.Abs(w.P.Direction.X-want.X) > 1e-9 || math.Abs(w.P.Direction.Y-want.Y) > 1e-9 || math.Abs(w.P.Direction.Z-want.Z) > 1e-9 {
		t.Errorf("P.Direction = %+v, want %+v (mirror of (0,0,-1) about N)", w.P.Direction, want)
	}
}

func TestPerformBounceLinkFacetPassesThroughWithoutReflecting(t *testing.T) {
	f := bounceTestFacet()
	f.SuperDest = 2
	f.CountTrans = true
	w := newBounceTestWorker(t, f)

	w.PerformBounce(0, 0.5, 0.5)

	if w.P.NbBounces != 0 {
		t.Errorf("P.NbBounces = %d, want 0 (a link facet passes through, it does not bounce)", w.P.NbBounces)
	}
	if w.P.StructureID != 1 {
		t.Errorf("P.StructureID = %d, want 1 (SuperDest-1)", w.P.StructureID)
	}
	if w.P.Direction.Z != -1 {
		t.Errorf("P.Direction = %+v, a link facet must not change direction", w.P.Direction)
	}
}

func TestHandleOrdinaryFacetLowFluxSplitContinuesIntoPerformBounce(t *testing.T) {
	f := bounceTestFacet()
	w := newBounceTestWorker(t, f)
	w.Model.LowFluxMode = true
	w.Model.LowFluxCutoff = 0 // never cut off, so the split always continues

	w.handleOrdinaryFacet(0, 0.5, 0.5)

	// sticking defaults to 0 (unset), so the full weight survives into the bounce.
	if w.P.OriRatio != 1 {
		t.Errorf("P.OriRatio after low-flux split with sticking=0 = %v, want 1", w.P.OriRatio)
	}
	if w.P.NbBounces != 1 {
		t.Errorf("P.NbBounces = %d, want 1 (PerformBounce should have run)", w.P.NbBounces)
	}
	if w.P.LastHitFacet != 0 {
		t.Error("low-flux split should still reach PerformBounce and set LastHitFacet")
	}
}
