package particle

import (
	"testing"

	"github.com/iBaer/molflow-core/intersect"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
	"github.com/iBaer/molflow-core/sampler"
	"gonum.org/v1/gonum/spatial/r3"
)

// sourceFacet builds a minimal desorbing facet: a flat square frame at the
// origin, constant outgassing (no paramId), no assigned CDF, so
// StartFromSource exercises the analytic thermal-speed branch unless a
// test wires m.Params.CDFs itself.
func sourceFacet(desorb model.DesorbType) model.Facet {
	return model.Facet{
		SuperIdx: 0,
		Frame: model.Frame{
			N: r3.Vec{X: 0, Y: 0, Z: 1}, NU: r3.Vec{X: 1}, NV: r3.Vec{Y: 1},
			Ulen: 10, Vlen: 10,
		},
		Vertices2: []model.Vertex2{{U: 0, V: 0}, {U: 10, V: 0}, {U: 10, V: 10}, {U: 0, V: 10}},
		TexWidthD: 10, TexHeightD: 10,
		Temperature:       300,
		Outgassing:        1e6,
		OutgassingParamID: -1,
		StickingParamID:   -1,
		OpacityParamID:    -1,
		DesorbType:        desorb,
		DesorbTypeN:       4,
		CDFID:             -1,
	}
}

func newSourceTestWorker(t *testing.T, f model.Facet, useMaxwell bool) *Worker {
	t.Helper()
	m := &model.Model{
		Facets:                 []model.Facet{f},
		LatestMoment:           1,
		TotalDesorbedMolecules: 1, // deliberately far below the facet's contribution so selectSourceFacet always picks it
		GasMass:                28,
		UseMaxwellDistribution: useMaxwell,
	}
	oracle := &intersect.LinearScan{Model: m}
	thread := observe.NewThreadState(0, 1, 1, 1, []observe.FacetDims{{}}, 8, 8, 0)
	rng := sampler.NewWorkerRNG(1, 0, true)
	return NewWorker(m, oracle, thread, rng, 100)
}

func TestStartFromSourcePerDesorbType(t *testing.T) {
	tests := []struct {
		name   string
		desorb model.DesorbType
	}{
		{"cosine", model.DesorbCosine},
		{"uniform", model.DesorbUniform},
		{"cosineN", model.DesorbCosineN},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newSourceTestWorker(t, sourceFacet(tc.desorb), false)

			ok := w.StartFromSource()
			if !ok {
				t.Fatal("StartFromSource returned false, want true")
			}
			if w.P.LastHitFacet != 0 {
				t.Errorf("P.LastHitFacet = %d, want 0", w.P.LastHitFacet)
			}
			if w.P.Velocity <= 0 {
				t.Errorf("P.Velocity = %v, want positive", w.P.Velocity)
			}
			if w.P.StructureID != 0 {
				t.Errorf("P.StructureID = %d, want 0 (facet's SuperIdx)", w.P.StructureID)
			}
			if w.RemainingDes != 99 {
				t.Errorf("RemainingDes = %d, want 99 (decremented once)", w.RemainingDes)
			}
			if w.Thread.Global.NbDesorbed != 1 {
				t.Errorf("Thread.Global.NbDesorbed = %d, want 1", w.Thread.Global.NbDesorbed)
			}
		})
	}
}

func TestStartFromSourceUsesAssignedCDFWhenMaxwellEnabled(t *testing.T) {
	f := sourceFacet(model.DesorbCosine)
	f.CDFID = 0
	w := newSourceTestWorker(t, f, true)
	w.Model.Params.CDFs = []model.Curve{{X: []float64{0, 100, 200}, Y: []float64{0, 0.5, 1}}}

	if !w.StartFromSource() {
		t.Fatal("StartFromSource returned false, want true")
	}
	if w.P.Velocity < 0 || w.P.Velocity > 200 {
		t.Errorf("P.Velocity = %v, want a value drawn from the assigned CDF's domain [0,200]", w.P.Velocity)
	}
}

func TestStartFromSourceFailsWithNoRemainingBudget(t *testing.T) {
	w := newSourceTestWorker(t, sourceFacet(model.DesorbCosine), false)
	w.RemainingDes = 0

	if w.StartFromSource() {
		t.Error("StartFromSource should return false once RemainingDes is exhausted")
	}
}

func TestStartFromSourceFailsOnUniversalFacet(t *testing.T) {
	f := sourceFacet(model.DesorbCosine)
	f.SuperIdx = -1
	w := newSourceTestWorker(t, f, false)

	if w.StartFromSource() {
		t.Error("StartFromSource should refuse a universal (SuperIdx==-1) source facet")
	}
}

func TestPickCDFReturnsNilWithoutAnAssignedCDF(t *testing.T) {
	m := &model.Model{Params: model.TimeDependentParams{CDFs: []model.Curve{{X: []float64{0, 1}, Y: []float64{0, 1}}}}}
	f := &model.Facet{CDFID: -1}
	if got := pickCDF(m, f); got != nil {
		t.Errorf("pickCDF with CDFID=-1 = %v, want nil", got)
	}
}

func TestPickCDFReturnsTheAssignedCurve(t *testing.T) {
	curve := model.Curve{X: []float64{0, 1}, Y: []float64{0, 1}}
	m := &model.Model{Params: model.TimeDependentParams{CDFs: []model.Curve{{}, curve}}}
	f := &model.Facet{CDFID: 1}
	got := pickCDF(m, f)
	if got == nil || got.X[1] != 1 {
		t.Errorf("pickCDF with CDFID=1 = %v, want the second catalog entry", got)
	}
}
