package geometry

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

const sampleGEOv13 = `version: 13
nbSuper: 1
gasMass: 2.0
halfLife: 0
enableDecay: 0
useMaxwellDistribution: 1
latestMoment: 0
totalDesorbedMolecules: 0
calcConstantFlow: 1
vertex: 0 0 0
vertex: 10 0 0
vertex: 10 10 0
vertex: 0 10 0
facet: 1
indices: 1 2 3 4
sticking: 1
stickingParam: -1
opacity: 1
opacityParam: -1
temperature: 300
countDirection: 0
visible: 1
teleportDest: 0
outgassing: 10
outgassingParam: -1
desorbTypeN: 0
accomodationFactor: 1
desorbType: cosine
is2sided: 0
isMoving: 0
superIdx: 0
superDest: 0
diffusePart: 1
specularPart: 0
cosineExponent: 0
texWidth: 0
texHeight: 0
countDes: 0
countAbs: 1
countRefl: 1
countTrans: 0
`

func TestParseGEOBasicFields(t *testing.T) {
	m, err := ParseGEO(strings.NewReader(sampleGEOv13))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}
	if m.GasMass != 2.0 {
		t.Errorf("GasMass = %v, want 2.0", m.GasMass)
	}
	if len(m.Vertices) != 4 {
		t.Fatalf("len(Vertices) = %d, want 4", len(m.Vertices))
	}
	if len(m.Facets) != 1 {
		t.Fatalf("len(Facets) = %d, want 1", len(m.Facets))
	}
	f := m.Facets[0]
	if len(f.Indices) != 4 || f.Indices[0] != 0 {
		t.Errorf("Indices = %v, want 0-based [0 1 2 3]", f.Indices)
	}
	// v7+ outgassing is stored as mbar*l/s on disk, converted x0.1 -> Pa*m^3/s.
	if math.Abs(f.Outgassing-1.0) > 1e-9 {
		t.Errorf("Outgassing = %v, want 1.0 (10 * 0.1 unit conversion)", f.Outgassing)
	}
	if f.CountAbs != true || f.CountTrans != false {
		t.Errorf("CountAbs/CountTrans = %v/%v, want true/false", f.CountAbs, f.CountTrans)
	}
	if f.Area <= 0 {
		t.Errorf("Area = %v, want positive (derived from the 10x10 square)", f.Area)
	}
	if math.Abs(f.Area-100) > 1e-6 {
		t.Errorf("Area = %v, want 100 for a 10x10 square facet", f.Area)
	}
}

func TestParseGEOVersionGatesOutgassingConversion(t *testing.T) {
	v6 := strings.Replace(sampleGEOv13, "version: 13", "version: 6", 1)
	m, err := ParseGEO(strings.NewReader(v6))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}
	if math.Abs(m.Facets[0].Outgassing-10) > 1e-9 {
		t.Errorf("pre-v7 Outgassing = %v, want unconverted 10", m.Facets[0].Outgassing)
	}
}

func TestParseGEORejectsMissingVertices(t *testing.T) {
	body := "version: 13\nfacet: 1\nindices: 1 2 3\n"
	if _, err := ParseGEO(strings.NewReader(body)); err == nil {
		t.Error("expected an error for a GEO file with no vertices")
	}
}

func TestParseGEORejectsOutOfRangeIndex(t *testing.T) {
	body := "version: 13\nvertex: 0 0 0\nvertex: 1 0 0\nvertex: 1 1 0\nfacet: 1\nindices: 1 2 99\n"
	if _, err := ParseGEO(strings.NewReader(body)); err == nil {
		t.Error("expected an error for an out-of-range vertex index")
	}
}

func TestWriteGEOThenParseGEORoundTrips(t *testing.T) {
	m, err := ParseGEO(strings.NewReader(sampleGEOv13))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteGEO(&buf, m, 13); err != nil {
		t.Fatalf("WriteGEO: %v", err)
	}

	m2, err := ParseGEO(&buf)
	if err != nil {
		t.Fatalf("ParseGEO(written): %v", err)
	}
	if len(m2.Vertices) != len(m.Vertices) {
		t.Errorf("round-tripped vertex count = %d, want %d", len(m2.Vertices), len(m.Vertices))
	}
	if m2.Facets[0].Sticking != m.Facets[0].Sticking {
		t.Errorf("round-tripped Sticking = %v, want %v", m2.Facets[0].Sticking, m.Facets[0].Sticking)
	}
	if math.Abs(m2.Facets[0].Outgassing-m.Facets[0].Outgassing) > 1e-9 {
		t.Errorf("round-tripped Outgassing = %v, want %v", m2.Facets[0].Outgassing, m.Facets[0].Outgassing)
	}
}

func TestDesorbTypeRoundTrip(t *testing.T) {
	for _, name := range []string{"cosine", "uniform", "cosineN", "anglemap"} {
		dt := parseDesorbType(name)
		if got := desorbTypeName(dt); got != name {
			t.Errorf("desorbTypeName(parseDesorbType(%q)) = %q, want %q", name, got, name)
		}
	}
}
