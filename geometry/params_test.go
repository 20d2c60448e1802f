package geometry

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

const sampleGEOWithParams = `version: 13
nbSuper: 1
gasMass: 28
halfLife: 0
enableDecay: 0
useMaxwellDistribution: 1
latestMoment: 10
totalDesorbedMolecules: 0
calcConstantFlow: 1
vertex: 0 0 0
vertex: 10 0 0
vertex: 10 10 0
vertex: 0 10 0
parameter: 0 sticking
point: 0 0.2
point: 10 0.8
parameter: 0 outgassing
point: 0 1
point: 10 3
facet: 1
indices: 1 2 3 4
sticking: 0.5
stickingParam: 0
opacity: 1
opacityParam: -1
temperature: 300
outgassing: 0
outgassingParam: 0
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
countDes: 1
countAbs: 0
countRefl: 0
countTrans: 0
`

func TestParseGEOPopulatesParameterCatalog(t *testing.T) {
	m, err := ParseGEO(strings.NewReader(sampleGEOWithParams))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}
	if len(m.Params.Sticking) != 1 || len(m.Params.Sticking[0].X) != 2 {
		t.Fatalf("Params.Sticking = %+v, want one 2-point curve", m.Params.Sticking)
	}
	if got := m.Facets[0].GetStickingAt(&m.Params, 5); got != 0.5 {
		t.Errorf("GetStickingAt(5) via catalog id 0 = %v, want 0.5 (midpoint of 0.2..0.8)", got)
	}

	if len(m.Params.Outgassing) != 1 {
		t.Fatalf("Params.Outgassing = %+v, want one curve", m.Params.Outgassing)
	}
	if len(m.Params.IDs) != 1 {
		t.Fatalf("Params.IDs = %+v, want one derived curve", m.Params.IDs)
	}
	// integral of the outgassing rate 1->3 over [0,10] is (1+3)/2*10 = 20.
	if got := m.Params.IDs[0].LastY(); math.Abs(got-20) > 1e-9 {
		t.Errorf("IDs[0].LastY() = %v, want 20 (trapezoidal integral of outgassing catalog 0)", got)
	}
}

func TestParseGEOAssignsCDFIDByTemperature(t *testing.T) {
	m, err := ParseGEO(strings.NewReader(sampleGEOWithParams))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}
	if len(m.Params.CDFs) != 1 {
		t.Fatalf("Params.CDFs = %+v, want one curve for the single distinct temperature", m.Params.CDFs)
	}
	if m.Facets[0].CDFID != 0 {
		t.Errorf("Facets[0].CDFID = %d, want 0", m.Facets[0].CDFID)
	}
	cdf := &m.Params.CDFs[0]
	if got := cdf.LastY(); math.Abs(got-1) > 1e-9 {
		t.Errorf("CDF LastY() = %v, want 1 (normalized)", got)
	}
	if got := cdf.InterpolateX(0); got != cdf.X[0] {
		t.Errorf("CDF InterpolateX(0) = %v, want the CDF's first sample (speed 0)", got)
	}
}

func TestParseGEOTwoTemperaturesGetDistinctCDFs(t *testing.T) {
	body := strings.Replace(sampleGEOWithParams, "nbSuper: 1", "nbSuper: 2", 1)
	body += "facet: 2\nindices: 1 2 3 4\nsticking: 1\nstickingParam: -1\nopacity: 1\nopacityParam: -1\ntemperature: 600\n" +
		"outgassing: 1\noutgassingParam: -1\ndesorbType: cosine\nis2sided: 0\nisMoving: 0\nsuperIdx: 0\nsuperDest: 0\n" +
		"diffusePart: 1\nspecularPart: 0\ncosineExponent: 0\ntexWidth: 0\ntexHeight: 0\ncountDes: 0\ncountAbs: 0\ncountRefl: 0\ncountTrans: 0\n"

	m, err := ParseGEO(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseGEO: %v", err)
	}
	if len(m.Params.CDFs) != 2 {
		t.Fatalf("Params.CDFs = %d entries, want 2 (300K and 600K)", len(m.Params.CDFs))
	}
	if m.Facets[0].CDFID == m.Facets[1].CDFID {
		t.Errorf("facets at different temperatures share CDFID %d", m.Facets[0].CDFID)
	}
}

func TestWriteGEOThenParseGEORoundTripsParameterCatalog(t *testing.T) {
	m, err := ParseGEO(strings.NewReader(sampleGEOWithParams))
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
	if len(m2.Params.Sticking) != len(m.Params.Sticking) {
		t.Errorf("round-tripped Params.Sticking len = %d, want %d", len(m2.Params.Sticking), len(m.Params.Sticking))
	}
	if m2.Facets[0].GetStickingAt(&m2.Params, 5) != m.Facets[0].GetStickingAt(&m.Params, 5) {
		t.Error("round-tripped sticking catalog no longer agrees with the original at t=5")
	}
}

const sampleXMLWithParams = `<SimulationEnvironment>
  <Geometry>
    <Vertices>
      <Indice id="0" x="0" y="0" z="0" vertexOffset="0"/>
      <Indice id="1" x="10" y="0" z="0" vertexOffset="0"/>
      <Indice id="2" x="10" y="10" z="0" vertexOffset="0"/>
      <Indice id="3" x="0" y="10" z="0" vertexOffset="0"/>
    </Vertices>
    <Facets>
      <Facet id="0">
        <Indices>
          <Indice vertex="0"/>
          <Indice vertex="1"/>
          <Indice vertex="2"/>
          <Indice vertex="3"/>
        </Indices>
        <Sticking constant="0.5" paramId="1"/>
        <Opacity constant="1" paramId="0"/>
        <Outgassing constant="0" paramId="0" mapFile=""/>
        <Temperature value="400" accomodationFactor="1"/>
        <Reflection diffusePart="1" specularPart="0" cosineExponent="0"/>
        <Structure superIdx="0" superDest="0" is2sided="false"/>
        <Teleport dest="0"/>
        <Motion isMoving="false"/>
        <Recordings>
          <Profile type="0"/>
          <Texture width="0" height="0" countDes="false" countAbs="true" countRefl="false" countTrans="false"/>
        </Recordings>
      </Facet>
    </Facets>
    <Parameters>
      <Parameter id="1" kind="sticking">
        <Point x="0" y="0.1"/>
        <Point x="10" y="0.9"/>
      </Parameter>
      <Parameter id="0" kind="outgassing">
        <Point x="0" y="2"/>
        <Point x="10" y="2"/>
      </Parameter>
    </Parameters>
  </Geometry>
</SimulationEnvironment>`

func TestParseXMLPopulatesParameterCatalog(t *testing.T) {
	m, err := ParseXML(strings.NewReader(sampleXMLWithParams))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	if len(m.Params.Sticking) != 2 {
		t.Fatalf("Params.Sticking = %+v, want a dense slice sized to the max id (1)", m.Params.Sticking)
	}
	if got := m.Facets[0].GetStickingAt(&m.Params, 5); got != 0.5 {
		t.Errorf("GetStickingAt(5) via catalog id 1 = %v, want 0.5 (midpoint of 0.1..0.9)", got)
	}
	if len(m.Params.IDs) != 1 || m.Params.IDs[0].LastY() != 20 {
		t.Errorf("Params.IDs[0].LastY() = %v, want 20 (constant rate 2 over [0,10])", m.Params.IDs)
	}
	if m.Facets[0].CDFID != 0 {
		t.Errorf("Facets[0].CDFID = %d, want 0 (only one distinct temperature present)", m.Facets[0].CDFID)
	}
}

func TestWriteXMLThenParseXMLRoundTripsParameterCatalog(t *testing.T) {
	m, err := ParseXML(strings.NewReader(sampleXMLWithParams))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteXML(&buf, m); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}
	m2, err := ParseXML(&buf)
	if err != nil {
		t.Fatalf("ParseXML(written): %v", err)
	}
	if len(m2.Params.Sticking) != len(m.Params.Sticking) {
		t.Errorf("round-tripped Params.Sticking len = %d, want %d", len(m2.Params.Sticking), len(m.Params.Sticking))
	}
	if m2.Facets[0].GetStickingAt(&m2.Params, 5) != m.Facets[0].GetStickingAt(&m.Params, 5) {
		t.Error("round-tripped sticking catalog no longer agrees with the original at t=5")
	}
}
