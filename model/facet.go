// Package model holds the immutable geometry snapshot consumed by the
// particle transport core: structures, facets, and the time-dependent
// parameters and distribution tables they reference. A Model is assembled
// once before a run; while a run is in progress workers only read it, except
// that a volatile facet's IsReady flag is cleared on its first hit.
package model

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DesorbType selects the angular distribution a facet emits into.
type DesorbType int

const (
	DesorbNone DesorbType = iota
	DesorbCosine
	DesorbUniform
	DesorbCosineN
	DesorbAngleMap
)

// ReflectType selects how PerformBounce mixes diffuse/specular/cosine^N.
type ReflectType struct {
	DiffusePart     float64
	SpecularPart    float64
	CosineExponent  float64 // exponent for the cos^N remainder (1 - diffuse - specular)
}

// ProfileType selects what ProfileFacet bins.
type ProfileType int

const (
	ProfileNone ProfileType = iota
	ProfileAngular
	ProfileU
	ProfileV
	ProfileVelocity
	ProfileOrtVelocity
	ProfileTanVelocity
)

// MotionType selects the facet's superstructure motion, if any.
type MotionType int

const (
	MotionNone MotionType = iota
	MotionTranslation
	MotionRotation
)

// Frame is the orthonormal local basis of a facet: O is the local origin
// (the low corner of the facet's (u,v) bounding box),
// U and V span the plane (not necessarily unit length; nU/nV are their unit
// forms), N is the outward unit normal U×V/|U×V|.
type Frame struct {
	O, U, V, N   r3.Vec
	NU, NV       r3.Vec
	Ulen, Vlen   float64 // |U|, |V| in cm
}

// Vertex2 is a facet-local 2D coordinate, u in [0,|U|], v in [0,|V|].
type Vertex2 struct {
	U, V float64
}

// Facet is a planar polygonal surface element. GlobalID is its index into
// Model.Facets; vertex order follows Indices into Model's shared vertex
// table, with Vertices2 the same points pre-projected into the local frame.
type Facet struct {
	GlobalID int
	Indices  []int
	Vertices2 []Vertex2

	Frame Frame
	Area  float64 // facet area in cm^2

	// Surface properties.
	Sticking          float64
	StickingParamID   int // -1 = constant
	Opacity           float64
	OpacityParamID    int // -1 = constant
	Temperature       float64 // Kelvin
	AccommodationFactor float64
	Is2Sided          bool
	IsMoving          bool

	DesorbType  DesorbType
	DesorbTypeN float64 // exponent for COSINE_N
	OutgassingParamID int // -1 = constant, else index into Model.Params.IDs
	Outgassing  float64   // constant outgassing rate, Pa*m^3/s, used when OutgassingParamID<0
	CDFID       int       // -1 = no Maxwell CDF assigned, else index into Model.Params.CDFs matching this facet's Temperature

	Reflect ReflectType

	SojournFreq         float64
	SojournE            float64
	EnableSojournTime   bool

	// Topology.
	SuperIdx     int // owning structure, -1 = all structures
	SuperDest    int // non-zero => link facet, routes to structure SuperDest-1
	TeleportDest int // facet id+1, or -1 = return to prior source, 0 = not a teleport
	IsVolatile   bool
	IsReady      bool // volatile facet one-shot state, reset on load

	// Texture.
	TexWidthD, TexHeightD float64
	TexWidth, TexHeight   int
	IsTextured            bool
	CountDes, CountAbs, CountRefl, CountTrans, CountACD, CountDirection bool
	ProfileType ProfileType

	Mesh *FacetMesh // nil until built by the mesher

	OutgassingMap *OutgassingMap // nil unless useOutgassingFile
	AngleMap      *AngleMap      // nil unless the facet records/replays an angle map

	Center r3.Vec // area-weighted centroid, used as a last-resort sample point
}

// FacetMesh is the clipped regular grid produced by the mesher (§4.B).
type FacetMesh struct {
	Width, Height int
	Cells         []MeshCell
	CellIncrement []float64 // 1/area per cell, precomputed (invariant 4 in spec §8)
}

// MeshCell is one clipped grid cell.
type MeshCell struct {
	Area          float64
	UCenter, VCenter float64
	Full          bool
	Poly          []Vertex2 // clipped polygon vertices, kept for external rendering
}

// IsInFacet reports whether local coordinates (u,v) lie inside the facet
// polygon, using a standard even-odd ray cast against Vertices2.
func (f *Facet) IsInFacet(u, v float64) bool {
	inside := false
	n := len(f.Vertices2)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := f.Vertices2[i], f.Vertices2[j]
		if (pi.V > v) != (pj.V > v) {
			uIntersect := pj.U + (v-pj.V)/(pj.V-pi.V)*(pi.U-pj.U)
			if u < uIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// ToWorld maps a local (u,v) coordinate to a world-space point.
func (f *Facet) ToWorld(u, v float64) r3.Vec {
	p := r3.Add(f.Frame.O, r3.Scale(u, f.Frame.NU))
	return r3.Add(p, r3.Scale(v, f.Frame.NV))
}
