// Package intersect defines the ray-surface intersection oracle the
// particle core consumes (spec §6) and a linear-scan reference
// implementation suitable for tests and small geometries. A production
// BVH/KD-tree accelerator is out of scope (spec §1) and can implement the
// same Oracle interface as a drop-in replacement.
package intersect

import (
	"github.com/iBaer/molflow-core/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// TransparentHit is one partially-opaque facet crossing recorded along a
// ray segment, to be drained by RegisterTransparentPass (spec §4.D.5).
type TransparentHit struct {
	FacetID        int
	ColU, ColV     float64
	ColDistTranspPass float64
}

// Result is the oracle's answer for one ray cast.
type Result struct {
	Hit      bool
	FacetID  int // valid iff Hit
	Distance float64
	ColU, ColV float64 // local hit coordinates on the hit facet

	Transparent []TransparentHit
}

// Oracle answers ray-surface intersection queries within a structure.
type Oracle interface {
	Intersect(origin, direction r3.Vec, structureID int, t float64, opacityAt func(facetID int, t float64) float64, rnd func() float64) Result
}

// LinearScan is a reference Oracle: it tests every facet of the given
// structure (plus universal facets) and keeps the closest hit, sampling
// partial transparency along the way per spec §4.D.5/§6.
type LinearScan struct {
	Model *model.Model
}

// Intersect implements Oracle.
func (l *LinearScan) Intersect(origin, direction r3.Vec, structureID int, t float64, opacityAt func(int, float64) float64, rnd func() float64) Result {
	best := Result{Distance: math_Inf}
	ids := l.Model.FacetsInStructure(structureID)
	for _, id := range ids {
		f := &l.Model.Facets[id]
		dist, u, v, ok := rayFacetHit(origin, direction, f)
		if !ok {
			continue
		}
		opacity := f.Opacity
		if opacityAt != nil {
			opacity = opacityAt(id, t)
		}
		if opacity < 1 && rnd() > opacity {
			best.Transparent = append(best.Transparent, TransparentHit{FacetID: id, ColU: u, ColV: v, ColDistTranspPass: dist})
			continue
		}
		if dist < best.Distance {
			best = Result{Hit: true, FacetID: id, Distance: dist, ColU: u, ColV: v, Transparent: best.Transparent}
		}
	}
	if !best.Hit {
		best.Distance = 0
	}
	return best
}

const math_Inf = 1e308

// rayFacetHit intersects a ray with a facet's plane, then checks the local
// (u,v) hit point against the facet polygon.
func rayFacetHit(origin, direction r3.Vec, f *model.Facet) (dist, u, v float64, ok bool) {
	denom := r3.Dot(direction, f.Frame.N)
	if denom == 0 {
		return 0, 0, 0, false
	}
	toPlane := r3.Sub(f.Frame.O, origin)
	d := r3.Dot(toPlane, f.Frame.N) / denom
	if d <= 1e-12 {
		return 0, 0, 0, false
	}
	hit := r3.Add(origin, r3.Scale(d, direction))
	rel := r3.Sub(hit, f.Frame.O)
	u = r3.Dot(rel, f.Frame.NU)
	v = r3.Dot(rel, f.Frame.NV)
	if !f.IsInFacet(u, v) {
		return 0, 0, 0, false
	}
	return d, u, v, true
}
