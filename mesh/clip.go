// Package mesh implements the textured-facet mesher (spec §4.B): clipping a
// regular u,v grid against a facet's polygon to produce per-cell area,
// representative point, and clipped sub-polygon.
package mesh

import (
	"github.com/iBaer/molflow-core/model"
	"gonum.org/v1/gonum/floats"
)

// clipPoly clips subject polygon against rectangle [u0,u1]x[v0,v1] using
// Sutherland-Hodgman, one edge of the rectangle at a time.
func clipPoly(subject []model.Vertex2, u0, v0, u1, v1 float64) []model.Vertex2 {
	edges := [4]struct {
		inside func(p model.Vertex2) bool
		intersect func(a, b model.Vertex2) model.Vertex2
	}{
		{ // left: u >= u0
			inside: func(p model.Vertex2) bool { return p.U >= u0 },
			intersect: func(a, b model.Vertex2) model.Vertex2 {
				t := (u0 - a.U) / (b.U - a.U)
				return model.Vertex2{U: u0, V: a.V + t*(b.V-a.V)}
			},
		},
		{ // right: u <= u1
			inside: func(p model.Vertex2) bool { return p.U <= u1 },
			intersect: func(a, b model.Vertex2) model.Vertex2 {
				t := (u1 - a.U) / (b.U - a.U)
				return model.Vertex2{U: u1, V: a.V + t*(b.V-a.V)}
			},
		},
		{ // bottom: v >= v0
			inside: func(p model.Vertex2) bool { return p.V >= v0 },
			intersect: func(a, b model.Vertex2) model.Vertex2 {
				t := (v0 - a.V) / (b.V - a.V)
				return model.Vertex2{U: a.U + t*(b.U-a.U), V: v0}
			},
		},
		{ // top: v <= v1
			inside: func(p model.Vertex2) bool { return p.V <= v1 },
			intersect: func(a, b model.Vertex2) model.Vertex2 {
				t := (v1 - a.V) / (b.V - a.V)
				return model.Vertex2{U: a.U + t*(b.U-a.U), V: v1}
			},
		},
	}

	out := subject
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = out[:0:0]
		n := len(in)
		for i := 0; i < n; i++ {
			cur := in[i]
			prev := in[(i-1+n)%n]
			curIn := e.inside(cur)
			prevIn := e.inside(prev)
			if curIn {
				if !prevIn {
					out = append(out, e.intersect(prev, cur))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, e.intersect(prev, cur))
			}
		}
	}
	return out
}

// polygonArea returns the unsigned shoelace area of a (possibly empty)
// facet-local polygon.
func polygonArea(p []model.Vertex2) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	terms := make([]float64, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		terms[i] = p[i].U*p[j].V - p[j].U*p[i].V
	}
	sum := floats.Sum(terms)
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// pointInPoly is an even-odd (ray-crossing) point-in-polygon test, used for
// the fast-path corner check and the brute-force area fallback.
func pointInPoly(poly []model.Vertex2, u, v float64) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.V > v) != (pj.V > v) {
			uIntersect := pj.U + (v-pj.V)/(pj.V-pi.V)*(pi.U-pj.U)
			if u < uIntersect {
				inside = !inside
			}
		}
	}
	return inside
}
