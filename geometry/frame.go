package geometry

import (
	"github.com/iBaer/molflow-core/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// buildFacetGeometry derives a Facet's local frame, projected Vertices2,
// Area and area-weighted Center from its world-space polygon, the step
// every loader (GEO, XML) must run after reading raw vertex indices since
// neither persisted format stores the orthonormal frame directly.
//
// The origin is seeded at the polygon's first vertex (projectVertices2 later
// moves it to the bounding box's low corner), N is the Newell normal (robust
// against mildly non-planar input), NU is the first edge projected into the
// plane and normalized, NV completes the right-handed basis.
func buildFacetGeometry(verts []model.Vertex3, indices []int) model.Frame {
	n := len(indices)
	pts := make([]r3.Vec, n)
	for i, idx := range indices {
		v := verts[idx]
		pts[i] = r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
	}

	normal := newellNormal(pts)
	o := pts[0]
	u := r3.Sub(pts[1], pts[0])
	u = r3.Sub(u, r3.Scale(r3.Dot(u, normal), normal)) // project into plane
	ulen := r3.Norm(u)
	nu := r3.Scale(1/ulen, u)
	nv := r3.Cross(normal, nu)

	return model.Frame{
		O: o, U: u, V: r3.Scale(ulen, nv), N: normal,
		NU: nu, NV: nv, Ulen: ulen, Vlen: ulen,
	}
}

// projectVertices2 computes each polygon vertex's local (u,v) coordinate in
// frame, and reports the facet's planar area (shoelace) and area-weighted
// centroid, and corrects Frame.Vlen/Ulen to the polygon's true bounding
// extent along each axis (buildFacetGeometry only seeds them from the first
// edge). It moves Frame.O to the low corner of that bounding box and sets
// Frame.U/V to Ulen*NU/Vlen*NV, so every returned coordinate lies in
// [0,Ulen]x[0,Vlen].
func projectVertices2(verts []model.Vertex3, indices []int, frame *model.Frame) (vertices2 []model.Vertex2, area float64, center r3.Vec) {
	n := len(indices)
	vertices2 = make([]model.Vertex2, n)
	minU, maxU := 0.0, 0.0
	minV, maxV := 0.0, 0.0
	for i, idx := range indices {
		v := verts[idx]
		p := r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
		rel := r3.Sub(p, frame.O)
		u, vv := r3.Dot(rel, frame.NU), r3.Dot(rel, frame.NV)
		vertices2[i] = model.Vertex2{U: u, V: vv}
		if i == 0 || u < minU {
			minU = u
		}
		if i == 0 || u > maxU {
			maxU = u
		}
		if i == 0 || vv < minV {
			minV = vv
		}
		if i == 0 || vv > maxV {
			maxV = vv
		}
	}
	frame.Ulen = maxU - minU
	frame.Vlen = maxV - minV
	for i := range vertices2 {
		vertices2[i].U -= minU
		vertices2[i].V -= minV
	}
	frame.O = r3.Add(frame.O, r3.Add(r3.Scale(minU, frame.NU), r3.Scale(minV, frame.NV)))
	frame.U = r3.Scale(frame.Ulen, frame.NU)
	frame.V = r3.Scale(frame.Vlen, frame.NV)

	area = 0
	cu, cv := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := vertices2[i].U*vertices2[j].V - vertices2[j].U*vertices2[i].V
		area += cross
		cu += (vertices2[i].U + vertices2[j].U) * cross
		cv += (vertices2[i].V + vertices2[j].V) * cross
	}
	area /= 2
	if area != 0 {
		cu /= 6 * area
		cv /= 6 * area
	}
	if area < 0 {
		area = -area
	}
	center = r3.Add(frame.O, r3.Add(r3.Scale(cu, frame.NU), r3.Scale(cv, frame.NV)))
	return vertices2, area, center
}

func newellNormal(pts []r3.Vec) r3.Vec {
	var n r3.Vec
	count := len(pts)
	for i := 0; i < count; i++ {
		a, b := pts[i], pts[(i+1)%count]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	length := r3.Norm(n)
	if length == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Scale(1/length, n)
}
