package geometry

import (
	"math"
	"testing"

	"github.com/iBaer/molflow-core/model"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBuildFacetGeometrySquareInXYPlane(t *testing.T) {
	verts := []model.Vertex3{
		{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 0}, {X: 10, Y: 10, Z: 0}, {X: 0, Y: 10, Z: 0},
	}
	indices := []int{0, 1, 2, 3}

	frame := buildFacetGeometry(verts, indices)
	if math.Abs(frame.N.Z) < 0.99 {
		t.Errorf("normal of a square in the z=0 plane should be ~(0,0,±1), got %+v", frame.N)
	}
	if math.Abs(r3.Norm(frame.NU)-1) > 1e-9 {
		t.Errorf("NU should be unit length, got norm %v", r3.Norm(frame.NU))
	}
	if math.Abs(r3.Dot(frame.NU, frame.N)) > 1e-9 {
		t.Errorf("NU should be orthogonal to N, got dot %v", r3.Dot(frame.NU, frame.N))
	}
	if math.Abs(r3.Dot(frame.NV, frame.N)) > 1e-9 {
		t.Errorf("NV should be orthogonal to N, got dot %v", r3.Dot(frame.NV, frame.N))
	}
}

func TestProjectVertices2CorrectsBoundingExtent(t *testing.T) {
	// A right triangle: the first edge (0,0)->(10,0) is shorter than the
	// polygon's true U extent once the third vertex projects wider.
	verts := []model.Vertex3{
		{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 0}, {X: 15, Y: 10, Z: 0},
	}
	indices := []int{0, 1, 2}
	frame := buildFacetGeometry(verts, indices)

	_, area, _ := projectVertices2(verts, indices, &frame)

	if frame.Ulen < 10-1e-9 {
		t.Errorf("Ulen after projectVertices2 = %v, want >= 10 (bounding extent, not just the first edge)", frame.Ulen)
	}
	if math.Abs(area-50) > 1e-6 {
		t.Errorf("area = %v, want 50 (base 10, height 10)", area)
	}
}

func TestProjectVertices2CentroidLiesInsideSquare(t *testing.T) {
	verts := []model.Vertex3{
		{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 0}, {X: 10, Y: 10, Z: 0}, {X: 0, Y: 10, Z: 0},
	}
	indices := []int{0, 1, 2, 3}
	frame := buildFacetGeometry(verts, indices)
	_, _, center := projectVertices2(verts, indices, &frame)

	want := r3.Vec{X: 5, Y: 5, Z: 0}
	if math.Abs(center.X-want.X) > 1e-6 || math.Abs(center.Y-want.Y) > 1e-6 {
		t.Errorf("centroid = %+v, want %+v (center of the 10x10 square)", center, want)
	}
}

func TestNewellNormalDegenerateFallsBackToZ(t *testing.T) {
	pts := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 0}}
	n := newellNormal(pts)
	if n.Z != 1 {
		t.Errorf("degenerate polygon normal = %+v, want fallback (0,0,1)", n)
	}
}
