package mesh

import "github.com/iBaer/molflow-core/model"

// Build clips the facet's texWidth x texHeight grid against its polygon,
// producing a FacetMesh (spec §4.B). It mutates f.Mesh in place.
func Build(f *model.Facet) {
	w, h := f.TexWidth, f.TexHeight
	cellW := f.TexWidthD / float64(w)
	cellH := f.TexHeightD / float64(h)

	m := &model.FacetMesh{
		Width:         w,
		Height:        h,
		Cells:         make([]model.MeshCell, w*h),
		CellIncrement: make([]float64, w*h),
	}

	fastPath := len(f.Vertices2) <= 4

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			u0 := float64(i) * cellW
			v0 := float64(j) * cellH
			u1 := u0 + cellW
			v1 := v0 + cellH
			idx := j*w + i

			cell := model.MeshCell{UCenter: (u0 + u1) / 2, VCenter: (v0 + v1) / 2}

			if fastPath && allCornersInside(f, u0, v0, u1, v1) {
				cell.Full = true
				cell.Area = cellW * cellH * (f.Frame.Ulen / f.TexWidthD) * (f.Frame.Vlen / f.TexHeightD)
				cell.Poly = []model.Vertex2{{U: u0, V: v0}, {U: u1, V: v0}, {U: u1, V: v1}, {U: u0, V: v1}}
			} else {
				clipped := clipPoly(f.Vertices2, u0, v0, u1, v1)
				area := polygonArea(clipped)
				// Scale from facet-local (u,v) units to physical cm^2: the
				// local frame's U,V lengths are spread over [0,TexWidthD]x
				// [0,TexHeightD], so area scales by (Ulen/TexWidthD)*(Vlen/TexHeightD).
				scale := (f.Frame.Ulen / f.TexWidthD) * (f.Frame.Vlen / f.TexHeightD)
				physArea := area * scale
				if physArea > cellW*cellH*scale+1e-10 {
					physArea = bruteForceArea(f, u0, v0, u1, v1, scale)
				}
				cell.Area = physArea
				cell.Poly = clipped
			}

			m.Cells[idx] = cell
			if cell.Area > 0 {
				m.CellIncrement[idx] = 1.0 / cell.Area
			}
		}
	}

	f.Mesh = m
}

func allCornersInside(f *model.Facet, u0, v0, u1, v1 float64) bool {
	return pointInPoly(f.Vertices2, u0, v0) &&
		pointInPoly(f.Vertices2, u1, v0) &&
		pointInPoly(f.Vertices2, u1, v1) &&
		pointInPoly(f.Vertices2, u0, v1)
}

// bruteForceArea falls back to dense sub-sampling when the analytic clip
// disagrees with the cell area beyond tolerance (spec §4.B step 3).
func bruteForceArea(f *model.Facet, u0, v0, u1, v1, scale float64) float64 {
	const n = 32
	stepU := (u1 - u0) / n
	stepV := (v1 - v0) / n
	count := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			u := u0 + (float64(i)+0.5)*stepU
			v := v0 + (float64(j)+0.5)*stepV
			if pointInPoly(f.Vertices2, u, v) {
				count++
			}
		}
	}
	cellArea := (u1 - u0) * (v1 - v0) * scale
	return cellArea * float64(count) / float64(n*n)
}
