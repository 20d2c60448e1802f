package model

import "sort"

// OutgassingMap is a regular grid of per-cell outgassing rates overlaid on a
// facet, sampled by CDF when a map facet is chosen as the desorption source
// (spec §4.D.1). Cells are flattened row-major, W wide by H tall.
type OutgassingMap struct {
	W, H  int
	Rates []float64 // per-cell outgassing rate, Pa*m^3/s

	cdf   []float64 // cumulative sum over flattened cells, length W*H+1
	total float64
}

// BuildCDF precomputes the cumulative distribution over cells.
func (m *OutgassingMap) BuildCDF() {
	m.cdf = make([]float64, len(m.Rates)+1)
	running := 0.0
	for i, r := range m.Rates {
		running += r
		m.cdf[i+1] = running
	}
	m.total = running
}

// Total returns the map's total outgassing rate.
func (m *OutgassingMap) Total() float64 {
	return m.total
}

// SampleCell draws a flattened cell index by my_lower_bound on the
// cumulative map, given a uniform random draw r in [0,1).
func (m *OutgassingMap) SampleCell(r float64) int {
	if m.total <= 0 {
		return 0
	}
	target := r * m.total
	i := sort.SearchFloat64s(m.cdf, target)
	if i > 0 {
		i--
	}
	if i >= len(m.Rates) {
		i = len(m.Rates) - 1
	}
	return i
}

// CellBounds returns the (u0,v0)-(u1,v1) extent of cell index idx in
// facet-local (u,v) coordinates, given the facet's texture extents.
func (m *OutgassingMap) CellBounds(idx int, texWidthD, texHeightD float64) (u0, v0, u1, v1 float64) {
	i := idx % m.W
	j := idx / m.W
	cw := texWidthD / float64(m.W)
	ch := texHeightD / float64(m.H)
	u0, v0 = float64(i)*cw, float64(j)*ch
	u1, v1 = u0+cw, v0+ch
	// Last-row/last-column edge clamping so sampled points never exceed the
	// facet extent (original_source/Facet.cpp map-sampling behaviour).
	if i == m.W-1 {
		u1 = texWidthD
	}
	if j == m.H-1 {
		v1 = texHeightD
	}
	return
}
