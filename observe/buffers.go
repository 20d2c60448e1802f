// Package observe implements the thread-local and global observable
// buffers of spec §4.C: hit counters, texture cells, direction cells,
// profiles, histograms, angle maps, and the hit/leak ring-buffer caches.
package observe

// GlobalHits mirrors spec §4.C's per-run scalar accumulator, shared by
// GlobalState and, per facet per moment, by FacetState.
type GlobalHits struct {
	NbMCHit               int64
	NbHitEquiv            float64
	NbAbsEquiv            float64
	NbDesorbed            int64
	Sum1PerOrtVelocity    float64
	SumVOrt               float64
	Sum1PerVelocity       float64
}

// Add accumulates src into g (commutative additive merge, spec §4.E).
func (g *GlobalHits) Add(src *GlobalHits) {
	g.NbMCHit += src.NbMCHit
	g.NbHitEquiv += src.NbHitEquiv
	g.NbAbsEquiv += src.NbAbsEquiv
	g.NbDesorbed += src.NbDesorbed
	g.Sum1PerOrtVelocity += src.Sum1PerOrtVelocity
	g.SumVOrt += src.SumVOrt
	g.Sum1PerVelocity += src.Sum1PerVelocity
}

// TextureCell accumulates per-cell texture contributions.
type TextureCell struct {
	CountEquiv        float64
	Sum1PerOrtVelocity float64
	SumVOrtPerArea     float64
}

func (t *TextureCell) Add(src *TextureCell) {
	t.CountEquiv += src.CountEquiv
	t.Sum1PerOrtVelocity += src.Sum1PerOrtVelocity
	t.SumVOrtPerArea += src.SumVOrtPerArea
}

// DirectionCell accumulates the per-cell directional vector sum.
type DirectionCell struct {
	DirX, DirY, DirZ float64
	Count            int64
}

func (d *DirectionCell) Add(src *DirectionCell) {
	d.DirX += src.DirX
	d.DirY += src.DirY
	d.DirZ += src.DirZ
	d.Count += src.Count
}

// ProfileBin accumulates one bin of a facet profile.
type ProfileBin struct {
	CountEquiv         float64
	Sum1PerOrtVelocity float64
	SumVOrt            float64
}

func (p *ProfileBin) Add(src *ProfileBin) {
	p.CountEquiv += src.CountEquiv
	p.Sum1PerOrtVelocity += src.Sum1PerOrtVelocity
	p.SumVOrt += src.SumVOrt
}

// Histogram accumulates bounce/distance/time bins.
type Histogram struct {
	NbHits   []float64
	Distance []float64
	Time     []float64
}

// NewHistogram allocates bins per counts.
func NewHistogram(bounceBins, distanceBins, timeBins int) Histogram {
	return Histogram{
		NbHits:   make([]float64, bounceBins),
		Distance: make([]float64, distanceBins),
		Time:     make([]float64, timeBins),
	}
}

func (h *Histogram) Add(src *Histogram) {
	for i := range h.NbHits {
		h.NbHits[i] += src.NbHits[i]
	}
	for i := range h.Distance {
		h.Distance[i] += src.Distance[i]
	}
	for i := range h.Time {
		h.Time[i] += src.Time[i]
	}
}

func (h *Histogram) Reset() {
	zero(h.NbHits)
	zero(h.Distance)
	zero(h.Time)
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

// saturatingBin returns the bin index for value given a bin size and bin
// count, clamping to the last bin (spec §4.D.7 "saturating clamp").
func saturatingBin(value, binSize float64, binCount int) int {
	if binSize <= 0 || binCount <= 0 {
		return 0
	}
	idx := int(value / binSize)
	if idx < 0 {
		idx = 0
	}
	if idx >= binCount {
		idx = binCount - 1
	}
	return idx
}

// AddHit bins nbBounces/distance/time into a histogram.
func (h *Histogram) AddHit(nbBounces float64, bounceBinSize float64, distance, distanceBinSize float64, elapsed, timeBinSize float64) {
	if len(h.NbHits) > 0 {
		h.NbHits[saturatingBin(nbBounces, bounceBinSize, len(h.NbHits))]++
	}
	if len(h.Distance) > 0 {
		h.Distance[saturatingBin(distance, distanceBinSize, len(h.Distance))]++
	}
	if len(h.Time) > 0 {
		h.Time[saturatingBin(elapsed, timeBinSize, len(h.Time))]++
	}
}
