package observe

import "testing"

func TestGlobalHitsAdd(t *testing.T) {
	g := &GlobalHits{NbMCHit: 1, NbHitEquiv: 1.5}
	src := &GlobalHits{NbMCHit: 2, NbHitEquiv: 0.5, NbDesorbed: 3}
	g.Add(src)
	if g.NbMCHit != 3 {
		t.Errorf("NbMCHit = %d, want 3", g.NbMCHit)
	}
	if g.NbHitEquiv != 2.0 {
		t.Errorf("NbHitEquiv = %v, want 2.0", g.NbHitEquiv)
	}
	if g.NbDesorbed != 3 {
		t.Errorf("NbDesorbed = %d, want 3", g.NbDesorbed)
	}
}

func TestTextureCellAdd(t *testing.T) {
	c := &TextureCell{CountEquiv: 1}
	c.Add(&TextureCell{CountEquiv: 2, Sum1PerOrtVelocity: 4, SumVOrtPerArea: 8})
	if c.CountEquiv != 3 || c.Sum1PerOrtVelocity != 4 || c.SumVOrtPerArea != 8 {
		t.Errorf("TextureCell after Add = %+v, want {3,4,8}", c)
	}
}

func TestSaturatingBin(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		binSize  float64
		binCount int
		want     int
	}{
		{"zero value first bin", 0, 1, 10, 0},
		{"mid value", 5.5, 1, 10, 5},
		{"value beyond range clamps to last bin", 1000, 1, 10, 9},
		{"negative value clamps to zero", -5, 1, 10, 0},
		{"zero bin count returns zero", 5, 1, 0, 0},
		{"zero bin size returns zero", 5, 0, 10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := saturatingBin(tc.value, tc.binSize, tc.binCount)
			if got != tc.want {
				t.Errorf("saturatingBin(%v,%v,%v) = %d, want %d", tc.value, tc.binSize, tc.binCount, got, tc.want)
			}
		})
	}
}

func TestHistogramAddHitAndReset(t *testing.T) {
	h := NewHistogram(4, 4, 4)
	h.AddHit(2, 1, 3, 1, 1, 1)
	if h.NbHits[2] != 1 {
		t.Errorf("NbHits[2] = %v, want 1", h.NbHits[2])
	}
	if h.Distance[3] != 1 {
		t.Errorf("Distance[3] = %v, want 1", h.Distance[3])
	}
	if h.Time[1] != 1 {
		t.Errorf("Time[1] = %v, want 1", h.Time[1])
	}
	h.Reset()
	for i, v := range h.NbHits {
		if v != 0 {
			t.Errorf("NbHits[%d] after Reset = %v, want 0", i, v)
		}
	}
}

func TestHistogramAdd(t *testing.T) {
	a := NewHistogram(2, 0, 0)
	b := NewHistogram(2, 0, 0)
	a.NbHits[0] = 1
	b.NbHits[0] = 2
	b.NbHits[1] = 5
	a.Add(&b)
	if a.NbHits[0] != 3 || a.NbHits[1] != 5 {
		t.Errorf("Histogram.Add = %v, want [3 5]", a.NbHits)
	}
}
