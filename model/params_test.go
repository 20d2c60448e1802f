package model

import "testing"

func TestCurveInterpolateX(t *testing.T) {
	c := &Curve{X: []float64{0, 1, 2, 4}, Y: []float64{0, 10, 10, 30}}

	tests := []struct {
		name string
		y    float64
		want float64
	}{
		{"below first sample", -5, 0},
		{"at first sample", 0, 0},
		{"exact midpoint", 5, 0.5},
		{"flat segment resolves to its right knee", 10, 2},
		{"above a flat plateau", 20, 3},
		{"at last sample", 30, 4},
		{"above last sample extrapolates flat", 1000, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.InterpolateX(tc.y)
			if got != tc.want {
				t.Errorf("InterpolateX(%v) = %v, want %v", tc.y, got, tc.want)
			}
		})
	}
}

func TestCurveInterpolate(t *testing.T) {
	c := &Curve{X: []float64{0, 10, 20}, Y: []float64{1, 2, 4}}

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below domain clamps", -10, 1},
		{"at first knee", 0, 1},
		{"midway first segment", 5, 1.5},
		{"second segment", 15, 3},
		{"above domain clamps", 100, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Interpolate(tc.x)
			if got != tc.want {
				t.Errorf("Interpolate(%v) = %v, want %v", tc.x, got, tc.want)
			}
		})
	}
}

func TestCurveEmpty(t *testing.T) {
	var c Curve
	if got := c.LastY(); got != 0 {
		t.Errorf("LastY() on empty curve = %v, want 0", got)
	}
	if got := c.InterpolateX(5); got != 0 {
		t.Errorf("InterpolateX on empty curve = %v, want 0", got)
	}
	if got := c.Interpolate(5); got != 0 {
		t.Errorf("Interpolate on empty curve = %v, want 0", got)
	}
}

func TestFacetGetStickingAt(t *testing.T) {
	p := &TimeDependentParams{Sticking: []Curve{{X: []float64{0, 10}, Y: []float64{0.2, 0.8}}}}

	withParam := &Facet{Sticking: 0.5, StickingParamID: 0}
	if got := withParam.GetStickingAt(p, 5); got != 0.5 {
		t.Errorf("GetStickingAt with param id = %v, want 0.5 (midpoint of 0.2..0.8)", got)
	}

	noParam := &Facet{Sticking: 0.9, StickingParamID: -1}
	if got := noParam.GetStickingAt(p, 5); got != 0.9 {
		t.Errorf("GetStickingAt with no param id = %v, want constant 0.9", got)
	}

	outOfRange := &Facet{Sticking: 0.3, StickingParamID: 7}
	if got := outOfRange.GetStickingAt(p, 5); got != 0.3 {
		t.Errorf("GetStickingAt with out-of-range param id = %v, want constant 0.3", got)
	}
}

func TestFacetGetOpacityAt(t *testing.T) {
	p := &TimeDependentParams{Opacity: []Curve{{X: []float64{0, 10}, Y: []float64{0, 1}}}}
	f := &Facet{Opacity: 0.5, OpacityParamID: 0}
	if got := f.GetOpacityAt(p, 10); got != 1 {
		t.Errorf("GetOpacityAt(10) = %v, want 1", got)
	}
}
