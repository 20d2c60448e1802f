package model

// Curve is a monotone table of (x,y) samples used both as an inverse-CDF
// (InterpolateX draws x given a uniform y in [0,lastY)) and, for desorption
// time, as a cumulative integral sampled directly.
type Curve struct {
	X, Y []float64
}

// LastY returns the final cumulative value of the curve (the normalizer for
// time-dependent desorption sampling).
func (c *Curve) LastY() float64 {
	if len(c.Y) == 0 {
		return 0
	}
	return c.Y[len(c.Y)-1]
}

// InterpolateX returns the x value corresponding to y by linear
// interpolation between bracketing samples, extrapolating flat at the
// upper tail as spec §4.A requires.
func (c *Curve) InterpolateX(y float64) float64 {
	n := len(c.X)
	if n == 0 {
		return 0
	}
	if y <= c.Y[0] {
		return c.X[0]
	}
	if y >= c.Y[n-1] {
		return c.X[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if c.Y[mid] <= y {
			lo = mid
		} else {
			hi = mid
		}
	}
	y0, y1 := c.Y[lo], c.Y[hi]
	x0, x1 := c.X[lo], c.X[hi]
	if y1 == y0 {
		return x0
	}
	t := (y - y0) / (y1 - y0)
	return x0 + t*(x1-x0)
}

// Interpolate returns the y value corresponding to x (the forward
// direction, used to evaluate time-dependent sticking/opacity/outgassing
// at a given simulation time), clamping flat outside the table's domain.
func (c *Curve) Interpolate(x float64) float64 {
	n := len(c.X)
	if n == 0 {
		return 0
	}
	if x <= c.X[0] {
		return c.Y[0]
	}
	if x >= c.X[n-1] {
		return c.Y[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if c.X[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	x0, x1 := c.X[lo], c.X[hi]
	y0, y1 := c.Y[lo], c.Y[hi]
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// TimeDependentParams holds the per-id distribution tables referenced by
// facets via StickingParamID/OpacityParamID/OutgassingParamID.
type TimeDependentParams struct {
	Sticking   []Curve // opacity(t)-style time series, evaluated at GetStickingAt
	Opacity    []Curve
	Outgassing []Curve // constant-rate curves, used when a facet's outgassing is itself time-dependent

	CDFs []Curve // tdParams.CDFs[i]: inverse-CDF for speed at a given temperature
	IDs  []Curve // tdParams.IDs[i]: integrated desorption curve (cumulative outgassing vs time)
}

// GetStickingAt evaluates a facet's sticking probability at time t.
func (f *Facet) GetStickingAt(p *TimeDependentParams, t float64) float64 {
	if f.StickingParamID < 0 || f.StickingParamID >= len(p.Sticking) {
		return f.Sticking
	}
	return p.Sticking[f.StickingParamID].Interpolate(t)
}

// GetOpacityAt evaluates a facet's opacity at time t.
func (f *Facet) GetOpacityAt(p *TimeDependentParams, t float64) float64 {
	if f.OpacityParamID < 0 || f.OpacityParamID >= len(p.Opacity) {
		return f.Opacity
	}
	return p.Opacity[f.OpacityParamID].Interpolate(t)
}
