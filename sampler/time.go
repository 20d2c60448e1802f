package sampler

import (
	"math"

	"github.com/iBaer/molflow-core/model"
)

// GenerateDesorptionTime draws a particle's generation time for a facet
// with the given time-dependent outgassing curve (nil when the facet's
// outgassing is constant), spec §4.A.
func GenerateDesorptionTime(idCurve *model.Curve, latestMoment, r float64) float64 {
	if idCurve != nil {
		return idCurve.InterpolateX(r * idCurve.LastY())
	}
	return r * latestMoment
}

// DecayMoment draws a decay delay from a half-life, given a uniform draw r
// in (0,1], and returns the absolute decay time particleTime+delay; returns
// +Inf when decay is disabled.
func DecayMoment(particleTime, halfLife float64, enableDecay bool, r float64) float64 {
	if !enableDecay {
		return math.Inf(1)
	}
	const invLn2 = 1.4426950408889634 // 1/ln(2)
	return particleTime + halfLife*invLn2*(-math.Log(r))
}

// SojournDelay draws the extra dwell time added on a bounce when
// EnableSojournTime holds (spec §4.D.2): -ln(r)/(A*freq), A = exp(-E/(8.31*T)).
func SojournDelay(freq, energy, temperature, r float64) float64 {
	const gasConstant = 8.31
	a := math.Exp(-energy / (gasConstant * temperature))
	return -math.Log(r) / (a * freq)
}
