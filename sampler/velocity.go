package sampler

import (
	"math"

	"github.com/iBaer/molflow-core/model"
)

// Physical constants carried literally for bit-comparable regressions
// (spec §4.A, §6).
const (
	// KB is the Boltzmann constant, J/K.
	KB = 1.38e-23

	// meanSpeedConst is 145.469, the analytic mean-thermal-speed constant
	// used when Maxwell sampling is disabled: v = meanSpeedConst*sqrt(T/m).
	meanSpeedConst = 145.469

	// meanSpeedConstSq is meanSpeedConst^2 ≈ 21161.3, kept literal rather
	// than recomputed. No sampler reads it: UpdateVelocity's non-Maxwell
	// blend uses nonMaxwellVSq.
	meanSpeedConstSq = 21161.3

	// maxwellWallCorrection is 1.1781 ≈ 3*pi/8, the correction
	// applied to sum_v_ort when the non-Maxwell analytic speed is used.
	maxwellWallCorrection = 1.1781

	// nonMaxwellVSq is 29369.939, used in UpdateVelocity's non-Maxwell
	// accommodation blend: v_new^2 = nonMaxwellVSq * T / m.
	nonMaxwellVSq = 29369.939
)

// GenerateRandomVelocity draws a speed for a facet at a known temperature.
// When useMaxwell holds, the speed is drawn from the facet's CDF table;
// otherwise the analytic mean thermal speed is used directly.
func GenerateRandomVelocity(cdf *model.Curve, useMaxwell bool, r, temperature, gasMass float64) float64 {
	if useMaxwell && cdf != nil {
		return cdf.InterpolateX(r)
	}
	return meanSpeedConst * math.Sqrt(temperature/gasMass)
}

// NonMaxwellSpeed returns the analytic mean thermal speed at the given
// temperature and gas mass, used whenever useMaxwellDistribution is false.
func NonMaxwellSpeed(temperature, gasMass float64) float64 {
	return meanSpeedConst * math.Sqrt(temperature/gasMass)
}

// VOrtFactor returns the sum_v_ort scaling factor for a hit: the plain
// factor 1 when Maxwell sampling is active, or the wall correction
// maxwellWallCorrection otherwise (spec §4.D.1, §4.D.7).
func VOrtFactor(useMaxwell bool) float64 {
	if useMaxwell {
		return 1.0
	}
	return maxwellWallCorrection
}

// UpdateVelocity applies accommodation blending on bounce (spec §4.D.6).
// If accommodation is effectively 1, the speed is replaced outright by a
// fresh thermal sample; otherwise v^2 is blended towards the new thermal
// value by the accommodation factor.
func UpdateVelocity(oldSpeed, accommodation, temperature, gasMass float64, useMaxwell bool, freshSample float64) float64 {
	if accommodation > 0.9999 {
		if useMaxwell {
			return freshSample
		}
		return math.Sqrt(nonMaxwellVSq * temperature / gasMass)
	}
	var newSq float64
	if useMaxwell {
		newSq = freshSample * freshSample
	} else {
		newSq = nonMaxwellVSq * temperature / gasMass
	}
	oldSq := oldSpeed * oldSpeed
	blended := oldSq + accommodation*(newSq-oldSq)
	if blended < 0 {
		blended = 0
	}
	return math.Sqrt(blended)
}
