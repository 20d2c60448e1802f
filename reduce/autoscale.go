package reduce

import (
	"math"

	"github.com/iBaer/molflow-core/observe"
)

// finalOutgassingRate is the molecules/s normalizer used for the
// steady-state (moment 0) texture scan; it is set once at load time from
// the model's total desorption rate over its reference window.
func (r *Reducer) finalOutgassingRate() float64 {
	if r.model.LatestMoment <= 0 {
		return r.model.TotalDesorbedMolecules
	}
	return r.model.TotalDesorbedMolecules / r.model.LatestMoment
}

// momentNorm returns the time-normalization factor for moment m (spec
// §4.E step 5): finalOutgassingRate for m==0, totalDesorbedMolecules /
// MomentTimes[m-1] otherwise.
func (r *Reducer) momentNorm(m int) float64 {
	if m == 0 {
		return r.finalOutgassingRate()
	}
	t := r.model.MomentTimes[m-1]
	if t <= 0 {
		return 0
	}
	return r.model.TotalDesorbedMolecules / t
}

// cellLargeEnough gates autoscale contributions to statistically
// meaningful cells, mirroring the reference implementation's guard against
// near-empty cells skewing the min/max range.
func cellLargeEnough(cell *observe.TextureCell) bool {
	return cell.CountEquiv > 0.5
}

// recomputeTextureLimits rescans every textured facet at every moment and
// updates the global texture_limits (spec §4.E step 5). Must be called
// with the reducer's mutex already held.
func (r *Reducer) recomputeTextureLimits() {
	limits := observe.TextureLimits{
		Pressure: freshLimit(),
		ImpRate:  freshLimit(),
		Density:  freshLimit(),
	}

	for fi := range r.model.Facets {
		f := &r.model.Facets[fi]
		if !f.IsTextured || f.Mesh == nil {
			continue
		}
		fs := &r.global.Facets[fi]
		for m := 0; m < len(fs.Texture); m++ {
			norm := r.momentNorm(m)
			for c, cell := range fs.Texture[m] {
				if !cellLargeEnough(&cell) {
					continue
				}
				area := 1.0
				if f.Mesh.CellIncrement[c] > 0 {
					area = 1.0 / f.Mesh.CellIncrement[c]
				}
				// original_source/src/Simulation/Particle.cpp:90-164:
				// val[1] = countEquiv*increment // imp.rate
				// val[2] = sum_1_per_ort_velocity*increment // density
				impRate := cell.CountEquiv / area * norm
				density := cell.Sum1PerOrtVelocity / area * norm
				pressure := cell.SumVOrtPerArea * norm // pressure without dCoef_pressure

				isSteadyState := m == 0
				updateLimit(&limits.Density, density, isSteadyState)
				updateLimit(&limits.ImpRate, impRate, isSteadyState)
				updateLimit(&limits.Pressure, pressure, isSteadyState)
			}
		}
	}

	r.global.TextureLimits = limits
}

func freshLimit() observe.TextureLimit {
	return observe.TextureLimit{
		MinAll: posInf, MaxAll: negInf,
		MinMomentsOnly: posInf, MaxMomentsOnly: negInf,
	}
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// updateLimit folds one positive cell value into a limit; isSteadyState
// excludes the moment-0 (constant-flow) scan from the "moments only"
// range. Only positive values participate (spec §4.E step 5:
// "Positive-valued minima only").
func updateLimit(l *observe.TextureLimit, v float64, isSteadyState bool) {
	if v <= 0 {
		return
	}
	if v < l.MinAll {
		l.MinAll = v
	}
	if v > l.MaxAll {
		l.MaxAll = v
	}
	if !isSteadyState {
		if v < l.MinMomentsOnly {
			l.MinMomentsOnly = v
		}
		if v > l.MaxMomentsOnly {
			l.MaxMomentsOnly = v
		}
	}
}
