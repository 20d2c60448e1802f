package geometry

import (
	"math"

	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/sampler"
)

// rawParamCatalog accumulates the time-dependent parameter tables parsed
// from a geometry file's parameter-catalog section (GEO's parameter/point
// lines, XML's Parameters/Parameter/Point nodes) before they are assigned
// into model.TimeDependentParams. Catalog ids are the same ints a facet's
// StickingParamID/OpacityParamID/OutgassingParamID reference.
type rawParamCatalog struct {
	sticking, opacity, outgassing map[int]model.Curve
}

func newRawParamCatalog() *rawParamCatalog {
	return &rawParamCatalog{
		sticking:   map[int]model.Curve{},
		opacity:    map[int]model.Curve{},
		outgassing: map[int]model.Curve{},
	}
}

func (c *rawParamCatalog) addPoint(kind string, id int, x, y float64) {
	var dst map[int]model.Curve
	switch kind {
	case "sticking":
		dst = c.sticking
	case "opacity":
		dst = c.opacity
	case "outgassing":
		dst = c.outgassing
	default:
		return // forward-compatible: unknown catalog kinds are ignored
	}
	curve := dst[id]
	curve.X = append(curve.X, x)
	curve.Y = append(curve.Y, y)
	dst[id] = curve
}

// toCurveSlice turns a sparse id->curve map into a dense slice indexed by
// id, the shape StickingParamID/OpacityParamID/OutgassingParamID index
// into. Gaps (an id referenced by no facet) are left as zero-value curves.
func toCurveSlice(m map[int]model.Curve) []model.Curve {
	if len(m) == 0 {
		return nil
	}
	maxID := 0
	for id := range m {
		if id > maxID {
			maxID = id
		}
	}
	out := make([]model.Curve, maxID+1)
	for id, curve := range m {
		out[id] = curve
	}
	return out
}

// finalizeParams assigns the parsed catalogs into m.Params, derives the
// integrated-desorption IDs table from the outgassing catalog (spec.md:40,
// "tdParams.IDs[i]: integrated desorption curve, cumulative outgassing vs
// time"), and builds the Maxwell-Boltzmann speed CDF for every distinct
// facet temperature (spec.md:39, "tdParams.CDFs[i]: inverse-CDF for speed
// at a given temperature"), assigning each facet's CDFID to the matching
// entry. Called at the end of both ParseGEO and ParseXML.
func finalizeParams(m *model.Model, cat *rawParamCatalog) {
	m.Params.Sticking = toCurveSlice(cat.sticking)
	m.Params.Opacity = toCurveSlice(cat.opacity)
	m.Params.Outgassing = toCurveSlice(cat.outgassing)

	m.Params.IDs = make([]model.Curve, len(m.Params.Outgassing))
	for i, rate := range m.Params.Outgassing {
		m.Params.IDs[i] = integrateCurve(rate)
	}

	assignCDFs(m)
}

// integrateCurve returns the running trapezoidal integral of rate over its
// own X domain: the "cumulative outgassing vs time" curve spec.md:40 calls
// IDs[i]. A single-point or empty rate curve integrates to a flat zero.
func integrateCurve(rate model.Curve) model.Curve {
	n := len(rate.X)
	out := model.Curve{X: make([]float64, n), Y: make([]float64, n)}
	sum := 0.0
	for i := 0; i < n; i++ {
		out.X[i] = rate.X[i]
		if i > 0 {
			dx := rate.X[i] - rate.X[i-1]
			sum += dx * (rate.Y[i] + rate.Y[i-1]) / 2
		}
		out.Y[i] = sum
	}
	return out
}

// assignCDFs builds one Maxwell-Boltzmann flux-weighted speed CDF per
// distinct facet temperature and points each facet's CDFID at its match.
// This mirrors Molflow's per-temperature CDF cache (Particle.cpp indexes
// model->tdParams.CDFs by an explicit per-facet CDFId/CDFId lookup rather
// than recomputing a distribution on every desorption/bounce), grounded on
// original_source/src/Simulation/Particle.cpp's
// "InterpolateX(rndVal, model->tdParams.CDFs[CDFId], ...)" call. The loader
// that originally built this cache (Molflow's Generate_CDFs) was not part
// of this retrieval pack, so buildMaxwellCDF's own discretization below is
// this port's design, not a line-for-line translation.
func assignCDFs(m *model.Model) {
	var temps []float64
	index := map[float64]int{}
	for i := range m.Facets {
		f := &m.Facets[i]
		f.CDFID = -1
		if f.Temperature <= 0 {
			continue
		}
		if idx, ok := index[f.Temperature]; ok {
			f.CDFID = idx
			continue
		}
		idx := len(temps)
		index[f.Temperature] = idx
		temps = append(temps, f.Temperature)
		f.CDFID = idx
	}

	if len(temps) == 0 {
		m.Params.CDFs = nil
		return
	}
	m.Params.CDFs = make([]model.Curve, len(temps))
	for i, t := range temps {
		m.Params.CDFs[i] = buildMaxwellCDF(t, m.GasMass)
	}
}

const (
	maxwellCDFSamples = 200
	// maxwellCDFSpan samples speed out to this many multiples of the most
	// probable speed sqrt(2kT/m), comfortably past where the flux-weighted
	// tail becomes negligible.
	maxwellCDFSpan = 4.0
)

// buildMaxwellCDF discretizes the flux-weighted Maxwell-Boltzmann speed
// distribution a desorbing/re-emitting facet samples from,
// f(v) proportional to v^3*exp(-gasMass*v^2/(2*kB*temperature)) (the
// effusive-flux form, weighted by v relative to the bulk v^2 Maxwell
// speed distribution, since faster molecules cross the facet plane more
// often), and accumulates it into a Y-normalized-to-1 inverse-CDF table
// suitable for Curve.InterpolateX. gasMass is in atomic mass units, as
// stored on model.Model.GasMass.
func buildMaxwellCDF(temperature, gasMassAMU float64) model.Curve {
	const amuToKg = 1.660539e-27
	mass := gasMassAMU * amuToKg
	kT := sampler.KB * temperature
	if kT <= 0 || mass <= 0 {
		return model.Curve{X: []float64{0}, Y: []float64{0}}
	}
	mostProbable := math.Sqrt(2 * kT / mass)
	vMax := mostProbable * maxwellCDFSpan

	x := make([]float64, maxwellCDFSamples+1)
	y := make([]float64, maxwellCDFSamples+1)
	step := vMax / float64(maxwellCDFSamples)
	density := func(v float64) float64 {
		return v * v * v * math.Exp(-mass*v*v/(2*kT))
	}

	sum := 0.0
	prevDensity := density(0)
	for i := 0; i <= maxwellCDFSamples; i++ {
		v := float64(i) * step
		d := density(v)
		if i > 0 {
			sum += step * (d + prevDensity) / 2
		}
		x[i] = v
		y[i] = sum
		prevDensity = d
	}
	if last := y[len(y)-1]; last > 0 {
		for i := range y {
			y[i] /= last
		}
	}
	return model.Curve{X: x, Y: y}
}
