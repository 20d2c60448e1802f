package model

import "sort"

// AngleMap is a 2D incidence-angle PDF indexed (theta,phi), with split
// theta resolution above/below ThetaLimit, as described in spec §3/§4.A.
// It both records incoming hits (RecordAngleMap) and, when DesorbType is
// DesorbAngleMap, is sampled from to re-emit particles.
type AngleMap struct {
	ThetaLimit      float64
	ThetaLowerRes   int // bins in [0, ThetaLimit)
	ThetaHigherRes  int // bins in [ThetaLimit, pi/2]
	PhiWidth        int // bins across [-pi, pi)

	// Recorded incidence counts, row-major (theta bin * PhiWidth + phi bin).
	Counts []int64

	// Precomputed sampling tables, built by BuildCDF from Counts (or loaded).
	thetaCDF   []float64           // cumulative row totals, length thetaBins()+1
	phiCDFRows [][]float64         // per-theta-row conditional CDF over phi
}

func (a *AngleMap) thetaBins() int {
	return a.ThetaLowerRes + a.ThetaHigherRes
}

// ThetaBinLimits returns the (lo,hi) theta bounds in radians for bin index i.
func (a *AngleMap) ThetaBinLimits(i int) (lo, hi float64) {
	const halfPi = 1.5707963267948966
	if i < a.ThetaLowerRes {
		step := a.ThetaLimit / float64(a.ThetaLowerRes)
		return float64(i) * step, float64(i+1) * step
	}
	j := i - a.ThetaLowerRes
	step := (halfPi - a.ThetaLimit) / float64(a.ThetaHigherRes)
	return a.ThetaLimit + float64(j)*step, a.ThetaLimit + float64(j+1)*step
}

// PhiBinLimits returns the (lo,hi) phi bounds in radians for bin index j.
func (a *AngleMap) PhiBinLimits(j int) (lo, hi float64) {
	const twoPi = 6.283185307179586
	step := twoPi / float64(a.PhiWidth)
	return -3.141592653589793 + float64(j)*step, -3.141592653589793 + float64(j+1)*step
}

// RecordAngleMap bins an incidence angle into Counts.
func (a *AngleMap) RecordAngleMap(theta, phi float64) {
	tb := a.thetaBinIndex(theta)
	pb := a.phiBinIndex(phi)
	a.Counts[tb*a.PhiWidth+pb]++
}

func (a *AngleMap) thetaBinIndex(theta float64) int {
	const halfPi = 1.5707963267948966
	if theta < 0 {
		theta = 0
	}
	if theta >= halfPi {
		theta = halfPi - 1e-12
	}
	if theta < a.ThetaLimit {
		step := a.ThetaLimit / float64(a.ThetaLowerRes)
		i := int(theta / step)
		if i >= a.ThetaLowerRes {
			i = a.ThetaLowerRes - 1
		}
		return i
	}
	step := (halfPi - a.ThetaLimit) / float64(a.ThetaHigherRes)
	j := int((theta - a.ThetaLimit) / step)
	if j >= a.ThetaHigherRes {
		j = a.ThetaHigherRes - 1
	}
	return a.ThetaLowerRes + j
}

func (a *AngleMap) phiBinIndex(phi float64) int {
	const pi, twoPi = 3.141592653589793, 6.283185307179586
	for phi < -pi {
		phi += twoPi
	}
	for phi >= pi {
		phi -= twoPi
	}
	step := twoPi / float64(a.PhiWidth)
	j := int((phi + pi) / step)
	if j >= a.PhiWidth {
		j = a.PhiWidth - 1
	}
	if j < 0 {
		j = 0
	}
	return j
}

// BuildCDF constructs the sampling tables from the recorded Counts, to be
// called once before the map is used as a desorption source.
func (a *AngleMap) BuildCDF() {
	nTheta := a.thetaBins()
	a.thetaCDF = make([]float64, nTheta+1)
	a.phiCDFRows = make([][]float64, nTheta)
	running := 0.0
	for i := 0; i < nTheta; i++ {
		rowTotal := 0.0
		row := make([]float64, a.PhiWidth+1)
		for j := 0; j < a.PhiWidth; j++ {
			rowTotal += float64(a.Counts[i*a.PhiWidth+j])
			row[j+1] = rowTotal
		}
		a.phiCDFRows[i] = row
		running += rowTotal
		a.thetaCDF[i+1] = running
	}
}

// SampleTheta draws a theta bin index from the marginal theta distribution
// given a uniform random draw r in [0,1).
func (a *AngleMap) SampleTheta(r float64) int {
	total := a.thetaCDF[len(a.thetaCDF)-1]
	if total <= 0 {
		return 0
	}
	target := r * total
	i := sort.SearchFloat64s(a.thetaCDF, target)
	if i > 0 {
		i--
	}
	if i >= a.thetaBins() {
		i = a.thetaBins() - 1
	}
	return i
}

// SamplePhi draws a phi bin index from the conditional distribution at
// theta row i, given a uniform random draw r in [0,1).
func (a *AngleMap) SamplePhi(thetaRow int, r float64) int {
	row := a.phiCDFRows[thetaRow]
	total := row[len(row)-1]
	if total <= 0 {
		return 0
	}
	target := r * total
	j := sort.SearchFloat64s(row, target)
	if j > 0 {
		j--
	}
	if j >= a.PhiWidth {
		j = a.PhiWidth - 1
	}
	return j
}
