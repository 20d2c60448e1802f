package observe

import (
	"math"

	"github.com/iBaer/molflow-core/model"
)

// RecordHitOnTexture buckets a hit at local (colU,colV) into the facet's
// texture grid, contributing to the steady-state accumulator and, when the
// hit falls in an observation window, the matching moment slice (spec
// §4.D.7). colU,colV are the particle's facet-local hit coordinates in
// [0,TexWidthD]x[0,TexHeightD].
func RecordHitOnTexture(fs *FacetState, f *model.Facet, colU, colV float64, momentIndex int, oriRatio float64, countHit bool, velFactor, ortFactor, vOrt float64) {
	if f.Mesh == nil || vOrt <= 0 {
		return
	}
	idx := textureIndex(f, colU, colV)
	if idx < 0 {
		return
	}
	increment := f.Mesh.CellIncrement[idx]
	contribute := func(m int) {
		if m < 0 || m >= len(fs.Texture) {
			return
		}
		cell := &fs.Texture[m][idx]
		if countHit {
			cell.CountEquiv += oriRatio
		}
		cell.Sum1PerOrtVelocity += (velFactor / vOrt) * increment
		cell.SumVOrtPerArea += (ortFactor * vOrt) * increment
	}
	contribute(0)
	if momentIndex > 0 {
		contribute(momentIndex)
	}
}

func textureIndex(f *model.Facet, colU, colV float64) int {
	tu := int(colU / f.TexWidthD * float64(f.TexWidth))
	tv := int(colV / f.TexHeightD * float64(f.TexHeight))
	if tu < 0 {
		tu = 0
	}
	if tu >= f.TexWidth {
		tu = f.TexWidth - 1
	}
	if tv < 0 {
		tv = 0
	}
	if tv >= f.TexHeight {
		tv = f.TexHeight - 1
	}
	return tu + tv*f.TexWidth
}

// RecordDirectionVector accumulates the per-cell direction vector sum
// (spec §4.D.7).
func RecordDirectionVector(fs *FacetState, f *model.Facet, colU, colV float64, momentIndex int, oriRatio float64, dirX, dirY, dirZ, velocity float64) {
	if f.Mesh == nil {
		return
	}
	idx := textureIndex(f, colU, colV)
	if idx < 0 {
		return
	}
	contribute := func(m int) {
		if m < 0 || m >= len(fs.Direction) {
			return
		}
		cell := &fs.Direction[m][idx]
		cell.DirX += oriRatio * dirX * velocity
		cell.DirY += oriRatio * dirY * velocity
		cell.DirZ += oriRatio * dirZ * velocity
		cell.Count++
	}
	contribute(0)
	if momentIndex > 0 {
		contribute(momentIndex)
	}
}

// ProfileFacet dispatches by profile type and bins the appropriate
// quantity into the facet's profile (spec §4.D.7).
func ProfileFacet(fs *FacetState, f *model.Facet, momentIndex int, theta, colU, colV, dot, velocity, maxSpeed float64, velFactor, ortFactor, vOrt float64) {
	size := len(fs.Profile[0])
	if size == 0 || f.ProfileType == model.ProfileNone {
		return
	}
	var bin int
	switch f.ProfileType {
	case model.ProfileAngular:
		bin = clampBin(theta/(math.Pi/2), size)
	case model.ProfileU:
		bin = clampBin(colU, size)
	case model.ProfileV:
		bin = clampBin(colV, size)
	case model.ProfileVelocity, model.ProfileOrtVelocity, model.ProfileTanVelocity:
		if maxSpeed <= 0 {
			bin = 0
		} else {
			bin = clampBin(dot*velocity/maxSpeed, size)
		}
	default:
		return
	}
	contribute := func(m int) {
		if m < 0 || m >= len(fs.Profile) {
			return
		}
		p := &fs.Profile[m][bin]
		p.CountEquiv += 1
		if vOrt > 0 {
			p.Sum1PerOrtVelocity += velFactor / vOrt
		}
		p.SumVOrt += ortFactor * vOrt
	}
	contribute(0)
	if momentIndex > 0 {
		contribute(momentIndex)
	}
}

func clampBin(frac float64, size int) int {
	idx := int(frac * float64(size))
	if idx < 0 {
		idx = 0
	}
	if idx >= size {
		idx = size - 1
	}
	return idx
}

// RecordAngleMap bins an incidence angle into a facet's recorded PDF
// (fs.AngleMapPdf), using am's split-resolution theta grid and its phi bins
// across [-pi,pi). The model's AngleMap itself is left unchanged.
func RecordAngleMap(fs *FacetState, am *model.AngleMap, theta, phi float64) {
	nTheta := 0
	if am != nil {
		nTheta = am.ThetaLowerRes + am.ThetaHigherRes
	}
	if nTheta == 0 || am.PhiWidth <= 0 || len(fs.AngleMapPdf) < nTheta*am.PhiWidth {
		return
	}
	tb := nTheta - 1
	for i := 0; i < nTheta; i++ {
		if _, hi := am.ThetaBinLimits(i); theta < hi {
			tb = i
			break
		}
	}
	pb := clampBin((phi+math.Pi)/(2*math.Pi), am.PhiWidth)
	fs.AngleMapPdf[tb*am.PhiWidth+pb]++
}

// RecordHistograms bins nbBounces/distance/elapsed time into both the
// global and facet histograms (spec §4.D.7), with the global bins indexed
// by moment.
func RecordHistograms(global *[]Histogram, facet *FacetState, momentIndex int, hp model.GlobalHistogramParams, nbBounces, distance, elapsed float64) {
	if momentIndex < 0 || momentIndex >= len(*global) {
		momentIndex = 0
	}
	(*global)[0].AddHit(nbBounces, hp.BounceBinSize, distance, hp.DistanceBinSize, elapsed, hp.TimeBinSize)
	if momentIndex > 0 {
		(*global)[momentIndex].AddHit(nbBounces, hp.BounceBinSize, distance, hp.DistanceBinSize, elapsed, hp.TimeBinSize)
	}
	facet.Histogram[0].AddHit(nbBounces, hp.BounceBinSize, distance, hp.DistanceBinSize, elapsed, hp.TimeBinSize)
	if momentIndex > 0 {
		facet.Histogram[momentIndex].AddHit(nbBounces, hp.BounceBinSize, distance, hp.DistanceBinSize, elapsed, hp.TimeBinSize)
	}
}
