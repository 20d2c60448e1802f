package sim

import (
	"fmt"

	"github.com/iBaer/molflow-core/model"
)

// SanityCheckModel validates a Model before a run is loaded (spec §4.F). It
// returns the number of errors found; when strict is false, some conditions
// (inconsistent texture dimensions) are downgraded to warnings appended to
// the returned log instead of counted as errors.
func SanityCheckModel(m *model.Model, strict bool) (errorCount int, log []string) {
	if len(m.Vertices) == 0 {
		log = append(log, "model has no vertices")
		errorCount++
	}
	if len(m.Facets) == 0 {
		log = append(log, "model has no facets")
		errorCount++
	}
	for i := range m.Facets {
		f := &m.Facets[i]
		if f.GlobalID != i {
			log = append(log, fmt.Sprintf("facet %d: GlobalID %d does not match its slice index", i, f.GlobalID))
			errorCount++
		}
		if f.IsTextured {
			if f.TexWidth <= 0 || f.TexHeight <= 0 {
				msg := fmt.Sprintf("facet %d: textured with non-positive texWidth/texHeight", i)
				if strict {
					log = append(log, msg)
					errorCount++
				} else {
					log = append(log, "warning: "+msg)
				}
			}
			if f.Mesh != nil && (f.Mesh.Width != f.TexWidth || f.Mesh.Height != f.TexHeight) {
				msg := fmt.Sprintf("facet %d: mesh dimensions %dx%d do not match texture %dx%d", i, f.Mesh.Width, f.Mesh.Height, f.TexWidth, f.TexHeight)
				if strict {
					log = append(log, msg)
					errorCount++
				} else {
					log = append(log, "warning: "+msg)
				}
			}
		}
		if f.TeleportDest != 0 && f.SuperDest != 0 {
			log = append(log, fmt.Sprintf("facet %d: teleportDest and superDest both set, mutually exclusive", i))
			errorCount++
		}
	}
	if m.EnableDecay && m.HalfLife <= 0 {
		log = append(log, "enableDecay is set but halfLife<=0")
		errorCount++
	}
	return errorCount, log
}

const maxNormalizeWarnings = 50

// normalizeUntexturedCounters clears counter flags on facets that are not
// textured, since those flags have nowhere to accumulate (spec §4.F). Warns
// once per affected facet, up to maxNormalizeWarnings total.
func normalizeUntexturedCounters(m *model.Model, warn func(string)) {
	warned := 0
	for i := range m.Facets {
		f := &m.Facets[i]
		if f.IsTextured {
			continue
		}
		if !(f.CountDes || f.CountAbs || f.CountRefl || f.CountTrans || f.CountACD || f.CountDirection) {
			continue
		}
		f.CountDes, f.CountAbs, f.CountRefl, f.CountTrans, f.CountACD, f.CountDirection = false, false, false, false, false, false
		if warned < maxNormalizeWarnings {
			warn(fmt.Sprintf("facet %d: untextured facet had counter flags set, cleared", i))
			warned++
		}
	}
}
