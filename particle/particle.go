// Package particle implements the per-particle Monte Carlo state machine:
// source sampling, ray-surface dispatch, bounce/teleport/moving-facet
// treatment, and the observable recording call sites (spec §3, §4.D). It is
// ported from the reference simulation's particle core, one Worker per
// simulation thread, never sharing state with another worker.
package particle

import (
	"github.com/iBaer/molflow-core/intersect"
	"gonum.org/v1/gonum/spatial/r3"
)

// Particle is one worker's in-flight molecule. A worker holds exactly one;
// it is reinitialized in place by StartFromSource on every respawn rather
// than reallocated.
type Particle struct {
	Position  r3.Vec
	Direction r3.Vec
	Velocity  float64

	ParticleTime        float64
	GenerationTime      float64
	ExpectedDecayMoment float64

	OriRatio float64 // low-flux weight, mutated only in low-flux mode

	NbBounces        int64
	DistanceTraveled float64

	StructureID     int
	TeleportedFrom  int // facet id, or -1
	LastHitFacet    int // facet id, or -1 to request a fresh StartFromSource
	LastMomentIndex int // cache hint for Model.LookupMomentIndex

	TransparentHitBuffer []intersect.TransparentHit
}

// reset clears a particle to the "needs a new source" state, reusing its
// transparent-hit buffer's backing array.
func (p *Particle) reset() {
	buf := p.TransparentHitBuffer[:0]
	*p = Particle{LastHitFacet: -1, TeleportedFrom: -1, TransparentHitBuffer: buf}
}
