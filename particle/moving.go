package particle

import (
	"github.com/iBaer/molflow-core/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// TreatMovingFacet superposes the facet's rigid-body motion onto the
// particle's velocity vector (spec §4.D.4), renormalizing direction and
// updating the stored scalar speed.
func (w *Worker) TreatMovingFacet() {
	p := &w.P
	m := w.Model

	velocityVec := r3.Scale(p.Velocity, p.Direction)

	switch m.MotionType {
	case model.MotionTranslation:
		velocityVec = r3.Add(velocityVec, toVec(m.MotionVector2))
	case model.MotionRotation:
		omega := toVec(m.MotionVector2)
		rad := r3.Scale(0.01, r3.Sub(p.Position, toVec(m.MotionVector1)))
		velocityVec = r3.Add(velocityVec, r3.Cross(omega, rad))
	default:
		return
	}

	speed := r3.Norm(velocityVec)
	if speed <= 0 {
		return
	}
	p.Direction = r3.Scale(1/speed, velocityVec)
	p.Velocity = speed
}

func toVec(v model.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
