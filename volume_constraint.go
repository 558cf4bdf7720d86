package xpbd

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// VolumeConstraint keeps the signed volume of a tetrahedron at its rest value.
type VolumeConstraint struct {
	*Constraint
	RestVolume float64
	// Compliance is the inverse of stiffness in meters / Newton.
	Compliance float64
}

// NewVolumeConstraint creates a tetrahedron constraint. If the bodies are given
// in negative orientation the second and third are swapped, so the stored rest
// volume is always positive. Coplanar positions return an error wrapping
// ErrDegenerateTetrahedron.
func NewVolumeConstraint(
	a BodyID, positionA mgl64.Vec3,
	b BodyID, positionB mgl64.Vec3,
	c BodyID, positionC mgl64.Vec3,
	d BodyID, positionD mgl64.Vec3,
) (*VolumeConstraint, error) {
	restVolume := TetrahedronVolume(positionA, positionB, positionC, positionD)
	if restVolume < 0 {
		restVolume = TetrahedronVolume(positionA, positionC, positionB, positionD)
		b, c = c, b
	}
	if !(restVolume > 0) {
		return nil, fmt.Errorf("%w: rest volume %v after swapping bodies %v and %v", ErrDegenerateTetrahedron, restVolume, b, c)
	}
	joint := &VolumeConstraint{
		RestVolume: restVolume,
		Compliance: DefaultVolumeCompliance,
	}
	joint.Constraint = NewConstraint(joint, a, b, c, d)
	return joint, nil
}

// WithCompliance sets the compliance and returns the constraint.
func (joint *VolumeConstraint) WithCompliance(compliance float64) *VolumeConstraint {
	joint.Compliance = compliance
	return joint
}

// WithRestVolume overrides the rest volume and returns the constraint.
func (joint *VolumeConstraint) WithRestVolume(restVolume float64) *VolumeConstraint {
	joint.RestVolume = restVolume
	return joint
}

// TetrahedronVolume returns ((p2-p1) × (p3-p1)) · (p4-p1) / 6.
func TetrahedronVolume(p1, p2, p3, p4 mgl64.Vec3) float64 {
	return p2.Sub(p1).Cross(p3.Sub(p1)).Dot(p4.Sub(p1)) / 6
}

// VolumeGradients returns the derivative of TetrahedronVolume with respect to
// each of the four positions. Every gradient is the cross product of two edges
// of the face opposite that body.
func VolumeGradients(p1, p2, p3, p4 mgl64.Vec3) [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		p4.Sub(p2).Cross(p3.Sub(p2)).Mul(1.0 / 6),
		p3.Sub(p1).Cross(p4.Sub(p1)).Mul(1.0 / 6),
		p4.Sub(p1).Cross(p2.Sub(p1)).Mul(1.0 / 6),
		p2.Sub(p1).Cross(p3.Sub(p1)).Mul(1.0 / 6),
	}
}

// Solve moves the four bodies along the volume gradient toward the rest volume.
//
// A non-finite correction panics with an error wrapping ErrNonFiniteCorrection.
func (joint *VolumeConstraint) Solve(bodies []BodyView, dt float64) {
	alpha := joint.Compliance / (dt * dt)
	p1 := bodies[0].CurrentPosition()
	p2 := bodies[1].CurrentPosition()
	p3 := bodies[2].CurrentPosition()
	p4 := bodies[3].CurrentPosition()

	grads := VolumeGradients(p1, p2, p3, p4)
	var w float64
	for i, grad := range grads {
		w += bodies[i].InverseMass() * grad.Dot(grad)
	}
	if w == 0 {
		return
	}

	volume := TetrahedronVolume(p1, p2, p3, p4)
	residual := -(volume - joint.RestVolume) / (w + alpha)
	for i, grad := range grads {
		push := grad.Mul(residual * bodies[i].InverseMass())
		if !isFinite(push) {
			panic(fmt.Errorf("%w: volume constraint push %v on body %v", ErrNonFiniteCorrection, push, joint.bodies[i]))
		}
		bodies[i].AddTranslation(push)
	}
}

func isFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
