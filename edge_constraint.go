package xpbd

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// EdgeConstraint keeps two bodies at a rest distance.
type EdgeConstraint struct {
	*Constraint
	RestLength float64
	// Compliance is the inverse of stiffness in meters / Newton.
	Compliance float64
}

// NewEdgeConstraint creates an edge between a and b. The rest length is the
// distance between their current positions.
func NewEdgeConstraint(a BodyID, positionA mgl64.Vec3, b BodyID, positionB mgl64.Vec3) *EdgeConstraint {
	joint := &EdgeConstraint{
		RestLength: positionA.Sub(positionB).Len(),
		Compliance: DefaultEdgeCompliance,
	}
	joint.Constraint = NewConstraint(joint, a, b)
	return joint
}

// WithCompliance sets the compliance and returns the edge.
func (joint *EdgeConstraint) WithCompliance(compliance float64) *EdgeConstraint {
	joint.Compliance = compliance
	return joint
}

// WithRestLength overrides the rest length and returns the edge.
func (joint *EdgeConstraint) WithRestLength(restLength float64) *EdgeConstraint {
	joint.RestLength = restLength
	return joint
}

// Solve moves both bodies along the edge toward the rest length.
func (joint *EdgeConstraint) Solve(bodies []BodyView, dt float64) {
	a := bodies[0]
	b := bodies[1]

	imA := a.InverseMass()
	imB := b.InverseMass()
	w := imA + imB
	if w == 0 {
		return
	}
	alpha := joint.Compliance / (dt * dt)

	delta := b.CurrentPosition().Sub(a.CurrentPosition())
	dist := delta.Len()
	var n mgl64.Vec3
	if dist == 0 {
		log.Println("Warning: edge constraint has zero length, separating along the x axis")
		n = mgl64.Vec3{1, 0, 0}
	} else {
		n = delta.Mul(1 / dist)
	}

	residual := -(dist - joint.RestLength) / (w + alpha)
	a.AddTranslation(n.Mul(-residual * imA))
	b.AddTranslation(n.Mul(residual * imB))
}

// Length returns the distance between the current positions of the bodies.
func (joint *EdgeConstraint) Length(bodies []BodyView) float64 {
	return bodies[1].CurrentPosition().Sub(bodies[0].CurrentPosition()).Len()
}
