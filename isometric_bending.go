package xpbd

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// IsometricBendingConstraint penalizes bending of two triangles that share an
// edge, using the quadratic bending energy of a nearly isometric surface.
//
//	          pb
//	        /-^<\
//	     /--  |  --\
//	pd <-     e0    -> pc
//	     \--  |  --/
//	        \>|-/
//	          pa
//
// The bodies are ordered (pa, pb, pc, pd): pa and pb span the shared edge, pc and
// pd are the apexes of the two triangles.
type IsometricBendingConstraint struct {
	*Constraint
	// BendingEnergy is the constant 4x4 operator Q baked from the rest shape.
	BendingEnergy mgl64.Mat4
	// Compliance is the inverse of stiffness in meters / Newton.
	Compliance float64
}

// NewIsometricBendingConstraint creates a bending constraint and bakes Q from
// the current positions.
func NewIsometricBendingConstraint(
	a BodyID, positionA mgl64.Vec3,
	b BodyID, positionB mgl64.Vec3,
	c BodyID, positionC mgl64.Vec3,
	d BodyID, positionD mgl64.Vec3,
) *IsometricBendingConstraint {
	joint := &IsometricBendingConstraint{
		BendingEnergy: BendingEnergyMatrix(positionA, positionB, positionC, positionD),
		Compliance:    DefaultBendingCompliance,
	}
	joint.Constraint = NewConstraint(joint, a, b, c, d)
	return joint
}

// WithCompliance sets the compliance and returns the constraint.
func (joint *IsometricBendingConstraint) WithCompliance(compliance float64) *IsometricBendingConstraint {
	joint.Compliance = compliance
	return joint
}

// WithBendingEnergy overrides the baked operator and returns the constraint.
func (joint *IsometricBendingConstraint) WithBendingEnergy(q mgl64.Mat4) *IsometricBendingConstraint {
	joint.BendingEnergy = q
	return joint
}

// BendingEnergyMatrix returns Q = k kᵀ * 3/A where A is the area of both
// triangles and k holds the cotangent weights of the quad.
//
// Zero-area triangles give non-finite weights. Solve panics on such a Q, so
// callers should not bake it from collapsed triangles.
func BendingEnergyMatrix(pa, pb, pc, pd mgl64.Vec3) mgl64.Mat4 {
	e0 := pb.Sub(pa)

	// angles at the shared vertices, (pa, pb, pc) triangle
	c01 := cot(e0.Mul(-1), pc.Sub(pb))
	c02 := cot(e0, pc.Sub(pa))
	// (pa, pb, pd) triangle
	c03 := cot(e0, pd.Sub(pa))
	c04 := cot(e0.Mul(-1), pd.Sub(pb))

	area := triangleArea(pa, pb, pc) + triangleArea(pa, pb, pd)

	k := mgl64.Vec4{c01 + c04, c02 + c03, -c01 - c02, -c03 - c04}
	return k.OuterProd4(k).Mul(3 / area)
}

// Energy returns ½ Σ Q[i][j] (pᵢ·pⱼ) for the given positions.
func (joint *IsometricBendingConstraint) Energy(p [4]mgl64.Vec3) float64 {
	q := joint.BendingEnergy
	var sum float64
	for i := range 4 {
		for j := range 4 {
			sum += q.At(i, j) * p[i].Dot(p[j])
		}
	}
	return sum / 2
}

// Gradient returns Σⱼ Q[i][j] pⱼ for every body i.
func (joint *IsometricBendingConstraint) Gradient(p [4]mgl64.Vec3) [4]mgl64.Vec3 {
	q := joint.BendingEnergy
	var grad [4]mgl64.Vec3
	for i := range 4 {
		for j := range 4 {
			grad[i] = grad[i].Add(p[j].Mul(q.At(i, j)))
		}
	}
	return grad
}

// Solve pushes the four bodies along the energy gradient.
//
// A non-finite energy or correction, e.g. from Q baked on a collapsed triangle,
// panics with an error wrapping ErrNonFiniteCorrection.
func (joint *IsometricBendingConstraint) Solve(bodies []BodyView, dt float64) {
	alpha := joint.Compliance / (dt * dt)

	var p [4]mgl64.Vec3
	var im [4]float64
	for i := range 4 {
		p[i] = bodies[i].CurrentPosition()
		im[i] = bodies[i].InverseMass()
	}

	energy := joint.Energy(p)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		panic(fmt.Errorf("%w: bending energy %v of bodies %v", ErrNonFiniteCorrection, energy, joint.bodies))
	}
	if !(energy >= 1e-12) {
		return
	}

	grad := joint.Gradient(p)
	var sumNormalGrad float64
	for i := range 4 {
		sumNormalGrad += im[i] * grad[i].Dot(grad[i])
	}
	if !(sumNormalGrad >= 1e-9) {
		return
	}

	s := energy / sumNormalGrad
	for i := range 4 {
		push := grad[i].Mul(s * im[i] * alpha)
		if !isFinite(push) {
			panic(fmt.Errorf("%w: bending constraint push %v on body %v", ErrNonFiniteCorrection, push, joint.bodies[i]))
		}
		bodies[i].AddTranslation(push)
	}
}

// cot returns the cotangent of the angle between v0 and v1.
func cot(v0, v1 mgl64.Vec3) float64 {
	return v0.Dot(v1) / v0.Cross(v1).Len()
}

func triangleArea(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}
