package xpbd

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyID is an opaque handle of a body inside a Space.
type BodyID int

// NoBody is the zero handle value of a body that is not part of any space.
const NoBody BodyID = -1

// BodyVelocityFunc is particle velocity update function type.
type BodyVelocityFunc func(body *Body, gravity mgl64.Vec3, damping float64, dt float64)

// BodyPositionFunc is particle position update function type.
type BodyPositionFunc func(body *Body, dt float64)

// BodyView is the read/write access a constraint gets to one body during Solve.
type BodyView interface {
	// CurrentPosition returns the position including this substep's pending corrections.
	CurrentPosition() mgl64.Vec3
	// InverseMass returns the inverse mass. Zero means the body is immovable.
	InverseMass() float64
	// AccumulatedTranslation returns the corrections gathered this substep.
	AccumulatedTranslation() mgl64.Vec3
	// AddTranslation adds a correction to the accumulator.
	AddTranslation(delta mgl64.Vec3)
}

type Body struct {
	// UserData is an object that this body is associated with.
	UserData any
	Space    *Space

	// Draggable marks the body as a pick target for Dragger.
	Draggable bool

	id                     BodyID
	velocityFunc           BodyVelocityFunc // Integration function
	positionFunc           BodyPositionFunc // Integration function
	mass                   float64
	massInverse            float64
	position               mgl64.Vec3
	previousPosition       mgl64.Vec3 // position at the start of the substep
	velocity               mgl64.Vec3
	force                  mgl64.Vec3
	accumulatedTranslation mgl64.Vec3
}

// String returns body id and position as string
func (b Body) String() string {
	return fmt.Sprint("Body ", b.id, ", Position ", b.position)
}

// NewBody initializes a particle with the given mass at position.
//
// An infinite mass makes the body immovable.
func NewBody(mass float64, position mgl64.Vec3) *Body {
	body := &Body{
		id:               NoBody,
		position:         position,
		previousPosition: position,
		velocityFunc:     BodyUpdateVelocity,
		positionFunc:     BodyUpdatePosition,
	}
	body.SetMass(mass)
	return body
}

// NewStaticBody allocates and initializes an immovable Body.
func NewStaticBody(position mgl64.Vec3) *Body {
	return NewBody(infinity, position)
}

// ID returns the handle of the body in its space, or NoBody.
func (body *Body) ID() BodyID {
	return body.id
}

// Mass returns mass of the body
func (body *Body) Mass() float64 {
	return body.mass
}

// SetMass sets mass of the body. Mass must be positive; math.Inf(1) or
// math.MaxFloat64 give an immovable body.
func (body *Body) SetMass(mass float64) {
	if !(mass > 0) {
		log.Panicln("Body mass must be positive, got", mass)
	}
	body.mass = mass
	if mass >= infinity {
		body.massInverse = 0
		return
	}
	body.massInverse = 1 / mass
}

// InverseMass returns the inverse mass of the body.
func (body *Body) InverseMass() float64 {
	return body.massInverse
}

// SetInverseMass sets the inverse mass directly. Zero makes the body immovable.
func (body *Body) SetInverseMass(inverseMass float64) {
	if inverseMass < 0 || math.IsNaN(inverseMass) {
		log.Panicln("Body inverse mass must be non-negative, got", inverseMass)
	}
	body.massInverse = inverseMass
	if inverseMass == 0 {
		body.mass = math.Inf(1)
	} else {
		body.mass = 1 / inverseMass
	}
}

// IsStatic returns true if the body has zero inverse mass.
func (body *Body) IsStatic() bool {
	return body.massInverse == 0
}

// Position returns the committed position of the body.
func (body *Body) Position() mgl64.Vec3 {
	return body.position
}

// SetPosition moves the body without giving it velocity.
func (body *Body) SetPosition(position mgl64.Vec3) {
	body.position = position
	body.previousPosition = position
}

// CurrentPosition returns the committed position plus the pending corrections.
func (body *Body) CurrentPosition() mgl64.Vec3 {
	return body.position.Add(body.accumulatedTranslation)
}

// AccumulatedTranslation returns the corrections gathered during the current substep.
func (body *Body) AccumulatedTranslation() mgl64.Vec3 {
	return body.accumulatedTranslation
}

// AddTranslation adds delta to the accumulator.
func (body *Body) AddTranslation(delta mgl64.Vec3) {
	body.accumulatedTranslation = body.accumulatedTranslation.Add(delta)
}

// ResetTranslation zeroes the accumulator.
func (body *Body) ResetTranslation() {
	body.accumulatedTranslation = mgl64.Vec3{}
}

// CommitTranslation moves the body by its accumulated corrections and zeroes the accumulator.
func (body *Body) CommitTranslation() {
	body.position = body.position.Add(body.accumulatedTranslation)
	body.accumulatedTranslation = mgl64.Vec3{}
}

// Velocity returns the velocity of the body.
func (body *Body) Velocity() mgl64.Vec3 {
	return body.velocity
}

// SetVelocity sets the velocity of the body.
func (body *Body) SetVelocity(velocity mgl64.Vec3) {
	body.velocity = velocity
}

// Force returns the force accumulated for the next step.
func (body *Body) Force() mgl64.Vec3 {
	return body.force
}

// ApplyForce adds a force that is applied during the next substep and then cleared.
func (body *Body) ApplyForce(force mgl64.Vec3) {
	body.force = body.force.Add(force)
}

// KineticEnergy returns the kinetic energy of this body.
func (body *Body) KineticEnergy() float64 {
	if body.massInverse == 0 {
		return 0
	}
	return 0.5 * body.mass * body.velocity.Dot(body.velocity)
}

// SetVelocityUpdateFunc sets the callback used to update a body's velocity.
func (body *Body) SetVelocityUpdateFunc(f BodyVelocityFunc) {
	body.velocityFunc = f
}

// SetPositionUpdateFunc sets the callback used to update a body's position.
func (body *Body) SetPositionUpdateFunc(f BodyPositionFunc) {
	body.positionFunc = f
}

// BodyUpdateVelocity is default velocity integration function.
func BodyUpdateVelocity(body *Body, gravity mgl64.Vec3, damping, dt float64) {
	if body.massInverse == 0 {
		body.force = mgl64.Vec3{}
		return
	}
	body.velocity = body.velocity.Mul(damping).Add(gravity.Add(body.force.Mul(body.massInverse)).Mul(dt))
	body.force = mgl64.Vec3{}
}

// BodyUpdatePosition is default position integration function.
func BodyUpdatePosition(body *Body, dt float64) {
	if body.massInverse == 0 {
		return
	}
	body.position = body.position.Add(body.velocity.Mul(dt))
}

// updateVelocity derives the velocity from the distance travelled during the substep.
func (body *Body) updateVelocity(dt float64) {
	if body.massInverse == 0 {
		body.velocity = mgl64.Vec3{}
		return
	}
	body.velocity = body.position.Sub(body.previousPosition).Mul(1 / dt)
}
