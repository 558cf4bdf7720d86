package xpbd

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultPickRadius is the default distance from the ray within which Dragger picks bodies.
const DefaultPickRadius = 0.5

// Ray is a half line used for picking.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // unit length
}

// NewRay returns a ray from origin toward direction.
func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// DistanceTo returns the distance between p and the line of the ray.
func (r Ray) DistanceTo(p mgl64.Vec3) float64 {
	rel := p.Sub(r.Origin)
	return rel.Sub(r.Direction.Mul(rel.Dot(r.Direction))).Len()
}

// Dragger lets a pointer hold a Draggable body. While held the body has zero
// inverse mass, so constraints see it as immovable, and it follows the ray at
// the distance it was grabbed from.
type Dragger struct {
	PickRadius float64

	body         BodyID
	grabDistance float64
	savedMass    float64
	active       bool
}

// NewDragger returns a Dragger with DefaultPickRadius.
func NewDragger() *Dragger {
	return &Dragger{PickRadius: DefaultPickRadius, body: NoBody}
}

// Dragging returns the held body.
func (d *Dragger) Dragging() (BodyID, bool) {
	return d.body, d.active
}

// Grab picks the Draggable body closest to the ray. It returns false if no body
// is within PickRadius.
func (d *Dragger) Grab(space *Space, ray Ray) bool {
	if d.active {
		d.Release(space)
	}

	closest := NoBody
	closestDist := d.PickRadius
	space.EachBody(func(body *Body) {
		if !body.Draggable {
			return
		}
		dist := ray.DistanceTo(body.position)
		if dist < closestDist {
			closest = body.id
			closestDist = dist
		}
	})
	if closest == NoBody {
		return false
	}

	body := space.Body(closest)
	d.body = closest
	d.grabDistance = body.position.Sub(ray.Origin).Len()
	d.savedMass = body.Mass()
	d.active = true
	body.SetInverseMass(0)
	body.SetVelocity(mgl64.Vec3{})
	return true
}

// Move places the held body on the ray.
func (d *Dragger) Move(space *Space, ray Ray) {
	if !d.active {
		return
	}
	body := space.Body(d.body)
	if body == nil {
		d.active = false
		d.body = NoBody
		return
	}
	body.SetPosition(ray.At(d.grabDistance))
	body.SetVelocity(mgl64.Vec3{})
}

// Release lets go of the held body and restores its mass.
func (d *Dragger) Release(space *Space) {
	if !d.active {
		return
	}
	if body := space.Body(d.body); body != nil {
		// SetMass keeps the exact mass, infinite or not.
		body.SetMass(d.savedMass)
	}
	d.active = false
	d.body = NoBody
}
