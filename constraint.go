package xpbd

import (
	"fmt"
	"log"
)

// Constrainer is the correction rule of one constraint kind.
//
// Solve receives one view per body, in BodyIDs order, and accumulates a
// translation into each of them. It must leave the views untouched when the
// constraint is satisfied or its geometry degenerates.
type Constrainer interface {
	Solve(bodies []BodyView, dt float64)
}

// LagrangeMultiplierClearer is implemented by constraint kinds that keep
// Lagrange multipliers across the iterations of one substep.
type LagrangeMultiplierClearer interface {
	ClearLagrangeMultipliers()
}

// Constraint is a constraint over a fixed number of bodies.
type Constraint struct {
	Class Constrainer

	// UserData is an object that this constraint is associated with.
	UserData any

	bodies []BodyID
	space  *Space
}

// NewConstraint wraps class into a constraint over the given bodies. The order
// of ids is the order of the views passed to class.Solve.
func NewConstraint(class Constrainer, ids ...BodyID) *Constraint {
	if len(ids) == 0 {
		log.Panicln("Constraint needs at least one body")
	}
	bodies := make([]BodyID, len(ids))
	copy(bodies, ids)
	return &Constraint{
		Class:  class,
		bodies: bodies,
	}
}

// Arity returns the number of bodies the constraint touches.
func (c *Constraint) Arity() int {
	return len(c.bodies)
}

// BodyIDs returns a copy of the body ids in solve order.
func (c *Constraint) BodyIDs() []BodyID {
	ids := make([]BodyID, len(c.bodies))
	copy(ids, c.bodies)
	return ids
}

// BodyID returns the id stored in slot i.
func (c *Constraint) BodyID(i int) BodyID {
	return c.bodies[i]
}

// Space returns the space the constraint was added to, or nil.
func (c *Constraint) Space() *Space {
	return c.space
}

// ResetStepState clears per-substep state of kinds implementing
// LagrangeMultiplierClearer. It is a no-op for the built-in kinds.
func (c *Constraint) ResetStepState() {
	if r, ok := c.Class.(LagrangeMultiplierClearer); ok {
		r.ClearLagrangeMultipliers()
	}
}

// Solve runs the correction rule. bodies must match BodyIDs one to one.
func (c *Constraint) Solve(bodies []BodyView, dt float64) {
	if len(bodies) != len(c.bodies) {
		log.Panicf("Constraint over %d bodies solved with %d views", len(c.bodies), len(bodies))
	}
	c.Class.Solve(bodies, dt)
}

// MapBodies rewrites every body id through f, keeping slot order.
//
// If f sends two slots to the same id the constraint is left unchanged and an
// error wrapping ErrAliasedBodies is returned. A constraint that belongs to a
// space must map onto bodies of that space, else an error wrapping
// ErrUnknownBody is returned.
func (c *Constraint) MapBodies(f func(BodyID) BodyID) error {
	mapped, err := c.mappedBodies(f)
	if err != nil {
		return err
	}
	if c.space != nil {
		c.space.assertUnlocked()
		for _, id := range mapped {
			if c.space.Body(id) == nil {
				return fmt.Errorf("%w: constraint remapped to body %v", ErrUnknownBody, id)
			}
		}
		c.space.batchesDirty = true
	}
	copy(c.bodies, mapped)
	return nil
}

// mappedBodies returns the ids rewritten through f without changing c.
func (c *Constraint) mappedBodies(f func(BodyID) BodyID) ([]BodyID, error) {
	mapped := make([]BodyID, len(c.bodies))
	for i, id := range c.bodies {
		mapped[i] = f(id)
		for j := 0; j < i; j++ {
			if mapped[j] == mapped[i] && c.bodies[j] != c.bodies[i] {
				return nil, fmt.Errorf("%w: %v and %v both map to %v", ErrAliasedBodies, c.bodies[j], c.bodies[i], mapped[i])
			}
		}
	}
	return mapped, nil
}

// touches returns true if the constraint references id.
func (c *Constraint) touches(id BodyID) bool {
	for _, b := range c.bodies {
		if b == id {
			return true
		}
	}
	return false
}
