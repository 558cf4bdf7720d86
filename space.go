package xpbd

import (
	"fmt"
	"log"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// PostStepCallbackFunc is function type used for postStep callbacks.
type PostStepCallbackFunc func(space *Space, key any, data any)

// PostStepCallback holds a callback scheduled to run after the current step.
type PostStepCallback struct {
	callback PostStepCallbackFunc
	key      any
	data     any
}

type Space struct {
	UserData any

	// Iterations is the number of Gauss-Seidel sweeps over all constraints per substep.
	Iterations uint

	// Substeps splits every Step into this many equal substeps. Zero is treated as one.
	Substeps uint

	// Gravity to pass to bodies when integrating velocity.
	Gravity mgl64.Vec3

	// Damping rate expressed as the fraction of velocity bodies retain each second.
	//
	// A value of 0.9 would mean that each body's velocity will drop 10% per second.
	// The default value is 1.0, meaning no Damping is applied.
	Damping float64

	// Workers is the number of goroutines solving constraints. With more than one
	// worker, constraints are grouped into batches that share no body and the
	// batches are solved one after another, so the solve order is the batch
	// order instead of the insertion order.
	Workers int

	PostStepCallbacks []*PostStepCallback

	// private
	bodies       []*Body
	bodyCount    int
	constraints  []*Constraint
	batches      [][]*Constraint
	batchesDirty bool
	currDT       float64
	locked       bool
	skipPostStep bool
}

// NewSpace allocates and initializes a Space
func NewSpace() *Space {
	return &Space{
		Iterations:        10,
		Substeps:          1,
		Damping:           1.0,
		Workers:           1,
		PostStepCallbacks: []*PostStepCallback{},
		bodies:            []*Body{},
		constraints:       []*Constraint{},
	}
}

// AddBody adds body to the space and returns its id.
//
// Do not add the same Body twice.
func (s *Space) AddBody(body *Body) BodyID {
	s.assertUnlocked()
	if body.Space != nil {
		log.Panicln("Body is already added to a space:", body)
	}
	id := BodyID(len(s.bodies))
	s.bodies = append(s.bodies, body)
	s.bodyCount++
	body.id = id
	body.Space = s
	return id
}

// Body returns the body with the given id, or nil if there is none.
func (s *Space) Body(id BodyID) *Body {
	if id < 0 || int(id) >= len(s.bodies) {
		return nil
	}
	return s.bodies[id]
}

// RemoveBody removes a body and every constraint attached to it.
//
// Ids are never reused, so stale ids of removed bodies resolve to nil.
func (s *Space) RemoveBody(id BodyID) {
	s.assertUnlocked()
	body := s.Body(id)
	if body == nil {
		return
	}
	s.constraints = slices.DeleteFunc(s.constraints, func(c *Constraint) bool {
		if c.touches(id) {
			c.space = nil
			return true
		}
		return false
	})
	s.batchesDirty = true
	s.bodies[id] = nil
	s.bodyCount--
	body.Space = nil
	body.id = NoBody
}

// ContainsBody returns true if body is part of this space.
func (s *Space) ContainsBody(body *Body) bool {
	return body.Space == s
}

// BodyCount returns the number of bodies in the space.
func (s *Space) BodyCount() int {
	return s.bodyCount
}

// EachBody calls f for each body in id order.
func (s *Space) EachBody(f func(b *Body)) {
	for _, body := range s.bodies {
		if body != nil {
			f(body)
		}
	}
}

// AddConstraint adds a constraint to the space. Every body it names must
// already be in the space.
func (s *Space) AddConstraint(constraint *Constraint) *Constraint {
	s.assertUnlocked()
	for _, id := range constraint.bodies {
		if s.Body(id) == nil {
			panic(fmt.Errorf("%w: constraint references body %v", ErrUnknownBody, id))
		}
	}
	s.constraints = append(s.constraints, constraint)
	constraint.space = s
	s.batchesDirty = true
	return constraint
}

// RemoveConstraint removes a constraint from the space.
func (s *Space) RemoveConstraint(constraint *Constraint) {
	s.assertUnlocked()
	s.constraints = slices.DeleteFunc(s.constraints, func(c *Constraint) bool {
		return c == constraint
	})
	constraint.space = nil
	s.batchesDirty = true
}

// ContainsConstraint returns true if constraint is part of this space.
func (s *Space) ContainsConstraint(constraint *Constraint) bool {
	return constraint.space == s
}

// ConstraintCount returns the number of constraints in the space.
func (s *Space) ConstraintCount() int {
	return len(s.constraints)
}

// EachConstraint calls f for each constraint in solve order.
func (s *Space) EachConstraint(f func(*Constraint)) {
	s.Lock()

	for i := range s.constraints {
		f(s.constraints[i])
	}

	s.Unlock(true)
}

// Merge moves every body and constraint of other into s. Body ids of other are
// remapped to fresh ids of s; the returned map holds old id -> new id.
// other is left empty.
//
// Every constraint is remapped before anything moves, so a panic leaves both
// spaces untouched.
func (s *Space) Merge(other *Space) map[BodyID]BodyID {
	if s == other {
		log.Panicln("Cannot merge a space into itself")
	}
	s.assertUnlocked()
	other.assertUnlocked()

	// AddBody hands out ids in arena order.
	mapping := make(map[BodyID]BodyID, other.bodyCount)
	next := BodyID(len(s.bodies))
	for oldID, body := range other.bodies {
		if body == nil {
			continue
		}
		mapping[BodyID(oldID)] = next
		next++
	}

	remap := func(id BodyID) BodyID {
		newID, ok := mapping[id]
		if !ok {
			panic(fmt.Errorf("%w: merged constraint references body %v", ErrUnknownBody, id))
		}
		return newID
	}
	remapped := make([][]BodyID, len(other.constraints))
	for i, c := range other.constraints {
		ids, err := c.mappedBodies(remap)
		if err != nil {
			panic(err)
		}
		remapped[i] = ids
	}

	for oldID, body := range other.bodies {
		if body == nil {
			continue
		}
		body.Space = nil
		if id := s.AddBody(body); id != mapping[BodyID(oldID)] {
			log.Panicln("Merged body got id", id, "instead of", mapping[BodyID(oldID)])
		}
	}
	for i, c := range other.constraints {
		copy(c.bodies, remapped[i])
		c.space = s
		s.constraints = append(s.constraints, c)
	}
	s.batchesDirty = true

	other.bodies = other.bodies[:0]
	other.bodyCount = 0
	other.constraints = other.constraints[:0]
	other.batchesDirty = true
	return mapping
}

// Step advances the simulation by dt.
func (s *Space) Step(dt float64) {
	if dt == 0 {
		return
	}

	substeps := max(s.Substeps, 1)
	h := dt / float64(substeps)
	s.currDT = h

	s.Lock()
	{
		damping := math.Pow(s.Damping, h)
		gravity := s.Gravity

		for range substeps {
			// Integrate and predict positions.
			for _, body := range s.bodies {
				if body == nil {
					continue
				}
				body.velocityFunc(body, gravity, damping, h)
				body.previousPosition = body.position
				body.positionFunc(body, h)
				body.ResetTranslation()
			}

			for _, constraint := range s.constraints {
				constraint.ResetStepState()
			}

			// Run the position solver.
			for range s.Iterations {
				s.solveConstraints(h)
			}

			for _, body := range s.bodies {
				if body == nil {
					continue
				}
				body.CommitTranslation()
				body.updateVelocity(h)
			}
		}
	}
	s.Unlock(true)
}

func (s *Space) solveConstraints(dt float64) {
	if s.Workers <= 1 {
		var buf [4]BodyView
		for _, constraint := range s.constraints {
			constraint.Solve(s.views(constraint, buf[:0]), dt)
		}
		return
	}

	for _, batch := range s.ConstraintBatches() {
		task(s.Workers, batch, func(constraint *Constraint) {
			constraint.Solve(s.views(constraint, nil), dt)
		})
	}
}

// views appends the views of the constraint's bodies to buf.
func (s *Space) views(constraint *Constraint, buf []BodyView) []BodyView {
	for _, id := range constraint.bodies {
		body := s.Body(id)
		if body == nil {
			log.Panicln("Constraint references a removed body:", id)
		}
		buf = append(buf, body)
	}
	return buf
}

// TimeStep returns the duration of the last substep.
func (s *Space) TimeStep() float64 {
	return s.currDT
}

func (s *Space) Lock() {
	s.locked = true
}

// IsLocked returns true from inside a callback when objects cannot be added/removed.
func (s *Space) IsLocked() bool {
	return s.locked
}

func (s *Space) Unlock(runPostStep bool) {
	s.locked = false

	if runPostStep && !s.skipPostStep {
		s.skipPostStep = true

		for _, callback := range s.PostStepCallbacks {
			f := callback.callback

			// Mark the func as nil in case calling it schedules callbacks again.
			callback.callback = nil

			if f != nil {
				f(s, callback.key, callback.data)
			}
		}

		s.PostStepCallbacks = s.PostStepCallbacks[:0]
		s.skipPostStep = false
	}
}

func (s *Space) assertUnlocked() {
	if s.locked {
		log.Panicln(`You cannot add or remove objects while the space is locked.
			 Use a post-step callback instead.`)
	}
}

func (s *Space) PostStepCallback(key any) *PostStepCallback {
	for i := range s.PostStepCallbacks {
		callback := s.PostStepCallbacks[i]
		if callback != nil && callback.key == key {
			return callback
		}
	}
	return nil
}

// AddPostStepCallback defines a callback to be run just before s.Step() finishes.
//
// Post-step callbacks are the place to add and remove bodies and constraints
// from code that runs while the space is locked.
// You can only schedule one post-step callback per key value, this prevents you from accidentally removing an object twice.
// Registering a second callback for the same key is a no-op.
func (s *Space) AddPostStepCallback(f PostStepCallbackFunc, key, data any) bool {
	if key == nil || s.PostStepCallback(key) == nil {
		callback := &PostStepCallback{
			key:  key,
			data: data,
		}
		if f != nil {
			callback.callback = f
		} else {
			callback.callback = PostStepDoNothing
		}
		s.PostStepCallbacks = append(s.PostStepCallbacks, callback)
		return true
	}
	return false
}

func PostStepDoNothing(space *Space, key, data any) {}
