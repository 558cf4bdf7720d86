package xpbd

import "errors"

var (
	// ErrDegenerateTetrahedron is returned when the rest volume of a tetrahedron is
	// still not positive after swapping its second and third bodies.
	ErrDegenerateTetrahedron = errors.New("xpbd: tetrahedron rest volume is not positive")

	// ErrNonFiniteCorrection is the panic value (wrapped) raised when a constraint
	// computes a NaN or infinite position correction.
	ErrNonFiniteCorrection = errors.New("xpbd: non-finite position correction")

	// ErrAliasedBodies indicates that a body id remapping sent two bodies of one
	// constraint to the same id.
	ErrAliasedBodies = errors.New("xpbd: remapping merges distinct bodies")

	// ErrUnknownBody indicates a body id that does not exist in the space.
	ErrUnknownBody = errors.New("xpbd: unknown body")
)
