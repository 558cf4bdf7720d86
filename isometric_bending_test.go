package xpbd_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/xpbd"
)

// skewed flat quad, pa-pb is the shared edge
var flatQuad = [4]mgl64.Vec3{
	{0, 0, 0},
	{2, 0, 0},
	{0.5, -1, 0},
	{1.5, 2, 0},
}

func newBendSpace(rest [4]mgl64.Vec3) (*xpbd.Space, [4]*xpbd.Body, *xpbd.IsometricBendingConstraint) {
	space := xpbd.NewSpace()
	var bodies [4]*xpbd.Body
	var ids [4]xpbd.BodyID
	for i, p := range rest {
		bodies[i] = xpbd.NewBody(1, p)
		ids[i] = space.AddBody(bodies[i])
	}
	bend := xpbd.NewIsometricBendingConstraint(
		ids[0], rest[0],
		ids[1], rest[1],
		ids[2], rest[2],
		ids[3], rest[3],
	)
	space.AddConstraint(bend.Constraint)
	return space, bodies, bend
}

func TestBendingFlatEnergy(t *testing.T) {
	rotation := mgl64.HomogRotate3D(0.7, mgl64.Vec3{1, 2, 3}.Normalize())
	tilted := flatQuad
	for i, p := range tilted {
		tilted[i] = mgl64.TransformCoordinate(p, rotation).Add(mgl64.Vec3{3, -1, 2})
	}

	tests := []struct {
		name string
		quad [4]mgl64.Vec3
	}{
		{"square", [4]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, -1, 0}}},
		{"skewed", flatQuad},
		{"tilted", tilted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bend := newBendSpace(tt.quad)
			if e := bend.Energy(tt.quad); !almostEqual(e, 0, 1e-9) {
				t.Errorf("flat energy = %v, want 0", e)
			}
		})
	}
}

func TestBendingFoldedEnergy(t *testing.T) {
	_, _, bend := newBendSpace(flatQuad)
	folded := flatQuad
	folded[3] = folded[3].Add(mgl64.Vec3{0, 0, 1})

	// k = (1.75, 1.25, -2, -1), A = 3, Σ kᵢpᵢ = (0, 0, -1)
	if e := bend.Energy(folded); !almostEqual(e, 0.5, 1e-9) {
		t.Errorf("folded energy = %v, want 0.5", e)
	}
}

func TestBendingGradient(t *testing.T) {
	_, _, bend := newBendSpace(flatQuad)
	p := flatQuad
	p[2] = p[2].Add(mgl64.Vec3{0.1, 0.2, -0.4})
	p[3] = p[3].Add(mgl64.Vec3{-0.3, 0, 0.6})
	grad := bend.Gradient(p)

	const h = 1e-6
	for i := range 4 {
		for axis := range 3 {
			plus, minus := p, p
			plus[i][axis] += h
			minus[i][axis] -= h
			numeric := (bend.Energy(plus) - bend.Energy(minus)) / (2 * h)
			if !almostEqual(grad[i][axis], numeric, 1e-6) {
				t.Errorf("gradient %d axis %d = %v, finite difference %v", i, axis, grad[i][axis], numeric)
			}
		}
	}
}

func TestBendingSolve(t *testing.T) {
	tests := []struct {
		name       string
		compliance float64
		static     bool
		flat       bool
		moves      bool
	}{
		{"flat", 1e-4, false, true, false},
		{"zero compliance", 0, false, false, false},
		{"static", 1e-4, true, false, false},
		{"folded", 1e-4, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, bodies, bend := newBendSpace(flatQuad)
			bend.WithCompliance(tt.compliance)
			if tt.static {
				for _, body := range bodies {
					body.SetInverseMass(0)
				}
			}
			if !tt.flat {
				bodies[3].SetPosition(flatQuad[3].Add(mgl64.Vec3{0, 0, 1}))
			}

			solveOnce(space, bend.Constraint, 1)

			moved := false
			for _, body := range bodies {
				if body.AccumulatedTranslation().Len() != 0 {
					moved = true
				}
			}
			if moved != tt.moves {
				t.Errorf("moved = %v, want %v", moved, tt.moves)
			}
		})
	}
}

func TestBendingSolveStep(t *testing.T) {
	space, bodies, bend := newBendSpace(flatQuad)
	bend.WithCompliance(0.5)
	bodies[3].SetPosition(flatQuad[3].Add(mgl64.Vec3{0, 0, 1}))

	solveOnce(space, bend.Constraint, 1)

	// grad d = (0, 0, 1), s = 0.5 / Σ kᵢ², alpha = 0.5
	s := 0.5 / (1.75*1.75 + 1.25*1.25 + 4 + 1)
	want := mgl64.Vec3{0, 0, s * 0.5}
	if got := bodies[3].AccumulatedTranslation(); !vec3AlmostEqual(got, want, 1e-9) {
		t.Errorf("apex moved by %v, want %v", got, want)
	}
}

func TestBendingMatrixSymmetric(t *testing.T) {
	q := xpbd.BendingEnergyMatrix(flatQuad[0], flatQuad[1], flatQuad[2], flatQuad[3])
	for i := range 4 {
		for j := range 4 {
			if !almostEqual(q.At(i, j), q.At(j, i), 1e-12) {
				t.Errorf("Q[%d][%d] = %v, Q[%d][%d] = %v", i, j, q.At(i, j), j, i, q.At(j, i))
			}
		}
	}
}

func TestBendingCollapsedTriangle(t *testing.T) {
	// pc lies on the shared edge, so Q is baked from a zero-area triangle
	collapsed := flatQuad
	collapsed[2] = mgl64.Vec3{1, 0, 0}
	space, bodies, bend := newBendSpace(collapsed)
	bend.WithCompliance(1e-4)

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, xpbd.ErrNonFiniteCorrection) {
			t.Errorf("recovered %v, want ErrNonFiniteCorrection", err)
		}
		for i, body := range bodies {
			if !isFiniteVec3(body.CurrentPosition()) {
				t.Errorf("body %d corrupted to %v", i, body.CurrentPosition())
			}
		}
	}()
	solveOnce(space, bend.Constraint, dt)
}
