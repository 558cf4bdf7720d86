package xpbd_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/xpbd"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func vec3AlmostEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return almostEqual(a[0], b[0], tolerance) &&
		almostEqual(a[1], b[1], tolerance) &&
		almostEqual(a[2], b[2], tolerance)
}

func isFiniteVec3(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// solveOnce runs one Solve of c against the bodies of space.
func solveOnce(space *xpbd.Space, c *xpbd.Constraint, dt float64) {
	c.Solve(views(space, c), dt)
}

func views(space *xpbd.Space, c *xpbd.Constraint) []xpbd.BodyView {
	var out []xpbd.BodyView
	for _, id := range c.BodyIDs() {
		out = append(out, space.Body(id))
	}
	return out
}

func TestBodyMass(t *testing.T) {
	body := xpbd.NewBody(4, mgl64.Vec3{})
	if body.Mass() != 4 {
		t.Errorf("Mass() = %v, want 4", body.Mass())
	}
	if body.InverseMass() != 0.25 {
		t.Errorf("InverseMass() = %v, want 0.25", body.InverseMass())
	}
	if body.IsStatic() {
		t.Error("body with finite mass should not be static")
	}

	body.SetInverseMass(0)
	if !body.IsStatic() || !math.IsInf(body.Mass(), 1) {
		t.Errorf("zero inverse mass should give infinite mass, got %v", body.Mass())
	}
}

func TestBodyStatic(t *testing.T) {
	body := xpbd.NewStaticBody(mgl64.Vec3{1, 2, 3})
	if body.InverseMass() != 0 {
		t.Errorf("InverseMass() = %v, want 0", body.InverseMass())
	}
	body = xpbd.NewBody(math.Inf(1), mgl64.Vec3{})
	if body.InverseMass() != 0 {
		t.Errorf("InverseMass() of infinite mass = %v, want 0", body.InverseMass())
	}
}

func TestBodySetMassPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SetMass(0) should panic")
		}
	}()
	xpbd.NewBody(0, mgl64.Vec3{})
}

func TestBodyAccumulator(t *testing.T) {
	body := xpbd.NewBody(1, mgl64.Vec3{1, 0, 0})
	body.AddTranslation(mgl64.Vec3{0, 1, 0})
	body.AddTranslation(mgl64.Vec3{0, 1, 0})

	if got := body.CurrentPosition(); !vec3AlmostEqual(got, mgl64.Vec3{1, 2, 0}, 1e-12) {
		t.Errorf("CurrentPosition() = %v, want [1 2 0]", got)
	}
	if got := body.Position(); got != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Position() changed before commit: %v", got)
	}

	body.CommitTranslation()
	if got := body.Position(); !vec3AlmostEqual(got, mgl64.Vec3{1, 2, 0}, 1e-12) {
		t.Errorf("Position() after commit = %v, want [1 2 0]", got)
	}
	if got := body.AccumulatedTranslation(); got != (mgl64.Vec3{}) {
		t.Errorf("AccumulatedTranslation() after commit = %v, want zero", got)
	}
}

func TestBodyKineticEnergy(t *testing.T) {
	body := xpbd.NewBody(2, mgl64.Vec3{})
	body.SetVelocity(mgl64.Vec3{3, 0, 0})
	if got := body.KineticEnergy(); got != 9 {
		t.Errorf("KineticEnergy() = %v, want 9", got)
	}
	static := xpbd.NewStaticBody(mgl64.Vec3{})
	static.SetVelocity(mgl64.Vec3{3, 0, 0})
	if got := static.KineticEnergy(); got != 0 {
		t.Errorf("static KineticEnergy() = %v, want 0", got)
	}
}
