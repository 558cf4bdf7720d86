package xpbd_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/xpbd"
)

func TestDragger(t *testing.T) {
	space := xpbd.NewSpace()
	near := xpbd.NewBody(2, mgl64.Vec3{0, 0, 0})
	far := xpbd.NewBody(1, mgl64.Vec3{5, 0, 0})
	hidden := xpbd.NewBody(1, mgl64.Vec3{0, 0, 1})
	near.Draggable = true
	far.Draggable = true
	space.AddBody(near)
	space.AddBody(far)
	space.AddBody(hidden)
	near.SetVelocity(mgl64.Vec3{1, 1, 1})

	drag := xpbd.NewDragger()
	if !drag.Grab(space, xpbd.NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1})) {
		t.Fatal("Grab() found nothing")
	}
	if id, ok := drag.Dragging(); !ok || id != near.ID() {
		t.Fatalf("Dragging() = %v, %v, want the near body", id, ok)
	}
	if near.InverseMass() != 0 || near.Velocity() != (mgl64.Vec3{}) {
		t.Error("held body should be immovable and at rest")
	}

	drag.Move(space, xpbd.NewRay(mgl64.Vec3{1, 2, 10}, mgl64.Vec3{0, 0, -1}))
	if got := near.Position(); !vec3AlmostEqual(got, mgl64.Vec3{1, 2, 0}, 1e-12) {
		t.Errorf("held body at %v, want [1 2 0]", got)
	}

	space.Step(dt)
	if got := near.Position(); !vec3AlmostEqual(got, mgl64.Vec3{1, 2, 0}, 1e-12) {
		t.Errorf("held body moved during step to %v", got)
	}

	drag.Release(space)
	if _, ok := drag.Dragging(); ok {
		t.Error("Dragging() after Release should be false")
	}
	if near.InverseMass() != 0.5 {
		t.Errorf("InverseMass() after Release = %v, want 0.5", near.InverseMass())
	}
}

func TestDraggerMiss(t *testing.T) {
	space := xpbd.NewSpace()
	body := xpbd.NewBody(1, mgl64.Vec3{})
	body.Draggable = true
	space.AddBody(body)

	drag := xpbd.NewDragger()
	if drag.Grab(space, xpbd.NewRay(mgl64.Vec3{3, 0, 10}, mgl64.Vec3{0, 0, -1})) {
		t.Error("Grab() picked a body outside PickRadius")
	}
}

func TestDraggerRemovedBody(t *testing.T) {
	space := xpbd.NewSpace()
	body := xpbd.NewBody(1, mgl64.Vec3{})
	body.Draggable = true
	id := space.AddBody(body)

	drag := xpbd.NewDragger()
	drag.Grab(space, xpbd.NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1}))
	space.RemoveBody(id)
	drag.Move(space, xpbd.NewRay(mgl64.Vec3{1, 0, 10}, mgl64.Vec3{0, 0, -1}))

	if _, ok := drag.Dragging(); ok {
		t.Error("Dragger should drop a removed body")
	}
}

func TestDraggerRestoresMass(t *testing.T) {
	tests := []struct {
		name string
		body *xpbd.Body
	}{
		{"dynamic", xpbd.NewBody(3, mgl64.Vec3{})},
		{"static", xpbd.NewStaticBody(mgl64.Vec3{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := xpbd.NewSpace()
			tt.body.Draggable = true
			space.AddBody(tt.body)
			mass := tt.body.Mass()
			inverseMass := tt.body.InverseMass()

			drag := xpbd.NewDragger()
			if !drag.Grab(space, xpbd.NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1})) {
				t.Fatal("Grab() found nothing")
			}
			drag.Release(space)

			if tt.body.Mass() != mass || tt.body.InverseMass() != inverseMass {
				t.Errorf("mass %v / inverse %v after Release, want %v / %v",
					tt.body.Mass(), tt.body.InverseMass(), mass, inverseMass)
			}
		})
	}
}
