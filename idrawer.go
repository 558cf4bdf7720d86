package xpbd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/vec"
)

// Draw flags
const (
	DrawBodies      = 1 << 0
	DrawConstraints = 1 << 1
)

// volumeDrawScale shrinks drawn tetrahedra so that neighbours stay apart.
const volumeDrawScale = 0.9

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(hex string) (FColor, error) {
	var r, g, b uint8
	a := uint8(255)
	var err error
	switch len(hex) {
	case 7:
		_, err = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	case 9:
		_, err = fmt.Sscanf(hex, "#%02x%02x%02x%02x", &r, &g, &b, &a)
	default:
		err = fmt.Errorf("invalid hex color %q", hex)
	}
	if err != nil {
		return FColor{}, err
	}
	return FColor{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}, nil
}

func mustParseHexColor(hex string) FColor {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	EdgeColor    = mustParseHexColor("#D95B66")
	BendingColor = mustParseHexColor("#A020F0")
	VolumeColor  = mustParseHexColor("#F2A2E5")
)

// DefaultConstraintColor returns the color of a constraint kind.
func DefaultConstraintColor(constraint *Constraint) FColor {
	switch constraint.Class.(type) {
	case *EdgeConstraint:
		return EdgeColor
	case *IsometricBendingConstraint:
		return BendingColor
	case *VolumeConstraint:
		return VolumeColor
	default:
		return FColor{1, 1, 1, 1}
	}
}

// Segment is a world space line.
type Segment struct {
	A, B mgl64.Vec3
}

// ConstraintSegments returns the lines that picture a constraint. lookup
// resolves a body id to its world position; if any body is missing the
// constraint is not drawn and ok is false.
func ConstraintSegments(constraint *Constraint, lookup func(BodyID) (mgl64.Vec3, bool)) (segments []Segment, ok bool) {
	points := make([]mgl64.Vec3, 0, constraint.Arity())
	for _, id := range constraint.bodies {
		p, found := lookup(id)
		if !found {
			return nil, false
		}
		points = append(points, p)
	}

	switch constraint.Class.(type) {
	case *EdgeConstraint:
		return []Segment{{points[0], points[1]}}, true
	case *IsometricBendingConstraint:
		return completeGraph(points), true
	case *VolumeConstraint:
		center := points[0].Add(points[1]).Add(points[2]).Add(points[3]).Mul(0.25)
		for i, p := range points {
			points[i] = center.Add(p.Sub(center).Mul(volumeDrawScale))
		}
		return completeGraph(points), true
	default:
		return completeGraph(points), true
	}
}

// completeGraph connects every pair of points.
func completeGraph(points []mgl64.Vec3) []Segment {
	segments := make([]Segment, 0, len(points)*(len(points)-1)/2)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			segments = append(segments, Segment{points[i], points[j]})
		}
	}
	return segments
}

// Camera projects world positions to screen pixels.
type Camera struct {
	View, Projection mgl64.Mat4
	Width, Height    float64
}

// NewCamera returns a perspective camera at eye looking at center.
func NewCamera(eye, center mgl64.Vec3, fovY, width, height float64) Camera {
	return Camera{
		View:       mgl64.LookAtV(eye, center, mgl64.Vec3{0, 1, 0}),
		Projection: mgl64.Perspective(fovY, width/height, 0.01, 1000),
		Width:      width,
		Height:     height,
	}
}

// Project returns the screen position of p with the origin in the top left
// corner. Points behind the camera are rejected.
func (cam Camera) Project(p mgl64.Vec3) (vec.Vec2, bool) {
	clip := cam.Projection.Mul4(cam.View).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return vec.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	return vec.Vec2{
		X: (ndc.X() + 1) / 2 * cam.Width,
		Y: (1 - ndc.Y()) / 2 * cam.Height,
	}, true
}

type IDrawer interface {
	DrawSegment(a, b vec.Vec2, fill FColor, data any)
	DrawDot(size float64, pos vec.Vec2, fill FColor, data any)

	Flags() uint
	BodyColor(body *Body, data any) FColor
	ConstraintColor(constraint *Constraint, data any) FColor
	Data() any
}

// DrawConstraint draws a constraint with the drawer implementation. A
// constraint whose bodies are not all in its space is skipped.
func DrawConstraint(constraint *Constraint, cam Camera, drawer IDrawer) {
	space := constraint.space
	if space == nil {
		return
	}
	segments, ok := ConstraintSegments(constraint, func(id BodyID) (mgl64.Vec3, bool) {
		body := space.Body(id)
		if body == nil {
			return mgl64.Vec3{}, false
		}
		return body.position, true
	})
	if !ok {
		return
	}

	data := drawer.Data()
	color := drawer.ConstraintColor(constraint, data)
	for _, seg := range segments {
		a, okA := cam.Project(seg.A)
		b, okB := cam.Project(seg.B)
		if okA && okB {
			drawer.DrawSegment(a, b, color, data)
		}
	}
}

// DrawSpace draws all bodies and constraints in space with the drawer implementation
func DrawSpace(space *Space, cam Camera, drawer IDrawer) {
	flags := drawer.Flags()
	data := drawer.Data()

	if flags&DrawConstraints != 0 {
		for _, constraint := range space.constraints {
			DrawConstraint(constraint, cam, drawer)
		}
	}

	if flags&DrawBodies != 0 {
		space.EachBody(func(body *Body) {
			if p, ok := cam.Project(body.position); ok {
				drawer.DrawDot(4, p, drawer.BodyColor(body, data), data)
			}
		})
	}
}
