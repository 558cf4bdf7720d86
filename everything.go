package xpbd

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	infinity float64 = math.MaxFloat64

	// DefaultEdgeCompliance is the compliance of a new EdgeConstraint.
	DefaultEdgeCompliance = 0.1
	// DefaultBendingCompliance is the compliance of a new IsometricBendingConstraint.
	DefaultBendingCompliance = 0.0
	// DefaultVolumeCompliance is the compliance of a new VolumeConstraint.
	DefaultVolumeCompliance = 0.0
)

// ConstraintError returns how far a constraint currently is from its rest state:
// |length - rest length| for edges, the bending energy for bending constraints
// and |volume - rest volume| for tetrahedra. Other kinds report 0.
//
// The constraint must belong to a space.
func ConstraintError(c *Constraint) float64 {
	if c.space == nil {
		log.Panicln("Constraint is not added to a space:", c.bodies)
	}
	views := c.space.views(c, nil)
	switch joint := c.Class.(type) {
	case *EdgeConstraint:
		return math.Abs(joint.Length(views) - joint.RestLength)
	case *IsometricBendingConstraint:
		return joint.Energy(positions4(views))
	case *VolumeConstraint:
		p := positions4(views)
		return math.Abs(TetrahedronVolume(p[0], p[1], p[2], p[3]) - joint.RestVolume)
	default:
		return 0
	}
}

// DebugInfo returns info of space
func DebugInfo(space *Space) string {
	var edges, bends, volumes, others int
	var edgeErr, bendErr, volumeErr float64

	for _, c := range space.constraints {
		switch c.Class.(type) {
		case *EdgeConstraint:
			edges++
			edgeErr = math.Max(edgeErr, ConstraintError(c))
		case *IsometricBendingConstraint:
			bends++
			bendErr = math.Max(bendErr, ConstraintError(c))
		case *VolumeConstraint:
			volumes++
			volumeErr = math.Max(volumeErr, ConstraintError(c))
		default:
			others++
		}
	}

	var ke float64
	space.EachBody(func(b *Body) {
		ke += b.KineticEnergy()
	})

	return fmt.Sprintf(`Bodies: %d - Constraints: %d
Edges: %d (max error %e), Bending: %d (max energy %e), Volumes: %d (max error %e), Other: %d
Iterations: %d, Substeps: %d
KE: %e`, space.BodyCount(), len(space.constraints),
		edges, edgeErr, bends, bendErr, volumes, volumeErr, others,
		space.Iterations, space.Substeps, ke)
}

func positions4(views []BodyView) [4]mgl64.Vec3 {
	var p [4]mgl64.Vec3
	for i := range p {
		p[i] = views[i].CurrentPosition()
	}
	return p
}
