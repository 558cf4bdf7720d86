// Package mesh builds cloth and soft bodies out of xpbd bodies and constraints.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/xpbd"
)

// ErrIndexOutOfRange is returned when a triangle or tetrahedron refers to a
// vertex that has no body.
var ErrIndexOutOfRange = errors.New("mesh: vertex index out of range")

// minTriangleArea is the area below which a triangle pair gets no bending constraint.
const minTriangleArea = 1e-12

// Config holds the compliances given to generated constraints.
type Config struct {
	EdgeCompliance    float64
	BendingCompliance float64
	VolumeCompliance  float64
}

// DefaultConfig returns the default compliance of every constraint kind.
func DefaultConfig() Config {
	return Config{
		EdgeCompliance:    xpbd.DefaultEdgeCompliance,
		BendingCompliance: xpbd.DefaultBendingCompliance,
		VolumeCompliance:  xpbd.DefaultVolumeCompliance,
	}
}

// Cloth holds the constraints generated for a triangle mesh.
type Cloth struct {
	Edges []*xpbd.EdgeConstraint
	Bends []*xpbd.IsometricBendingConstraint
}

// SoftBody holds the constraints generated for a tetrahedral mesh.
type SoftBody struct {
	Edges   []*xpbd.EdgeConstraint
	Volumes []*xpbd.VolumeConstraint
}

// Grid returns a flat rows x cols grid of vertices in the XZ plane and two
// triangles per cell.
func Grid(rows, cols int, spacing float64, origin mgl64.Vec3) ([]mgl64.Vec3, [][3]int) {
	positions := make([]mgl64.Vec3, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			positions = append(positions, origin.Add(mgl64.Vec3{float64(c) * spacing, 0, float64(r) * spacing}))
		}
	}

	var triangles [][3]int
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			i := r*cols + c
			triangles = append(triangles,
				[3]int{i, i + 1, i + cols},
				[3]int{i + 1, i + cols + 1, i + cols},
			)
		}
	}
	return positions, triangles
}

// Box returns the corners of an axis aligned cube and its split into five
// tetrahedra. Corner i sits at origin + size*(i&1, i>>1&1, i>>2&1).
func Box(origin mgl64.Vec3, size float64) ([]mgl64.Vec3, [][4]int) {
	positions := make([]mgl64.Vec3, 8)
	for i := range positions {
		positions[i] = origin.Add(mgl64.Vec3{
			float64(i & 1),
			float64(i >> 1 & 1),
			float64(i >> 2 & 1),
		}.Mul(size))
	}
	tets := [][4]int{
		{1, 2, 4, 7}, // center
		{0, 1, 2, 4},
		{3, 1, 2, 7},
		{5, 1, 4, 7},
		{6, 2, 4, 7},
	}
	return positions, tets
}

// AddBodies adds one body of the given mass per position and returns their ids.
func AddBodies(space *xpbd.Space, positions []mgl64.Vec3, mass float64) []xpbd.BodyID {
	ids := make([]xpbd.BodyID, len(positions))
	for i, p := range positions {
		ids[i] = space.AddBody(xpbd.NewBody(mass, p))
	}
	return ids
}

// AddCloth adds an edge constraint for every distinct triangle edge and a
// bending constraint for every edge shared by two triangles. Indices in
// triangles refer to ids.
func AddCloth(space *xpbd.Space, ids []xpbd.BodyID, triangles [][3]int, cfg Config) (Cloth, error) {
	var cloth Cloth
	for i, tri := range triangles {
		if err := checkIndices(len(ids), i, tri[:]); err != nil {
			return cloth, err
		}
	}

	// apexes of the triangles on each edge, edges in order of first appearance
	var order [][2]int
	apexes := map[[2]int][]int{}
	for _, tri := range triangles {
		for k := range 3 {
			e := edgeKey(tri[k], tri[(k+1)%3])
			if _, ok := apexes[e]; !ok {
				order = append(order, e)
			}
			apexes[e] = append(apexes[e], tri[(k+2)%3])
		}
	}

	pos := func(i int) mgl64.Vec3 {
		return space.Body(ids[i]).Position()
	}
	for _, e := range order {
		edge := xpbd.NewEdgeConstraint(ids[e[0]], pos(e[0]), ids[e[1]], pos(e[1])).
			WithCompliance(cfg.EdgeCompliance)
		space.AddConstraint(edge.Constraint)
		cloth.Edges = append(cloth.Edges, edge)

		opposite := apexes[e]
		if len(opposite) != 2 {
			continue
		}
		a, b, c, d := pos(e[0]), pos(e[1]), pos(opposite[0]), pos(opposite[1])
		if area(a, b, c) < minTriangleArea || area(a, b, d) < minTriangleArea {
			continue
		}
		bend := xpbd.NewIsometricBendingConstraint(
			ids[e[0]], a,
			ids[e[1]], b,
			ids[opposite[0]], c,
			ids[opposite[1]], d,
		).WithCompliance(cfg.BendingCompliance)
		space.AddConstraint(bend.Constraint)
		cloth.Bends = append(cloth.Bends, bend)
	}
	return cloth, nil
}

// AddSoftBody adds a volume constraint per tetrahedron and an edge constraint
// for every distinct tetrahedron edge. Nothing is added if a tetrahedron is
// degenerate.
func AddSoftBody(space *xpbd.Space, ids []xpbd.BodyID, tets [][4]int, cfg Config) (SoftBody, error) {
	var body SoftBody
	for i, t := range tets {
		if err := checkIndices(len(ids), i, t[:]); err != nil {
			return body, err
		}
	}

	pos := func(i int) mgl64.Vec3 {
		return space.Body(ids[i]).Position()
	}
	for i, t := range tets {
		volume, err := xpbd.NewVolumeConstraint(
			ids[t[0]], pos(t[0]),
			ids[t[1]], pos(t[1]),
			ids[t[2]], pos(t[2]),
			ids[t[3]], pos(t[3]),
		)
		if err != nil {
			return SoftBody{}, fmt.Errorf("mesh: tetrahedron %d: %w", i, err)
		}
		body.Volumes = append(body.Volumes, volume.WithCompliance(cfg.VolumeCompliance))
	}

	seen := map[[2]int]bool{}
	for _, t := range tets {
		for j := range 4 {
			for k := j + 1; k < 4; k++ {
				e := edgeKey(t[j], t[k])
				if seen[e] {
					continue
				}
				seen[e] = true
				edge := xpbd.NewEdgeConstraint(ids[e[0]], pos(e[0]), ids[e[1]], pos(e[1])).
					WithCompliance(cfg.EdgeCompliance)
				body.Edges = append(body.Edges, edge)
			}
		}
	}

	for _, edge := range body.Edges {
		space.AddConstraint(edge.Constraint)
	}
	for _, volume := range body.Volumes {
		space.AddConstraint(volume.Constraint)
	}
	return body, nil
}

func checkIndices(n, element int, vertices []int) error {
	for _, v := range vertices {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: element %d uses vertex %d of %d", ErrIndexOutOfRange, element, v, n)
		}
	}
	return nil
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func area(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}
