// Package models builds scene models: procedural wireframe shapes and
// glTF files converted to points and line segments.
package models

import (
	"fmt"
	"math"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Box returns a wireframe cube of the given edge length centered at the
// origin: two face loops joined by four edges.
func Box(size float64, c framebuffer.Color) *scene.Model {
	half := size / 2
	m := scene.NewModel("box")
	m.Vertices = []scene.Vertex{
		{X: -half, Y: -half, Z: -half}, // 0: bottom-left-back
		{X: half, Y: -half, Z: -half},  // 1: bottom-right-back
		{X: half, Y: half, Z: -half},   // 2: top-right-back
		{X: -half, Y: half, Z: -half},  // 3: top-left-back
		{X: -half, Y: -half, Z: half},  // 4: bottom-left-front
		{X: half, Y: -half, Z: half},   // 5: bottom-right-front
		{X: half, Y: half, Z: half},    // 6: top-right-front
		{X: -half, Y: half, Z: half},   // 7: top-left-front
	}
	m.Colors = []framebuffer.Color{c}
	m.Primitives = []scene.Primitive{
		uniform(scene.KindLineLoop, []int{0, 1, 2, 3}),
		uniform(scene.KindLineLoop, []int{4, 5, 6, 7}),
		uniform(scene.KindLines, []int{0, 4, 1, 5, 2, 6, 3, 7}),
	}
	return m
}

// Axes returns the coordinate axes from the origin: x red, y green, z blue.
func Axes(length float64) *scene.Model {
	m := scene.NewModel("axes")
	m.Vertices = []scene.Vertex{
		math3d.Zero3(),
		math3d.V3(length, 0, 0),
		math3d.V3(0, length, 0),
		math3d.V3(0, 0, length),
	}
	m.Colors = []framebuffer.Color{framebuffer.Red, framebuffer.Green, framebuffer.Blue}
	m.Primitives = []scene.Primitive{
		scene.NewLineSegment(0, 1, 0, 0),
		scene.NewLineSegment(0, 2, 1, 1),
		scene.NewLineSegment(0, 3, 2, 2),
	}
	return m
}

// Grid returns a square grid on the XZ plane at y=0, with lines every step.
func Grid(size, step float64, c framebuffer.Color) (*scene.Model, error) {
	if !(size > 0) || !(step > 0) {
		return nil, fmt.Errorf("%w: grid size %g and step %g must be positive", scene.ErrInvalidArgument, size, step)
	}
	half := size / 2
	n := int(math.Floor(size/step+1e-9)) + 1

	m := scene.NewModel("grid")
	m.Colors = []framebuffer.Color{c}
	for i := range n {
		x := -half + float64(i)*step
		m.Vertices = append(m.Vertices,
			math3d.V3(x, 0, -half), math3d.V3(x, 0, half),
			math3d.V3(-half, 0, x), math3d.V3(half, 0, x),
		)
	}
	idx := make([]int, len(m.Vertices))
	for i := range idx {
		idx[i] = i
	}
	m.Primitives = []scene.Primitive{uniform(scene.KindLines, idx)}
	return m, nil
}

// Circle returns a closed polygon of n segments approximating a circle in
// the XY plane.
func Circle(radius float64, n int, c framebuffer.Color) (*scene.Model, error) {
	if n < 3 {
		return nil, fmt.Errorf("%w: circle needs at least 3 segments, got %d", scene.ErrInvalidArgument, n)
	}
	m := scene.NewModel("circle")
	m.Colors = []framebuffer.Color{c}
	idx := make([]int, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		m.Vertices = append(m.Vertices, math3d.V3(radius*math.Cos(a), radius*math.Sin(a), 0))
		idx[i] = i
	}
	m.Primitives = []scene.Primitive{uniform(scene.KindLineLoop, idx)}
	return m, nil
}

// PointCloud returns one point of the given pixel radius per position.
func PointCloud(points []math3d.Vec3, radius int, c framebuffer.Color) (*scene.Model, error) {
	m := scene.NewModel("points")
	if err := m.AddVertex(points...); err != nil {
		return nil, err
	}
	m.Colors = []framebuffer.Color{c}
	if len(points) == 0 {
		return m, nil
	}
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	p, err := scene.NewUniformPrimitive(scene.KindPoints, idx, 0)
	if err != nil {
		return nil, err
	}
	p = p.WithRadius(radius)
	if err := p.Validate(len(m.Vertices), 1); err != nil {
		return nil, err
	}
	m.Primitives = []scene.Primitive{p}
	return m, nil
}

// Cross marks pos with three short axis-aligned segments.
func Cross(pos math3d.Vec3, size float64, c framebuffer.Color) *scene.Model {
	h := size / 2
	m := scene.NewModel("cross")
	m.Vertices = []scene.Vertex{
		math3d.V3(pos.X-h, pos.Y, pos.Z), math3d.V3(pos.X+h, pos.Y, pos.Z),
		math3d.V3(pos.X, pos.Y-h, pos.Z), math3d.V3(pos.X, pos.Y+h, pos.Z),
		math3d.V3(pos.X, pos.Y, pos.Z-h), math3d.V3(pos.X, pos.Y, pos.Z+h),
	}
	m.Colors = []framebuffer.Color{c}
	m.Primitives = []scene.Primitive{uniform(scene.KindLines, []int{0, 1, 2, 3, 4, 5})}
	return m
}

// Segment returns a single line segment shaded from c0 to c1.
func Segment(from, to math3d.Vec3, c0, c1 framebuffer.Color) *scene.Model {
	m := scene.NewModel("segment")
	m.Vertices = []scene.Vertex{from, to}
	m.Colors = []framebuffer.Color{c0, c1}
	m.Primitives = []scene.Primitive{scene.NewLineSegment(0, 1, 0, 1)}
	return m
}

// uniform builds a primitive with every vertex using color 0. The callers
// above only pass index lists that fit their kind.
func uniform(kind scene.Kind, idx []int) scene.Primitive {
	p, err := scene.NewUniformPrimitive(kind, idx, 0)
	if err != nil {
		panic(err)
	}
	return p
}
