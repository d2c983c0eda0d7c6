package models

import (
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Bounds returns the axis-aligned box around m and its nested models, in
// m's parent coordinates (m.Matrix applied). ok is false when there are no
// vertices.
func Bounds(m *scene.Model) (lo, hi math3d.Vec3, ok bool) {
	return modelBounds(m, math3d.Identity(), map[*scene.Model]bool{})
}

// PositionBounds is Bounds for a position subtree, including every nested
// position's matrix.
func PositionBounds(p *scene.Position) (lo, hi math3d.Vec3, ok bool) {
	return positionBounds(p, math3d.Identity(), map[*scene.Position]bool{})
}

// FitMatrix returns the transform that centers the box [lo,hi] on the
// origin and scales its largest dimension to size.
func FitMatrix(lo, hi math3d.Vec3, size float64) math3d.Mat4 {
	center := lo.Add(hi).Scale(0.5)
	dim := hi.Sub(lo)
	maxDim := max(dim.X, dim.Y, dim.Z)
	scale := 1.0
	if maxDim > 0 {
		scale = size / maxDim
	}
	return math3d.ScaleUniform(scale).Mul(math3d.Translate(center.Negate()))
}

func modelBounds(m *scene.Model, ctm math3d.Mat4, seen map[*scene.Model]bool) (lo, hi math3d.Vec3, ok bool) {
	if m == nil || seen[m] {
		return lo, hi, false
	}
	seen[m] = true
	defer delete(seen, m)

	ctm = ctm.Mul(m.LocalMatrix())
	for _, v := range m.Vertices {
		lo, hi, ok = grow(lo, hi, ok, ctm.MulPoint(v))
	}
	for _, n := range m.Nested {
		if nlo, nhi, nok := modelBounds(n, ctm, seen); nok {
			lo, hi, ok = grow(lo, hi, ok, nlo)
			lo, hi, ok = grow(lo, hi, ok, nhi)
		}
	}
	return lo, hi, ok
}

func positionBounds(p *scene.Position, ctm math3d.Mat4, seen map[*scene.Position]bool) (lo, hi math3d.Vec3, ok bool) {
	if p == nil || seen[p] {
		return lo, hi, false
	}
	seen[p] = true
	defer delete(seen, p)

	ctm = ctm.Mul(p.LocalMatrix())
	if p.Model != nil {
		lo, hi, ok = modelBounds(p.Model, ctm, map[*scene.Model]bool{})
	}
	for _, n := range p.Nested {
		if nlo, nhi, nok := positionBounds(n, ctm, seen); nok {
			lo, hi, ok = grow(lo, hi, ok, nlo)
			lo, hi, ok = grow(lo, hi, ok, nhi)
		}
	}
	return lo, hi, ok
}

func grow(lo, hi math3d.Vec3, ok bool, v math3d.Vec3) (math3d.Vec3, math3d.Vec3, bool) {
	if !ok {
		return v, v, true
	}
	return lo.Min(v), hi.Max(v), true
}
