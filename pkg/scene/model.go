// Package scene is the data model the renderer consumes: vertices,
// primitives, models, the position graph and the camera.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
)

// Model bundles geometry with a local transform and nested child models.
// Nested models draw with the parent's accumulated transform times their own
// Matrix. Create models with NewModel: the zero value is hidden, and its zero
// Matrix is read as the identity.
type Model struct {
	Name       string
	Vertices   []Vertex
	Colors     []framebuffer.Color
	Primitives []Primitive
	Nested     []*Model
	Matrix     math3d.Mat4
	Visible    bool
}

// NewModel returns an empty, visible model with an identity matrix.
func NewModel(name string) *Model {
	return &Model{
		Name:    name,
		Matrix:  math3d.Identity(),
		Visible: true,
	}
}

// AddVertex appends vertices. Non-finite coordinates are rejected.
func (m *Model) AddVertex(vs ...Vertex) error {
	for _, v := range vs {
		if !v.IsFinite() {
			return fmt.Errorf("%w: model %q: vertex %v is not finite", ErrInvalidArgument, m.Name, v)
		}
	}
	m.Vertices = append(m.Vertices, vs...)
	return nil
}

// AddColor appends colors.
func (m *Model) AddColor(cs ...framebuffer.Color) {
	m.Colors = append(m.Colors, cs...)
}

// AddPrimitive appends primitives. Indices are checked by Validate, since
// vertices may be added after the primitives that use them.
func (m *Model) AddPrimitive(ps ...Primitive) {
	m.Primitives = append(m.Primitives, ps...)
}

// AddNested appends child models.
func (m *Model) AddNested(children ...*Model) error {
	for _, c := range children {
		if c == nil {
			return fmt.Errorf("%w: model %q: nil nested model", ErrInvalidArgument, m.Name)
		}
		if c == m || c.contains(m) {
			return fmt.Errorf("%w: model %q: nesting %q would create a cycle", ErrInvalidArgument, m.Name, c.Name)
		}
	}
	m.Nested = append(m.Nested, children...)
	return nil
}

// Validate checks every primitive's indices against the model's lists, and
// recurses into nested models. A nested model that contains its own parent
// is reported as a cycle.
func (m *Model) Validate() error {
	return m.validate(make(map[*Model]bool))
}

func (m *Model) validate(onPath map[*Model]bool) error {
	if onPath[m] {
		return fmt.Errorf("%w: model cycle at %q", ErrInvalidArgument, m.Name)
	}
	for i, p := range m.Primitives {
		if err := p.Validate(len(m.Vertices), len(m.Colors)); err != nil {
			return fmt.Errorf("model %q primitive %d: %w", m.Name, i, err)
		}
	}
	onPath[m] = true
	defer delete(onPath, m)
	for _, n := range m.Nested {
		if n == nil {
			return fmt.Errorf("%w: model %q: nil nested model", ErrInvalidArgument, m.Name)
		}
		if err := n.validate(onPath); err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
	}
	return nil
}

// LocalMatrix is Matrix with the zero matrix read as the identity.
func (m *Model) LocalMatrix() math3d.Mat4 {
	return m.Matrix.OrIdentity()
}

// NeedsDefaultColors reports whether the model has vertices but no colors.
func (m *Model) NeedsDefaultColors() bool {
	return len(m.Colors) == 0 && len(m.Vertices) > 0
}

// FillDefaultColors gives a model with vertices but no colors one color c
// per vertex, in this model and every nested model. It logs a warning for
// each model it changes and reports whether anything changed.
func (m *Model) FillDefaultColors(c framebuffer.Color, logger *slog.Logger) bool {
	return m.fillDefaultColors(c, logger, make(map[*Model]bool))
}

func (m *Model) fillDefaultColors(c framebuffer.Color, logger *slog.Logger, seen map[*Model]bool) bool {
	if seen[m] {
		return false
	}
	seen[m] = true
	changed := false
	if m.NeedsDefaultColors() {
		m.Colors = make([]framebuffer.Color, len(m.Vertices))
		for i := range m.Colors {
			m.Colors[i] = c
		}
		if logger != nil {
			logger.Warn("added default color to model", "model", m.Name, "color", c.String())
		}
		changed = true
	}
	for _, n := range m.Nested {
		if n != nil && n.fillDefaultColors(c, logger, seen) {
			changed = true
		}
	}
	return changed
}

// WithDefaultColors returns m itself when it already has colors, otherwise a
// shallow copy whose color list is filled with c. m is never mutated.
func (m *Model) WithDefaultColors(c framebuffer.Color) *Model {
	if !m.NeedsDefaultColors() {
		return m
	}
	cp := *m
	cp.Colors = make([]framebuffer.Color, len(m.Vertices))
	for i := range cp.Colors {
		cp.Colors[i] = c
	}
	return &cp
}

// Derive returns a model carrying m's name, matrix, visibility and nested
// models with new geometry lists. Pipeline stages use it to build their
// output without touching m.
func (m *Model) Derive(vertices []Vertex, colors []framebuffer.Color, primitives []Primitive) *Model {
	return &Model{
		Name:       m.Name,
		Vertices:   vertices,
		Colors:     colors,
		Primitives: primitives,
		Nested:     m.Nested,
		Matrix:     m.Matrix,
		Visible:    m.Visible,
	}
}

// Bounds returns the axis-aligned box around the model's own vertices.
// ok is false for a model without vertices.
func (m *Model) Bounds() (lo, hi math3d.Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi, true
}

// Stats counts vertices and primitives in m and its nested models. A model
// nested under itself is counted once.
func (m *Model) Stats() (vertices, primitives int) {
	return m.stats(make(map[*Model]bool))
}

func (m *Model) stats(onPath map[*Model]bool) (vertices, primitives int) {
	if onPath[m] {
		return 0, 0
	}
	onPath[m] = true
	defer delete(onPath, m)
	vertices, primitives = len(m.Vertices), len(m.Primitives)
	for _, n := range m.Nested {
		if n == nil {
			continue
		}
		v, p := n.stats(onPath)
		vertices += v
		primitives += p
	}
	return vertices, primitives
}

func (m *Model) String() string {
	return fmt.Sprintf("Model: %s (%d vertices, %d colors, %d primitives, %d nested, visible=%t)",
		m.Name, len(m.Vertices), len(m.Colors), len(m.Primitives), len(m.Nested), m.Visible)
}

func (m *Model) contains(target *Model) bool {
	seen := make(map[*Model]bool)
	var walk func(*Model) bool
	walk = func(m *Model) bool {
		if seen[m] {
			return false
		}
		seen[m] = true
		for _, n := range m.Nested {
			if n == target || (n != nil && walk(n)) {
				return true
			}
		}
		return false
	}
	return walk(m)
}
