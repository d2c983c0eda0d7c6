package pipeline

import "github.com/taigrr/wirecast/pkg/scene"

// Assemble returns a model whose primitives are only points and line
// segments, expanding every composite primitive kind of m.
func Assemble(m *scene.Model) *scene.Model {
	prims := make([]scene.Primitive, 0, len(m.Primitives))
	for _, p := range m.Primitives {
		prims = append(prims, p.Assemble()...)
	}
	return m.Derive(m.Vertices, m.Colors, prims)
}
