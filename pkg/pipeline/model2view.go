package pipeline

import (
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Model2View transforms every vertex of m by the accumulated model-to-view
// matrix ctm. Colors and primitives pass through.
func Model2View(m *scene.Model, ctm math3d.Mat4) *scene.Model {
	return transform(m, ctm)
}

func transform(m *scene.Model, mat math3d.Mat4) *scene.Model {
	verts := make([]scene.Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		verts[i] = mat.MulPoint(v)
	}
	return m.Derive(verts, m.Colors, m.Primitives)
}
