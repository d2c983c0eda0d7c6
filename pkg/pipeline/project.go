package pipeline

import "github.com/taigrr/wirecast/pkg/scene"

// Project maps camera coordinates onto the image plane. Perspective divides
// x and y by -z and places the result on z = -1; orthographic keeps x and y
// and sets z to 0.
func Project(m *scene.Model, cam *scene.Camera) *scene.Model {
	verts := make([]scene.Vertex, len(m.Vertices))
	if cam.Perspective() {
		for i, v := range m.Vertices {
			verts[i] = scene.V(v.X/-v.Z, v.Y/-v.Z, -1)
		}
	} else {
		for i, v := range m.Vertices {
			verts[i] = scene.V(v.X, v.Y, 0)
		}
	}
	return m.Derive(verts, m.Colors, m.Primitives)
}
