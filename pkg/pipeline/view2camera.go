package pipeline

import "github.com/taigrr/wirecast/pkg/scene"

// View2Camera maps view coordinates into the camera's canonical view
// volume with the camera's normalization matrix.
func View2Camera(m *scene.Model, cam *scene.Camera) *scene.Model {
	return transform(m, cam.NormalizationMatrix())
}
