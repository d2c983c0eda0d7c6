package scene

import "github.com/taigrr/wirecast/pkg/math3d"

// Vertex is a point in whatever coordinate system the current pipeline
// stage works in. Stages produce new vertices and never mutate a model's.
type Vertex = math3d.Vec3

// V is shorthand for building a Vertex.
func V(x, y, z float64) Vertex { return math3d.V3(x, y, z) }
