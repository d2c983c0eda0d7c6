package animate

import (
	"fmt"
	"math"

	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Orbit is a turntable: over Frames frames the subject makes one full turn
// about Axis. Tilt (radians, about x) is applied after the turn so the
// subject can be viewed from slightly above.
type Orbit struct {
	Frames int
	Axis   math3d.Vec3
	Tilt   float64
}

// NewOrbit returns an upright turntable about +y.
func NewOrbit(frames int) (Orbit, error) {
	if frames < 1 {
		return Orbit{}, fmt.Errorf("%w: orbit needs at least one frame, got %d", scene.ErrInvalidArgument, frames)
	}
	return Orbit{Frames: frames, Axis: math3d.Up()}, nil
}

// Angle returns the turn in radians at frame. Frames wrap around.
func (o Orbit) Angle(frame int) float64 {
	f := frame % o.Frames
	if f < 0 {
		f += o.Frames
	}
	return 2 * math.Pi * float64(f) / float64(o.Frames)
}

// Matrix returns the turntable transform for frame.
func (o Orbit) Matrix(frame int) math3d.Mat4 {
	return math3d.RotateX(o.Tilt).Mul(math3d.Rotate(o.Axis, o.Angle(frame)))
}

// Apply sets p.Matrix to the frame's turntable transform followed by base,
// so base places the subject before it is turned.
func (o Orbit) Apply(p *scene.Position, base math3d.Mat4, frame int) {
	p.Matrix = o.Matrix(frame).Mul(base)
}
