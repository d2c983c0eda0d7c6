package animate

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/wirecast/pkg/math3d"
)

// Dolly eases a viewing distance toward a target with a spring. It is used
// to zoom a subject in and out smoothly.
type Dolly struct {
	Distance float64
	Target   float64
	velocity float64
	spring   harmonica.Spring
}

// NewDolly starts at rest at distance, updated fps times per second.
func NewDolly(fps int, distance float64) *Dolly {
	return &Dolly{
		Distance: distance,
		Target:   distance,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Zoom moves the target by delta, keeping it at least floor.
func (d *Dolly) Zoom(delta, floor float64) {
	d.Target = math.Max(d.Target+delta, floor)
}

// Update advances one frame and returns the new distance.
func (d *Dolly) Update() float64 {
	d.Distance, d.velocity = d.spring.Update(d.Distance, d.velocity, d.Target)
	return d.Distance
}

// Settled reports whether the distance is within eps of the target.
func (d *Dolly) Settled(eps float64) bool {
	return math.Abs(d.Distance-d.Target) <= eps && math.Abs(d.velocity) <= eps
}

// Matrix pushes the subject Distance units down -z, in front of the default
// camera.
func (d *Dolly) Matrix() math3d.Mat4 {
	return math3d.Translate(math3d.V3(0, 0, -d.Distance))
}
