// Package animate moves scene positions and cameras over time: spring-damped
// rotation for interactive viewing, turntable orbits for frame sequences and
// a spring-eased camera dolly.
package animate

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/wirecast/pkg/math3d"
)

// RotationAxis tracks angle and angular velocity for one axis. Velocity
// decays toward zero through a critically damped spring.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // spring velocity of Velocity itself
}

// NewRotationAxis creates an axis updated fps times per second.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4 settles in about a second without overshoot.
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances one frame.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds pitch, yaw and roll axes, in radians.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

// ApplyImpulse adds angular velocity in radians per frame.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Moving reports whether any axis still turns faster than eps per frame.
func (r *RotationState) Moving(eps float64) bool {
	return abs(r.Pitch.Velocity) > eps || abs(r.Yaw.Velocity) > eps || abs(r.Roll.Velocity) > eps
}

// Matrix returns the current orientation: yaw about y, then pitch about x,
// then roll about z, outermost first.
func (r *RotationState) Matrix() math3d.Mat4 {
	return math3d.RotateY(r.Yaw.Position).
		Mul(math3d.RotateX(r.Pitch.Position)).
		Mul(math3d.RotateZ(r.Roll.Position))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
