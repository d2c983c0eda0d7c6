package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/wirecast/pkg/math3d"
)

// Camera holds the view volume and the camera's placement in the world.
//
// The view volume is either a perspective frustum with its apex at the origin
// or an orthographic box along the z-axis. Both are given by the view
// rectangle [left,right]x[bottom,top] on the image plane z = -near. The
// placement (position plus pitch, yaw and roll) defines the world-to-view
// matrix; the default camera sits at the origin looking down -z, which makes
// that matrix the identity.
type Camera struct {
	left, right, bottom, top float64
	near                     float64
	perspective              bool

	position         math3d.Vec3
	pitch, yaw, roll float64 // radians

	// Cached matrices (computed on demand)
	viewMatrix math3d.Mat4
	normMatrix math3d.Mat4
	viewDirty  bool
	normDirty  bool
}

// NewCamera returns the default perspective camera: view rectangle
// [-1,1]x[-1,1] at near = 1 (a 90 degree field of view).
func NewCamera() *Camera {
	return &Camera{
		left: -1, right: 1, bottom: -1, top: 1,
		near:        1,
		perspective: true,
		viewDirty:   true,
		normDirty:   true,
	}
}

// ProjPerspective sets a perspective frustum through the given view
// rectangle on the plane z = -near.
func (c *Camera) ProjPerspective(left, right, bottom, top, near float64) error {
	if err := checkRect(left, right, bottom, top); err != nil {
		return err
	}
	if !(near > 0) || math.IsInf(near, 0) {
		return fmt.Errorf("%w: perspective near %g must be positive", ErrInvalidArgument, near)
	}
	c.setVolume(left, right, bottom, top, near, true)
	return nil
}

// ProjPerspectiveFOVY sets a symmetric perspective frustum from a vertical
// field of view in degrees and an aspect ratio (width / height).
func (c *Camera) ProjPerspectiveFOVY(fovy, aspect, near float64) error {
	top, err := fovyTop(fovy, aspect, near)
	if err != nil {
		return err
	}
	return c.ProjPerspective(-top*aspect, top*aspect, -top, top, near)
}

// ProjOrtho sets an orthographic view volume. near may be negative, which
// puts the near plane behind the camera; the classic default is -1.
func (c *Camera) ProjOrtho(left, right, bottom, top, near float64) error {
	if err := checkRect(left, right, bottom, top); err != nil {
		return err
	}
	if math.IsNaN(near) || math.IsInf(near, 0) {
		return fmt.Errorf("%w: orthographic near %g", ErrInvalidArgument, near)
	}
	c.setVolume(left, right, bottom, top, near, false)
	return nil
}

// ProjOrthoFOVY sets a symmetric orthographic box whose size matches what a
// perspective camera with the same fovy sees at distance |near|.
func (c *Camera) ProjOrthoFOVY(fovy, aspect, near float64) error {
	top, err := fovyTop(fovy, aspect, math.Abs(near))
	if err != nil {
		return err
	}
	return c.ProjOrtho(-top*aspect, top*aspect, -top, top, near)
}

// SetFOV changes the vertical field of view (degrees) while keeping the
// aspect ratio, near distance and projection mode.
func (c *Camera) SetFOV(fovy float64) error {
	if c.perspective {
		return c.ProjPerspectiveFOVY(fovy, c.Aspect(), c.near)
	}
	return c.ProjOrthoFOVY(fovy, c.Aspect(), c.near)
}

// SetAspect changes the aspect ratio while keeping the vertical extent.
func (c *Camera) SetAspect(aspect float64) error {
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return fmt.Errorf("%w: aspect %g must be positive", ErrInvalidArgument, aspect)
	}
	cx := (c.left + c.right) / 2
	half := (c.top - c.bottom) / 2 * aspect
	c.left, c.right = cx-half, cx+half
	c.normDirty = true
	return nil
}

// Left returns the left edge of the view rectangle.
func (c *Camera) Left() float64 { return c.left }

// Right returns the right edge of the view rectangle.
func (c *Camera) Right() float64 { return c.right }

// Bottom returns the bottom edge of the view rectangle.
func (c *Camera) Bottom() float64 { return c.bottom }

// Top returns the top edge of the view rectangle.
func (c *Camera) Top() float64 { return c.top }

// Near returns the near distance. The near plane is z = -Near().
func (c *Camera) Near() float64 { return c.near }

// NearZ returns the z coordinate of the near plane.
func (c *Camera) NearZ() float64 { return -c.near }

// Perspective reports whether the camera uses perspective projection.
func (c *Camera) Perspective() bool { return c.perspective }

// FOVY returns the vertical field of view in degrees.
func (c *Camera) FOVY() float64 {
	return 2 * math3d.Degrees(math.Atan(c.top/math.Abs(c.near)))
}

// Aspect returns the view rectangle's width / height.
func (c *Camera) Aspect() float64 {
	return (c.right - c.left) / (c.top - c.bottom)
}

// NormalizationMatrix maps the view volume onto the canonical one: the
// frustum through (±1, ±1, -1) or the box over [-1,1]x[-1,1].
func (c *Camera) NormalizationMatrix() math3d.Mat4 {
	if c.normDirty {
		if c.perspective {
			c.normMatrix = math3d.PerspectiveNormalize(c.left, c.right, c.bottom, c.top, c.near)
		} else {
			c.normMatrix = math3d.OrthographicNormalize(c.left, c.right, c.bottom, c.top)
		}
		c.normDirty = false
	}
	return c.normMatrix
}

// Position returns the camera position in world space.
func (c *Camera) Position() math3d.Vec3 { return c.position }

// Rotation returns pitch, yaw and roll in radians.
func (c *Camera) Rotation() (pitch, yaw, roll float64) { return c.pitch, c.yaw, c.roll }

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.position = pos
	c.viewDirty = true
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.pitch = pitch
	c.yaw = yaw
	c.roll = roll
	c.viewDirty = true
}

// Rotate adds to the camera rotation, clamping pitch short of straight up
// or down.
func (c *Camera) Rotate(deltaPitch, deltaYaw, deltaRoll float64) {
	const maxPitch = math.Pi/2 - 0.01
	c.pitch = math.Max(-maxPitch, math.Min(maxPitch, c.pitch+deltaPitch))
	c.yaw += deltaYaw
	c.roll += deltaRoll
	c.viewDirty = true
}

// Forward returns the viewing direction in world space.
func (c *Camera) Forward() math3d.Vec3 {
	return math3d.V3(
		-math.Sin(c.yaw)*math.Cos(c.pitch),
		math.Sin(c.pitch),
		-math.Cos(c.yaw)*math.Cos(c.pitch),
	)
}

// RightDir returns the camera's right direction in world space (ignoring roll).
func (c *Camera) RightDir() math3d.Vec3 {
	return math3d.V3(math.Cos(c.yaw), 0, -math.Sin(c.yaw))
}

// MoveForward moves the camera along its viewing direction.
func (c *Camera) MoveForward(distance float64) {
	c.SetPosition(c.position.Add(c.Forward().Scale(distance)))
}

// LookAt turns the camera toward target.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.position).Normalize()
	c.SetRotation(math.Asin(dir.Y), math.Atan2(-dir.X, -dir.Z), 0)
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		rot := math3d.RotateZ(-c.roll).
			Mul(math3d.RotateX(-c.pitch)).
			Mul(math3d.RotateY(-c.yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.position.Negate()))
		c.viewDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) String() string {
	var sb strings.Builder
	sb.WriteString("Camera:\n")
	fmt.Fprintf(&sb, "  perspective = %t\n", c.perspective)
	fmt.Fprintf(&sb, "  left = %g, right = %g\n", c.left, c.right)
	fmt.Fprintf(&sb, "  bottom = %g, top = %g\n", c.bottom, c.top)
	fmt.Fprintf(&sb, "  near = %g\n", c.near)
	fmt.Fprintf(&sb, "  (fovy = %g, aspect ratio = %.2f)\n", c.FOVY(), c.Aspect())
	return sb.String()
}

func (c *Camera) setVolume(left, right, bottom, top, near float64, perspective bool) {
	c.left, c.right, c.bottom, c.top = left, right, bottom, top
	c.near = near
	c.perspective = perspective
	c.normDirty = true
}

func checkRect(left, right, bottom, top float64) error {
	for _, v := range [4]float64{left, right, bottom, top} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: view rectangle value %g", ErrInvalidArgument, v)
		}
	}
	if !(right > left) || !(top > bottom) {
		return fmt.Errorf("%w: empty view rectangle [%g,%g]x[%g,%g]", ErrInvalidArgument, left, right, bottom, top)
	}
	return nil
}

func fovyTop(fovy, aspect, near float64) (float64, error) {
	if !(fovy > 0 && fovy < 180) {
		return 0, fmt.Errorf("%w: fovy %g must be in (0,180) degrees", ErrInvalidArgument, fovy)
	}
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return 0, fmt.Errorf("%w: aspect %g must be positive", ErrInvalidArgument, aspect)
	}
	if !(near > 0) {
		return 0, fmt.Errorf("%w: near %g must be positive", ErrInvalidArgument, near)
	}
	return near * math.Tan(math3d.Radians(fovy)/2), nil
}
