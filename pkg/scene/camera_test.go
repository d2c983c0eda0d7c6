package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/wirecast/pkg/math3d"
)

func TestDefaultCamera(t *testing.T) {
	c := NewCamera()
	if !c.Perspective() {
		t.Error("default camera should be perspective")
	}
	if math.Abs(c.FOVY()-90) > 1e-9 {
		t.Errorf("fovy = %v, want 90", c.FOVY())
	}
	if math.Abs(c.Aspect()-1) > 1e-9 {
		t.Errorf("aspect = %v, want 1", c.Aspect())
	}
	if !c.ViewMatrix().ApproxEqual(math3d.Identity(), 1e-12) {
		t.Errorf("default view matrix is not identity:\n%v", c.ViewMatrix())
	}
	if !c.NormalizationMatrix().ApproxEqual(math3d.Identity(), 1e-12) {
		t.Errorf("default normalization is not identity:\n%v", c.NormalizationMatrix())
	}
}

func TestCameraFOVY(t *testing.T) {
	tests := []struct {
		name        string
		fovy        float64
		aspect      float64
		near        float64
		wantTop     float64
		wantRight   float64
		perspective bool
	}{
		{"perspective 90", 90, 1, 1, 1, 1, true},
		{"perspective wide", 90, 2, 0.5, 0.5, 1, true},
		{"perspective 60", 60, 1, 1, math.Tan(math.Pi / 6), math.Tan(math.Pi / 6), true},
		{"ortho uses |near|", 90, 1, -2, 2, 2, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera()
			var err error
			if tc.perspective {
				err = c.ProjPerspectiveFOVY(tc.fovy, tc.aspect, tc.near)
			} else {
				err = c.ProjOrthoFOVY(tc.fovy, tc.aspect, tc.near)
			}
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(c.Top()-tc.wantTop) > 1e-9 || math.Abs(c.Bottom()+tc.wantTop) > 1e-9 {
				t.Errorf("top/bottom = %v/%v, want ±%v", c.Top(), c.Bottom(), tc.wantTop)
			}
			if math.Abs(c.Right()-tc.wantRight) > 1e-9 {
				t.Errorf("right = %v, want %v", c.Right(), tc.wantRight)
			}
			if math.Abs(c.FOVY()-tc.fovy) > 1e-9 {
				t.Errorf("fovy = %v, want %v", c.FOVY(), tc.fovy)
			}
			if math.Abs(c.Aspect()-tc.aspect) > 1e-9 {
				t.Errorf("aspect = %v, want %v", c.Aspect(), tc.aspect)
			}
		})
	}
}

func TestCameraInvalid(t *testing.T) {
	tests := []struct {
		name string
		set  func(c *Camera) error
	}{
		{"zero near", func(c *Camera) error { return c.ProjPerspective(-1, 1, -1, 1, 0) }},
		{"negative near", func(c *Camera) error { return c.ProjPerspective(-1, 1, -1, 1, -1) }},
		{"empty width", func(c *Camera) error { return c.ProjPerspective(1, 1, -1, 1, 1) }},
		{"flipped height", func(c *Camera) error { return c.ProjOrtho(-1, 1, 1, -1, -1) }},
		{"nan", func(c *Camera) error { return c.ProjOrtho(math.NaN(), 1, -1, 1, -1) }},
		{"fovy 180", func(c *Camera) error { return c.ProjPerspectiveFOVY(180, 1, 1) }},
		{"fovy 0", func(c *Camera) error { return c.ProjPerspectiveFOVY(0, 1, 1) }},
		{"zero aspect", func(c *Camera) error { return c.ProjPerspectiveFOVY(60, 0, 1) }},
		{"ortho zero near", func(c *Camera) error { return c.ProjOrthoFOVY(60, 1, 0) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera()
			if err := tc.set(c); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
			if !c.Perspective() || c.Near() != 1 || c.Left() != -1 {
				t.Errorf("camera changed after a rejected call: %v", c)
			}
		})
	}
}

func TestCameraNormalizationCache(t *testing.T) {
	c := NewCamera()
	_ = c.NormalizationMatrix()
	if err := c.ProjOrtho(-2, 2, -1, 1, -1); err != nil {
		t.Fatal(err)
	}
	got := c.NormalizationMatrix().MulPoint(math3d.V3(2, 1, -5))
	if got != math3d.V3(1, 1, -5) {
		t.Errorf("got %v, want (1,1,-5)", got)
	}
	if err := c.SetAspect(4); err != nil {
		t.Fatal(err)
	}
	if c.Left() != -4 || c.Right() != 4 {
		t.Errorf("left/right = %v/%v, want -4/4", c.Left(), c.Right())
	}
}

func TestCameraPlacement(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 5))
	got := c.ViewMatrix().MulPoint(math3d.V3(0, 0, 0))
	if got.Sub(math3d.V3(0, 0, -5)).Len() > 1e-9 {
		t.Errorf("origin in view space = %v, want (0,0,-5)", got)
	}

	c.SetPosition(math3d.V3(5, 0, 0))
	c.LookAt(math3d.V3(0, 0, 0))
	got = c.ViewMatrix().MulPoint(math3d.V3(0, 0, 0))
	if got.Sub(math3d.V3(0, 0, -5)).Len() > 1e-9 {
		t.Errorf("looked-at origin in view space = %v, want (0,0,-5)", got)
	}
	fwd := c.Forward()
	if fwd.Sub(math3d.V3(-1, 0, 0)).Len() > 1e-9 {
		t.Errorf("forward = %v, want (-1,0,0)", fwd)
	}

	c.Rotate(10, 0, 0)
	if pitch, _, _ := c.Rotation(); pitch >= math.Pi/2 {
		t.Errorf("pitch %v not clamped", pitch)
	}
}
