package models

import (
	"errors"
	"testing"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

func TestShapesValidate(t *testing.T) {
	grid, err := Grid(4, 1, framebuffer.Gray)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	circle, err := Circle(1, 16, framebuffer.Yellow)
	if err != nil {
		t.Fatalf("Circle: %v", err)
	}
	cloud, err := PointCloud([]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 1, 1)}, 2, framebuffer.Cyan)
	if err != nil {
		t.Fatalf("PointCloud: %v", err)
	}

	tests := []struct {
		name     string
		model    *scene.Model
		vertices int
		segments int
	}{
		{"box", Box(2, framebuffer.White), 8, 12},
		{"axes", Axes(1), 4, 3},
		{"grid", grid, 20, 10},
		{"circle", circle, 16, 16},
		{"points", cloud, 2, 2},
		{"cross", Cross(math3d.Zero3(), 1, framebuffer.Red), 6, 3},
		{"segment", Segment(math3d.Zero3(), math3d.V3(1, 0, 0), framebuffer.Red, framebuffer.Blue), 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.model.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got := len(tt.model.Vertices); got != tt.vertices {
				t.Errorf("vertices = %d, want %d", got, tt.vertices)
			}
			var segments int
			for _, p := range tt.model.Primitives {
				segments += len(p.Assemble())
			}
			if segments != tt.segments {
				t.Errorf("assembled primitives = %d, want %d", segments, tt.segments)
			}
		})
	}
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"grid size", func() error { _, err := Grid(0, 1, framebuffer.White); return err }},
		{"grid step", func() error { _, err := Grid(1, -1, framebuffer.White); return err }},
		{"circle segments", func() error { _, err := Circle(1, 2, framebuffer.White); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, scene.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	box := Box(2, framebuffer.White)
	box.Matrix = math3d.Translate(math3d.V3(10, 0, 0))
	lo, hi, ok := Bounds(box)
	if !ok {
		t.Fatal("Bounds reported no vertices")
	}
	if lo != math3d.V3(9, -1, -1) || hi != math3d.V3(11, 1, 1) {
		t.Errorf("got [%v, %v], want [(9,-1,-1), (11,1,1)]", lo, hi)
	}

	if _, _, ok := Bounds(scene.NewModel("empty")); ok {
		t.Error("empty model should report no bounds")
	}
}

func TestPositionBounds(t *testing.T) {
	root := scene.NewPosition("root", nil)
	root.Matrix = math3d.ScaleUniform(2)
	child := scene.NewPosition("child", Segment(math3d.Zero3(), math3d.V3(1, 1, 1), framebuffer.Red, framebuffer.Red))
	child.Matrix = math3d.Translate(math3d.V3(0, 0, -1))
	if err := root.AddNested(child); err != nil {
		t.Fatal(err)
	}

	lo, hi, ok := PositionBounds(root)
	if !ok {
		t.Fatal("PositionBounds reported no vertices")
	}
	if lo != math3d.V3(0, 0, -2) || hi != math3d.V3(2, 2, 0) {
		t.Errorf("got [%v, %v], want [(0,0,-2), (2,2,0)]", lo, hi)
	}
}

func TestFitMatrix(t *testing.T) {
	m := FitMatrix(math3d.V3(0, 0, 0), math3d.V3(4, 2, 2), 2)
	tests := []struct {
		in, want math3d.Vec3
	}{
		{math3d.V3(2, 1, 1), math3d.V3(0, 0, 0)},
		{math3d.V3(4, 1, 1), math3d.V3(1, 0, 0)},
		{math3d.V3(0, 2, 0), math3d.V3(-1, 0.5, -0.5)},
	}
	for _, tt := range tests {
		if got := m.MulPoint(tt.in); got.Sub(tt.want).Len() > 1e-12 {
			t.Errorf("FitMatrix(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
