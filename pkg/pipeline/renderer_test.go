package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

func newFB(t *testing.T) *framebuffer.FrameBuffer {
	t.Helper()
	fb, err := framebuffer.New(100, 100, framebuffer.Black)
	if err != nil {
		t.Fatal(err)
	}
	return fb
}

func pixel(t *testing.T, fb *framebuffer.FrameBuffer, x, y int) framebuffer.Color {
	t.Helper()
	c, err := fb.Pixel(x, y)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// redLineScene is a red segment from (0,0,0) to (1,0,0) moved three units
// in front of a 90 degree camera.
func redLineScene(t *testing.T) *scene.Scene {
	t.Helper()
	cam := scene.NewCamera()
	if err := cam.ProjPerspectiveFOVY(90, 1, 1); err != nil {
		t.Fatal(err)
	}
	m := scene.NewModel("line")
	if err := m.AddVertex(scene.V(0, 0, 0), scene.V(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	m.AddColor(framebuffer.Red)
	m.AddPrimitive(scene.NewLineSegment(0, 1, 0, 0))

	p := scene.NewPosition("line", m)
	p.Matrix = math3d.Translate(math3d.V3(0, 0, -3))
	s := scene.New("red line", cam)
	s.AddPosition(p)
	return s
}

func checkRedLine(t *testing.T, fb *framebuffer.FrameBuffer) {
	t.Helper()
	red := 0
	for y := range fb.Height() {
		for x := range fb.Width() {
			c := pixel(t, fb, x, y)
			switch c {
			case framebuffer.Black:
			case framebuffer.Red:
				red++
				if y < 45 || y > 55 {
					t.Errorf("red pixel (%d,%d) far from the vertical center", x, y)
				}
			default:
				t.Errorf("pixel (%d,%d) = %v, want red or black", x, y, c)
			}
		}
	}
	// x runs from 0 to 1/3 after projection: pixel columns 49 through 66.
	if red != 18 {
		t.Errorf("got %d red pixels, want 18", red)
	}
}

func TestRenderRedLine(t *testing.T) {
	fb := newFB(t)
	if err := RenderToFrameBuffer(redLineScene(t), fb); err != nil {
		t.Fatal(err)
	}
	checkRedLine(t, fb)
	if c := pixel(t, fb, 49, 50); c != framebuffer.Red {
		t.Errorf("start pixel = %v, want red", c)
	}

	// The pattern survives a PPM round trip.
	path := filepath.Join(t.TempDir(), "line.ppm")
	if err := fb.SavePPM(path); err != nil {
		t.Fatal(err)
	}
	back, err := framebuffer.LoadPPM(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRedLine(t, back)
}

func TestRenderTransformOrder(t *testing.T) {
	m := scene.NewModel("dot")
	if err := m.AddVertex(scene.V(0, 0, 0)); err != nil {
		t.Fatal(err)
	}
	m.AddColor(framebuffer.White)
	m.AddPrimitive(scene.NewPoint(0, 0))

	parent := scene.NewPosition("parent", nil)
	parent.Matrix = math3d.Translate(math3d.V3(0, 0, -2)).Mul(math3d.RotateZ(math.Pi / 2))
	child := scene.NewPosition("child", m)
	child.Matrix = math3d.Translate(math3d.V3(1, 0, 0))
	if err := parent.AddNested(child); err != nil {
		t.Fatal(err)
	}
	s := scene.New("nested", nil)
	s.AddPosition(parent)

	fb := newFB(t)
	if err := RenderToFrameBuffer(s, fb); err != nil {
		t.Fatal(err)
	}
	// T1 * T2 * origin = (0, 1, -2), projected to (0, 0.5).
	if c := pixel(t, fb, 49, 25); c != framebuffer.White {
		t.Errorf("T1*T2 pixel = %v, want white", c)
	}
	// T2 * T1 * origin = (1, 0, -2) would land at (0.5, 0).
	if c := pixel(t, fb, 74, 50); c != framebuffer.Black {
		t.Errorf("T2*T1 pixel = %v, want black", c)
	}
}

func TestRenderDefaultColor(t *testing.T) {
	s := redLineScene(t)
	m := s.Positions[0].Model
	m.Colors = nil

	fb := newFB(t)
	if err := RenderToFrameBuffer(s, fb); err != nil {
		t.Fatal(err)
	}
	if c := pixel(t, fb, 55, 50); c != framebuffer.White {
		t.Errorf("got %v, want white", c)
	}
	if len(m.Colors) != 0 {
		t.Errorf("render added %d colors to the model", len(m.Colors))
	}
}

func TestRenderHidden(t *testing.T) {
	tests := []struct {
		name string
		hide func(s *scene.Scene)
	}{
		{"position", func(s *scene.Scene) { s.Positions[0].Visible = false }},
		{"model", func(s *scene.Scene) { s.Positions[0].Model.Visible = false }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := redLineScene(t)
			tc.hide(s)
			fb := newFB(t)
			r := New(DefaultConfig())
			if err := r.RenderToFrameBuffer(s, fb); err != nil {
				t.Fatal(err)
			}
			if st := r.Stats(); st.Pixels != 0 || st.Hidden != 1 {
				t.Errorf("stats = %+v, want no pixels and one hidden", st)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	t.Run("bad index", func(t *testing.T) {
		s := redLineScene(t)
		s.Positions[0].Model.AddPrimitive(scene.NewLineSegment(0, 7, 0, 0))
		err := RenderToFrameBuffer(s, newFB(t))
		if !errors.Is(err, scene.ErrOutOfBounds) {
			t.Errorf("got %v, want ErrOutOfBounds", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		s := scene.New("cycle", nil)
		a, b := scene.NewPosition("a", nil), scene.NewPosition("b", nil)
		a.Nested = []*scene.Position{b}
		b.Nested = []*scene.Position{a}
		s.AddPosition(a)
		if err := RenderToFrameBuffer(s, newFB(t)); !errors.Is(err, scene.ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("nil scene", func(t *testing.T) {
		if err := RenderToFrameBuffer(nil, newFB(t)); !errors.Is(err, scene.ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}

func TestRenderCulling(t *testing.T) {
	far := scene.NewModel("far")
	if err := far.AddVertex(scene.V(50, 0, -3), scene.V(60, 1, -3)); err != nil {
		t.Fatal(err)
	}
	far.AddColor(framebuffer.Green)
	far.AddPrimitive(scene.NewLineSegment(0, 1, 0, 0))

	s := redLineScene(t)
	s.AddPosition(scene.NewPosition("far", far))

	culled, plain := newFB(t), newFB(t)
	r := New(DefaultConfig())
	if err := r.RenderToFrameBuffer(s, culled); err != nil {
		t.Fatal(err)
	}
	st := r.Stats()
	if st.Models != 2 || st.Culled != 1 {
		t.Errorf("stats = %+v, want 2 models with 1 culled", st)
	}

	cfg := DefaultConfig()
	cfg.Cull = false
	r.SetConfig(cfg)
	if err := r.RenderToFrameBuffer(s, plain); err != nil {
		t.Fatal(err)
	}
	if st := r.Stats(); st.Culled != 0 || st.Rejected != 1 {
		t.Errorf("stats without culling = %+v, want the segment rejected by clipping", st)
	}
	for y := range 100 {
		for x := range 100 {
			if pixel(t, culled, x, y) != pixel(t, plain, x, y) {
				t.Fatalf("culling changed pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestRenderViewport(t *testing.T) {
	full := newFB(t)
	vp, err := full.NewViewport(50, 50, 50, 0, framebuffer.Black)
	if err != nil {
		t.Fatal(err)
	}
	if err := Render(redLineScene(t), vp); err != nil {
		t.Fatal(err)
	}
	for y := range 100 {
		for x := range 50 {
			if c := pixel(t, full, x, y); c != framebuffer.Black {
				t.Fatalf("pixel (%d,%d) outside the viewport = %v", x, y, c)
			}
		}
	}
	if c := pixel(t, full, 50+30, 25); c != framebuffer.Red {
		t.Errorf("viewport pixel = %v, want red", c)
	}
}

func TestRenderOrthographicPoint(t *testing.T) {
	cam := scene.NewCamera()
	if err := cam.ProjOrtho(-2, 2, -2, 2, -1); err != nil {
		t.Fatal(err)
	}
	m := scene.NewModel("dot")
	if err := m.AddVertex(scene.V(1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	m.AddColor(framebuffer.Cyan)
	m.AddPrimitive(scene.NewPoint(0, 0))
	s := scene.New("ortho", cam)
	s.AddPosition(scene.NewPosition("dot", m))

	f := newFB(t)
	if err := RenderToFrameBuffer(s, f); err != nil {
		t.Fatal(err)
	}
	// (1,1) normalizes to (0.5,0.5): pixel plane (75,75).
	if c := pixel(t, f, 74, 25); c != framebuffer.Cyan {
		t.Errorf("got %v, want cyan", c)
	}
}

func TestRenderDebugLogging(t *testing.T) {
	s := redLineScene(t)
	s.Debug = true
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := New(cfg).RenderToFrameBuffer(s, newFB(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"begin scene render", "stage=\"5. Clipped\"", "msg=pixel"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q", want)
		}
	}
}

// nearLineScene is a segment running from between the eye and the near
// plane (z = -0.5) out to z = -3.
func nearLineScene(t *testing.T) *scene.Scene {
	t.Helper()
	m := scene.NewModel("near line")
	if err := m.AddVertex(scene.V(0.25, 0.1, -0.5), scene.V(0.25, 0.1, -3)); err != nil {
		t.Fatal(err)
	}
	m.AddColor(framebuffer.Red)
	m.AddPrimitive(scene.NewLineSegment(0, 1, 0, 0))
	s := scene.New("near line", nil)
	s.AddPosition(scene.NewPosition("near line", m))
	return s
}

// litBeyond counts lit pixels in columns x >= col.
func litBeyond(t *testing.T, fb *framebuffer.FrameBuffer, col int) int {
	t.Helper()
	n := 0
	for y := range fb.Height() {
		for x := col; x < fb.Width(); x++ {
			if pixel(t, fb, x, y) != framebuffer.Black {
				n++
			}
		}
	}
	return n
}

func TestRenderNearClipSwitch(t *testing.T) {
	clipped, unclipped := newFB(t), newFB(t)

	r := New(DefaultConfig())
	if err := r.RenderToFrameBuffer(nearLineScene(t), clipped); err != nil {
		t.Fatal(err)
	}
	on := r.Stats()
	if on.Clipped != 1 || on.Accepted != 1 {
		t.Errorf("near clip on: stats = %+v, want the segment clipped and accepted", on)
	}

	cfg := DefaultConfig()
	cfg.NearClip = false
	r.SetConfig(cfg)
	if err := r.RenderToFrameBuffer(nearLineScene(t), unclipped); err != nil {
		t.Fatal(err)
	}
	off := r.Stats()
	if off.Clipped != 0 || off.Rejected != 0 || off.Culled != 0 || off.Accepted != 1 {
		t.Errorf("near clip off: stats = %+v, want the segment passed through unchanged", off)
	}
	if off.Pixels <= on.Pixels {
		t.Errorf("near clip off drew %d pixels, want more than the clipped %d", off.Pixels, on.Pixels)
	}

	// The clipped segment ends at x = 0.25 (column 62); the unclipped one
	// reaches x = 0.5 (column 75).
	if n := litBeyond(t, clipped, 65); n != 0 {
		t.Errorf("clipped image has %d pixels past the near plane crossing", n)
	}
	if n := litBeyond(t, unclipped, 65); n == 0 {
		t.Error("unclipped image has no pixels past the near plane crossing")
	}
}

func TestRenderModelCycle(t *testing.T) {
	a, b := scene.NewModel("a"), scene.NewModel("b")
	a.Nested = []*scene.Model{b}
	b.Nested = []*scene.Model{a}
	s := scene.New("model cycle", nil)
	s.AddPosition(scene.NewPosition("holder", a))

	err := RenderToFrameBuffer(s, newFB(t))
	if !errors.Is(err, scene.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestRenderSharedNestedModel(t *testing.T) {
	leaf := redLineScene(t).Positions[0].Model
	left, right := scene.NewModel("left"), scene.NewModel("right")
	if err := left.AddNested(leaf); err != nil {
		t.Fatal(err)
	}
	if err := right.AddNested(leaf); err != nil {
		t.Fatal(err)
	}
	root := scene.NewModel("root")
	if err := root.AddNested(left, right); err != nil {
		t.Fatal(err)
	}
	p := scene.NewPosition("root", root)
	p.Matrix = math3d.Translate(math3d.V3(0, 0, -3))
	s := scene.New("shared", nil)
	s.AddPosition(p)

	r := New(DefaultConfig())
	if err := r.RenderToFrameBuffer(s, newFB(t)); err != nil {
		t.Fatalf("shared nested model: %v", err)
	}
	if st := r.Stats(); st.Models != 5 {
		t.Errorf("models = %d, want 5 (the leaf once per reference)", st.Models)
	}
}

func TestRenderZeroValueNodes(t *testing.T) {
	m := &scene.Model{
		Name:       "literal",
		Vertices:   []scene.Vertex{scene.V(0, 0, 0), scene.V(1, 0, 0)},
		Colors:     []framebuffer.Color{framebuffer.Red},
		Primitives: []scene.Primitive{scene.NewLineSegment(0, 1, 0, 0)},
		Visible:    true,
	}
	holder := scene.NewPosition("holder", nil)
	holder.Matrix = math3d.Translate(math3d.V3(0, 0, -3))
	holder.Nested = []*scene.Position{{Name: "literal", Model: m, Visible: true}}
	s := scene.New("zero matrices", nil)
	s.AddPosition(holder)

	fb := newFB(t)
	if err := RenderToFrameBuffer(s, fb); err != nil {
		t.Fatal(err)
	}
	checkRedLine(t, fb)
}

func BenchmarkRenderLines(b *testing.B) {
	m := scene.NewModel("fan")
	m.AddColor(framebuffer.Red, framebuffer.Blue)
	_ = m.AddVertex(scene.V(0, 0, -2))
	for i := range 64 {
		a := 2 * math.Pi * float64(i) / 64
		_ = m.AddVertex(scene.V(3*math.Cos(a), 3*math.Sin(a), -2))
		m.AddPrimitive(scene.NewLineSegment(0, i+1, 0, 1))
	}
	s := scene.New("bench", nil)
	s.AddPosition(scene.NewPosition("fan", m))
	f := framebuffer.MustNew(400, 400, framebuffer.Black)
	cfg := DefaultConfig()
	cfg.AntiAlias = true
	r := New(cfg)

	for b.Loop() {
		if err := r.RenderToFrameBuffer(s, f); err != nil {
			b.Fatal(err)
		}
	}
}
