package scenefile

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/pipeline"
	"github.com/taigrr/wirecast/pkg/scene"
)

const demo = `
name: demo
camera: {projection: perspective, fovy: 60, aspect: 2, near: 0.5}
render: {width: 200, height: 100, background: "10,20,30", antialias: true, gamma: false}
models:
  post: {shape: box, size: 0.5, color: orange}
positions:
  - name: arm
    translate: [0, 0, -3]
    rotate: [0, 90, 0]
    scale: [2]
    model: {shape: segment, from: [0, 0, 0], to: [1, 0, 0], colors: [red, blue]}
    children:
      - name: left
        use: post
        translate: [-1, 0, 0]
      - name: right
        use: post
        translate: [1, 0, 0]
        hidden: true
  - name: floor
    translate: [0, -1, -3]
    model: {shape: grid, size: 4, step: 1, color: gray}
`

func TestBuild(t *testing.T) {
	doc, err := Parse([]byte(demo))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := doc.Build(".", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Name != "demo" || len(s.Positions) != 2 {
		t.Fatalf("scene %q with %d positions, want demo with 2", s.Name, len(s.Positions))
	}
	if got := s.Camera.FOVY(); math.Abs(got-60) > 1e-9 {
		t.Errorf("fovy = %v, want 60", got)
	}
	if got := s.Camera.Aspect(); math.Abs(got-2) > 1e-9 {
		t.Errorf("aspect = %v, want 2", got)
	}

	arm := s.Find("arm")
	// Scale 2, turn +x onto -z, then push back 3.
	got := arm.Matrix.MulPoint(math3d.V3(1, 0, 0))
	if want := math3d.V3(0, 0, -5); got.Sub(want).Len() > 1e-9 {
		t.Errorf("arm maps (1,0,0) to %v, want %v", got, want)
	}
	if arm.Model.Colors[0] != framebuffer.Red || arm.Model.Colors[1] != framebuffer.Blue {
		t.Errorf("segment colors = %v, want red and blue", arm.Model.Colors)
	}

	left, right := s.Find("left"), s.Find("right")
	if left.Model != right.Model {
		t.Error("positions using one named model should share it")
	}
	if left.Model.Name != "post" {
		t.Errorf("shared model name = %q, want post", left.Model.Name)
	}
	if right.Visible {
		t.Error("hidden position should not be visible")
	}
}

func TestSettings(t *testing.T) {
	doc, err := Parse([]byte(demo))
	if err != nil {
		t.Fatal(err)
	}
	set, err := doc.Render.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	want := pipeline.DefaultConfig()
	want.AntiAlias = true
	want.Gamma = false
	if set.Width != 200 || set.Height != 100 {
		t.Errorf("size = %dx%d, want 200x100", set.Width, set.Height)
	}
	if set.Background != framebuffer.RGB(10, 20, 30) {
		t.Errorf("background = %v, want (10,20,30)", set.Background)
	}
	if set.Pipeline.AntiAlias != want.AntiAlias || set.Pipeline.Gamma != want.Gamma ||
		set.Pipeline.NearClip != want.NearClip || set.Pipeline.Cull != want.Cull {
		t.Errorf("pipeline = %+v, want %+v", set.Pipeline, want)
	}

	empty, err := RenderSpec{}.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if empty.Width != DefaultWidth || empty.Height != DefaultHeight || empty.Background != framebuffer.Black {
		t.Errorf("defaults = %+v", empty)
	}
}

func TestBuildRenders(t *testing.T) {
	doc, err := Parse([]byte(demo))
	if err != nil {
		t.Fatal(err)
	}
	s, err := doc.Build(".", nil)
	if err != nil {
		t.Fatal(err)
	}
	set, err := doc.Render.Settings()
	if err != nil {
		t.Fatal(err)
	}
	fb := framebuffer.MustNew(set.Width, set.Height, set.Background)
	r := pipeline.New(set.Pipeline)
	if err := r.RenderToFrameBuffer(s, fb); err != nil {
		t.Fatalf("render: %v", err)
	}
	st := r.Stats()
	if st.Hidden != 1 {
		t.Errorf("hidden = %d, want 1", st.Hidden)
	}
	if st.Pixels == 0 {
		t.Error("no pixels written")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown shape", "positions: [{name: a, model: {shape: teapot}}]"},
		{"bad color", "positions: [{name: a, model: {shape: box, color: chartreuse}}]"},
		{"short translate", "positions: [{name: a, translate: [1, 2]}]"},
		{"unknown use", "positions: [{name: a, use: nothing}]"},
		{"use and model", "models: {m: {shape: box}}\npositions: [{name: a, use: m, model: {shape: box}}]"},
		{"segment colors", "positions: [{name: a, model: {shape: segment, colors: [red]}}]"},
		{"projection", "camera: {projection: fisheye}\npositions: []"},
		{"fovy", "camera: {fovy: 200}\npositions: []"},
		{"window", "camera: {window: [1, 2]}\npositions: []"},
		{"grid step", "positions: [{name: a, model: {shape: grid, size: 2, step: -1}}]"},
		{"gltf without path", "positions: [{name: a, model: {shape: gltf}}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = doc.Build(".", nil)
			if !errors.Is(err, scene.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Parse([]byte("name: x\ncolour: red\n"))
	if err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(demo))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "name: demo") {
		t.Errorf("encoded document lacks the name:\n%s", buf.String())
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Errorf("round trip changed the document:\ngot  %+v\nwant %+v", back, doc)
	}
}

const rodGLTF = `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "rod", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "mode": 1}]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC3", "min": [0, 0, 0], "max": [2, 0, 0]}],
  "bufferViews": [{"buffer": 0, "byteLength": 24}],
  "buffers": [{"byteLength": 24, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAAAAQAAAAAAAAAAA"}]
}`

func TestLoadWithGLTF(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rod.gltf"), []byte(rodGLTF), 0o644); err != nil {
		t.Fatal(err)
	}
	file := `
name: rods
render: {width: 64, height: 32}
positions:
  - name: holder
    translate: [0, 0, -2]
    model: {shape: gltf, path: rod.gltf, fit: 1, color: cyan}
`
	path := filepath.Join(dir, "rods.yaml")
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}

	s, set, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Width != 64 || set.Height != 32 {
		t.Errorf("size = %dx%d, want 64x32", set.Width, set.Height)
	}
	rod := s.Find("rod")
	if rod == nil || rod.Model == nil {
		t.Fatal("glTF subtree missing")
	}
	if rod.Model.Colors[0] != framebuffer.Cyan {
		t.Errorf("gltf color = %v, want cyan", rod.Model.Colors[0])
	}
	// fit: 1 centers the 2-unit rod and scales it to unit length.
	tree := s.Find("holder").Nested[0]
	if got := tree.Matrix.MulPoint(math3d.V3(2, 0, 0)); got.Sub(math3d.V3(0.5, 0, 0)).Len() > 1e-9 {
		t.Errorf("fitted end = %v, want (0.5, 0, 0)", got)
	}
}

func TestLoadResolvesRenderPaths(t *testing.T) {
	dir := t.TempDir()
	file := `
render: {output: out/frame.png, background_image: sky.png}
positions:
  - name: dot
    model: {shape: points, points: [[0, 0, -2]], color: white}
`
	path := filepath.Join(dir, "paths.yaml")
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	_, set, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "out", "frame.png"); set.Output != want {
		t.Errorf("output = %q, want %q", set.Output, want)
	}
	if want := filepath.Join(dir, "sky.png"); set.BackgroundImage != want {
		t.Errorf("background image = %q, want %q", set.BackgroundImage, want)
	}
}
