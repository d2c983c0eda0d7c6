package scenefile

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/models"
	"github.com/taigrr/wirecast/pkg/pipeline"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Default output size when the document does not give one.
const (
	DefaultWidth  = 400
	DefaultHeight = 400
)

// Settings are the resolved render settings of a document.
type Settings struct {
	Width, Height int
	Background    framebuffer.Color
	Pipeline      pipeline.Config
	// Output is the image path named by the document, relative to it.
	Output string
	// BackgroundImage, when set, seeds the framebuffer before rendering.
	BackgroundImage string
}

// Load reads the scene file at path and builds it. Relative glTF, output and
// background image paths are resolved against the file's directory.
func Load(path string, logger *slog.Logger) (*scene.Scene, Settings, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, Settings{}, err
	}
	s, err := doc.Build(filepath.Dir(path), logger)
	if err != nil {
		return nil, Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	set, err := doc.Render.Settings()
	if err != nil {
		return nil, Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, p := range []*string{&set.Output, &set.BackgroundImage} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(filepath.Dir(path), *p)
		}
	}
	return s, set, nil
}

// Settings resolves the render section against the defaults.
func (r RenderSpec) Settings() (Settings, error) {
	set := Settings{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Background:      framebuffer.Black,
		Pipeline:        pipeline.DefaultConfig(),
		Output:          r.Output,
		BackgroundImage: r.BackgroundImage,
	}
	if r.Width < 0 || r.Height < 0 {
		return set, fmt.Errorf("%w: render size %dx%d", scene.ErrInvalidArgument, r.Width, r.Height)
	}
	if r.Width > 0 {
		set.Width = r.Width
	}
	if r.Height > 0 {
		set.Height = r.Height
	}
	if r.Background != "" {
		c, err := framebuffer.ParseColor(r.Background)
		if err != nil {
			return set, fmt.Errorf("render background: %w", err)
		}
		set.Background = c
	}
	if r.Color != "" {
		c, err := framebuffer.ParseColor(r.Color)
		if err != nil {
			return set, fmt.Errorf("render default_color: %w", err)
		}
		set.Pipeline.DefaultColor = c
	}
	for _, sw := range []struct {
		v   *bool
		dst *bool
	}{
		{r.AntiAlias, &set.Pipeline.AntiAlias},
		{r.Gamma, &set.Pipeline.Gamma},
		{r.NearClip, &set.Pipeline.NearClip},
		{r.Cull, &set.Pipeline.Cull},
	} {
		if sw.v != nil {
			*sw.dst = *sw.v
		}
	}
	return set, nil
}

// Build turns the document into a scene. dir resolves relative glTF paths.
// Positions that use the same named model share one *scene.Model.
func (d *Document) Build(dir string, logger *slog.Logger) (*scene.Scene, error) {
	cam, err := d.Camera.build()
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	b := &builder{
		doc:    d,
		dir:    dir,
		logger: logger,
		shared: make(map[string]built),
	}
	s := scene.New(d.Name, cam)
	for i, ps := range d.Positions {
		p, err := b.position(ps, fmt.Sprintf("positions[%d]", i))
		if err != nil {
			return nil, err
		}
		s.AddPosition(p)
	}
	return s, nil
}

func (c CameraSpec) build() (*scene.Camera, error) {
	cam := scene.NewCamera()
	var persp bool
	switch strings.ToLower(c.Projection) {
	case "", "perspective":
		persp = true
	case "orthographic", "ortho":
	default:
		return nil, fmt.Errorf("%w: projection %q", scene.ErrInvalidArgument, c.Projection)
	}
	near := 1.0
	if !persp {
		near = -1
	}
	if c.Near != nil {
		near = *c.Near
	}

	var err error
	switch w := c.Window; {
	case len(w) == 4 && persp:
		err = cam.ProjPerspective(w[0], w[1], w[2], w[3], near)
	case len(w) == 4:
		err = cam.ProjOrtho(w[0], w[1], w[2], w[3], near)
	case len(w) != 0:
		err = fmt.Errorf("%w: window needs 4 values, got %d", scene.ErrInvalidArgument, len(w))
	default:
		fovy, aspect := c.FOVY, c.Aspect
		if fovy == 0 {
			fovy = 90
		}
		if aspect == 0 {
			aspect = 1
		}
		if persp {
			err = cam.ProjPerspectiveFOVY(fovy, aspect, near)
		} else {
			err = cam.ProjOrthoFOVY(fovy, aspect, near)
		}
	}
	if err != nil {
		return nil, err
	}

	pos, err := vec3("position", c.Position, math3d.Zero3())
	if err != nil {
		return nil, err
	}
	cam.SetPosition(pos)
	if len(c.LookAt) != 0 {
		target, err := vec3("look_at", c.LookAt, math3d.Zero3())
		if err != nil {
			return nil, err
		}
		cam.LookAt(target)
	}
	return cam, nil
}

// built is a constructed model: either a single model or a position
// subtree loaded from glTF.
type built struct {
	model *scene.Model
	tree  *scene.Position
}

type builder struct {
	doc    *Document
	dir    string
	logger *slog.Logger
	shared map[string]built
}

func (b *builder) position(ps PositionSpec, path string) (*scene.Position, error) {
	name := ps.Name
	if name == "" {
		name = path
	}
	m, err := transform(ps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p := scene.NewPosition(name, nil)
	p.Matrix = m
	p.Visible = !ps.Hidden
	p.Debug = ps.Debug

	var content built
	switch {
	case ps.Use != "" && ps.Model != nil:
		return nil, fmt.Errorf("%s: %w: both use and model given", path, scene.ErrInvalidArgument)
	case ps.Use != "":
		content, err = b.sharedModel(ps.Use)
	case ps.Model != nil:
		content, err = b.model(*ps.Model)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Model = content.model
	if content.tree != nil {
		p.Nested = append(p.Nested, content.tree)
	}

	for i, cs := range ps.Children {
		child, err := b.position(cs, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := p.AddNested(child); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return p, nil
}

func (b *builder) sharedModel(name string) (built, error) {
	if m, ok := b.shared[name]; ok {
		return m, nil
	}
	spec, ok := b.doc.Models[name]
	if !ok {
		return built{}, fmt.Errorf("%w: unknown model %q", scene.ErrInvalidArgument, name)
	}
	m, err := b.model(spec)
	if err != nil {
		return built{}, fmt.Errorf("model %q: %w", name, err)
	}
	if m.model != nil {
		m.model.Name = name
	}
	b.shared[name] = m
	return m, nil
}

func (b *builder) model(ms ModelSpec) (built, error) {
	c := framebuffer.White
	if ms.Color != "" {
		var err error
		if c, err = framebuffer.ParseColor(ms.Color); err != nil {
			return built{}, err
		}
	}
	size := ms.Size
	if size == 0 {
		size = 1
	}

	var m *scene.Model
	var err error
	switch strings.ToLower(ms.Shape) {
	case "box":
		m = models.Box(size, c)
	case "axes":
		m = models.Axes(size)
	case "grid":
		step := ms.Step
		if step == 0 {
			step = size / 10
		}
		m, err = models.Grid(size, step, c)
	case "circle":
		radius, n := ms.Radius, ms.Segments
		if radius == 0 {
			radius = size / 2
		}
		if n == 0 {
			n = 32
		}
		m, err = models.Circle(radius, n, c)
	case "points":
		pts := make([]math3d.Vec3, len(ms.Points))
		for i, raw := range ms.Points {
			if len(raw) == 0 {
				return built{}, fmt.Errorf("%w: points[%d] is empty", scene.ErrInvalidArgument, i)
			}
			if pts[i], err = vec3(fmt.Sprintf("points[%d]", i), raw, math3d.Zero3()); err != nil {
				return built{}, err
			}
		}
		m, err = models.PointCloud(pts, ms.PointSize, c)
	case "cross":
		m = models.Cross(math3d.Zero3(), size, c)
	case "segment":
		m, err = segment(ms, c)
	case "gltf", "glb":
		return b.gltf(ms, c)
	default:
		return built{}, fmt.Errorf("%w: unknown shape %q", scene.ErrInvalidArgument, ms.Shape)
	}
	if err != nil {
		return built{}, err
	}
	return built{model: m}, nil
}

func segment(ms ModelSpec, c framebuffer.Color) (*scene.Model, error) {
	from, err := vec3("from", ms.From, math3d.Zero3())
	if err != nil {
		return nil, err
	}
	to, err := vec3("to", ms.To, math3d.V3(1, 0, 0))
	if err != nil {
		return nil, err
	}
	c0, c1 := c, c
	switch len(ms.Colors) {
	case 0:
	case 2:
		if c0, err = framebuffer.ParseColor(ms.Colors[0]); err != nil {
			return nil, err
		}
		if c1, err = framebuffer.ParseColor(ms.Colors[1]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: segment needs 2 colors, got %d", scene.ErrInvalidArgument, len(ms.Colors))
	}
	return models.Segment(from, to, c0, c1), nil
}

func (b *builder) gltf(ms ModelSpec, c framebuffer.Color) (built, error) {
	if ms.Path == "" {
		return built{}, fmt.Errorf("%w: gltf shape needs a path", scene.ErrInvalidArgument)
	}
	path := ms.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}
	loader := models.NewGLTFLoader()
	loader.Color = c
	loader.PointRadius = ms.PointSize
	loader.Logger = b.logger
	tree, err := loader.Load(path)
	if err != nil {
		return built{}, err
	}
	if ms.Fit > 0 {
		if lo, hi, ok := models.PositionBounds(tree); ok {
			tree.Matrix = models.FitMatrix(lo, hi, ms.Fit).Mul(tree.Matrix)
		}
	}
	return built{tree: tree}, nil
}

// transform builds translate * rotate * scale for a position.
func transform(ps PositionSpec) (math3d.Mat4, error) {
	t, err := vec3("translate", ps.Translate, math3d.Zero3())
	if err != nil {
		return math3d.Mat4{}, err
	}
	r, err := vec3("rotate", ps.Rotate, math3d.Zero3())
	if err != nil {
		return math3d.Mat4{}, err
	}
	s := math3d.V3(1, 1, 1)
	switch len(ps.Scale) {
	case 0:
	case 1:
		s = math3d.V3(ps.Scale[0], ps.Scale[0], ps.Scale[0])
	default:
		if s, err = vec3("scale", ps.Scale, s); err != nil {
			return math3d.Mat4{}, err
		}
	}
	rot := math3d.RotateZ(math3d.Radians(r.Z)).
		Mul(math3d.RotateY(math3d.Radians(r.Y))).
		Mul(math3d.RotateX(math3d.Radians(r.X)))
	return math3d.Translate(t).Mul(rot).Mul(math3d.Scale(s)), nil
}

func vec3(field string, v []float64, def math3d.Vec3) (math3d.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		out := math3d.V3(v[0], v[1], v[2])
		if !out.IsFinite() {
			return def, fmt.Errorf("%w: %s %v is not finite", scene.ErrInvalidArgument, field, v)
		}
		return out, nil
	}
	return def, fmt.Errorf("%w: %s needs 3 values, got %d", scene.ErrInvalidArgument, field, len(v))
}
