package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Stats counts what the last render did.
type Stats struct {
	Positions  int // positions visited
	Models     int // models run through the pipeline, culled ones included
	Culled     int // models skipped by view volume culling
	Hidden     int // hidden positions and models skipped
	Primitives int // assembled primitives entering near clipping
	Accepted   int // primitives handed to the rasterizer
	Rejected   int // primitives dropped by near clipping or clipping
	Clipped    int // primitives shortened by near clipping or clipping
	Pixels     int // pixel writes
}

// Renderer renders scenes with one Config. It is not safe for concurrent
// use; give each goroutine its own Renderer and Viewport.
type Renderer struct {
	cfg   Config
	stats Stats
}

// New creates a renderer using cfg.
func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Config returns the current configuration.
func (r *Renderer) Config() Config { return r.cfg }

// SetConfig replaces the configuration used by subsequent renders.
func (r *Renderer) SetConfig(cfg Config) { r.cfg = cfg }

// Stats returns the counters of the last render.
func (r *Renderer) Stats() Stats { return r.stats }

// Render draws every visible position of s into vp, pre-order and depth
// first. It stops at the first error, leaving vp partially drawn.
func (r *Renderer) Render(s *scene.Scene, vp *framebuffer.Viewport) error {
	if s == nil || vp == nil {
		return fmt.Errorf("%w: render needs a scene and a viewport", scene.ErrInvalidArgument)
	}
	if s.Camera == nil {
		return fmt.Errorf("%w: scene %q has no camera", scene.ErrInvalidArgument, s.Name)
	}

	r.stats = Stats{}
	f := &frame{
		cfg:     r.cfg,
		log:     r.cfg.logger(),
		cam:     s.Camera,
		vp:      vp,
		stats:   &r.stats,
		onPath:  make(map[*scene.Position]bool),
		onModel: make(map[*scene.Model]bool),
	}
	f.volume, f.cull = NewViewVolume(s.Camera, r.cfg.NearClip)
	f.cull = f.cull && r.cfg.Cull

	debug := r.cfg.Debug
	if s.Debug {
		debug = AllDebug()
	}
	f.log.Info("begin scene render", "scene", s.Name, "positions", len(s.Positions),
		"width", vp.Width(), "height", vp.Height())

	ctm := s.Camera.ViewMatrix()
	for _, p := range s.Positions {
		if p == nil {
			return fmt.Errorf("%w: scene %q has a nil position", scene.ErrInvalidArgument, s.Name)
		}
		if !p.Visible {
			r.stats.Hidden++
			stageLog{f.log, debug.Scene}.debug("hidden position", "position", p.Name)
			continue
		}
		if err := f.position([]string{p.Name}, p, ctm, debug); err != nil {
			return err
		}
	}

	f.log.Info("end scene render", "scene", s.Name,
		"models", r.stats.Models,
		"culled", r.stats.Culled,
		"primitives", r.stats.Accepted,
		"pixels", r.stats.Pixels,
	)
	return nil
}

// RenderToFrameBuffer renders s into fb's default viewport.
func (r *Renderer) RenderToFrameBuffer(s *scene.Scene, fb *framebuffer.FrameBuffer) error {
	if fb == nil {
		return fmt.Errorf("%w: nil framebuffer", scene.ErrInvalidArgument)
	}
	return r.Render(s, fb.Viewport())
}

// Render renders s into vp with DefaultConfig.
func Render(s *scene.Scene, vp *framebuffer.Viewport) error {
	return New(DefaultConfig()).Render(s, vp)
}

// RenderToFrameBuffer renders s into fb's default viewport with
// DefaultConfig.
func RenderToFrameBuffer(s *scene.Scene, fb *framebuffer.FrameBuffer) error {
	return New(DefaultConfig()).RenderToFrameBuffer(s, fb)
}

// frame is the state of one render call.
type frame struct {
	cfg     Config
	log     *slog.Logger
	cam     *scene.Camera
	vp      *framebuffer.Viewport
	stats   *Stats
	volume  ViewVolume
	cull    bool
	onPath  map[*scene.Position]bool
	onModel map[*scene.Model]bool
}

func (f *frame) position(path []string, p *scene.Position, ctm math3d.Mat4, debug DebugFlags) error {
	name := strings.Join(path, "/")
	if f.onPath[p] {
		return fmt.Errorf("render position %q: %w: position cycle", name, scene.ErrInvalidArgument)
	}
	if p.Debug {
		debug = AllDebug()
	}
	sl := stageLog{f.log, debug.Scene}
	f.stats.Positions++
	local := p.LocalMatrix()
	sl.debug("render position", "position", name, "matrix", local.String())

	ctm = ctm.Mul(local)
	if m := p.Model; m != nil {
		if m.Visible {
			if err := f.model(m, ctm, debug); err != nil {
				return fmt.Errorf("render position %q: %w", name, err)
			}
		} else {
			f.stats.Hidden++
			sl.debug("hidden model", "position", name, "model", m.Name)
		}
	}

	f.onPath[p] = true
	defer delete(f.onPath, p)
	for _, n := range p.Nested {
		if n == nil {
			return fmt.Errorf("render position %q: %w: nil nested position", name, scene.ErrInvalidArgument)
		}
		if !n.Visible {
			f.stats.Hidden++
			sl.debug("hidden position", "position", name+"/"+n.Name)
			continue
		}
		if err := f.position(append(path, n.Name), n, ctm, debug); err != nil {
			return err
		}
	}
	return nil
}

// model runs the stages over m and then over its visible nested models.
func (f *frame) model(m *scene.Model, ctm math3d.Mat4, debug DebugFlags) error {
	if f.onModel[m] {
		return fmt.Errorf("model %q: %w: model cycle", m.Name, scene.ErrInvalidArgument)
	}
	f.onModel[m] = true
	defer delete(f.onModel, m)

	src := m
	if m.NeedsDefaultColors() {
		src = m.WithDefaultColors(f.cfg.DefaultColor)
		f.log.Warn("added default color to model", "model", m.Name, "color", f.cfg.DefaultColor.String())
	}
	for i, p := range src.Primitives {
		if err := p.Validate(len(src.Vertices), len(src.Colors)); err != nil {
			return fmt.Errorf("model %q primitive %d: %w", m.Name, i, err)
		}
	}

	ctm = ctm.Mul(src.LocalMatrix())
	f.stats.Models++
	if f.culled(src, ctm) {
		f.stats.Culled++
		stageLog{f.log, debug.Scene}.debug("culled model", "model", m.Name)
	} else if err := f.stages(src, ctm, debug); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}

	for _, n := range src.Nested {
		if n == nil {
			return fmt.Errorf("model %q: %w: nil nested model", m.Name, scene.ErrInvalidArgument)
		}
		if !n.Visible {
			f.stats.Hidden++
			continue
		}
		if err := f.model(n, ctm, debug); err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) culled(m *scene.Model, ctm math3d.Mat4) bool {
	if !f.cull {
		return false
	}
	box, ok := ModelAABB(m)
	if !ok {
		return false
	}
	box = box.Transform(f.cam.NormalizationMatrix().Mul(ctm))
	return !f.volume.IntersectAABB(box)
}

func (f *frame) stages(m *scene.Model, ctm math3d.Mat4, debug DebugFlags) error {
	assembled := Assemble(m)
	f.stats.Primitives += len(assembled.Primitives)

	view := Model2View(assembled, ctm)
	stageLog{f.log, debug.Model2View}.dump("1. View", view)

	camera := View2Camera(view, f.cam)
	stageLog{f.log, debug.View2Camera}.dump("2. Camera", camera)

	near := camera
	if f.cfg.NearClip {
		nc := nearClipper{zn: f.cam.NearZ(), log: stageLog{f.log, debug.NearClip}}
		near = nc.clip(camera)
		f.stats.Rejected += nc.rejected
		f.stats.Clipped += nc.clipped
		nc.log.dump("3. Near clipped", near)
	}

	projected := Project(near, f.cam)
	stageLog{f.log, debug.Project}.dump("4. Projected", projected)

	c := clipper{log: stageLog{f.log, debug.Clip}}
	clipped := c.clip(projected)
	f.stats.Rejected += c.rejected
	f.stats.Clipped += c.clipped
	f.stats.Accepted += len(clipped.Primitives)
	c.log.dump("5. Clipped", clipped)

	rast := rasterizer{
		vp:        f.vp,
		antiAlias: f.cfg.AntiAlias,
		gamma:     f.cfg.Gamma,
		log:       stageLog{f.log, debug.Rasterize},
	}
	err := rast.model(clipped)
	f.stats.Pixels += rast.pixels
	return err
}
