package pipeline

import (
	"fmt"
	"math"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Rasterize writes the points and line segments of a clipped model into vp.
// Vertices must already lie in the view rectangle; a pixel that still lands
// outside vp is reported as an error.
func Rasterize(m *scene.Model, vp *framebuffer.Viewport, cfg Config) error {
	r := rasterizer{
		vp:        vp,
		antiAlias: cfg.AntiAlias,
		gamma:     cfg.Gamma,
		log:       stageLog{log: cfg.logger(), on: cfg.Debug.Rasterize},
	}
	return r.model(m)
}

type rasterizer struct {
	vp        *framebuffer.Viewport
	antiAlias bool
	gamma     bool
	log       stageLog

	pixels int
}

// rgb is a color with channels in [0,1].
type rgb struct {
	r, g, b float64
}

func toRGB(c framebuffer.Color) rgb {
	r, g, b, _ := c.Floats()
	return rgb{r / 255, g / 255, b / 255}
}

// lerp returns (1-t)*a + t*b.
func (a rgb) lerp(b rgb, t float64) rgb {
	return rgb{
		(1-t)*a.r + t*b.r,
		(1-t)*a.g + t*b.g,
		(1-t)*a.b + t*b.b,
	}
}

func (r *rasterizer) model(m *scene.Model) error {
	for i, p := range m.Primitives {
		var err error
		switch p.Kind {
		case scene.KindPoint:
			err = r.point(m, p)
		case scene.KindLineSegment:
			err = r.line(m, p)
		default:
			err = fmt.Errorf("%w: cannot rasterize %v", scene.ErrInvalidArgument, p.Kind)
		}
		if err != nil {
			return fmt.Errorf("rasterize primitive %d: %w", i, err)
		}
	}
	return nil
}

// line draws a segment with an incremental DDA: step one pixel along the
// major axis and interpolate the minor coordinate and the color.
func (r *rasterizer) line(m *scene.Model, p scene.Primitive) error {
	w, h := r.vp.Width(), r.vp.Height()
	bg := toRGB(r.vp.Background())

	x0, y0 := toPixelPlane(m.Vertices[p.VIndex[0]], w, h)
	x1, y1 := toPixelPlane(m.Vertices[p.VIndex[1]], w, h)
	c0, c1 := toRGB(m.Colors[p.CIndex[0]]), toRGB(m.Colors[p.CIndex[1]])

	if x0 == x1 && y0 == y1 {
		return r.plot(x0, y0, h, false, c0)
	}

	transposed := false
	if abs(y1-y0) > abs(x1-x0) {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
		transposed = true
	}
	if x1 < x0 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
		c0, c1 = c1, c0
	}

	limit := h
	if transposed {
		limit = w
	}

	dx := float64(x1 - x0)
	slope := float64(y1-y0) / dx
	r.log.debug("rasterize line",
		"from", fmt.Sprintf("(%d,%d)", x0, y0),
		"to", fmt.Sprintf("(%d,%d)", x1, y1),
		"slope", slope,
		"transposed", transposed,
	)

	for x := x0; x < x1; x++ {
		y := float64(y0) + slope*float64(x-x0)
		c := c0.lerp(c1, float64(x-x0)/dx)

		if !r.antiAlias {
			if err := r.plot(x, roundHalfUp(y), h, transposed, c); err != nil {
				return err
			}
			continue
		}

		yLow := int(y)
		yHi := yLow + 1
		weight := y - float64(yLow)
		if err := r.plot(x, yLow, h, transposed, c.lerp(bg, weight)); err != nil {
			return err
		}
		// At the top edge both rows collapse onto the same pixel.
		if yHi <= limit {
			if err := r.plot(x, yHi, h, transposed, bg.lerp(c, weight)); err != nil {
				return err
			}
		}
	}
	return r.plot(x1, y1, h, transposed, c1)
}

// plot writes c at pixel-plane position (x, y), whose rows count up from the
// bottom starting at 1.
func (r *rasterizer) plot(x, y, h int, transposed bool, c rgb) error {
	if transposed {
		x, y = y, x
	}
	return r.set(x-1, h-y, c)
}

func (r *rasterizer) set(x, y int, c rgb) error {
	col := r.encode(c)
	if err := r.vp.SetPixel(x, y, col); err != nil {
		return err
	}
	r.pixels++
	r.log.debug("pixel", "x", x, "y", y, "color", col.String())
	return nil
}

// encode converts c to a Color, gamma encoding it when enabled.
func (r *rasterizer) encode(c rgb) framebuffer.Color {
	ch := [3]float64{c.r, c.g, c.b}
	var out [3]uint8
	for i, v := range ch {
		v = math.Max(0, math.Min(1, v))
		if r.gamma {
			v = math.Pow(v, framebuffer.Gamma)
		}
		out[i] = uint8(math.Round(v * 255))
	}
	return framebuffer.RGB(out[0], out[1], out[2])
}

// toPixelPlane maps view-rectangle coordinates in [-1,1] onto pixel-plane
// coordinates in [1,w] x [1,h].
func toPixelPlane(v scene.Vertex, w, h int) (x, y int) {
	x = roundHalfUp(0.5 + float64(w)/2.001*(v.X+1))
	y = roundHalfUp(0.5 + float64(h)/2.001*(v.Y+1))
	return x, y
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
