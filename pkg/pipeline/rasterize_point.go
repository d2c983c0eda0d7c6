package pipeline

import (
	"math"

	"github.com/taigrr/wirecast/pkg/scene"
)

// point draws a disc of p.Radius pixels. With anti-aliasing on, a one pixel
// band around the disc is blended with the viewport background by coverage.
// Pixels off the viewport are skipped.
func (r *rasterizer) point(m *scene.Model, p scene.Primitive) error {
	w, h := r.vp.Width(), r.vp.Height()
	bg := toRGB(r.vp.Background())
	c := toRGB(m.Colors[p.CIndex[0]])
	x, y := toPixelPlane(m.Vertices[p.VIndex[0]], w, h)

	rad := float64(p.Radius)
	ext := p.Radius
	smooth := r.antiAlias && p.Radius > 0
	if smooth {
		ext++
	}
	r.log.debug("rasterize point", "x", x, "y", y, "radius", p.Radius)

	for py := y - ext; py <= y+ext; py++ {
		for px := x - ext; px <= x+ext; px++ {
			if px <= 0 || px > w || py <= 0 || py > h {
				continue
			}
			d := math.Hypot(float64(px-x), float64(py-y))
			var pc rgb
			switch {
			case d <= rad:
				pc = c
			case smooth && d < rad+1:
				pc = bg.lerp(c, rad+1-d)
			default:
				continue
			}
			if err := r.set(px-1, h-py, pc); err != nil {
				return err
			}
		}
	}
	return nil
}
