package pipeline

import (
	"math"
	"slices"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Clip clips projected primitives against the view rectangle
// -1 <= x <= 1, -1 <= y <= 1. Points outside it are dropped. Segments are
// cut at one boundary at a time, re-testing for trivial accept or reject
// after every cut.
func Clip(m *scene.Model) *scene.Model {
	var c clipper
	return c.clip(m)
}

const maxCuts = 8

type clipper struct {
	log stageLog

	rejected int
	clipped  int
}

// boundary is one edge of the view rectangle: axis 0 is x, 1 is y.
type boundary struct {
	name  string
	axis  int
	value float64
}

func (c *clipper) clip(m *scene.Model) *scene.Model {
	verts := slices.Clip(m.Vertices)
	colors := slices.Clip(m.Colors)
	prims := make([]scene.Primitive, 0, len(m.Primitives))

	for _, p := range m.Primitives {
		switch p.Kind {
		case scene.KindPoint:
			v := verts[p.VIndex[0]]
			if inside(v) {
				prims = append(prims, p)
				c.log.debug("clip: accept point", "vertex", p.VIndex[0])
			} else {
				c.rejected++
				c.log.debug("clip: reject point", "vertex", p.VIndex[0])
			}
		case scene.KindLineSegment:
			var (
				q  scene.Primitive
				ok bool
			)
			q, ok, verts, colors = c.segment(p, verts, colors)
			if ok {
				prims = append(prims, q)
			} else {
				c.rejected++
			}
		default:
			prims = append(prims, p)
		}
	}
	return m.Derive(verts, colors, prims)
}

func (c *clipper) segment(p scene.Primitive, verts []scene.Vertex, colors []framebuffer.Color) (scene.Primitive, bool, []scene.Vertex, []framebuffer.Color) {
	for cuts := 0; ; cuts++ {
		v0, v1 := verts[p.VIndex[0]], verts[p.VIndex[1]]
		if !v0.IsFinite() || !v1.IsFinite() {
			c.log.debug("clip: reject non-finite segment", "v0", v0.String(), "v1", v1.String())
			return p, false, verts, colors
		}
		if inside(v0) && inside(v1) {
			if cuts > 0 {
				c.clipped++
			}
			c.log.debug("clip: trivial accept", "segment", p.String())
			return p, true, verts, colors
		}
		if (v0.X > 1 && v1.X > 1) || (v0.X < -1 && v1.X < -1) ||
			(v0.Y > 1 && v1.Y > 1) || (v0.Y < -1 && v1.Y < -1) {
			c.log.debug("clip: trivial reject", "segment", p.String())
			return p, false, verts, colors
		}
		if cuts == maxCuts {
			// Each cut puts one endpoint on the rectangle, so only rounding
			// can get here.
			c.log.debug("clip: reject after repeated cuts", "segment", p.String())
			return p, false, verts, colors
		}
		p, verts, colors = c.clipOnce(p, verts, colors)
	}
}

// clipOnce cuts p at the first boundary it crosses, testing x = 1, x = -1,
// y = 1 and y = -1 in that order, v0 before v1 at each.
func (c *clipper) clipOnce(p scene.Primitive, verts []scene.Vertex, colors []framebuffer.Color) (scene.Primitive, []scene.Vertex, []framebuffer.Color) {
	v := [2]scene.Vertex{verts[p.VIndex[0]], verts[p.VIndex[1]]}

	var (
		b   boundary
		out int
	)
	switch {
	case v[0].X > 1:
		b, out = boundary{"x = +1", 0, 1}, 0
	case v[1].X > 1:
		b, out = boundary{"x = +1", 0, 1}, 1
	case v[0].X < -1:
		b, out = boundary{"x = -1", 0, -1}, 0
	case v[1].X < -1:
		b, out = boundary{"x = -1", 0, -1}, 1
	case v[0].Y > 1:
		b, out = boundary{"y = +1", 1, 1}, 0
	case v[1].Y > 1:
		b, out = boundary{"y = +1", 1, 1}, 1
	case v[0].Y < -1:
		b, out = boundary{"y = -1", 1, -1}, 0
	default:
		b, out = boundary{"y = -1", 1, -1}, 1
	}
	in := 1 - out
	vOut, vIn := v[out], v[in]

	// Parametrized from the outside vertex (t=0) to the inside one (t=1).
	var nv scene.Vertex
	var t float64
	if b.axis == 0 {
		t = (b.value - vOut.X) / (vIn.X - vOut.X)
		nv = scene.V(b.value, (1-t)*vOut.Y+t*vIn.Y, 0)
	} else {
		t = (b.value - vOut.Y) / (vIn.Y - vOut.Y)
		nv = scene.V((1-t)*vOut.X+t*vIn.X, b.value, 0)
	}

	tc := t
	if tc > 1 {
		tc = 1 / tc
	}
	cOut, cIn := colors[p.CIndex[out]], colors[p.CIndex[in]]
	nColor := cOut.Lerp(cIn, tc)

	vNew, cNew := len(verts), len(colors)
	verts = append(verts, nv)
	colors = append(colors, nColor)

	q := scene.NewLineSegment(p.VIndex[0], p.VIndex[1], p.CIndex[0], p.CIndex[1])
	q.VIndex[out] = vNew
	q.CIndex[out] = cNew

	c.log.debug("clip: cut segment",
		"boundary", b.name,
		"outside", out,
		"t", t,
		"vertex", nv.String(),
		"color", nColor.String(),
	)
	return q, verts, colors
}

func inside(v scene.Vertex) bool {
	return math.Abs(v.X) <= 1 && math.Abs(v.Y) <= 1
}
