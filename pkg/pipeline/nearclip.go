package pipeline

import (
	"slices"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/scene"
)

// NearClip clips m against the camera's near plane z = -near. A vertex is
// kept when z <= -near. Points on the camera side are dropped; segments that
// cross the plane are cut at it, with the new endpoint's color interpolated
// from the two original colors.
func NearClip(m *scene.Model, cam *scene.Camera) *scene.Model {
	nc := nearClipper{zn: cam.NearZ()}
	return nc.clip(m)
}

type nearClipper struct {
	zn  float64
	log stageLog

	rejected int
	clipped  int
}

func (nc *nearClipper) clip(m *scene.Model) *scene.Model {
	// Clipped so appends never write into m's backing arrays.
	verts := slices.Clip(m.Vertices)
	colors := slices.Clip(m.Colors)
	prims := make([]scene.Primitive, 0, len(m.Primitives))

	for _, p := range m.Primitives {
		switch p.Kind {
		case scene.KindPoint:
			if verts[p.VIndex[0]].Z <= nc.zn {
				prims = append(prims, p)
				nc.log.debug("near clip: accept point", "vertex", p.VIndex[0])
			} else {
				nc.rejected++
				nc.log.debug("near clip: reject point", "vertex", p.VIndex[0])
			}
		case scene.KindLineSegment:
			var (
				q  scene.Primitive
				ok bool
			)
			q, ok, verts, colors = nc.segment(p, verts, colors)
			if ok {
				prims = append(prims, q)
			}
		default:
			// Composite kinds are assembled away before this stage.
			prims = append(prims, p)
		}
	}
	return m.Derive(verts, colors, prims)
}

func (nc *nearClipper) segment(p scene.Primitive, verts []scene.Vertex, colors []framebuffer.Color) (scene.Primitive, bool, []scene.Vertex, []framebuffer.Color) {
	i0, i1 := p.VIndex[0], p.VIndex[1]
	v0, v1 := verts[i0], verts[i1]
	keep0, keep1 := v0.Z <= nc.zn, v1.Z <= nc.zn

	switch {
	case keep0 && keep1:
		nc.log.debug("near clip: trivial accept", "v0", i0, "v1", i1)
		return p, true, verts, colors
	case !keep0 && !keep1:
		nc.rejected++
		nc.log.debug("near clip: trivial reject", "v0", i0, "v1", i1)
		return p, false, verts, colors
	}

	// Parametrized from v1 (t=0) to v0 (t=1).
	t := (nc.zn - v1.Z) / (v0.Z - v1.Z)
	nv := scene.V(
		(1-t)*v1.X+t*v0.X,
		(1-t)*v1.Y+t*v0.Y,
		nc.zn,
	)
	tc := t
	if tc > 1 {
		tc = 1 / tc
	}
	c0, c1 := colors[p.CIndex[0]], colors[p.CIndex[1]]
	nColor := c1.Lerp(c0, tc)

	vNew, cNew := len(verts), len(colors)
	verts = append(verts, nv)
	colors = append(colors, nColor)
	nc.clipped++

	var q scene.Primitive
	if keep0 {
		q = scene.NewLineSegment(i0, vNew, p.CIndex[0], cNew)
		nc.log.debug("near clip: clip off v1", "t", t, "vertex", nv.String())
	} else {
		q = scene.NewLineSegment(vNew, i1, cNew, p.CIndex[1])
		nc.log.debug("near clip: clip off v0", "t", t, "vertex", nv.String())
	}
	return q, true, verts, colors
}
