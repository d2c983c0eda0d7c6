package pipeline

import (
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = inside (same side as normal), negative = outside.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// ViewVolume is the canonical view volume in camera coordinates, bounded by
// planes whose normals point inward.
type ViewVolume struct {
	Planes []Plane
}

// NewViewVolume returns the planes that bound what the pipeline can draw
// for cam. Anything entirely outside one of them is rejected by the clip
// stages anyway, so culling against them never changes the image.
//
// ok is false when no such volume exists: without near clipping a
// perspective projection flips geometry from behind the camera onto the
// image, so nothing can be culled.
func NewViewVolume(cam *scene.Camera, nearClip bool) (vol ViewVolume, ok bool) {
	if cam.Perspective() {
		if !nearClip {
			return ViewVolume{}, false
		}
		vol.Planes = []Plane{
			{Normal: math3d.V3(1, 0, -1)},  // x >= z
			{Normal: math3d.V3(-1, 0, -1)}, // x <= -z
			{Normal: math3d.V3(0, 1, -1)},  // y >= z
			{Normal: math3d.V3(0, -1, -1)}, // y <= -z
		}
	} else {
		vol.Planes = []Plane{
			{Normal: math3d.V3(1, 0, 0), D: 1},
			{Normal: math3d.V3(-1, 0, 0), D: 1},
			{Normal: math3d.V3(0, 1, 0), D: 1},
			{Normal: math3d.V3(0, -1, 0), D: 1},
		}
	}
	if nearClip {
		vol.Planes = append(vol.Planes, Plane{Normal: math3d.V3(0, 0, -1), D: cam.NearZ()})
	}
	for i := range vol.Planes {
		vol.Planes[i].Normalize()
	}
	return vol, true
}

// ContainsPoint tests if a point is inside the volume.
func (v ViewVolume) ContainsPoint(p math3d.Vec3) bool {
	for i := range v.Planes {
		if v.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectAABB tests if the AABB intersects or is inside the volume.
// Uses the "positive vertex" optimization for faster rejection.
func (v ViewVolume) IntersectAABB(box AABB) bool {
	for i := range v.Planes {
		plane := v.Planes[i]

		// The corner furthest along the normal; if it is outside, so is the box.
		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}
	return true
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(lo, hi math3d.Vec3) AABB {
	return AABB{Min: lo, Max: hi}
}

// ModelAABB returns the box around m's own vertices; ok is false when m has
// none.
func ModelAABB(m *scene.Model) (AABB, bool) {
	lo, hi, ok := m.Bounds()
	return AABB{Min: lo, Max: hi}, ok
}

// Transform returns an AABB that bounds the original AABB after transformation.
// This computes a new AABB that contains all 8 transformed corners.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := [8]math3d.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	lo := m.MulPoint(corners[0])
	hi := lo
	for _, c := range corners[1:] {
		t := m.MulPoint(c)
		lo = lo.Min(t)
		hi = hi.Max(t)
	}
	return AABB{Min: lo, Max: hi}
}

// selectComponent is a branchless conditional selection helper.
func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
