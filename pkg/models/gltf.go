package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/scene"
)

// ErrUnsupported reports glTF content the loader cannot convert.
var ErrUnsupported = errors.New("unsupported glTF data")

// GLTFLoader converts glTF/GLB files into scene positions. Each node becomes
// a Position carrying the node's local transform; each mesh becomes one
// Model shared by every node that uses it. Triangles are drawn as their
// edges.
type GLTFLoader struct {
	// Color is given to primitives without a COLOR_0 attribute.
	Color framebuffer.Color
	// PointRadius is the pixel radius of POINTS primitives.
	PointRadius int
	// Logger receives warnings about skipped primitives; nil discards them.
	Logger *slog.Logger
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{Color: framebuffer.White}
}

// LoadGLTF loads a .gltf or .glb file with default options.
func LoadGLTF(path string) (*scene.Position, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns its node tree under a root
// position named after the file.
func (l *GLTFLoader) Load(path string) (*scene.Position, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.Convert(doc, filepath.Base(path))
}

// Convert builds the position tree of doc's default scene. Documents
// without scenes contribute every node that is no other node's child.
func (l *GLTFLoader) Convert(doc *gltf.Document, name string) (*scene.Position, error) {
	c := &converter{
		loader: l,
		doc:    doc,
		models: make(map[int]*scene.Model),
		onPath: make(map[int]bool),
	}
	root := scene.NewPosition(name, nil)
	for _, ni := range c.rootNodes() {
		p, err := c.node(ni)
		if err != nil {
			return nil, err
		}
		if err := root.AddNested(p); err != nil {
			return nil, err
		}
	}
	return root, nil
}

type converter struct {
	loader *GLTFLoader
	doc    *gltf.Document
	models map[int]*scene.Model
	onPath map[int]bool
}

func (c *converter) logger() *slog.Logger {
	if c.loader.Logger != nil {
		return c.loader.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *converter) rootNodes() []int {
	doc := c.doc
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, ci := range n.Children {
			child[ci] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (c *converter) node(i int) (*scene.Position, error) {
	if i < 0 || i >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("%w: node index %d", ErrUnsupported, i)
	}
	if c.onPath[i] {
		return nil, fmt.Errorf("%w: node %d is its own ancestor", ErrUnsupported, i)
	}
	c.onPath[i] = true
	defer delete(c.onPath, i)

	n := c.doc.Nodes[i]
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("node%d", i)
	}
	p := scene.NewPosition(name, nil)
	p.Matrix = nodeMatrix(n)

	if n.Mesh != nil {
		m, err := c.mesh(*n.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		p.Model = m
	}
	for _, ci := range n.Children {
		child, err := c.node(ci)
		if err != nil {
			return nil, err
		}
		p.Nested = append(p.Nested, child)
	}
	return p, nil
}

// nodeMatrix returns matrix * T * R * S. glTF nodes carry either a matrix
// or TRS, and the other one decodes to its identity default.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	m := math3d.Identity()
	if n.Matrix != ([16]float64{}) {
		m = math3d.Mat4(n.Matrix)
	}
	t := n.Translation
	r := n.Rotation
	s := n.Scale
	if s == ([3]float64{}) {
		s = [3]float64{1, 1, 1}
	}
	rot := math3d.Identity()
	if r != ([4]float64{}) {
		rot = math3d.FromQuat(r[0], r[1], r[2], r[3])
	}
	return m.
		Mul(math3d.Translate(math3d.V3(t[0], t[1], t[2]))).
		Mul(rot).
		Mul(math3d.Scale(math3d.V3(s[0], s[1], s[2])))
}

func (c *converter) mesh(i int) (*scene.Model, error) {
	if m, ok := c.models[i]; ok {
		return m, nil
	}
	if i < 0 || i >= len(c.doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh index %d", ErrUnsupported, i)
	}
	mesh := c.doc.Meshes[i]
	name := mesh.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", i)
	}
	m := scene.NewModel(name)
	for pi, prim := range mesh.Primitives {
		if err := c.primitive(m, prim); err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}
	}
	c.models[i] = m
	return m, nil
}

// primitive appends the vertices, colors and line primitives of prim to m.
func (c *converter) primitive(m *scene.Model, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		c.logger().Warn("skipping primitive without positions", "model", m.Name)
		return nil
	}
	pos, comps, err := readAccessor(c.doc, posIdx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	if comps != 3 {
		return fmt.Errorf("%w: positions have %d components", ErrUnsupported, comps)
	}
	count := len(pos) / 3
	vBase := len(m.Vertices)
	for i := range count {
		if err := m.AddVertex(math3d.V3(pos[3*i], pos[3*i+1], pos[3*i+2])); err != nil {
			return err
		}
	}

	cBase := len(m.Colors)
	perVertex := false
	if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		cols, comps, err := readAccessor(c.doc, colIdx)
		if err != nil {
			return fmt.Errorf("read colors: %w", err)
		}
		if (comps != 3 && comps != 4) || len(cols)/comps != count {
			return fmt.Errorf("%w: %d colors with %d components for %d vertices", ErrUnsupported, len(cols)/max(comps, 1), comps, count)
		}
		for i := range count {
			v := cols[i*comps : (i+1)*comps]
			a := 1.0
			if comps == 4 {
				a = v[3]
			}
			m.AddColor(framebuffer.MustColor(unit(v[0]), unit(v[1]), unit(v[2]), unit(a)))
		}
		perVertex = true
	} else {
		m.AddColor(c.loader.Color)
	}

	var idx []int
	if prim.Indices != nil {
		raw, comps, err := readAccessor(c.doc, *prim.Indices)
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
		if comps != 1 {
			return fmt.Errorf("%w: indices have %d components", ErrUnsupported, comps)
		}
		idx = make([]int, len(raw))
		for i, v := range raw {
			if v < 0 || int(v) >= count {
				return fmt.Errorf("%w: index %v past %d vertices", scene.ErrOutOfBounds, v, count)
			}
			idx[i] = int(v)
		}
	} else {
		idx = make([]int, count)
		for i := range idx {
			idx[i] = i
		}
	}

	kind, vIdx := primitiveIndices(prim.Mode, idx)
	if kind == scene.KindLines {
		vIdx = vIdx[:len(vIdx)/2*2]
	}
	cIdx := make([]int, len(vIdx))
	for i, v := range vIdx {
		cIdx[i] = cBase
		if perVertex {
			cIdx[i] = cBase + v
		}
		vIdx[i] = vBase + v
	}
	p, err := scene.NewPrimitive(kind, vIdx, cIdx)
	if err != nil {
		c.logger().Warn("skipping degenerate primitive", "model", m.Name, "mode", prim.Mode, "err", err)
		return nil
	}
	if kind == scene.KindPoints {
		p = p.WithRadius(c.loader.PointRadius)
	}
	m.AddPrimitive(p)
	return nil
}

// primitiveIndices maps a glTF primitive mode onto a primitive kind. Triangle
// modes become the list of their distinct edges.
func primitiveIndices(mode gltf.PrimitiveMode, idx []int) (scene.Kind, []int) {
	switch mode {
	case gltf.PrimitivePoints:
		return scene.KindPoints, idx
	case gltf.PrimitiveLines:
		return scene.KindLines, idx
	case gltf.PrimitiveLineLoop:
		return scene.KindLineLoop, idx
	case gltf.PrimitiveLineStrip:
		return scene.KindLineStrip, idx
	}

	var tris [][3]int
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			tris = append(tris, [3]int{idx[i], idx[i+1], idx[i+2]})
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(idx); i++ {
			tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
		}
	default:
		for i := 0; i+2 < len(idx); i += 3 {
			tris = append(tris, [3]int{idx[i], idx[i+1], idx[i+2]})
		}
	}

	seen := make(map[[2]int]bool)
	edges := make([]int, 0, len(tris)*6)
	for _, t := range tris {
		for k := range 3 {
			a, b := t[k], t[(k+1)%3]
			key := [2]int{min(a, b), max(a, b)}
			if a == b || seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, a, b)
		}
	}
	return scene.KindLines, edges
}

// readAccessor reads every element of an accessor as float64 values and
// returns them flattened with the number of components per element.
// Normalized integer components are mapped onto [0,1] or [-1,1].
func readAccessor(doc *gltf.Document, accessorIdx int) ([]float64, int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("%w: accessor index %d", ErrUnsupported, accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("%w: accessor has no buffer view", ErrUnsupported)
	}
	if *accessor.BufferView < 0 || *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("%w: buffer view index %d", ErrUnsupported, *accessor.BufferView)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	if int(bufferView.Buffer) < 0 || int(bufferView.Buffer) >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("%w: buffer index %d", ErrUnsupported, bufferView.Buffer)
	}
	bufData := doc.Buffers[bufferView.Buffer].Data
	if bufData == nil {
		return nil, 0, fmt.Errorf("%w: buffer has no data", ErrUnsupported)
	}

	comps := componentCount(accessor.Type)
	size := componentSize(accessor.ComponentType)
	if comps == 0 || size == 0 {
		return nil, 0, fmt.Errorf("%w: accessor type %v / %v", ErrUnsupported, accessor.Type, accessor.ComponentType)
	}

	start := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = comps * size
	}
	count := int(accessor.Count)
	if count > 0 && start+(count-1)*stride+comps*size > len(bufData) {
		return nil, 0, fmt.Errorf("%w: accessor reads past the end of its buffer", ErrUnsupported)
	}

	out := make([]float64, 0, count*comps)
	for i := range count {
		offset := start + i*stride
		for j := range comps {
			b := bufData[offset+j*size:]
			out = append(out, readComponent(b, accessor.ComponentType, accessor.Normalized))
		}
	}
	return out, comps, nil
}

// unit clamps v to [0,1] and scales it to a color channel.
func unit(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, 1) * 255
}

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

func componentSize(t gltf.ComponentType) int {
	switch t {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

func readComponent(b []byte, t gltf.ComponentType, normalized bool) float64 {
	switch t {
	case gltf.ComponentByte:
		v := float64(int8(b[0]))
		if normalized {
			return math.Max(v/127, -1)
		}
		return v
	case gltf.ComponentUbyte:
		v := float64(b[0])
		if normalized {
			return v / 255
		}
		return v
	case gltf.ComponentShort:
		v := float64(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return math.Max(v/32767, -1)
		}
		return v
	case gltf.ComponentUshort:
		v := float64(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case gltf.ComponentUint:
		return float64(binary.LittleEndian.Uint32(b))
	default:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
}
