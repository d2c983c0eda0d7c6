package scene

import (
	"fmt"
	"strings"
)

// Kind tags the variant of a Primitive.
type Kind uint8

const (
	// KindPoint is a single vertex drawn as a disc of Radius pixels.
	KindPoint Kind = iota
	// KindLineSegment joins exactly two vertices.
	KindLineSegment
	// KindPoints is a list of points sharing one radius.
	KindPoints
	// KindLines pairs consecutive vertices: (0,1), (2,3), ...
	KindLines
	// KindLineStrip joins each vertex to the next.
	KindLineStrip
	// KindLineLoop is a strip closed back to its first vertex.
	KindLineLoop
	// KindLineFan joins vertex 0 to every other vertex.
	KindLineFan
)

var kindNames = [...]string{
	KindPoint:       "Point",
	KindLineSegment: "LineSegment",
	KindPoints:      "Points",
	KindLines:       "Lines",
	KindLineStrip:   "LineStrip",
	KindLineLoop:    "LineLoop",
	KindLineFan:     "LineFan",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps a kind name, case-insensitively, back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown primitive kind %q", ErrInvalidArgument, s)
}

// Primitive is a drawable unit that refers to its model's vertex and color
// lists by index. VIndex and CIndex always have equal length.
type Primitive struct {
	Kind   Kind
	VIndex []int
	CIndex []int
	// Radius in pixels, used by points only. Zero draws a single pixel.
	Radius int
}

// NewPrimitive builds a primitive of any kind after checking that the index
// lists match in length and hold enough vertices for the kind.
func NewPrimitive(kind Kind, vIndex, cIndex []int) (Primitive, error) {
	p := Primitive{Kind: kind, VIndex: vIndex, CIndex: cIndex}
	if err := p.checkShape(); err != nil {
		return Primitive{}, err
	}
	return p, nil
}

// NewUniformPrimitive is NewPrimitive with every vertex using color c.
func NewUniformPrimitive(kind Kind, vIndex []int, c int) (Primitive, error) {
	cIndex := make([]int, len(vIndex))
	for i := range cIndex {
		cIndex[i] = c
	}
	return NewPrimitive(kind, vIndex, cIndex)
}

// NewPoint returns a single-pixel point.
func NewPoint(v, c int) Primitive {
	return Primitive{Kind: KindPoint, VIndex: []int{v}, CIndex: []int{c}}
}

// NewLineSegment returns the segment from vertex v0 (color c0) to v1 (c1).
func NewLineSegment(v0, v1, c0, c1 int) Primitive {
	return Primitive{Kind: KindLineSegment, VIndex: []int{v0, v1}, CIndex: []int{c0, c1}}
}

// WithRadius returns a copy of p with the point radius set.
func (p Primitive) WithRadius(r int) Primitive {
	p.Radius = r
	return p
}

// Validate checks the primitive against a model with nv vertices and nc
// colors.
func (p Primitive) Validate(nv, nc int) error {
	if err := p.checkShape(); err != nil {
		return err
	}
	for i, v := range p.VIndex {
		if v < 0 || v >= nv {
			return fmt.Errorf("%w: %v vertex index %d not in [0,%d)", ErrOutOfBounds, p.Kind, v, nv)
		}
		if c := p.CIndex[i]; c < 0 || c >= nc {
			return fmt.Errorf("%w: %v color index %d not in [0,%d)", ErrOutOfBounds, p.Kind, c, nc)
		}
	}
	return nil
}

// Assemble expands p into KindPoint and KindLineSegment primitives only.
func (p Primitive) Assemble() []Primitive {
	v, c := p.VIndex, p.CIndex
	n := len(v)
	seg := func(i, j int) Primitive {
		return NewLineSegment(v[i], v[j], c[i], c[j])
	}

	var out []Primitive
	switch p.Kind {
	case KindPoint, KindLineSegment:
		out = []Primitive{p}
	case KindPoints:
		out = make([]Primitive, 0, n)
		for i := range n {
			out = append(out, NewPoint(v[i], c[i]).WithRadius(p.Radius))
		}
	case KindLines:
		out = make([]Primitive, 0, n/2)
		for i := 0; i+1 < n; i += 2 {
			out = append(out, seg(i, i+1))
		}
	case KindLineStrip, KindLineLoop:
		out = make([]Primitive, 0, n)
		for i := 0; i+1 < n; i++ {
			out = append(out, seg(i, i+1))
		}
		if p.Kind == KindLineLoop && n > 0 {
			out = append(out, seg(n-1, 0))
		}
	case KindLineFan:
		out = make([]Primitive, 0, n)
		for i := 1; i < n; i++ {
			out = append(out, seg(0, i))
		}
	}
	return out
}

func (p Primitive) String() string {
	var sb strings.Builder
	sb.WriteString(p.Kind.String())
	fmt.Fprintf(&sb, ": ([%s], [%s])", joinInts(p.VIndex), joinInts(p.CIndex))
	if p.Kind == KindPoint || p.Kind == KindPoints {
		fmt.Fprintf(&sb, " radius=%d", p.Radius)
	}
	return sb.String()
}

func (p Primitive) checkShape() error {
	if len(p.VIndex) != len(p.CIndex) {
		return fmt.Errorf("%w: %v has %d vertex indices but %d color indices",
			ErrInvalidArgument, p.Kind, len(p.VIndex), len(p.CIndex))
	}
	n := len(p.VIndex)
	var ok bool
	switch p.Kind {
	case KindPoint:
		ok = n == 1
	case KindLineSegment:
		ok = n == 2
	case KindPoints:
		ok = n >= 1
	case KindLines:
		ok = n >= 2 && n%2 == 0
	case KindLineStrip, KindLineLoop, KindLineFan:
		ok = n >= 2
	default:
		return fmt.Errorf("%w: unknown primitive kind %d", ErrInvalidArgument, p.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %v cannot have %d vertices", ErrInvalidArgument, p.Kind, n)
	}
	if p.Radius < 0 {
		return fmt.Errorf("%w: negative point radius %d", ErrInvalidArgument, p.Radius)
	}
	return nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
