package scene

import (
	"fmt"

	"github.com/taigrr/wirecast/pkg/math3d"
)

// Position is a node of the scene graph. Its Matrix maps its model (and its
// nested positions) into the parent's coordinates. The model is shared, not
// owned, so one model may appear under several positions. Create positions
// with NewPosition: the zero value is hidden, and its zero Matrix is read as
// the identity.
type Position struct {
	Name    string
	Matrix  math3d.Mat4
	Model   *Model
	Nested  []*Position
	Visible bool
	// Debug turns on stage logging for this subtree.
	Debug bool
}

// NewPosition returns a visible position with an identity matrix.
func NewPosition(name string, model *Model) *Position {
	return &Position{
		Name:    name,
		Matrix:  math3d.Identity(),
		Model:   model,
		Visible: true,
	}
}

// AddNested appends child positions. A child that already contains p would
// make the graph cyclic and is rejected. Sharing a child between parents is
// allowed.
func (p *Position) AddNested(children ...*Position) error {
	for _, c := range children {
		if c == nil {
			return fmt.Errorf("%w: position %q: nil nested position", ErrInvalidArgument, p.Name)
		}
		if c == p || c.reaches(p) {
			return fmt.Errorf("%w: position %q: nesting %q would create a cycle", ErrInvalidArgument, p.Name, c.Name)
		}
	}
	p.Nested = append(p.Nested, children...)
	return nil
}

// Find returns the first position named name in a pre-order walk of the
// subtree rooted at p.
func (p *Position) Find(name string) *Position {
	return p.find(name, make(map[*Position]bool))
}

func (p *Position) find(name string, seen map[*Position]bool) *Position {
	if p.Name == name {
		return p
	}
	if seen[p] {
		return nil
	}
	seen[p] = true
	for _, n := range p.Nested {
		if n == nil {
			continue
		}
		if found := n.find(name, seen); found != nil {
			return found
		}
	}
	return nil
}

// LocalMatrix is Matrix with the zero matrix read as the identity.
func (p *Position) LocalMatrix() math3d.Mat4 {
	return p.Matrix.OrIdentity()
}

func (p *Position) String() string {
	model := "<none>"
	if p.Model != nil {
		model = p.Model.Name
	}
	return fmt.Sprintf("Position: %s (model=%s, nested=%d, visible=%t)", p.Name, model, len(p.Nested), p.Visible)
}

func (p *Position) reaches(target *Position) bool {
	seen := make(map[*Position]bool)
	var walk func(*Position) bool
	walk = func(p *Position) bool {
		if seen[p] {
			return false
		}
		seen[p] = true
		for _, n := range p.Nested {
			if n == target || (n != nil && walk(n)) {
				return true
			}
		}
		return false
	}
	return walk(p)
}
