package scene

import (
	"fmt"
	"strings"
)

// Scene is the root of a render: top-level positions plus the camera that
// views them.
type Scene struct {
	Name      string
	Camera    *Camera
	Positions []*Position
	// Debug turns on stage logging for the whole scene.
	Debug bool
}

// New creates an empty scene. A nil camera is replaced by NewCamera().
func New(name string, cam *Camera) *Scene {
	if cam == nil {
		cam = NewCamera()
	}
	return &Scene{Name: name, Camera: cam}
}

// AddPosition appends top-level positions.
func (s *Scene) AddPosition(ps ...*Position) {
	s.Positions = append(s.Positions, ps...)
}

// Find returns the first position named name, searching every top-level
// position in order.
func (s *Scene) Find(name string) *Position {
	for _, p := range s.Positions {
		if found := p.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every position pre-order, depth first, passing the names from
// the root down. A node reachable along several paths is visited once per
// path. The path slice is reused and only valid during the call. Walk stops
// at the first error fn returns, or at a nil position or a cycle.
func (s *Scene) Walk(fn func(path []string, p *Position) error) error {
	onPath := make(map[*Position]bool)
	var walk func(path []string, p *Position) error
	walk = func(path []string, p *Position) error {
		if p == nil {
			return fmt.Errorf("%w: nil position under %q", ErrInvalidArgument, strings.Join(path, "/"))
		}
		path = append(path, p.Name)
		if onPath[p] {
			return fmt.Errorf("%w: position cycle at %q", ErrInvalidArgument, strings.Join(path, "/"))
		}
		if err := fn(path, p); err != nil {
			return err
		}
		onPath[p] = true
		defer delete(onPath, p)
		for _, n := range p.Nested {
			if err := walk(path, n); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range s.Positions {
		if err := walk(nil, p); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects nil entries, cycles in the position graph, and models
// whose primitives index past their vertex or color lists.
func (s *Scene) Validate() error {
	if s.Camera == nil {
		return fmt.Errorf("%w: scene %q has no camera", ErrInvalidArgument, s.Name)
	}
	onPath := make(map[*Position]bool)
	var visit func(path []string, p *Position) error
	visit = func(path []string, p *Position) error {
		if p == nil {
			return fmt.Errorf("%w: nil position under %q", ErrInvalidArgument, strings.Join(path, "/"))
		}
		path = append(path, p.Name)
		if onPath[p] {
			return fmt.Errorf("%w: position cycle at %q", ErrInvalidArgument, strings.Join(path, "/"))
		}
		if p.Model != nil {
			if err := p.Model.Validate(); err != nil {
				return fmt.Errorf("position %q: %w", strings.Join(path, "/"), err)
			}
		}
		onPath[p] = true
		for _, n := range p.Nested {
			if err := visit(path, n); err != nil {
				return err
			}
		}
		delete(onPath, p)
		return nil
	}
	for _, p := range s.Positions {
		if err := visit(nil, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scene: %s\n%v", s.Name, s.Camera)
	_ = s.Walk(func(path []string, p *Position) error {
		fmt.Fprintf(&sb, "%s%v\n", strings.Repeat("  ", len(path)-1), p)
		return nil
	})
	return sb.String()
}
