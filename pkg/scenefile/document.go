// Package scenefile reads and writes YAML scene descriptions: a camera,
// render settings and a tree of positions holding procedural shapes or glTF
// files.
package scenefile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the declarative form of a scene file.
type Document struct {
	Name   string     `yaml:"name"`
	Camera CameraSpec `yaml:"camera,omitempty"`
	Render RenderSpec `yaml:"render,omitempty"`
	// Models are named models that positions can share with "use".
	Models    map[string]ModelSpec `yaml:"models,omitempty"`
	Positions []PositionSpec       `yaml:"positions"`
}

// CameraSpec describes the projection and placement. Without a window the
// view volume is symmetric, built from fovy (default 90) and aspect
// (default 1).
type CameraSpec struct {
	Projection string    `yaml:"projection,omitempty"` // perspective (default) or orthographic
	FOVY       float64   `yaml:"fovy,omitempty"`
	Aspect     float64   `yaml:"aspect,omitempty"`
	Near       *float64  `yaml:"near,omitempty"`   // default 1, or -1 for orthographic
	Window     []float64 `yaml:"window,omitempty"` // left, right, bottom, top
	Position   []float64 `yaml:"position,omitempty"`
	LookAt     []float64 `yaml:"look_at,omitempty"`
}

// RenderSpec holds output size and pipeline switches. Unset switches keep
// the pipeline defaults.
type RenderSpec struct {
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	Background string `yaml:"background,omitempty"`
	// BackgroundImage is drawn under the render, scaled to the output size.
	BackgroundImage string `yaml:"background_image,omitempty"`
	AntiAlias       *bool  `yaml:"antialias,omitempty"`
	Gamma           *bool  `yaml:"gamma,omitempty"`
	NearClip        *bool  `yaml:"nearclip,omitempty"`
	Cull            *bool  `yaml:"cull,omitempty"`
	Color           string `yaml:"default_color,omitempty"`
	Output          string `yaml:"output,omitempty"`
}

// PositionSpec is one node of the position tree. Its matrix is
// translate * rotate * scale, with rotate given in degrees about x, y and z
// and applied in that order.
type PositionSpec struct {
	Name      string         `yaml:"name"`
	Translate []float64      `yaml:"translate,omitempty"`
	Rotate    []float64      `yaml:"rotate,omitempty"`
	Scale     []float64      `yaml:"scale,omitempty"` // one uniform value or x, y, z
	Hidden    bool           `yaml:"hidden,omitempty"`
	Debug     bool           `yaml:"debug,omitempty"`
	Use       string         `yaml:"use,omitempty"`
	Model     *ModelSpec     `yaml:"model,omitempty"`
	Children  []PositionSpec `yaml:"children,omitempty"`
}

// ModelSpec selects a shape and its parameters. Which fields apply depends
// on Shape.
type ModelSpec struct {
	Shape     string      `yaml:"shape"`
	Size      float64     `yaml:"size,omitempty"`
	Step      float64     `yaml:"step,omitempty"`
	Radius    float64     `yaml:"radius,omitempty"`
	Segments  int         `yaml:"segments,omitempty"`
	PointSize int         `yaml:"point_size,omitempty"`
	Points    [][]float64 `yaml:"points,omitempty"`
	From      []float64   `yaml:"from,omitempty"`
	To        []float64   `yaml:"to,omitempty"`
	Color     string      `yaml:"color,omitempty"`
	Colors    []string    `yaml:"colors,omitempty"`
	Path      string      `yaml:"path,omitempty"`
	Fit       float64     `yaml:"fit,omitempty"`
}

// Decode reads one YAML document. Unknown keys are errors.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scene file: %w", err)
	}
	return &doc, nil
}

// Parse is Decode for an in-memory document.
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes the scene file at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes d as YAML.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode scene file: %w", err)
	}
	return enc.Close()
}
