// Package pipeline renders a scene.Scene into a framebuffer.Viewport through
// the wireframe stages: assembly, model-to-view, view-to-camera, near
// clipping, projection, view-rectangle clipping and rasterization.
package pipeline

import (
	"io"
	"log/slog"

	"github.com/taigrr/wirecast/pkg/framebuffer"
)

// DebugFlags switches per-stage debug logging on.
type DebugFlags struct {
	Scene       bool
	Model2View  bool
	View2Camera bool
	NearClip    bool
	Project     bool
	Clip        bool
	Rasterize   bool
}

// AllDebug returns DebugFlags with every stage switched on.
func AllDebug() DebugFlags {
	return DebugFlags{
		Scene:       true,
		Model2View:  true,
		View2Camera: true,
		NearClip:    true,
		Project:     true,
		Clip:        true,
		Rasterize:   true,
	}
}

// Config holds the pipeline switches. A render reads it once at the start,
// so changing it through Renderer.SetConfig affects the next render.
type Config struct {
	AntiAlias bool // blend line and point edges with the viewport background
	Gamma     bool // gamma encode colors just before they are written
	NearClip  bool // clip against the camera's near plane
	Cull      bool // skip models whose bounds fall outside the view volume

	// DefaultColor is given to models that have vertices but no colors.
	DefaultColor framebuffer.Color

	Debug  DebugFlags
	Logger *slog.Logger // nil discards all records
}

// DefaultConfig returns the standard switches: gamma, near clipping and
// culling on, anti-aliasing off, white default color.
func DefaultConfig() Config {
	return Config{
		Gamma:        true,
		NearClip:     true,
		Cull:         true,
		DefaultColor: framebuffer.White,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
