package scene

import "github.com/taigrr/wirecast/pkg/framebuffer"

// Errors shared with the framebuffer package so callers can match either
// layer with errors.Is.
var (
	ErrInvalidArgument = framebuffer.ErrInvalidArgument
	ErrOutOfBounds     = framebuffer.ErrOutOfBounds
)
