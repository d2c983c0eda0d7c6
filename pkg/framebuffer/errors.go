package framebuffer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports input of the wrong shape, such as a
	// non-positive dimension or mismatched index lists.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidColorValue reports a color channel outside [0,255].
	ErrInvalidColorValue = errors.New("color channel must be between 0 and 255 inclusive")

	// ErrOutOfBounds reports a pixel or list index outside its addressable range.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrMalformedImage reports unreadable image data.
	ErrMalformedImage = errors.New("malformed image data")

	// ErrMissingMagicNumber is the malformed-image case where the PPM header
	// does not start with "P6". It matches ErrMalformedImage under errors.Is.
	ErrMissingMagicNumber = fmt.Errorf("missing P6 magic number: %w", ErrMalformedImage)
)
