package framebuffer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// FrameBuffer owns a contiguous row-major RGBA pixel buffer with four bytes
// per pixel, plus a default Viewport spanning the whole buffer.
// A FrameBuffer is never resized in place.
type FrameBuffer struct {
	width, height int
	bg            Color
	pix           []uint8
	vp            *Viewport
}

// Channel selects one color plane for ConvertChannel.
type Channel int

const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

// New creates a width x height framebuffer filled with bg.
func New(width, height int, bg Color) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: framebuffer size %dx%d", ErrInvalidArgument, width, height)
	}
	if width > math.MaxInt/4/height {
		return nil, fmt.Errorf("%w: framebuffer size %dx%d overflows", ErrInvalidArgument, width, height)
	}
	fb := &FrameBuffer{
		width:  width,
		height: height,
		bg:     bg,
		pix:    make([]uint8, width*height*4),
	}
	fb.vp = &Viewport{fb: fb, width: width, height: height, bg: bg}
	fb.Clear(bg)
	return fb, nil
}

// MustNew is New for sizes known to be valid. It panics on error.
func MustNew(width, height int, bg Color) *FrameBuffer {
	fb, err := New(width, height, bg)
	if err != nil {
		panic(err)
	}
	return fb
}

// FromImage copies any image into a new framebuffer with a black background.
// Alpha is preserved.
func FromImage(img image.Image) (*FrameBuffer, error) {
	b := img.Bounds()
	fb, err := New(b.Dx(), b.Dy(), Black)
	if err != nil {
		return nil, err
	}
	for y := range fb.height {
		for x := range fb.width {
			fb.set(x, y, FromColor(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return fb, nil
}

// FromViewport copies the pixels of vp into a new framebuffer whose
// background is the viewport's background.
func FromViewport(vp *Viewport) *FrameBuffer {
	fb := MustNew(vp.width, vp.height, vp.bg)
	for y := range vp.height {
		src := vp.fb.offset(vp.ulx, vp.uly+y)
		copy(fb.pix[fb.offset(0, y):fb.offset(0, y+1)], vp.fb.pix[src:src+vp.width*4])
	}
	return fb
}

// Width returns the width in pixels.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the height in pixels.
func (fb *FrameBuffer) Height() int { return fb.height }

// Background returns the framebuffer background color.
func (fb *FrameBuffer) Background() Color { return fb.bg }

// SetBackground changes the background color used by ClearBackground.
// Existing pixels are untouched.
func (fb *FrameBuffer) SetBackground(c Color) { fb.bg = c }

// Viewport returns the default viewport.
func (fb *FrameBuffer) Viewport() *Viewport { return fb.vp }

// ResetViewport makes the default viewport span the whole buffer again.
func (fb *FrameBuffer) ResetViewport() {
	fb.vp.ulx, fb.vp.uly = 0, 0
	fb.vp.width, fb.vp.height = fb.width, fb.height
}

// NewViewport creates an additional viewport sharing this buffer. The
// rectangle must lie within the framebuffer.
func (fb *FrameBuffer) NewViewport(width, height, ulx, uly int, bg Color) (*Viewport, error) {
	vp := &Viewport{fb: fb, bg: bg}
	if err := vp.setRect(width, height, ulx, uly); err != nil {
		return nil, err
	}
	return vp, nil
}

// Pixel returns the color at (x, y).
func (fb *FrameBuffer) Pixel(x, y int) (Color, error) {
	if !fb.inBounds(x, y) {
		return Color{}, fmt.Errorf("%w: pixel (%d, %d) in %dx%d framebuffer", ErrOutOfBounds, x, y, fb.width, fb.height)
	}
	i := fb.offset(x, y)
	p := fb.pix[i : i+4 : i+4]
	return Color{p[0], p[1], p[2], p[3]}, nil
}

// SetPixel overwrites the pixel at (x, y). Alpha is stored, not blended.
func (fb *FrameBuffer) SetPixel(x, y int, c Color) error {
	if !fb.inBounds(x, y) {
		return fmt.Errorf("%w: pixel (%d, %d) in %dx%d framebuffer", ErrOutOfBounds, x, y, fb.width, fb.height)
	}
	fb.set(x, y, c)
	return nil
}

// Clear overwrites every pixel with c.
func (fb *FrameBuffer) Clear(c Color) {
	for i := 0; i < len(fb.pix); i += 4 {
		fb.pix[i], fb.pix[i+1], fb.pix[i+2], fb.pix[i+3] = c.r, c.g, c.b, c.a
	}
}

// ClearBackground overwrites every pixel with the background color.
func (fb *FrameBuffer) ClearBackground() {
	fb.Clear(fb.bg)
}

// Clone returns a deep copy. The copy's default viewport spans the whole
// buffer.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	c := MustNew(fb.width, fb.height, fb.bg)
	copy(c.pix, fb.pix)
	return c
}

// ConvertChannel returns a copy holding only one color plane. The other
// planes are zero and alpha is opaque.
func (fb *FrameBuffer) ConvertChannel(ch Channel) *FrameBuffer {
	c := MustNew(fb.width, fb.height, fb.bg)
	for i := 0; i < len(fb.pix); i += 4 {
		c.pix[i], c.pix[i+1], c.pix[i+2], c.pix[i+3] = 0, 0, 0, 255
		switch ch {
		case ChannelRed:
			c.pix[i] = fb.pix[i]
		case ChannelGreen:
			c.pix[i+1] = fb.pix[i+1]
		case ChannelBlue:
			c.pix[i+2] = fb.pix[i+2]
		}
	}
	return c
}

// ColorModel implements image.Image.
func (fb *FrameBuffer) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (fb *FrameBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.width, fb.height) }

// At implements image.Image. Out-of-range coordinates yield transparent black.
func (fb *FrameBuffer) At(x, y int) color.Color {
	c, _ := fb.Pixel(x, y)
	return c
}

// ToImage copies the pixels into a standard Go image.
func (fb *FrameBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(fb.Bounds())
	copy(img.Pix, fb.pix)
	return img
}

// String dumps every pixel. Only useful for tiny buffers.
func (fb *FrameBuffer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FrameBuffer [w=%d, h=%d]\n", fb.width, fb.height)
	fmt.Fprintf(&sb, "Background: %v\n", fb.bg)
	for y := range fb.height {
		for x := range fb.width {
			c, _ := fb.Pixel(x, y)
			fmt.Fprintf(&sb, "%d %d %d ", c.r, c.g, c.b)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (fb *FrameBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < fb.width && y >= 0 && y < fb.height
}

func (fb *FrameBuffer) offset(x, y int) int {
	return 4 * (y*fb.width + x)
}

func (fb *FrameBuffer) set(x, y int, c Color) {
	i := fb.offset(x, y)
	fb.pix[i], fb.pix[i+1], fb.pix[i+2], fb.pix[i+3] = c.r, c.g, c.b, c.a
}
