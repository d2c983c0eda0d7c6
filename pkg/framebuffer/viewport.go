package framebuffer

import (
	"fmt"
	"image"
	"image/color"
)

// Viewport is a rectangular window into a FrameBuffer. It shares the
// framebuffer's pixel memory and translates its own coordinates, with (0,0)
// at its upper left corner, into framebuffer coordinates.
//
// Viewports are not synchronized; callers serialize writes to overlapping
// viewports.
type Viewport struct {
	fb            *FrameBuffer
	ulx, uly      int
	width, height int
	bg            Color
}

// FrameBuffer returns the framebuffer the viewport writes into.
func (vp *Viewport) FrameBuffer() *FrameBuffer { return vp.fb }

// Width returns the viewport width.
func (vp *Viewport) Width() int { return vp.width }

// Height returns the viewport height.
func (vp *Viewport) Height() int { return vp.height }

// UpperLeft returns the framebuffer coordinates of the viewport origin.
func (vp *Viewport) UpperLeft() (x, y int) { return vp.ulx, vp.uly }

// Rect returns the viewport rectangle in framebuffer coordinates.
func (vp *Viewport) Rect() image.Rectangle {
	return image.Rect(vp.ulx, vp.uly, vp.ulx+vp.width, vp.uly+vp.height)
}

// Background returns the viewport's own background color.
func (vp *Viewport) Background() Color { return vp.bg }

// SetBackground changes the viewport background used by ClearBackground and
// Resize.
func (vp *Viewport) SetBackground(c Color) { vp.bg = c }

// Resize moves and resizes the viewport without reallocating, then clears
// the new rectangle with the viewport background.
func (vp *Viewport) Resize(width, height, ulx, uly int) error {
	if err := vp.setRect(width, height, ulx, uly); err != nil {
		return err
	}
	vp.ClearBackground()
	return nil
}

// Pixel returns the color at viewport coordinates (x, y).
func (vp *Viewport) Pixel(x, y int) (Color, error) {
	if !vp.inBounds(x, y) {
		return Color{}, fmt.Errorf("%w: pixel (%d, %d) in %dx%d viewport", ErrOutOfBounds, x, y, vp.width, vp.height)
	}
	return vp.fb.Pixel(vp.ulx+x, vp.uly+y)
}

// SetPixel writes the pixel at viewport coordinates (x, y).
func (vp *Viewport) SetPixel(x, y int, c Color) error {
	if !vp.inBounds(x, y) {
		return fmt.Errorf("%w: pixel (%d, %d) in %dx%d viewport", ErrOutOfBounds, x, y, vp.width, vp.height)
	}
	return vp.fb.SetPixel(vp.ulx+x, vp.uly+y, c)
}

// Clear fills the viewport rectangle with c.
func (vp *Viewport) Clear(c Color) {
	for y := vp.uly; y < vp.uly+vp.height; y++ {
		for x := vp.ulx; x < vp.ulx+vp.width; x++ {
			vp.fb.set(x, y, c)
		}
	}
}

// ClearBackground fills the viewport rectangle with its background color.
func (vp *Viewport) ClearBackground() {
	vp.Clear(vp.bg)
}

// ColorModel implements image.Image.
func (vp *Viewport) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image in viewport coordinates.
func (vp *Viewport) Bounds() image.Rectangle { return image.Rect(0, 0, vp.width, vp.height) }

// At implements image.Image. Out-of-range coordinates yield transparent black.
func (vp *Viewport) At(x, y int) color.Color {
	c, _ := vp.Pixel(x, y)
	return c
}

func (vp *Viewport) String() string {
	return fmt.Sprintf("Viewport [ul=(%d, %d), w=%d, h=%d, bg=%v]", vp.ulx, vp.uly, vp.width, vp.height, vp.bg)
}

func (vp *Viewport) setRect(width, height, ulx, uly int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport size %dx%d", ErrInvalidArgument, width, height)
	}
	if ulx < 0 || uly < 0 || ulx+width > vp.fb.width || uly+height > vp.fb.height {
		return fmt.Errorf("%w: viewport %dx%d at (%d, %d) in %dx%d framebuffer",
			ErrOutOfBounds, width, height, ulx, uly, vp.fb.width, vp.fb.height)
	}
	vp.ulx, vp.uly, vp.width, vp.height = ulx, uly, width, height
	return nil
}

func (vp *Viewport) inBounds(x, y int) bool {
	return x >= 0 && x < vp.width && y >= 0 && y < vp.height
}
