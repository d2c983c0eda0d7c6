package framebuffer

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw implements uv.Drawable. Each terminal row shows two framebuffer rows
// using the upper half block, so the framebuffer should be twice as tall as
// the area.
func (fb *FrameBuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	drawHalfBlocks(scr, area, fb.width, fb.height, fb.Pixel)
}

// Draw implements uv.Drawable for just the viewport rectangle.
func (vp *Viewport) Draw(scr uv.Screen, area uv.Rectangle) {
	drawHalfBlocks(scr, area, vp.width, vp.height, vp.Pixel)
}

func drawHalfBlocks(scr uv.Screen, area uv.Rectangle, width, height int, pixel func(x, y int) (Color, error)) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		if topY >= height {
			break
		}
		for col := area.Min.X; col < area.Max.X && col-area.Min.X < width; col++ {
			x := col - area.Min.X
			top, _ := pixel(x, topY)
			bot, _ := pixel(x, topY+1)

			// ▀ with fg=top row and bg=bottom row
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(top),
					Bg: cellColor(bot),
				},
			})
		}
	}
}

// cellColor maps transparent pixels to the terminal default color.
func cellColor(c Color) color.Color {
	if c.a == 0 {
		return nil
	}
	return c
}
