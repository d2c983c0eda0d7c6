// Package framebuffer holds rendered pixels: colors, framebuffers, the
// viewports that window into them, and the PPM image format.
package framebuffer

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Gamma is the exponent used by Color.Gamma.
const Gamma = 1 / 2.2

// Color is an immutable 8-bit RGBA color. Channels are not premultiplied.
// The zero value is transparent black.
type Color struct {
	r, g, b, a uint8
}

// Named colors.
var (
	Black   = RGB(0, 0, 0)
	White   = RGB(255, 255, 255)
	Red     = RGB(255, 0, 0)
	Green   = RGB(0, 255, 0)
	Blue    = RGB(0, 0, 255)
	Orange  = RGB(255, 127, 0)
	Yellow  = RGB(255, 255, 0)
	Pink    = RGB(255, 192, 203)
	Cyan    = RGB(0, 255, 255)
	Magenta = RGB(255, 0, 255)
	Gray    = RGB(192, 192, 192)
)

var namedColors = map[string]Color{
	"black":   Black,
	"white":   White,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"orange":  Orange,
	"yellow":  Yellow,
	"pink":    Pink,
	"cyan":    Cyan,
	"magenta": Magenta,
	"gray":    Gray,
	"grey":    Gray,
}

// NewColor builds a color from floating point channels. Every channel must
// lie in [0,255]; values are then rounded to the nearest integer.
func NewColor(r, g, b, a float64) (Color, error) {
	for _, v := range [4]float64{r, g, b, a} {
		if !(v >= 0 && v <= 255) {
			return Color{}, fmt.Errorf("%w: got (%g, %g, %g, %g)", ErrInvalidColorValue, r, g, b, a)
		}
	}
	return Color{round8(r), round8(g), round8(b), round8(a)}, nil
}

// MustColor is NewColor for literals known to be valid. It panics on error.
func MustColor(r, g, b, a float64) Color {
	c, err := NewColor(r, g, b, a)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b, 255}
}

// RGBA8 creates a color from 8-bit channels.
func RGBA8(r, g, b, a uint8) Color {
	return Color{r, g, b, a}
}

// FromColor converts any image/color value.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B, n.A}
}

// ParseColor accepts "r,g,b", "r,g,b,a", "#rrggbb", "#rrggbbaa" or a color
// name such as "orange".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 && len(hex) != 8 {
			return Color{}, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
		}
		if len(hex) == 6 {
			return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
		}
		return RGBA8(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
	}
	ch := [4]float64{0, 0, 0, 255}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
		}
		ch[i] = v
	}
	return NewColor(ch[0], ch[1], ch[2], ch[3])
}

// Red returns the red channel.
func (c Color) Red() uint8 { return c.r }

// Green returns the green channel.
func (c Color) Green() uint8 { return c.g }

// Blue returns the blue channel.
func (c Color) Blue() uint8 { return c.b }

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 { return c.a }

// Floats returns the four channels as float64 values in [0,255].
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.r), float64(c.g), float64(c.b), float64(c.a)
}

// WithAlpha returns a copy of c with the alpha channel replaced.
func (c Color) WithAlpha(a uint8) Color {
	c.a = a
	return c
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.r, G: c.g, B: c.b, A: c.a}.RGBA()
}

// Blend mixes two colors weighting c1 by a1/(a1+a2). The result is opaque.
// Two fully transparent colors mix evenly.
func Blend(c1, c2 Color) Color {
	total := float64(c1.a) + float64(c2.a)
	if total == 0 {
		c, _ := BlendWeight(c1, c2, 0.5)
		return c
	}
	c, _ := BlendWeight(c1, c2, float64(c1.a)/total)
	return c
}

// BlendWeight returns w*c1 + (1-w)*c2 per color channel with alpha 255.
// w must lie in [0,1].
func BlendWeight(c1, c2 Color, w float64) (Color, error) {
	if !(w >= 0 && w <= 1) {
		return Color{}, fmt.Errorf("%w: blend weight %g not in [0,1]", ErrInvalidArgument, w)
	}
	mix := func(a, b uint8) uint8 {
		return round8(w*float64(a) + (1-w)*float64(b))
	}
	return Color{mix(c1.r, c2.r), mix(c1.g, c2.g), mix(c1.b, c2.b), 255}, nil
}

// Lerp interpolates every channel, alpha included, from c (t=0) to o (t=1).
// t is clamped to [0,1].
func (c Color) Lerp(o Color, t float64) Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(a, b uint8) uint8 {
		return round8((1-t)*float64(a) + t*float64(b))
	}
	return Color{mix(c.r, o.r), mix(c.g, o.g), mix(c.b, o.b), mix(c.a, o.a)}
}

// Gamma returns the gamma encoded color: each of r, g and b becomes
// 255 * (v/255)^(1/2.2). Alpha is kept.
func (c Color) Gamma() Color {
	return Color{gamma8(c.r), gamma8(c.g), gamma8(c.b), c.a}
}

// String formats the color as "(r,g,b,a) = (...)".
func (c Color) String() string {
	return fmt.Sprintf("(r,g,b,a) = (%3d, %3d, %3d, %3d)", c.r, c.g, c.b, c.a)
}

func gamma8(v uint8) uint8 {
	return round8(255 * math.Pow(float64(v)/255, Gamma))
}

// round8 rounds half up and clamps to a byte. Callers pass values already in
// range; the clamp only absorbs floating point drift.
func round8(v float64) uint8 {
	v = math.Floor(v + 0.5)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
