// Package imageio saves rendered frames in common image formats and loads
// images back into framebuffers.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/taigrr/wirecast/pkg/framebuffer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnknownFormat reports a file extension with no encoder.
var ErrUnknownFormat = errors.New("unknown image format")

var extFormats = map[string]string{
	".ppm":  "ppm",
	".png":  "png",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
	".tga":  "tga",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
}

type decodeFunc func(io.Reader) (image.Image, error)

var decoders = map[string]decodeFunc{
	"ppm":  decodePPM,
	"png":  png.Decode,
	"jpeg": jpeg.Decode,
	"bmp":  bmp.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
}

// magics maps leading bytes to a format. TGA has no signature and is tried
// last.
var magics = []struct {
	format string
	match  func([]byte) bool
}{
	{"ppm", prefix("P6")},
	{"png", prefix("\x89PNG\r\n\x1a\n")},
	{"jpeg", prefix("\xff\xd8")},
	{"bmp", prefix("BM")},
	{"tiff", prefix("II*\x00")},
	{"tiff", prefix("MM\x00*")},
	{"webp", func(b []byte) bool {
		return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
	}},
}

func prefix(p string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(p)) }
}

// Options controls encoding.
type Options struct {
	// Downsample shrinks the image by this integer factor before encoding,
	// turning a supersampled render into an antialiased one. Values below 2
	// leave the image as is.
	Downsample int
}

// FormatOf returns the format name for path's extension.
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return format, nil
}

// Save encodes img into path, choosing the format from the extension.
func Save(path string, img image.Image, opts *Options) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, format, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes img to w in the named format.
func Encode(w io.Writer, format string, img image.Image, opts *Options) error {
	if opts != nil && opts.Downsample > 1 {
		img = Downsample(img, opts.Downsample)
	}
	switch format {
	case "ppm":
		fb, ok := img.(*framebuffer.FrameBuffer)
		if !ok {
			var err error
			if fb, err = framebuffer.FromImage(img); err != nil {
				return err
			}
		}
		return fb.WritePPM(w)
	case "png":
		return png.Encode(w, img)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "tga":
		return tga.Encode(w, img)
	}
	return fmt.Errorf("%w: no encoder for %q", ErrUnknownFormat, format)
}

// Load decodes the image at path into a new framebuffer, choosing the
// decoder from the extension.
func Load(path string) (*framebuffer.FrameBuffer, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	fb, err := decodeAs(bufio.NewReader(f), format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fb, nil
}

// LoadBackground loads the image at path and scales it to width x height,
// ready to be rendered over.
func LoadBackground(path string, width, height int) (*framebuffer.FrameBuffer, error) {
	fb, err := Load(path)
	if err != nil {
		return nil, err
	}
	if fb.Width() == width && fb.Height() == height {
		return fb, nil
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: background size %dx%d", framebuffer.ErrInvalidArgument, width, height)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), fb, fb.Bounds(), draw.Src, nil)
	return framebuffer.FromImage(dst)
}

// Decode reads ppm, png, jpeg, bmp, tiff, webp or tga, recognizing the
// format by its leading bytes.
func Decode(r io.Reader) (*framebuffer.FrameBuffer, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)
	return decodeAs(br, Sniff(head))
}

// Sniff names the format whose signature starts head. Anything unrecognized
// is assumed to be TGA.
func Sniff(head []byte) string {
	for _, m := range magics {
		if m.match(head) {
			return m.format
		}
	}
	return "tga"
}

func decodeAs(r io.Reader, format string) (*framebuffer.FrameBuffer, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %q", ErrUnknownFormat, format)
	}
	img, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	if fb, ok := img.(*framebuffer.FrameBuffer); ok {
		return fb, nil
	}
	return framebuffer.FromImage(img)
}

// Downsample shrinks img by factor with Catmull-Rom filtering. The result is
// at least one pixel in each direction.
func Downsample(img image.Image, factor int) *image.NRGBA {
	b := img.Bounds()
	w := max(1, b.Dx()/factor)
	h := max(1, b.Dy()/factor)

	// Filter in premultiplied space so transparent pixels do not darken
	// their neighbors.
	premul := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(premul, premul.Bounds(), img, b, draw.Src, nil)

	dst := image.NewNRGBA(premul.Bounds())
	draw.Draw(dst, dst.Bounds(), premul, image.Point{}, draw.Src)
	return dst
}

func decodePPM(r io.Reader) (image.Image, error) {
	fb, err := framebuffer.ReadPPM(r)
	if err != nil {
		return nil, err
	}
	return fb, nil
}
