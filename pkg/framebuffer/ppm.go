package framebuffer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
)

// maxPPMPixels bounds the raster size a PPM header may claim.
const maxPPMPixels = 1 << 28

// WritePPM writes the whole framebuffer as a binary P6 PPM. Alpha is dropped.
func (fb *FrameBuffer) WritePPM(w io.Writer) error {
	return fb.WritePPMRegion(w, fb.Bounds())
}

// WritePPMRegion writes the rectangle r of the framebuffer as a binary P6 PPM.
func (fb *FrameBuffer) WritePPMRegion(w io.Writer, r image.Rectangle) error {
	if r.Empty() || !r.In(fb.Bounds()) {
		return fmt.Errorf("%w: region %v in %dx%d framebuffer", ErrOutOfBounds, r, fb.width, fb.height)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", r.Dx(), r.Dy())
	row := make([]byte, 0, r.Dx()*3)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row = row[:0]
		for x := r.Min.X; x < r.Max.X; x++ {
			i := fb.offset(x, y)
			row = append(row, fb.pix[i], fb.pix[i+1], fb.pix[i+2])
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("write ppm: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ppm: %w", err)
	}
	return nil
}

// WritePPM writes only the viewport rectangle as a binary P6 PPM.
func (vp *Viewport) WritePPM(w io.Writer) error {
	return vp.fb.WritePPMRegion(w, vp.Rect())
}

// SavePPM writes the framebuffer to a PPM file.
func (fb *FrameBuffer) SavePPM(path string) error {
	return savePPM(path, fb.WritePPM)
}

// SavePPM writes the viewport rectangle to a PPM file.
func (vp *Viewport) SavePPM(path string) error {
	return savePPM(path, vp.WritePPM)
}

func savePPM(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPPM decodes a binary P6 PPM. Header tokens may be separated by any
// whitespace and "#" comments. Every pixel gets alpha 255; a maxval below
// 255 is rescaled to the full byte range.
func ReadPPM(r io.Reader) (*FrameBuffer, error) {
	br := bufio.NewReader(r)

	var magic [2]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil || magic != [2]byte{'P', '6'} {
		return nil, ErrMissingMagicNumber
	}

	var header [3]int
	for i, name := range []string{"width", "height", "maxval"} {
		v, err := readHeaderInt(br)
		if err != nil {
			return nil, fmt.Errorf("%w: ppm %s: %v", ErrMalformedImage, name, err)
		}
		header[i] = v
	}
	width, height, maxval := header[0], header[1], header[2]
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: ppm size %dx%d", ErrMalformedImage, width, height)
	}
	if maxval <= 0 || maxval > 255 {
		return nil, fmt.Errorf("%w: ppm maxval %d", ErrMalformedImage, maxval)
	}
	// Exactly one whitespace byte separates the header from the raster.
	if b, err := br.ReadByte(); err != nil || !isSpace(b) {
		return nil, fmt.Errorf("%w: ppm header not terminated", ErrMalformedImage)
	}

	if width > maxPPMPixels/height {
		return nil, fmt.Errorf("%w: ppm size %dx%d too large", ErrMalformedImage, width, height)
	}

	// The raster buffer grows with the data actually read, so a header that
	// overstates the size fails as truncated without a huge allocation.
	want := int64(width) * int64(height) * 3
	var buf bytes.Buffer
	if n, err := io.CopyN(&buf, br, want); err != nil {
		if errors.Is(err, io.EOF) && n < want {
			return nil, fmt.Errorf("%w: ppm pixel data truncated", ErrMalformedImage)
		}
		return nil, fmt.Errorf("read ppm: %w", err)
	}
	raster := buf.Bytes()

	fb, err := New(width, height, Black)
	if err != nil {
		return nil, err
	}
	for p := range width * height {
		r, g, b := raster[3*p], raster[3*p+1], raster[3*p+2]
		if maxval != 255 {
			r, g, b = rescale(r, maxval), rescale(g, maxval), rescale(b, maxval)
		}
		fb.pix[4*p], fb.pix[4*p+1], fb.pix[4*p+2], fb.pix[4*p+3] = r, g, b, 255
	}
	return fb, nil
}

// LoadPPM reads a PPM file.
func LoadPPM(path string) (*FrameBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fb, err := ReadPPM(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fb, nil
}

// readHeaderInt skips whitespace and comments, then reads a decimal integer.
func readHeaderInt(br *bufio.Reader) (int, error) {
	b, err := br.ReadByte()
	for {
		if err != nil {
			return 0, err
		}
		switch {
		case b == '#':
			if _, err := br.ReadString('\n'); err != nil {
				return 0, err
			}
			b, err = br.ReadByte()
		case isSpace(b):
			b, err = br.ReadByte()
		case b >= '0' && b <= '9':
			v := 0
			for b >= '0' && b <= '9' {
				v = v*10 + int(b-'0')
				if v > 1<<24 {
					return 0, fmt.Errorf("value too large")
				}
				if b, err = br.ReadByte(); err != nil {
					return v, nil
				}
			}
			return v, br.UnreadByte()
		default:
			return 0, fmt.Errorf("unexpected byte %q", b)
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func rescale(v uint8, maxval int) uint8 {
	if int(v) >= maxval {
		return 255
	}
	return uint8((int(v)*255 + maxval/2) / maxval)
}
