package imageio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/wirecast/pkg/framebuffer"
)

func testFrame(t *testing.T) *framebuffer.FrameBuffer {
	t.Helper()
	fb := framebuffer.MustNew(6, 4, framebuffer.Black)
	for x := range 6 {
		if err := fb.SetPixel(x, 1, framebuffer.Red); err != nil {
			t.Fatal(err)
		}
	}
	if err := fb.SetPixel(5, 3, framebuffer.RGB(10, 200, 30)); err != nil {
		t.Fatal(err)
	}
	return fb
}

func samePixels(t *testing.T, got, want *framebuffer.FrameBuffer) {
	t.Helper()
	if got.Width() != want.Width() || got.Height() != want.Height() {
		t.Fatalf("size = %dx%d, want %dx%d", got.Width(), got.Height(), want.Width(), want.Height())
	}
	for y := range want.Height() {
		for x := range want.Width() {
			g, _ := got.Pixel(x, y)
			w, _ := want.Pixel(x, y)
			if g != w {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func TestSaveLoadLossless(t *testing.T) {
	dir := t.TempDir()
	fb := testFrame(t)

	for _, ext := range []string{".ppm", ".png", ".bmp", ".tiff", ".tif", ".webp", ".tga"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "frame"+ext)
			if err := Save(path, fb, nil); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			samePixels(t, got, fb)
		})
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := Save(path, testFrame(t), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Width() != 6 || got.Height() != 4 {
		t.Errorf("size = %dx%d, want 6x4", got.Width(), got.Height())
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out.ppm", "ppm", false},
		{"OUT.PNG", "png", false},
		{"a/b/c.tif", "tiff", false},
		{"frame.webp", "webp", false},
		{"frame.gif", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("err = %v, want ErrUnknownFormat", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestDownsample(t *testing.T) {
	fb := framebuffer.MustNew(8, 6, framebuffer.Blue)
	small := Downsample(fb, 2)
	if b := small.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v, want 4x3", b)
	}
	for y := range 3 {
		for x := range 4 {
			if got := framebuffer.FromColor(small.At(x, y)); got != framebuffer.Blue {
				t.Fatalf("pixel (%d,%d) = %v, want blue", x, y, got)
			}
		}
	}

	if b := Downsample(fb, 100).Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("oversized factor bounds = %v, want 1x1", b)
	}
}

func TestEncodeDownsample(t *testing.T) {
	var buf bytes.Buffer
	fb := framebuffer.MustNew(8, 8, framebuffer.White)
	if err := Encode(&buf, "ppm", fb, &Options{Downsample: 4}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width() != 2 || got.Height() != 2 {
		t.Errorf("size = %dx%d, want 2x2", got.Width(), got.Height())
	}
}

func TestEncodeUnknown(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, "gif", testFrame(t), nil)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestDecodeSniffsFormat(t *testing.T) {
	fb := testFrame(t)
	for _, format := range []string{"ppm", "png", "bmp", "tiff", "webp", "tga"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, format, fb, nil); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := Sniff(buf.Bytes()); got != format {
				t.Errorf("Sniff = %q, want %q", got, format)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			samePixels(t, got, fb)
		})
	}
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, "jpeg", testFrame(t), nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width() != 6 || got.Height() != 4 {
		t.Errorf("size = %dx%d, want 6x4", got.Width(), got.Height())
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"ppm", "P6\n2 2\n255\n", "ppm"},
		{"png", "\x89PNG\r\n\x1a\n\x00\x00\x00\x0d", "png"},
		{"jpeg", "\xff\xd8\xff\xe0", "jpeg"},
		{"bmp", "BM\x00\x00", "bmp"},
		{"tiff little endian", "II*\x00\x08\x00", "tiff"},
		{"tiff big endian", "MM\x00*\x00\x00", "tiff"},
		{"webp", "RIFF\x10\x00\x00\x00WEBP", "webp"},
		{"riff without webp", "RIFF\x10\x00\x00\x00WAVE", "tga"},
		{"short", "P", "tga"},
		{"empty", "", "tga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff([]byte(tt.head)); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.head, got, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "frame.gif")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("gif err = %v, want ErrUnknownFormat", err)
	}

	// A PNG saved under a .ppm name goes to the PPM reader and fails there.
	path := filepath.Join(dir, "frame.ppm")
	if err := Save(filepath.Join(dir, "frame.png"), testFrame(t), nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(dir, "frame.png"), path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, framebuffer.ErrMalformedImage) {
		t.Errorf("mislabeled err = %v, want ErrMalformedImage", err)
	}
}

func TestLoadBackground(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	if err := Save(path, framebuffer.MustNew(4, 4, framebuffer.Green), nil); err != nil {
		t.Fatal(err)
	}

	same, err := LoadBackground(path, 4, 4)
	if err != nil {
		t.Fatalf("LoadBackground: %v", err)
	}
	if same.Width() != 4 || same.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", same.Width(), same.Height())
	}

	big, err := LoadBackground(path, 10, 6)
	if err != nil {
		t.Fatalf("LoadBackground: %v", err)
	}
	if big.Width() != 10 || big.Height() != 6 {
		t.Fatalf("size = %dx%d, want 10x6", big.Width(), big.Height())
	}
	for y := range 6 {
		for x := range 10 {
			if c, _ := big.Pixel(x, y); c != framebuffer.Green {
				t.Fatalf("pixel (%d,%d) = %v, want green", x, y, c)
			}
		}
	}

	if _, err := LoadBackground(path, 0, 3); !errors.Is(err, framebuffer.ErrInvalidArgument) {
		t.Errorf("zero width err = %v, want ErrInvalidArgument", err)
	}
}
