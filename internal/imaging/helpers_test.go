package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

// writePNG encodes img into a temporary directory and returns the path.
func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// writeFile stores raw bytes under name in a temporary directory.
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// solidImage creates a width × height image filled with c.
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// quadrantImage creates an image with red top-left, green top-right, blue
// bottom-left and white bottom-right quadrants.
func quadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// fromFloats builds a container from normalized component values.
func fromFloats(t *testing.T, w, h, d int, f pixel.Format, vals []float32, color ColorInfo) *Container {
	t.Helper()
	buf := make([]byte, len(vals)*f.Type.Size())
	pixel.EncodeFloat32(buf, vals, f)
	c, err := New(w, h, d, f, buf, color)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

// constant returns n texels of count components, all set to v.
func constant(n, count int, v float32) []float32 {
	vals := make([]float32, n*count)
	for i := range vals {
		vals[i] = v
	}
	return vals
}

func approx(a, b, tol float32) bool {
	d := a - b
	return d <= tol && d >= -tol
}

var (
	rgb8  = pixel.Format{Type: pixel.UInt8, Count: 3}
	rgba8 = pixel.Format{Type: pixel.UInt8, Count: 4}
	rgbH  = pixel.Format{Type: pixel.Float16, Count: 3}
	srgb  = ColorInfo{SRGB: true}
)
