package imaging

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		w, h, d int
		format  pixel.Format
		size    int
		want    ErrorKind
	}{
		{"unknown type", 2, 2, 1, pixel.Format{Type: pixel.ComponentType(9), Count: 3}, 12, UnsupportedPixelFormat},
		{"zero components", 2, 2, 1, pixel.Format{Type: pixel.UInt8, Count: 0}, 0, UnsupportedComponentCount},
		{"five components", 2, 2, 1, pixel.Format{Type: pixel.UInt8, Count: 5}, 20, UnsupportedComponentCount},
		{"zero width", 0, 2, 1, rgb8, 0, Other},
		{"short buffer", 2, 2, 1, rgb8, 11, Other},
		{"long buffer", 2, 2, 1, rgb8, 13, Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.d, tt.format, make([]byte, tt.size), ColorInfo{})
			if err == nil {
				t.Fatal("New should fail")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("kind: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_CopiesContents(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	c, err := New(1, 1, 1, rgba8, buf, ColorInfo{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	buf[0] = 99
	if got := c.Contents()[0]; got != 1 {
		t.Errorf("container aliases caller buffer: got %d, want 1", got)
	}

	out := c.Contents()
	out[1] = 99
	if got := c.Contents()[1]; got != 2 {
		t.Errorf("Contents returned internal buffer: got %d, want 2", got)
	}
}

func TestCalculateMipLevelCount(t *testing.T) {
	tests := []struct {
		w, h, d int
		want    int
	}{
		{1, 1, 1, 1},
		{2, 2, 1, 2},
		{256, 256, 1, 9},
		{256, 64, 1, 9},
		{255, 1, 1, 8},
		{300, 200, 1, 9},
		{4, 4, 16, 5},
	}
	for _, tt := range tests {
		c := fromFloats(t, tt.w, tt.h, tt.d, pixel.Format{Type: pixel.UInt8, Count: 1},
			make([]float32, tt.w*tt.h*tt.d), ColorInfo{})
		if got := c.CalculateMipLevelCount(); got != tt.want {
			t.Errorf("%dx%dx%d: got %d levels, want %d", tt.w, tt.h, tt.d, got, tt.want)
		}
	}
}

func TestMipLevelCountMatchesHalvingChain(t *testing.T) {
	for _, size := range [][3]int{{256, 256, 1}, {300, 7, 1}, {5, 3, 9}, {1, 1, 1}} {
		w, h, d := size[0], size[1], size[2]
		levels := 1
		for w > 1 || h > 1 || d > 1 {
			w, h, d = resample.HalfSize(w, h, d)
			levels++
		}
		c := fromFloats(t, size[0], size[1], size[2], pixel.Format{Type: pixel.UInt8, Count: 1},
			make([]float32, size[0]*size[1]*size[2]), ColorInfo{})
		if got := c.CalculateMipLevelCount(); got != levels {
			t.Errorf("%v: count %d, chain has %d levels", size, got, levels)
		}
	}
}

func TestCreatePromoted(t *testing.T) {
	c, err := New(2, 1, 1, rgb8, []byte{0, 128, 255, 51, 102, 204}, srgb)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p, err := c.CreatePromoted(pixel.Float16)
	if err != nil {
		t.Fatalf("CreatePromoted failed: %v", err)
	}
	if p.ComponentType() != pixel.Float16 || p.NumComponents() != 3 {
		t.Errorf("format: got %v", p.Format())
	}
	if p.ColorInfo() != c.ColorInfo() {
		t.Errorf("color info changed: got %+v, want %+v", p.ColorInfo(), c.ColorInfo())
	}
	want := []float32{0, 128.0 / 255, 1, 0.2, 0.4, 0.8}
	got := p.floats()
	for i := range want {
		if !approx(got[i], want[i], 1e-3) {
			t.Errorf("component %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if c.ComponentType() != pixel.UInt8 {
		t.Error("source container was modified")
	}

	back, err := p.CreatePromoted(pixel.UInt8)
	if err != nil {
		t.Fatalf("CreatePromoted back failed: %v", err)
	}
	if diff := cmp.Diff(c.Contents(), back.Contents()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.CreatePromoted(pixel.ComponentType(42)); KindOf(err) != UnsupportedPixelFormat {
		t.Errorf("invalid type: got %v, want UnsupportedPixelFormat", err)
	}
}

func TestCreateDownsampled(t *testing.T) {
	vals := make([]float32, 0, 16*3)
	img := quadrantImage(4, 4)
	for i := 0; i < 16; i++ {
		for k := 0; k < 3; k++ {
			vals = append(vals, float32(img.Pix[i*4+k])/255)
		}
	}
	c := fromFloats(t, 4, 4, 1, rgb8, vals, srgb)

	half, err := c.CreateDownsampled(resample.Box, 0, false, nil)
	if err != nil {
		t.Fatalf("CreateDownsampled failed: %v", err)
	}
	if half.Width() != 2 || half.Height() != 2 || half.Depth() != 1 {
		t.Fatalf("size: got %dx%dx%d, want 2x2x1", half.Width(), half.Height(), half.Depth())
	}
	want := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}
	if diff := cmp.Diff(want, half.Contents()); diff != "" {
		t.Errorf("texels mismatch (-want +got):\n%s", diff)
	}
	if !half.IsSRGB() {
		t.Error("color info lost")
	}
	if c.Width() != 4 {
		t.Error("source container was modified")
	}
}

func TestCreateResampled_Errors(t *testing.T) {
	c := fromFloats(t, 8, 8, 1, rgb8, constant(64, 3, 0.5), srgb)

	_, err := c.CreateResampled(ResampleOptions{Algorithm: resample.Lanczos, Width: 16, Height: 8, Depth: 1}, nil)
	if KindOf(err) != CompressionFailure {
		t.Errorf("upscale: got %v, want CompressionFailure", err)
	}

	_, err = c.CreateResampled(ResampleOptions{Algorithm: resample.Algorithm(99), Width: 4, Height: 4, Depth: 1}, nil)
	if KindOf(err) != CompressionFailure {
		t.Errorf("unknown algorithm: got %v, want CompressionFailure", err)
	}
}

func TestCreateDownsampled_Cancelled(t *testing.T) {
	c := fromFloats(t, 64, 64, 1, rgb8, constant(64*64, 3, 0.5), srgb)
	cancel := progress.Func(func(float32) bool { return true })

	out, err := c.CreateDownsampled(resample.Lanczos, 3, false, cancel)
	if out != nil {
		t.Error("cancelled downsample returned an image")
	}
	if !IsCancelled(err) {
		t.Errorf("got %v, want Cancelled", err)
	}
}

func TestCreateDownsampled_Int8Renormalize(t *testing.T) {
	// (0.6, 0.8, 0) is a unit vector and must stay one after filtering.
	vals := make([]float32, 0, 16*3)
	for i := 0; i < 16; i++ {
		vals = append(vals, 0.6, 0.8, 0)
	}
	c := fromFloats(t, 4, 4, 1, pixel.Format{Type: pixel.Int8, Count: 3}, vals, ColorInfo{Linear: true})

	half, err := c.CreateDownsampled(resample.Lanczos, 3, true, nil)
	if err != nil {
		t.Fatalf("CreateDownsampled failed: %v", err)
	}
	got := half.floats()
	for i := 0; i < half.TexelCount(); i++ {
		x, y := got[i*3], got[i*3+1]
		if !approx(x, 0.6, 0.02) || !approx(y, 0.8, 0.02) {
			t.Errorf("texel %d: got (%v, %v), want (0.6, 0.8)", i, x, y)
		}
	}
}
