package imaging

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

var block4x4 = astc.BlockSize{X: 4, Y: 4, Z: 1}

// recorder collects reported progress and cancels once stopAt is reached.
type recorder struct {
	values []float32
	stopAt float32
}

func (r *recorder) Report(p float32) bool {
	r.values = append(r.values, p)
	return r.stopAt > 0 && p >= r.stopAt
}

func TestCreateASTCCompressed_SRGB(t *testing.T) {
	c := fromFloats(t, 256, 256, 1, rgb8, constant(256*256, 3, 128.0/255), srgb)
	if got := c.CalculateMipLevelCount(); got != 9 {
		t.Errorf("CalculateMipLevelCount: got %d, want 9", got)
	}

	rec := &recorder{}
	z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: block4x4, Quality: 60}, rec)
	if err != nil {
		t.Fatalf("CreateASTCCompressed failed: %v", err)
	}
	want := astc.Header{Block: block4x4, Width: 256, Height: 256, Depth: 1}
	if z.Header != want {
		t.Errorf("header: got %+v, want %+v", z.Header, want)
	}
	if z.Size() != 64*64*astc.BlockBytes {
		t.Errorf("size: got %d, want %d", z.Size(), 64*64*astc.BlockBytes)
	}
	if z.Profile != astc.ProfileLDR {
		t.Errorf("profile: got %v, want ldr (data is linearized)", z.Profile)
	}
	if !z.ColorInfo().Linear {
		t.Error("compressed data should be flagged linear")
	}

	if len(rec.values) == 0 || rec.values[len(rec.values)-1] != 1 {
		t.Errorf("progress did not finish at 1: %v", rec.values)
	}
	for i := 1; i < len(rec.values); i++ {
		if rec.values[i] < rec.values[i-1] {
			t.Fatalf("progress went backwards at %d: %v", i, rec.values[i-1:i+1])
		}
	}

	out, err := z.Decompress()
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if out.Width() != 256 || out.Height() != 256 || out.Format() != rgb8 {
		t.Errorf("decompressed: got %dx%d %v", out.Width(), out.Height(), out.Format())
	}
	// 128/255 in sRGB is 0.2159 linear, about 55/255.
	if got := out.Contents()[0]; got < 54 || got > 56 {
		t.Errorf("linearized value: got %d, want 55±1", got)
	}
	if c.ComponentType() != pixel.UInt8 || !c.IsSRGB() {
		t.Error("source container was modified")
	}
}

func TestCreateASTCCompressed_HDR(t *testing.T) {
	c := fromFloats(t, 10, 10, 1, pixel.Format{Type: pixel.Float16, Count: 4},
		constant(100, 4, 3), ColorInfo{Linear: true, HDR: true})

	z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: astc.BlockSize{X: 5, Y: 5, Z: 1}, ContainsAlpha: true}, nil)
	if err != nil {
		t.Fatalf("CreateASTCCompressed failed: %v", err)
	}
	if z.Profile != astc.ProfileHDR {
		t.Errorf("profile: got %v, want hdr", z.Profile)
	}
	out, err := z.Decompress()
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if out.ComponentType() != pixel.Float16 || out.NumComponents() != 4 {
		t.Errorf("format: got %v", out.Format())
	}
	if diff := cmp.Diff([]float32{3, 3, 3, 3}, out.floats()[:4]); diff != "" {
		t.Errorf("texel mismatch (-want +got):\n%s", diff)
	}

	z, err = c.CreateASTCCompressed(CompressOptions{BlockSize: block4x4, ContainsAlpha: true, LDRAlpha: true}, nil)
	if err != nil {
		t.Fatalf("CreateASTCCompressed with LDR alpha failed: %v", err)
	}
	if z.Profile != astc.ProfileHDRRGBLDRAlpha {
		t.Errorf("profile: got %v, want hdr-rgb-ldr-a", z.Profile)
	}
	out, err = z.Decompress()
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if a := out.floats()[3]; a != 1 {
		t.Errorf("alpha: got %v, want clamped to 1", a)
	}
}

func TestCreateASTCCompressed_AlphaDropped(t *testing.T) {
	c := fromFloats(t, 4, 4, 1, rgba8, constant(16, 4, 0.5), ColorInfo{Linear: true})

	z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: block4x4}, nil)
	if err != nil {
		t.Fatalf("CreateASTCCompressed failed: %v", err)
	}
	out, err := z.Decompress()
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if got := out.Contents()[3]; got != 255 {
		t.Errorf("alpha: got %d, want 255", got)
	}
}

func TestCreateASTCCompressed_Errors(t *testing.T) {
	flat := fromFloats(t, 8, 8, 1, rgb8, constant(64, 3, 0.5), srgb)

	tests := []struct {
		name string
		opts CompressOptions
	}{
		{"illegal block size", CompressOptions{BlockSize: astc.BlockSize{X: 7, Y: 7, Z: 1}}},
		{"quality too high", CompressOptions{BlockSize: block4x4, Quality: 101}},
		{"negative quality", CompressOptions{BlockSize: block4x4, Quality: -1}},
		{"3D footprint on 2D image", CompressOptions{BlockSize: astc.BlockSize{X: 4, Y: 4, Z: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := flat.CreateASTCCompressed(tt.opts, nil)
			if z != nil {
				t.Error("returned output on failure")
			}
			if KindOf(err) != CompressionFailure {
				t.Errorf("got %v, want CompressionFailure", err)
			}
		})
	}
}

func TestCreateASTCCompressed_Cancelled(t *testing.T) {
	c := fromFloats(t, 64, 64, 1, rgb8, constant(64*64, 3, 0.5), srgb)

	for _, stop := range []float32{0.1, 0.5, 0.75} {
		rec := &recorder{stopAt: stop}
		z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: block4x4}, rec)
		if z != nil {
			t.Errorf("stop at %v: returned output", stop)
		}
		if !IsCancelled(err) {
			t.Errorf("stop at %v: got %v, want Cancelled", stop, err)
		}
	}
}

func TestCreateASTCCompressed_ProfileFallback(t *testing.T) {
	c := fromFloats(t, 4, 4, 1, rgbH, constant(16, 3, 0.5), srgb)

	z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: block4x4, Transformer: failingTransformer{}}, nil)
	if err != nil {
		t.Fatalf("CreateASTCCompressed failed: %v", err)
	}
	if z.Profile != astc.ProfileLDRSRGB {
		t.Errorf("profile: got %v, want ldr-srgb when linearization is skipped", z.Profile)
	}
}

func TestCompressed_MarshalParse(t *testing.T) {
	c := fromFloats(t, 6, 6, 1, rgba8, constant(36, 4, 1), ColorInfo{Linear: true})
	z, err := c.CreateASTCCompressed(CompressOptions{BlockSize: astc.BlockSize{X: 6, Y: 6, Z: 1}, ContainsAlpha: true}, progress.Nop())
	if err != nil {
		t.Fatalf("CreateASTCCompressed failed: %v", err)
	}

	data, err := z.MarshalASTC()
	if err != nil {
		t.Fatalf("MarshalASTC failed: %v", err)
	}
	if len(data) != astc.HeaderSize+astc.BlockBytes {
		t.Errorf("file size: got %d, want %d", len(data), astc.HeaderSize+astc.BlockBytes)
	}

	back, err := ParseASTC(data, astc.ProfileLDR, nil)
	if err != nil {
		t.Fatalf("ParseASTC failed: %v", err)
	}
	if back.Header != z.Header {
		t.Errorf("header: got %+v, want %+v", back.Header, z.Header)
	}
	out, err := back.Decompress()
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if diff := cmp.Diff(c.Contents(), out.Contents()); diff != "" {
		t.Errorf("texels mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseASTC(data[:10], astc.ProfileLDR, nil); KindOf(err) != DecodeFailure {
		t.Errorf("truncated file: got %v, want DecodeFailure", err)
	}
}
