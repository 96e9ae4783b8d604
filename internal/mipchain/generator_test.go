package mipchain

import (
	"errors"
	"testing"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

func newEditor(t *testing.T, w, h, d int, f pixel.Format, color imaging.ColorInfo) *imaging.Editor {
	t.Helper()
	buf := make([]byte, w*h*d*f.ByteSize())
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	if f.Type == pixel.Float16 {
		vals := make([]float32, w*h*d*f.Count)
		for i := range vals {
			vals[i] = float32(i%5) * 0.5
		}
		pixel.EncodeFloat32(buf, vals, f)
	}
	c, err := imaging.New(w, h, d, f, buf, color)
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	return imaging.NewEditor(c)
}

type recorder struct {
	values []float32
	stopAt float32
}

func (r *recorder) Report(p float32) bool {
	r.values = append(r.values, p)
	return r.stopAt > 0 && p >= r.stopAt
}

var rgb8 = pixel.Format{Type: pixel.UInt8, Count: 3}

func TestGenerate_Levels(t *testing.T) {
	tests := []struct {
		name    string
		w, h, d int
		want    int
	}{
		{"square", 256, 256, 1, 9},
		{"wide", 300, 7, 1, 9},
		{"volume", 4, 4, 8, 4},
		{"single texel", 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, tt.w, tt.h, tt.d, rgb8, imaging.ColorInfo{SRGB: true})
			levels, err := Collect(ed, DefaultOptions(), nil, nil)
			if err != nil {
				t.Fatalf("Collect failed: %v", err)
			}
			if len(levels) != tt.want {
				t.Fatalf("got %d levels, want %d", len(levels), tt.want)
			}
			if levels[0].Image.CalculateMipLevelCount() != len(levels) {
				t.Errorf("CalculateMipLevelCount %d disagrees with %d levels",
					levels[0].Image.CalculateMipLevelCount(), len(levels))
			}

			w, h, d := tt.w, tt.h, tt.d
			for i, lv := range levels {
				if lv.Index != i {
					t.Errorf("level %d has index %d", i, lv.Index)
				}
				if lv.Image.Width() != w || lv.Image.Height() != h || lv.Image.Depth() != d {
					t.Errorf("level %d: got %dx%dx%d, want %dx%dx%d", i,
						lv.Image.Width(), lv.Image.Height(), lv.Image.Depth(), w, h, d)
				}
				w, h, d = max(w/2, 1), max(h/2, 1), max(d/2, 1)
			}
			last := levels[len(levels)-1].Image
			if last.Width() != 1 || last.Height() != 1 || last.Depth() != 1 {
				t.Errorf("last level is %dx%dx%d", last.Width(), last.Height(), last.Depth())
			}
			if ed.Image() != last {
				t.Error("editor should hold the last level")
			}
		})
	}
}

func TestGenerate_Progress(t *testing.T) {
	ed := newEditor(t, 32, 32, 1, rgb8, imaging.ColorInfo{SRGB: true})
	rec := &recorder{}

	if _, err := Collect(ed, DefaultOptions(), nil, rec); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rec.values) == 0 {
		t.Fatal("no progress reported")
	}
	for i, v := range rec.values {
		if v < 0 || v > 1 {
			t.Errorf("report %d out of range: %v", i, v)
		}
		if i > 0 && v < rec.values[i-1] {
			t.Fatalf("progress went backwards at %d: %v -> %v", i, rec.values[i-1], v)
		}
	}
	if last := rec.values[len(rec.values)-1]; last != 1 {
		t.Errorf("final report: got %v, want 1", last)
	}
}

func TestGenerate_CancelAfterFirstLevel(t *testing.T) {
	ed := newEditor(t, 64, 64, 1, rgb8, imaging.ColorInfo{SRGB: true})
	total := ed.CalculateMipLevelCount()
	rec := &recorder{stopAt: 1 / float32(total)}

	levels, err := Collect(ed, DefaultOptions(), nil, rec)
	if !imaging.IsCancelled(err) {
		t.Fatalf("got %v, want Cancelled", err)
	}
	if len(levels) != 1 {
		t.Errorf("got %d levels, want 1", len(levels))
	}
	if ed.Width() != 64 {
		t.Error("cancelled chain still downsampled")
	}
}

func TestGenerate_PayloadError(t *testing.T) {
	ed := newEditor(t, 8, 8, 1, rgb8, imaging.ColorInfo{SRGB: true})
	boom := errors.New("boom")

	levels, err := Collect(ed, DefaultOptions(), func(lv *Level, _ progress.Sink) error {
		if lv.Index == 2 {
			return boom
		}
		return nil
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if len(levels) != 2 {
		t.Errorf("got %d levels, want 2", len(levels))
	}
}

func TestGenerate_EmitError(t *testing.T) {
	ed := newEditor(t, 8, 8, 1, rgb8, imaging.ColorInfo{SRGB: true})
	stop := errors.New("stop")

	calls := 0
	err := Generate(ed, DefaultOptions(), nil, func(Level) error {
		calls++
		return stop
	}, nil)
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("got %v after %d calls, want stop after 1", err, calls)
	}
}

func TestGenerate_InvalidAlgorithm(t *testing.T) {
	ed := newEditor(t, 8, 8, 1, rgb8, imaging.ColorInfo{SRGB: true})

	levels, err := Collect(ed, Options{Algorithm: -1}, nil, nil)
	if imaging.KindOf(err) != imaging.CompressionFailure {
		t.Errorf("got %v, want CompressionFailure", err)
	}
	if len(levels) != 1 {
		t.Errorf("got %d levels, want 1", len(levels))
	}
}

func TestCompressChain(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		levels int
	}{
		{"64x32", 64, 32, 7},
		{"256x256", 256, 256, 9},
		{"300x20", 300, 20, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, tt.w, tt.h, 1, rgb8, imaging.ColorInfo{SRGB: true})
			rec := &recorder{}

			levels, err := CollectCompressed(ed, CompressOptions{
				Mip:        DefaultOptions(),
				BlockSize:  astc.BlockSize{X: 4, Y: 4, Z: 1},
				Quality:    60,
				Decompress: true,
			}, rec)
			if err != nil {
				t.Fatalf("CollectCompressed failed: %v", err)
			}
			if len(levels) != tt.levels {
				t.Fatalf("got %d levels, want %d", len(levels), tt.levels)
			}
			for _, lv := range levels {
				if lv.Compressed == nil || lv.Decompressed == nil {
					t.Fatalf("level %d missing outputs", lv.Index)
				}
				h := lv.Compressed.Header
				if h.Width != lv.Image.Width() || h.Height != lv.Image.Height() {
					t.Errorf("level %d header %dx%d, image %dx%d", lv.Index, h.Width, h.Height, lv.Image.Width(), lv.Image.Height())
				}
				if lv.Compressed.Size() != h.BlockCount()*astc.BlockBytes {
					t.Errorf("level %d payload %d bytes", lv.Index, lv.Compressed.Size())
				}
				if lv.Decompressed.Width() != lv.Image.Width() || lv.Decompressed.Height() != lv.Image.Height() {
					t.Errorf("level %d decompressed %dx%d, image %dx%d", lv.Index,
						lv.Decompressed.Width(), lv.Decompressed.Height(), lv.Image.Width(), lv.Image.Height())
				}
				if lv.Image.ComponentType() != pixel.Float16 || !lv.Image.IsLinear() {
					t.Errorf("level %d not promoted and linearized: %v %+v", lv.Index, lv.Image.Format(), lv.Image.ColorInfo())
				}
			}
			last := levels[len(levels)-1].Image
			if last.Width() != 1 || last.Height() != 1 {
				t.Errorf("last level %dx%d, want 1x1", last.Width(), last.Height())
			}
			if rec.values[len(rec.values)-1] != 1 {
				t.Errorf("final report: got %v, want 1", rec.values[len(rec.values)-1])
			}
			for i := 1; i < len(rec.values); i++ {
				if rec.values[i] < rec.values[i-1] {
					t.Fatalf("progress went backwards at %d", i)
				}
			}
		})
	}
}

func TestCompressChain_HDRAlpha(t *testing.T) {
	f := pixel.Format{Type: pixel.Float16, Count: 4}
	ed := newEditor(t, 8, 8, 1, f, imaging.ColorInfo{Linear: true, HDR: true})

	levels, err := CollectCompressed(ed, CompressOptions{
		Mip:       DefaultOptions(),
		BlockSize: astc.BlockSize{X: 4, Y: 4, Z: 1},
	}, nil)
	if err != nil {
		t.Fatalf("CollectCompressed failed: %v", err)
	}
	for _, lv := range levels {
		if lv.Compressed.Profile != astc.ProfileHDRRGBLDRAlpha {
			t.Errorf("level %d profile: got %v", lv.Index, lv.Compressed.Profile)
		}
	}
}

func TestCompressChain_Cancelled(t *testing.T) {
	ed := newEditor(t, 16, 16, 1, rgb8, imaging.ColorInfo{SRGB: true})
	cancel := progress.Func(func(float32) bool { return true })

	levels, err := CollectCompressed(ed, CompressOptions{
		Mip:       DefaultOptions(),
		BlockSize: astc.BlockSize{X: 4, Y: 4, Z: 1},
	}, cancel)
	if !imaging.IsCancelled(err) {
		t.Fatalf("got %v, want Cancelled", err)
	}
	if len(levels) != 0 {
		t.Errorf("got %d levels, want 0", len(levels))
	}
}

func TestIsNormalMapPath(t *testing.T) {
	tests := []struct {
		path string
		hdr  bool
		want bool
	}{
		{"brick_normal.png", false, true},
		{"textures/Normals/rock.png", false, true},
		{"brick_normal.hdr", true, false},
		{"albedo.png", false, false},
	}
	for _, tt := range tests {
		if got := IsNormalMapPath(tt.path, tt.hdr); got != tt.want {
			t.Errorf("IsNormalMapPath(%q, %v): got %v, want %v", tt.path, tt.hdr, got, tt.want)
		}
	}
}
