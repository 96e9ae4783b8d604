package imaging

import (
	"bytes"
	"fmt"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

func isRadiance(data []byte) bool {
	return bytes.HasPrefix(data, []byte("#?RADIANCE")) || bytes.HasPrefix(data, []byte("#?RGBE"))
}

// decodeRadiance reads a Radiance RGBE file into three Float16 components.
func decodeRadiance(data []byte) (*Decoded, error) {
	cfg, err := rgbe.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("radiance header: %w", err)
	}
	if err := checkSize("radiance", cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, err := rgbe.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("radiance: %w", err)
	}
	src, ok := img.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("radiance: unexpected image type %T", img)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	vals := make([]float32, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.HDRAt(x, y).HDRRGBA()
			vals = append(vals, float32(r), float32(g), float32(bl))
		}
	}

	f := pixel.Format{Type: pixel.Float16, Count: 3}
	buf := make([]byte, len(vals)*2)
	pixel.EncodeFloat32(buf, vals, f)
	return &Decoded{Width: w, Height: h, Depth: 1, Format: f, Pixels: buf, HDR: true, FileFormat: "hdr"}, nil
}
