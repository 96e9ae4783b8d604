package imaging

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

var exrMagic = []byte{0x76, 0x2F, 0x31, 0x01}

func isOpenEXR(data []byte) bool {
	return bytes.HasPrefix(data, exrMagic)
}

// decodeOpenEXR reads the RGBA view of the first part of an OpenEXR file
// into Float16 texels. Files without an A channel decode to three
// components.
func decodeOpenEXR(data []byte) (*Decoded, error) {
	f, err := exr.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("openexr: %w", err)
	}
	h := f.Header(0)
	if h == nil {
		return nil, errors.New("openexr: no header")
	}
	dw := h.DataWindow()
	if err := checkSize("openexr", int(dw.Width()), int(dw.Height())); err != nil {
		return nil, err
	}
	count := 3
	if cl := h.Channels(); cl != nil {
		for i := 0; i < cl.Len(); i++ {
			if cl.At(i).Name == "A" {
				count = 4
			}
		}
	}

	in, err := exr.NewRGBAInputFile(f)
	if err != nil {
		return nil, fmt.Errorf("openexr: %w", err)
	}
	img, err := in.ReadRGBA()
	if err != nil {
		return nil, fmt.Errorf("openexr: %w", err)
	}

	w, ht := img.Rect.Dx(), img.Rect.Dy()
	vals := make([]float32, 0, w*ht*count)
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.RGBA(x, y)
			vals = append(vals, r, g, b)
			if count == 4 {
				vals = append(vals, a)
			}
		}
	}

	format := pixel.Format{Type: pixel.Float16, Count: count}
	buf := make([]byte, len(vals)*2)
	pixel.EncodeFloat32(buf, vals, format)
	return &Decoded{Width: w, Height: ht, Depth: 1, Format: format, Pixels: buf, HDR: true, FileFormat: "exr"}, nil
}
