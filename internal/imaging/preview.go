package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

// PreviewResult contains a PNG rendering of one slice of an image.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Slice       int    `json:"slice"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ToImage renders slice z as a standard library image.
//
// UInt8 data becomes *image.NRGBA; Float16 data becomes *image.NRGBA64
// with values clamped to [0, 1]. Int8 data is remapped from [-1, 1]. No
// color conversion happens: linear data is shown as stored.
func (c *Container) ToImage(z int) (image.Image, error) {
	if z < 0 || z >= c.depth {
		return nil, fmt.Errorf("slice %d outside image depth %d", z, c.depth)
	}
	rect := image.Rect(0, 0, c.width, c.height)
	n := c.format.Count
	size := c.format.Type.Size()
	texel := func(i int) [4]float32 {
		base := (z*c.width*c.height + i) * c.format.ByteSize()
		vals := make([]float32, n)
		for k := range vals {
			vals[k] = pixel.Component(c.contents, base+k*size, c.format.Type)
		}
		return displayRGBA(vals, c.format.Type)
	}

	if c.format.Type == pixel.Float16 {
		img := image.NewNRGBA64(rect)
		for i := 0; i < c.width*c.height; i++ {
			px := texel(i)
			for k := 0; k < 4; k++ {
				v := uint16(px[k]*65535 + 0.5)
				img.Pix[i*8+k*2] = byte(v >> 8)
				img.Pix[i*8+k*2+1] = byte(v)
			}
		}
		return img, nil
	}
	img := image.NewNRGBA(rect)
	for i := 0; i < c.width*c.height; i++ {
		px := texel(i)
		for k := 0; k < 4; k++ {
			img.Pix[i*4+k] = to8(px[k])
		}
	}
	return img, nil
}

// EncodePNG writes slice z as a PNG.
func (c *Container) EncodePNG(w io.Writer, z int) error {
	img, err := c.ToImage(z)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// Preview renders slice z as a base64 PNG, scaled down with Lanczos to fit
// within maxSize×maxSize when maxSize is positive. Previews are never
// scaled up.
func (c *Container) Preview(z, maxSize int) (*PreviewResult, error) {
	img, err := c.ToImage(z)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && (c.width > maxSize || c.height > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Slice:       z,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
