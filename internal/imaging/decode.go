package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/x448/float16"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

// Decoded is the raw output of a Decoder, before color classification.
type Decoded struct {
	Width, Height, Depth int
	Format               pixel.Format
	Pixels               []byte

	// ICC holds an embedded ICC profile, if the file carried one.
	ICC []byte
	// SRGBIntent is set when the file declares sRGB without embedding a
	// profile (the PNG sRGB chunk).
	SRGBIntent bool
	// HDR marks floating-point source data.
	HDR bool
	// FileFormat names the container format, such as "png" or "hdr".
	FileFormat string
}

// Decoder turns a file into texels. It is the seam for plugging in other
// image libraries.
type Decoder interface {
	Decode(path string) (*Decoded, error)
}

// DecoderFunc adapts a function to a Decoder.
type DecoderFunc func(path string) (*Decoded, error)

// Decode calls f.
func (f DecoderFunc) Decode(path string) (*Decoded, error) { return f(path) }

// FileDecoder is the default Decoder.
//
// It recognizes PNG, JPEG and GIF through the standard library, BMP, TIFF
// and WebP through golang.org/x/image, Radiance RGBE (.hdr) through
// mdouchement/hdr, OpenEXR through go-openexr and Truevision TGA. Embedded
// ICC profiles are read with prism. 8-bit sources decode to UInt8; 16-bit,
// Radiance and OpenEXR sources decode to Float16.
type FileDecoder struct{}

var errUnknownFormat = errors.New("unrecognized image format")

// maxTexels bounds the size a header may declare before pixel buffers are
// allocated.
const maxTexels = 1 << 28

func checkSize(format string, w, h int) error {
	if w < 1 || h < 1 || w > maxTexels/h {
		return fmt.Errorf("%s: invalid size %dx%d", format, w, h)
	}
	return nil
}

// Decode implements Decoder.
func (FileDecoder) Decode(path string) (*Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case isRadiance(data):
		return decodeRadiance(data)
	case isOpenEXR(data):
		return decodeOpenEXR(data)
	case ext == ".tga":
		return decodeTGA(data)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", errUnknownFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	d := fromImage(img)
	d.FileFormat = format
	switch format {
	case "png", "jpeg", "webp":
		d.ICC, err = embeddedProfile(data)
		d.SRGBIntent = format == "png" && hasSRGBChunk(data)
	}
	if err != nil {
		Logger().Warn("ignoring unreadable embedded profile", "path", path, "err", err)
		d.ICC = nil
	}
	return d, nil
}

// fromImage converts a decoded image.Image into packed texels.
func fromImage(img image.Image) *Decoded {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	d := &Decoded{Width: w, Height: h, Depth: 1}

	switch src := img.(type) {
	case *image.Gray:
		d.Format = pixel.Format{Type: pixel.UInt8, Count: 1}
		d.Pixels = make([]byte, 0, w*h)
		for y := 0; y < h; y++ {
			off := y * src.Stride
			d.Pixels = append(d.Pixels, src.Pix[off:off+w]...)
		}
		return d
	case *image.Gray16:
		d.Format = pixel.Format{Type: pixel.Float16, Count: 1}
		d.Pixels = make([]byte, w*h*2)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				putHalf(d.Pixels[(y*w+x)*2:], float32(v)/65535)
			}
		}
		return d
	case *image.NRGBA64, *image.RGBA64:
		count := 4
		if img.(interface{ Opaque() bool }).Opaque() {
			count = 3
		}
		d.Format = pixel.Format{Type: pixel.Float16, Count: count}
		d.Pixels = make([]byte, w*h*count*2)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				px := d.Pixels[(y*w+x)*count*2:]
				vals := [4]uint16{c.R, c.G, c.B, c.A}
				for i := 0; i < count; i++ {
					putHalf(px[i*2:], float32(vals[i])/65535)
				}
			}
		}
		return d
	}

	nrgba := imaging.Clone(img)
	count := 3
	for i := 3; i < len(nrgba.Pix); i += 4 {
		if nrgba.Pix[i] != 0xFF {
			count = 4
			break
		}
	}
	d.Format = pixel.Format{Type: pixel.UInt8, Count: count}
	if count == 4 {
		d.Pixels = nrgba.Pix
		return d
	}
	d.Pixels = make([]byte, 0, w*h*3)
	for i := 0; i < len(nrgba.Pix); i += 4 {
		d.Pixels = append(d.Pixels, nrgba.Pix[i:i+3]...)
	}
	return d
}

func putHalf(b []byte, v float32) {
	binary.LittleEndian.PutUint16(b, float16.Fromfloat32(v).Bits())
}
