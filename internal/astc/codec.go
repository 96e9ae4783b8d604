package astc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

// ErrUnsupportedBlock is returned when a codec meets a block encoding it
// cannot decode.
var ErrUnsupportedBlock = errors.New("astc: unsupported block encoding")

// Image is an RGBA float volume handed to and returned from a Codec.
type Image struct {
	Width, Height, Depth int
	// Pix holds four interleaved components per texel.
	Pix []float32
}

func (im Image) validate() error {
	if im.Width < 1 || im.Height < 1 || im.Depth < 1 {
		return fmt.Errorf("%w: %dx%dx%d", ErrBadImage, im.Width, im.Height, im.Depth)
	}
	if len(im.Pix) != im.Width*im.Height*im.Depth*4 {
		return fmt.Errorf("%w: %d values for %dx%dx%d RGBA", ErrBadImage, len(im.Pix), im.Width, im.Height, im.Depth)
	}
	return nil
}

// Codec compresses RGBA volumes to ASTC blocks and back.
//
// Encode reports progress in [0, 1] to sink and returns
// progress.ErrCancelled, with no output, when the sink asks to stop.
type Codec interface {
	Encode(img Image, cfg Config, sink progress.Sink) ([]byte, error)
	Decode(blocks []byte, h Header, profile Profile) (Image, error)
}

var (
	constPrefixUNorm16 = [8]byte{0xFC, 0xFD, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	constPrefixFP16    = [8]byte{0xFC, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// ConstantCodec stores every block as a constant-color block holding the
// block's mean color. It trades all spatial detail inside a footprint for
// an encoder that any ASTC decoder reads back exactly.
type ConstantCodec struct{}

// Encode implements Codec.
func (ConstantCodec) Encode(img Image, cfg Config, sink progress.Sink) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := img.validate(); err != nil {
		return nil, err
	}
	b := cfg.BlockSize
	if b.Is3D() && img.Depth == 1 {
		return nil, fmt.Errorf("%w: %v footprint on a 2D image", ErrBadImage, b)
	}

	bx, by, bz := b.Blocks(img.Width, img.Height, img.Depth)
	out := make([]byte, 0, bx*by*bz*BlockBytes)
	rows := by * bz
	for row := 0; row < rows; row++ {
		if err := progress.Check(sink, float32(row)/float32(rows)); err != nil {
			return nil, err
		}
		z, y := row/by, row%by
		for x := 0; x < bx; x++ {
			c := blockMean(img, b, x, y, z)
			if cfg.Flags&FlagMapNormal != 0 {
				c = [4]float64{c[0], c[0], c[0], c[1]}
			}
			block := encodeConstant(c, cfg.Profile)
			out = append(out, block[:]...)
		}
	}
	if err := progress.Check(sink, 1); err != nil {
		return nil, err
	}
	return out, nil
}

func blockMean(img Image, b BlockSize, bx, by, bz int) [4]float64 {
	var sum [4]float64
	n := 0
	for z := bz * b.Z; z < min((bz+1)*b.Z, img.Depth); z++ {
		for y := by * b.Y; y < min((by+1)*b.Y, img.Height); y++ {
			row := ((z*img.Height + y) * img.Width) * 4
			for x := bx * b.X; x < min((bx+1)*b.X, img.Width); x++ {
				px := img.Pix[row+x*4:]
				for c := 0; c < 4; c++ {
					sum[c] += float64(px[c])
				}
				n++
			}
		}
	}
	for c := range sum {
		sum[c] /= float64(n)
	}
	return sum
}

func encodeConstant(c [4]float64, p Profile) [BlockBytes]byte {
	var out [BlockBytes]byte
	if !p.IsHDR() {
		copy(out[:8], constPrefixUNorm16[:])
		for i := 0; i < 4; i++ {
			v := math.Round(clamp01(c[i]) * 65535)
			binary.LittleEndian.PutUint16(out[8+2*i:], uint16(v))
		}
		return out
	}
	copy(out[:8], constPrefixFP16[:])
	for i := 0; i < 4; i++ {
		v := math.Max(c[i], 0)
		if i == 3 && p == ProfileHDRRGBLDRAlpha {
			v = clamp01(v)
		}
		binary.LittleEndian.PutUint16(out[8+2*i:], float16.Fromfloat32(float32(v)).Bits())
	}
	return out
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Decode implements Codec for constant-color blocks.
func (ConstantCodec) Decode(blocks []byte, h Header, profile Profile) (Image, error) {
	if err := h.validate(); err != nil {
		return Image{}, err
	}
	want, err := h.payloadSize(len(blocks))
	if err != nil {
		return Image{}, err
	}
	if len(blocks) != want {
		return Image{}, fmt.Errorf("%w: %d payload bytes, want %d", ErrBadHeader, len(blocks), want)
	}
	img := Image{Width: h.Width, Height: h.Height, Depth: h.Depth}
	img.Pix = make([]float32, h.Width*h.Height*h.Depth*4)

	bx, by, _ := h.Block.Blocks(h.Width, h.Height, h.Depth)
	for i := 0; i < len(blocks)/BlockBytes; i++ {
		c, err := decodeConstant(blocks[i*BlockBytes:(i+1)*BlockBytes], profile)
		if err != nil {
			return Image{}, fmt.Errorf("block %d: %w", i, err)
		}
		x0, y0, z0 := (i%bx)*h.Block.X, (i/bx%by)*h.Block.Y, (i/(bx*by))*h.Block.Z
		for z := z0; z < min(z0+h.Block.Z, h.Depth); z++ {
			for y := y0; y < min(y0+h.Block.Y, h.Height); y++ {
				for x := x0; x < min(x0+h.Block.X, h.Width); x++ {
					copy(img.Pix[((z*h.Height+y)*h.Width+x)*4:], c[:])
				}
			}
		}
	}
	return img, nil
}

func decodeConstant(block []byte, p Profile) ([4]float32, error) {
	var c [4]float32
	switch [8]byte(block[:8]) {
	case constPrefixUNorm16:
		for i := range c {
			c[i] = float32(binary.LittleEndian.Uint16(block[8+2*i:])) / 65535
		}
	case constPrefixFP16:
		if !p.IsHDR() {
			return c, fmt.Errorf("%w: HDR constant block in %v stream", ErrUnsupportedBlock, p)
		}
		for i := range c {
			c[i] = float16.Frombits(binary.LittleEndian.Uint16(block[8+2*i:])).Float32()
		}
	default:
		return c, ErrUnsupportedBlock
	}
	return c, nil
}
