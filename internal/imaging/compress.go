package imaging

import (
	"math"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/colorprofile"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

// CompressOptions configure CreateASTCCompressed.
type CompressOptions struct {
	BlockSize astc.BlockSize
	// Quality is the encoder effort in [0, 100]; see the astc presets.
	Quality float32

	// ContainsAlpha keeps the alpha channel. When false alpha is encoded
	// as 1.
	ContainsAlpha bool
	// LDRAlpha keeps alpha in [0, 1] for HDR images.
	LDRAlpha bool
	// NormalMap encodes X and Y only and reconstructs Z on decompression.
	NormalMap bool

	// Codec overrides the default astc.ConstantCodec.
	Codec astc.Codec
	// Transformer overrides the color-management service used for
	// linearization.
	Transformer colorprofile.Transformer
}

// Progress budget of CreateASTCCompressed.
const (
	promoteDone   = 0.15
	linearizeDone = 0.5
)

// Compressed is an ASTC block stream plus what is needed to decode it.
type Compressed struct {
	Header  astc.Header
	Profile astc.Profile
	Flags   astc.Flags
	Blocks  []byte

	components int
	color      ColorInfo
	codec      astc.Codec
}

// CreateASTCCompressed encodes the image as ASTC blocks.
//
// The pipeline promotes the data to Float16, converts sRGB or profiled
// data to linear light, then runs the codec. The linearization step is
// best effort: when it fails the data is encoded as-is under the LDR sRGB
// profile and a warning is logged.
//
// Progress: promotion reports up to 0.15, linearization up to 0.5 and the
// codec fills the remaining half.
//
// # Errors
//
//   - CompressionFailure for an illegal block size, a quality outside
//     [0, 100], a 3D footprint on a 2D image, or a codec error
//   - Cancelled when sink asks to stop; no output is produced
func (c *Container) CreateASTCCompressed(opts CompressOptions, sink progress.Sink) (*Compressed, error) {
	const op = "compress"
	codec := opts.Codec
	if codec == nil {
		codec = astc.ConstantCodec{}
	}
	if err := opts.BlockSize.Validate(); err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	if err := astc.ValidateQuality(opts.Quality); err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	if opts.BlockSize.Is3D() && c.depth == 1 {
		return nil, errorf(op, CompressionFailure, "%v footprint on a 2D image", opts.BlockSize)
	}

	ed := NewEditor(c)
	ed.SetTransformer(opts.Transformer)
	if err := ed.SetComponentType(pixel.Float16); err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	if err := progress.Check(sink, promoteDone); err != nil {
		return nil, newError(op, Cancelled, err)
	}

	if err := ed.Linearize(); err != nil {
		Logger().Warn("linearization skipped, encoding as-is", "err", err)
	}
	if err := progress.Check(sink, linearizeDone); err != nil {
		return nil, newError(op, Cancelled, err)
	}

	src := ed.Image()
	cfg := astc.Config{
		Profile:   astcProfile(src.color, opts.LDRAlpha),
		BlockSize: opts.BlockSize,
		Quality:   opts.Quality,
	}
	if opts.NormalMap {
		cfg.Flags |= astc.FlagMapNormal
	}
	img := toRGBA(src, opts.ContainsAlpha, opts.NormalMap)
	blocks, err := codec.Encode(img, cfg, progress.Range(sink, linearizeDone, 1))
	if err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	return &Compressed{
		Header: astc.Header{
			Block:  opts.BlockSize,
			Width:  src.width,
			Height: src.height,
			Depth:  src.depth,
		},
		Profile:    cfg.Profile,
		Flags:      cfg.Flags,
		Blocks:     blocks,
		components: src.format.Count,
		color:      src.color,
		codec:      codec,
	}, nil
}

func astcProfile(color ColorInfo, ldrAlpha bool) astc.Profile {
	switch {
	case color.HDR && ldrAlpha:
		return astc.ProfileHDRRGBLDRAlpha
	case color.HDR:
		return astc.ProfileHDR
	case color.SRGB && !color.Linear:
		return astc.ProfileLDRSRGB
	}
	return astc.ProfileLDR
}

// toRGBA expands texels to the codec's four-channel layout.
func toRGBA(c *Container, keepAlpha, normalMap bool) astc.Image {
	vals := c.floats()
	n := c.format.Count
	out := make([]float32, c.TexelCount()*4)
	for i := 0; i < c.TexelCount(); i++ {
		s, d := vals[i*n:(i+1)*n], out[i*4:(i+1)*4]
		switch n {
		case 1:
			d[0], d[1], d[2], d[3] = s[0], s[0], s[0], 1
		case 2:
			if normalMap {
				d[0], d[1], d[2], d[3] = s[0], s[1], 0, 1
			} else {
				d[0], d[1], d[2], d[3] = s[0], s[0], s[0], s[1]
			}
		case 3:
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 1
		default:
			copy(d, s)
		}
		if !keepAlpha {
			d[3] = 1
		}
	}
	return astc.Image{Width: c.width, Height: c.height, Depth: c.depth, Pix: out}
}

// Size returns the payload size in bytes.
func (z *Compressed) Size() int { return len(z.Blocks) }

// MarshalASTC returns the stream as a .astc file.
func (z *Compressed) MarshalASTC() ([]byte, error) {
	data, err := astc.MarshalFile(z.Header, z.Blocks)
	if err != nil {
		return nil, newError("marshal astc", CompressionFailure, err)
	}
	return data, nil
}

// Decompress decodes the blocks into a container with the source's
// dimensions and component count: Float16 for HDR streams, UInt8
// otherwise. Normal maps get their Z component rebuilt from X and Y.
func (z *Compressed) Decompress() (*Container, error) {
	const op = "decompress"
	img, err := z.codec.Decode(z.Blocks, z.Header, z.Profile)
	if err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	n := z.components
	vals := make([]float32, len(img.Pix)/4*n)
	for i := 0; i < len(img.Pix)/4; i++ {
		s, d := img.Pix[i*4:(i+1)*4], vals[i*n:(i+1)*n]
		if z.Flags&astc.FlagMapNormal != 0 {
			s = rebuildNormal(s[0], s[3])
		}
		switch n {
		case 1:
			d[0] = s[0]
		case 2:
			if z.Flags&astc.FlagMapNormal != 0 {
				d[0], d[1] = s[0], s[1]
			} else {
				d[0], d[1] = s[0], s[3]
			}
		default:
			copy(d, s[:n])
		}
	}

	ct := pixel.UInt8
	if z.Profile.IsHDR() {
		ct = pixel.Float16
	}
	f := pixel.Format{Type: ct, Count: n}
	buf := make([]byte, len(vals)*ct.Size())
	pixel.EncodeFloat32(buf, vals, f)
	return newOwned(z.Header.Width, z.Header.Height, z.Header.Depth, f, buf, z.color), nil
}

// rebuildNormal turns an (X, Y) pair in [0, 1] into a unit normal in
// [0, 1] encoding.
func rebuildNormal(x, y float32) []float32 {
	nx, ny := float64(x)*2-1, float64(y)*2-1
	nz := math.Sqrt(math.Max(0, 1-nx*nx-ny*ny))
	return []float32{x, y, float32((nz + 1) / 2), 1}
}

// Codec returns the codec the stream was produced with.
func (z *Compressed) Codec() astc.Codec { return z.codec }

// ColorInfo returns the color metadata of the encoded data.
func (z *Compressed) ColorInfo() ColorInfo { return z.color }

// ParseASTC reads a .astc file. The file format records no color profile
// or channel usage, so the caller supplies the profile and the result
// decompresses to four components. A nil codec selects astc.ConstantCodec.
func ParseASTC(data []byte, profile astc.Profile, codec astc.Codec) (*Compressed, error) {
	f, err := astc.ParseFile(data)
	if err != nil {
		return nil, newError("parse astc", DecodeFailure, err)
	}
	if codec == nil {
		codec = astc.ConstantCodec{}
	}
	srgb := profile == astc.ProfileLDRSRGB
	return &Compressed{
		Header:     f.Header,
		Profile:    profile,
		Blocks:     f.Blocks,
		components: 4,
		color:      ColorInfo{SRGB: srgb, Linear: !srgb, HDR: profile.IsHDR()},
		codec:      codec,
	}, nil
}
