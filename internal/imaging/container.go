package imaging

import (
	"math/bits"

	"github.com/ironsheep/texture-tools-mcp/internal/colorprofile"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
)

// ColorInfo is the color metadata carried alongside the pixels.
type ColorInfo struct {
	// Profile is the attached ICC profile, or nil. Profiles are shared
	// between containers, never copied.
	Profile *colorprofile.Profile

	// SRGB marks the data as sRGB encoded.
	SRGB bool

	// Linear marks the data as linear light.
	Linear bool

	// HDR marks the data as high dynamic range (values may exceed 1).
	HDR bool
}

// Container is an immutable decoded image: a width × height × depth volume
// of texels in a single pixel.Format.
//
// Every transform returns a new Container and leaves the receiver as it
// was, so a Container can be shared freely between goroutines.
//
// # Memory Layout
//
// Texels are stored X-fastest, then Y, then Z. Each texel holds
// Format.Count components of Format.Type; Float16 components are
// little-endian.
type Container struct {
	width, height, depth int
	format               pixel.Format
	contents             []byte
	color                ColorInfo
}

// New creates a container from raw texel data, which is copied.
//
// # Errors
//
//   - UnsupportedPixelFormat when format.Type is unknown
//   - UnsupportedComponentCount when format.Count is outside 1..4
//   - Other when a dimension is below 1 or len(contents) does not match
func New(width, height, depth int, format pixel.Format, contents []byte, color ColorInfo) (*Container, error) {
	const op = "new"
	if err := validateFormat(op, format); err != nil {
		return nil, err
	}
	if width < 1 || height < 1 || depth < 1 {
		return nil, errorf(op, Other, "invalid dimensions %dx%dx%d", width, height, depth)
	}
	if want := width * height * depth * format.ByteSize(); len(contents) != want {
		return nil, errorf(op, Other, "contents hold %d bytes, %dx%dx%d %v needs %d",
			len(contents), width, height, depth, format, want)
	}
	buf := make([]byte, len(contents))
	copy(buf, contents)
	return newOwned(width, height, depth, format, buf, color), nil
}

// newOwned wraps contents without copying. Callers must not retain it.
func newOwned(width, height, depth int, format pixel.Format, contents []byte, color ColorInfo) *Container {
	return &Container{width: width, height: height, depth: depth, format: format, contents: contents, color: color}
}

func validateFormat(op string, f pixel.Format) error {
	if !f.Type.Valid() {
		return errorf(op, UnsupportedPixelFormat, "component type %v", f.Type)
	}
	if f.Count < 1 || f.Count > pixel.MaxComponents {
		return errorf(op, UnsupportedComponentCount, "%d components", f.Count)
	}
	return nil
}

// Width returns the size along X in texels.
func (c *Container) Width() int { return c.width }

// Height returns the size along Y in texels.
func (c *Container) Height() int { return c.height }

// Depth returns the number of slices; 1 for 2D images.
func (c *Container) Depth() int { return c.depth }

// Format returns the texel layout.
func (c *Container) Format() pixel.Format { return c.format }

// NumComponents returns the number of components per texel.
func (c *Container) NumComponents() int { return c.format.Count }

// ComponentType returns the storage type of every component.
func (c *Container) ComponentType() pixel.ComponentType { return c.format.Type }

// ColorProfile returns the attached profile or nil.
func (c *Container) ColorProfile() *colorprofile.Profile { return c.color.Profile }

// ColorInfo returns all color metadata.
func (c *Container) ColorInfo() ColorInfo { return c.color }

// IsSRGB reports whether the data is sRGB encoded.
func (c *Container) IsSRGB() bool { return c.color.SRGB }

// IsLinear reports whether the data is linear light.
func (c *Container) IsLinear() bool { return c.color.Linear }

// IsHDR reports whether the data is high dynamic range.
func (c *Container) IsHDR() bool { return c.color.HDR }

// TexelCount returns width × height × depth.
func (c *Container) TexelCount() int { return c.width * c.height * c.depth }

// ByteSize returns the length of the texel buffer.
func (c *Container) ByteSize() int { return len(c.contents) }

// Contents returns a copy of the texel buffer.
func (c *Container) Contents() []byte {
	out := make([]byte, len(c.contents))
	copy(out, c.contents)
	return out
}

// Copy returns an independent container with the same texels and metadata.
// The color profile is shared.
func (c *Container) Copy() *Container {
	return newOwned(c.width, c.height, c.depth, c.format, c.Contents(), c.color)
}

// floats expands every component to float32.
func (c *Container) floats() []float32 {
	return pixel.DecodeFloat32(c.contents, c.format)
}

// withFloats builds a sibling container of the given dimensions from float
// components, encoding them with the receiver's component type.
func (c *Container) withFloats(w, h, d, count int, vals []float32, color ColorInfo) *Container {
	f := pixel.Format{Type: c.format.Type, Count: count}
	buf := make([]byte, len(vals)*f.Type.Size())
	pixel.EncodeFloat32(buf, vals, f)
	return newOwned(w, h, d, f, buf, color)
}

// CreatePromoted returns a copy with every component converted to ct.
// The component count and color metadata are preserved.
//
// Converting to a narrower type clamps and rounds: UInt8 covers [0, 1] and
// Int8 covers [-1, 1].
func (c *Container) CreatePromoted(ct pixel.ComponentType) (*Container, error) {
	if !ct.Valid() {
		return nil, errorf("promote", UnsupportedPixelFormat, "component type %v", ct)
	}
	buf := pixel.Convert(c.contents, c.format.Type, ct)
	return newOwned(c.width, c.height, c.depth, pixel.Format{Type: ct, Count: c.format.Count}, buf, c.color), nil
}

// CalculateMipLevelCount returns the length of the full mip chain: the
// number of times the largest dimension can be halved (rounding down) until
// it reaches 1, plus one.
//
// This equals 1 + ceil(log2(max)) for power-of-two sizes. For other sizes
// it follows the floor-halving chain that CreateDownsampled produces, so
// the count always matches the number of generated levels.
func (c *Container) CalculateMipLevelCount() int {
	m := max(c.width, c.height, c.depth)
	return bits.Len(uint(m))
}

// ResampleOptions configure CreateResampled.
type ResampleOptions struct {
	Algorithm resample.Algorithm
	// Quality is the Lanczos lobe count (or Gaussian width). Zero selects
	// resample.DefaultQuality.
	Quality float32

	Width, Height, Depth int

	// Renormalize treats the first three channels as a unit vector, as
	// used for normal maps.
	Renormalize bool
}

// CreateResampled returns a copy scaled down to the requested dimensions.
//
// # Errors
//
//   - CompressionFailure for an unknown algorithm or a target larger than
//     the source or smaller than 1
//   - Cancelled when sink requests it; nothing is returned in that case
func (c *Container) CreateResampled(opts ResampleOptions, sink progress.Sink) (*Container, error) {
	return c.resample("resample", resample.Options{
		Algorithm:   opts.Algorithm,
		Quality:     opts.Quality,
		Width:       opts.Width,
		Height:      opts.Height,
		Depth:       opts.Depth,
		Renormalize: opts.Renormalize,
	}, sink)
}

// CreateDownsampled returns the next mip level: every axis halved, rounded
// down, and never below 1.
func (c *Container) CreateDownsampled(alg resample.Algorithm, quality float32, renormalize bool, sink progress.Sink) (*Container, error) {
	w, h, d := resample.HalfSize(c.width, c.height, c.depth)
	return c.resample("downsample", resample.Options{
		Algorithm:   alg,
		Quality:     quality,
		Width:       w,
		Height:      h,
		Depth:       d,
		Renormalize: renormalize,
	}, sink)
}

func (c *Container) resample(op string, opts resample.Options, sink progress.Sink) (*Container, error) {
	opts.Signed = c.format.Type == pixel.Int8
	src := resample.Image{
		Width:    c.width,
		Height:   c.height,
		Depth:    c.depth,
		Channels: c.format.Count,
		Pix:      c.floats(),
	}
	out, err := resample.Resample(src, opts, sink)
	if err != nil {
		return nil, newError(op, CompressionFailure, err)
	}
	return c.withFloats(out.Width, out.Height, out.Depth, c.format.Count, out.Pix, c.color), nil
}
