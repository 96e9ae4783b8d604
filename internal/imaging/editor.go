package imaging

import (
	"github.com/ironsheep/texture-tools-mcp/internal/colorprofile"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
)

// Editor holds one working image and applies in-place edits to it.
//
// Every edit builds a new Container and swaps it in whole, so a snapshot
// taken with Image is never affected by later edits. A failed edit leaves
// the working image untouched.
//
// An Editor is not safe for concurrent use; run one operation at a time.
type Editor struct {
	img         *Container
	transformer colorprofile.Transformer
}

// NewEditor starts editing c. The container itself is never modified.
func NewEditor(c *Container) *Editor {
	return &Editor{img: c, transformer: colorprofile.Default}
}

// LoadEditor loads path and starts editing it.
func LoadEditor(path string, opts LoadOptions) (*Editor, error) {
	c, err := Load(path, opts)
	if err != nil {
		return nil, err
	}
	return NewEditor(c), nil
}

// SetTransformer replaces the color-management service used by
// ConvertColorProfile. Nil restores the default.
func (e *Editor) SetTransformer(t colorprofile.Transformer) {
	if t == nil {
		t = colorprofile.Default
	}
	e.transformer = t
}

// Image returns a snapshot of the working image.
func (e *Editor) Image() *Container { return e.img }

// Edit replaces the working image.
func (e *Editor) Edit(c *Container) { e.img = c }

// Width returns the working image's width.
func (e *Editor) Width() int { return e.img.width }

// Height returns the working image's height.
func (e *Editor) Height() int { return e.img.height }

// Depth returns the working image's depth.
func (e *Editor) Depth() int { return e.img.depth }

// Format returns the working image's texel layout.
func (e *Editor) Format() pixel.Format { return e.img.format }

// ColorInfo returns the working image's color metadata.
func (e *Editor) ColorInfo() ColorInfo { return e.img.color }

// CalculateMipLevelCount returns the mip chain length of the working image.
func (e *Editor) CalculateMipLevelCount() int { return e.img.CalculateMipLevelCount() }

// SetChannel copies channel srcChannel of src into channel target of the
// working image. The two images must have identical dimensions.
func (e *Editor) SetChannel(target int, src *Container, srcChannel int) error {
	const op = "set channel"
	dst := e.img
	if src == nil {
		return errorf(op, Other, "nil source image")
	}
	if target < 0 || target >= dst.format.Count {
		return errorf(op, UnsupportedComponentCount, "target channel %d of %d", target, dst.format.Count)
	}
	if srcChannel < 0 || srcChannel >= src.format.Count {
		return errorf(op, UnsupportedComponentCount, "source channel %d of %d", srcChannel, src.format.Count)
	}
	if src.width != dst.width || src.height != dst.height || src.depth != dst.depth {
		return errorf(op, UnsupportedComponentCount, "source is %dx%dx%d, image is %dx%dx%d",
			src.width, src.height, src.depth, dst.width, dst.height, dst.depth)
	}

	buf := dst.Contents()
	dsz, ssz := dst.format.Type.Size(), src.format.Type.Size()
	dstride, sstride := dst.format.ByteSize(), src.format.ByteSize()
	for i := 0; i < dst.TexelCount(); i++ {
		v := pixel.Component(src.contents, i*sstride+srcChannel*ssz, src.format.Type)
		pixel.SetComponent(buf, i*dstride+target*dsz, dst.format.Type, v)
	}
	e.img = newOwned(dst.width, dst.height, dst.depth, dst.format, buf, dst.color)
	return nil
}

// SetNumComponents grows or shrinks every texel to count components.
// New components are set to fill; dropped ones are discarded.
func (e *Editor) SetNumComponents(count int, fill float32) error {
	const op = "set component count"
	if count < 1 || count > pixel.MaxComponents {
		return errorf(op, UnsupportedComponentCount, "%d components", count)
	}
	src := e.img
	if count == src.format.Count {
		return nil
	}
	f := pixel.Format{Type: src.format.Type, Count: count}
	buf := make([]byte, src.TexelCount()*f.ByteSize())

	var fillBytes [2]byte
	pixel.SetComponent(fillBytes[:], 0, f.Type, fill)
	size := f.Type.Size()
	keep := min(count, src.format.Count) * size
	for i := 0; i < src.TexelCount(); i++ {
		d := buf[i*f.ByteSize() : (i+1)*f.ByteSize()]
		copy(d, src.contents[i*src.format.ByteSize():i*src.format.ByteSize()+keep])
		for off := keep; off < len(d); off += size {
			copy(d[off:off+size], fillBytes[:size])
		}
	}
	e.img = newOwned(src.width, src.height, src.depth, f, buf, src.color)
	return nil
}

// SetComponentType converts every component of the working image to ct.
func (e *Editor) SetComponentType(ct pixel.ComponentType) error {
	if ct == e.img.format.Type {
		return nil
	}
	c, err := e.img.CreatePromoted(ct)
	if err != nil {
		return err
	}
	e.img = c
	return nil
}

// SetColorProfile attaches p without touching the pixels and derives the
// sRGB and linear flags from it. Nil detaches the profile and keeps the
// flags.
func (e *Editor) SetColorProfile(p *colorprofile.Profile) {
	color := e.img.color
	color.Profile = p
	if p != nil {
		color.SRGB = p.IsSRGB()
		color.Linear = p.IsLinear()
	}
	e.img = newOwned(e.img.width, e.img.height, e.img.depth, e.img.format, e.img.contents, color)
}

// ConvertColorProfile transforms the pixels into target and attaches it.
//
// Without an attached profile the source is taken to be linear sRGB when
// the image is flagged linear, and sRGB otherwise.
//
// A non-nil error, always of kind ColorProfileFailure, means the image was
// left exactly as it was. Pipelines treat that as a skipped step.
func (e *Editor) ConvertColorProfile(target *colorprofile.Profile) error {
	const op = "convert color profile"
	if target == nil {
		return errorf(op, ColorProfileFailure, "no target profile")
	}
	src := e.img
	from := src.color.Profile
	if from == nil {
		if src.color.Linear {
			from = colorprofile.LinearSRGB()
		} else {
			from = colorprofile.SRGB()
		}
	}

	vals := src.floats()
	if err := e.transformer.Transform(vals, src.format.Count, from, target); err != nil {
		return newError(op, ColorProfileFailure, err)
	}
	color := ColorInfo{
		Profile: target,
		SRGB:    target.IsSRGB(),
		Linear:  target.IsLinear(),
		HDR:     src.color.HDR,
	}
	e.img = src.withFloats(src.width, src.height, src.depth, src.format.Count, vals, color)
	Logger().Debug("converted color profile", "from", from.Name(), "to", target.Name())
	return nil
}

// Linearize converts sRGB or profiled data to the linear variant of its
// profile (sRGB when no profile is attached). Data already flagged linear,
// or carrying neither a profile nor the sRGB flag, is left alone.
//
// Like ConvertColorProfile, a non-nil error means nothing changed.
func (e *Editor) Linearize() error {
	color := e.img.color
	if color.Linear || (!color.SRGB && color.Profile == nil) {
		return nil
	}
	from := color.Profile
	if from == nil {
		from = colorprofile.SRGB()
	}
	target, ok := from.CreateLinear(false)
	if !ok {
		return errorf("linearize", ColorProfileFailure, "profile %s has no linear variant", from.Name())
	}
	return e.ConvertColorProfile(target)
}

// Resample scales the working image down to the requested dimensions.
func (e *Editor) Resample(opts ResampleOptions, sink progress.Sink) error {
	c, err := e.img.CreateResampled(opts, sink)
	if err != nil {
		return err
	}
	e.img = c
	return nil
}

// Downsample replaces the working image with its next mip level.
func (e *Editor) Downsample(alg resample.Algorithm, quality float32, renormalize bool, sink progress.Sink) error {
	c, err := e.img.CreateDownsampled(alg, quality, renormalize, sink)
	if err != nil {
		return err
	}
	e.img = c
	return nil
}
