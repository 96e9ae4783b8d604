package imaging

import (
	"path/filepath"
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/colorprofile"
)

// LoadOptions control how a loaded image is classified when the file itself
// says nothing about its color encoding.
type LoadOptions struct {
	// AssumeSRGB and AssumeLinear become the image's flags when neither
	// an embedded nor an assumed profile is available.
	AssumeSRGB   bool
	AssumeLinear bool

	// AssumedProfile is used when the file carries no profile.
	AssumedProfile *colorprofile.Profile

	// Decoder overrides the default FileDecoder.
	Decoder Decoder
}

// linearByDefault lists extensions whose contents are linear light unless
// the file says otherwise.
var linearByDefault = map[string]bool{
	".hdr": true,
	".tga": true,
	".exr": true,
}

// DefaultLoadOptions returns the classification policy for path: Radiance,
// TGA and OpenEXR files are assumed linear, everything else sRGB.
func DefaultLoadOptions(path string) LoadOptions {
	linear := linearByDefault[strings.ToLower(filepath.Ext(path))]
	return LoadOptions{AssumeSRGB: !linear, AssumeLinear: linear}
}

// Load decodes path into a Container and classifies its color encoding.
//
// Classification precedence:
//  1. an embedded profile (an ICC profile in the file, or a PNG sRGB chunk
//     which stands for the built-in sRGB profile)
//  2. opts.AssumedProfile
//  3. opts.AssumeSRGB and opts.AssumeLinear
//
// In the first two cases the sRGB and linear flags are derived from the
// profile. An embedded profile that cannot be parsed is logged and
// ignored.
//
// # Errors
//
// Every failure is reported as DecodeFailure: a missing file, an
// unrecognized format, corrupt data or a decoder result that does not
// describe a valid image.
func Load(path string, opts LoadOptions) (*Container, error) {
	const op = "load"
	dec := opts.Decoder
	if dec == nil {
		dec = FileDecoder{}
	}
	d, err := dec.Decode(path)
	if err != nil {
		return nil, newError(op, DecodeFailure, err)
	}
	if d.Depth == 0 {
		d.Depth = 1
	}

	color := classify(path, d, opts)
	c, err := New(d.Width, d.Height, d.Depth, d.Format, d.Pixels, color)
	if err != nil {
		return nil, &Error{Kind: DecodeFailure, Op: op, Err: err}
	}
	Logger().Debug("loaded image",
		"path", path,
		"format", d.FileFormat,
		"size", [3]int{c.width, c.height, c.depth},
		"pixel", c.format.String(),
		"srgb", color.SRGB,
		"linear", color.Linear,
		"hdr", color.HDR)
	return c, nil
}

func classify(path string, d *Decoded, opts LoadOptions) ColorInfo {
	info := ColorInfo{HDR: d.HDR}

	var profile *colorprofile.Profile
	if len(d.ICC) > 0 {
		p, err := colorprofile.New(d.ICC)
		if err != nil {
			Logger().Warn("ignoring unreadable embedded profile", "path", path, "err", err)
		} else {
			profile = p
		}
	}
	if profile == nil && d.SRGBIntent {
		profile = colorprofile.SRGB()
	}
	if profile == nil {
		profile = opts.AssumedProfile
	}

	if profile != nil {
		info.Profile = profile
		info.SRGB = profile.IsSRGB()
		info.Linear = profile.IsLinear()
		return info
	}
	info.SRGB = opts.AssumeSRGB
	info.Linear = opts.AssumeLinear
	return info
}
