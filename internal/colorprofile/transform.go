package colorprofile

import (
	"errors"
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
	"seehuhn.de/go/icc"
)

// ErrUnsupportedConversion is returned when no transform exists between two
// profiles for the given pixel layout.
var ErrUnsupportedConversion = errors.New("unsupported color conversion")

// Transformer converts interleaved float pixels between color profiles.
// Only the color channels are touched; alpha is carried through.
type Transformer interface {
	Transform(pix []float32, channels int, from, to *Profile) error
}

// ICCTransformer is the default Transformer.
//
// Profiles sharing colorants are converted per channel through their
// transfer curves. sRGB and identity curves are applied analytically and
// without clamping, so HDR values survive linearization. Everything else
// goes through the profile connection space and is clamped to [0, 1].
type ICCTransformer struct{}

// Default is the Transformer used when none is configured.
var Default Transformer = ICCTransformer{}

func colorChannels(channels int) int {
	if channels >= 3 {
		return 3
	}
	return 1
}

// Transform implements Transformer.
func (ICCTransformer) Transform(pix []float32, channels int, from, to *Profile) error {
	if from == nil || to == nil {
		return fmt.Errorf("%w: missing profile", ErrUnsupportedConversion)
	}
	if channels < 1 || channels > 4 || len(pix)%channels != 0 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedConversion, channels)
	}
	if from == to {
		return nil
	}
	fa, ta := from.analyze(), to.analyze()
	if fa.kind == kindUnknown || ta.kind == kindUnknown {
		return fmt.Errorf("%w: profile has no usable transform", ErrUnsupportedConversion)
	}

	if sameColorants(fa, ta) {
		decode := [3]func(float64) float64{}
		encode := [3]func(float64) float64{}
		for i := 0; i < 3; i++ {
			decode[i] = decoder(fa, i)
			encode[i] = encoder(ta, i)
			// sampled curves build their inverse table lazily
			encode[i](0.5)
		}
		cc := colorChannels(channels)
		if cc == 1 {
			// gray data against RGB curves uses the green channel
			decode[0], encode[0] = decode[1], encode[1]
		}
		pixels := len(pix) / channels
		parallel.Line(pixels, func(start, end int) {
			for i := start; i < end; i++ {
				px := pix[i*channels:]
				for c := 0; c < cc; c++ {
					px[c] = float32(encode[c](decode[c](float64(px[c]))))
				}
			}
		})
		return nil
	}

	if channels < 3 {
		return fmt.Errorf("%w: cross-gamut conversion needs RGB data", ErrUnsupportedConversion)
	}
	if _, err := icc.NewTransform(from.icc, icc.DeviceToPCS, icc.Perceptual); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedConversion, err)
	}
	if _, err := icc.NewTransform(to.icc, icc.PCSToDevice, icc.Perceptual); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedConversion, err)
	}

	pixels := len(pix) / channels
	parallel.Line(pixels, func(start, end int) {
		// icc transforms are not safe for concurrent use
		fwd, _ := icc.NewTransform(from.icc, icc.DeviceToPCS, icc.Perceptual)
		inv, _ := icc.NewTransform(to.icc, icc.PCSToDevice, icc.Perceptual)
		in := make([]float64, 3)
		for i := start; i < end; i++ {
			px := pix[i*channels:]
			for c := 0; c < 3; c++ {
				in[c] = float64(px[c])
			}
			x, y, z := fwd.ToXYZ(in)
			out := inv.FromXYZ(x, y, z)
			for c := 0; c < 3 && c < len(out); c++ {
				px[c] = float32(out[c])
			}
		}
	})
	return nil
}

func sameColorants(a, b *analysis) bool {
	if a.kind == kindGrayTRC && b.kind == kindGrayTRC {
		return true
	}
	if a.kind != kindMatrixTRC || b.kind != kindMatrixTRC {
		return false
	}
	return colorantsMatch(a.colorants, b.colorants, 0.002)
}

func identity(v float64) float64 { return v }

func decoder(a *analysis, ch int) func(float64) float64 {
	switch a.trc[ch] {
	case trcIdentity:
		return identity
	case trcSRGB:
		return srgbToLinear
	}
	return a.curves[ch].Evaluate
}

func encoder(a *analysis, ch int) func(float64) float64 {
	switch a.trc[ch] {
	case trcIdentity:
		return identity
	case trcSRGB:
		return linearToSRGB
	}
	return a.curves[ch].Invert
}
