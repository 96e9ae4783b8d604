// Package colorprofile wraps ICC color profiles and answers the two
// questions the texture pipeline asks of them: is this sRGB, and what is
// its linear-light equivalent.
package colorprofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"seehuhn.de/go/icc"
)

// Tag signatures used for matrix/TRC and gray profiles.
const (
	tagRedColorant   icc.TagType = 0x7258595A // "rXYZ"
	tagGreenColorant icc.TagType = 0x6758595A // "gXYZ"
	tagBlueColorant  icc.TagType = 0x6258595A // "bXYZ"
	tagRedTRC        icc.TagType = 0x72545243 // "rTRC"
	tagGreenTRC      icc.TagType = 0x67545243 // "gTRC"
	tagBlueTRC       icc.TagType = 0x62545243 // "bTRC"
	tagGrayTRC       icc.TagType = 0x6B545243 // "kTRC"
	tagWhitePoint    icc.TagType = 0x77747074 // "wtpt"
	tagAToB0         icc.TagType = 0x41324230 // "A2B0"
	tagBToA0         icc.TagType = 0x42324130 // "B2A0"
)

const (
	spaceRGB  = 0x52474220 // "RGB "
	spaceGray = 0x47524159 // "GRAY"
	spaceXYZ  = 0x58595A20 // "XYZ "
)

// sRGB primaries adapted to D50, as stored in sRGB ICC profiles.
var srgbColorants = [3][3]float64{
	{0.4361, 0.2225, 0.0139},
	{0.3851, 0.7169, 0.0971},
	{0.1431, 0.0606, 0.7141},
}

// ErrInvalidProfile is returned when ICC data cannot be decoded.
var ErrInvalidProfile = errors.New("invalid ICC profile")

type profileKind int

const (
	kindUnknown profileKind = iota
	kindMatrixTRC
	kindGrayTRC
	kindLUT
)

type trcKind int

const (
	trcOther trcKind = iota
	trcIdentity
	trcSRGB
)

// analysis is computed once per profile.
type analysis struct {
	kind      profileKind
	colorants [3][3]float64
	curves    [3]*icc.Curve
	trc       [3]trcKind
	srgb      bool
	linear    bool
}

// Profile is an immutable ICC color profile. Profiles are shared by
// pointer between images; none of the methods modify the receiver.
type Profile struct {
	raw  []byte
	icc  *icc.Profile
	name string

	once sync.Once
	info analysis
}

// New decodes ICC profile data. The slice is copied.
func New(data []byte) (*Profile, error) {
	if len(data) < 128 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidProfile, len(data))
	}
	raw := make([]byte, len(data))
	copy(raw, data)

	// Decode may scribble on its input, so hand it a private copy.
	scratch := make([]byte, len(data))
	copy(scratch, data)
	p, err := icc.Decode(scratch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return &Profile{raw: raw, icc: p, name: "embedded"}, nil
}

var (
	srgbOnce    sync.Once
	srgbProfile *Profile
)

// SRGB returns the shared built-in sRGB profile.
func SRGB() *Profile {
	srgbOnce.Do(func() {
		p, err := New(icc.SRGBv4Profile)
		if err != nil || !p.IsSRGB() {
			p = synthesizeSRGB()
		}
		p.name = "sRGB"
		srgbProfile = p
	})
	return srgbProfile
}

// LinearSRGB returns the shared profile with sRGB primaries and an
// identity transfer curve.
var LinearSRGB = sync.OnceValue(func() *Profile {
	lp, _ := SRGB().CreateLinear(false)
	return lp
})

// synthesizeSRGB builds a minimal matrix/TRC sRGB profile in memory.
func synthesizeSRGB() *Profile {
	trc := (&icc.Curve{
		FuncType: 3,
		Params:   []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045},
	}).Encode()
	tags := map[icc.TagType][]byte{
		tagRedColorant:   encodeXYZ(srgbColorants[0]),
		tagGreenColorant: encodeXYZ(srgbColorants[1]),
		tagBlueColorant:  encodeXYZ(srgbColorants[2]),
		tagWhitePoint:    encodeXYZ([3]float64{0.9642, 1.0, 0.8249}),
		tagRedTRC:        trc,
		tagGreenTRC:      trc,
		tagBlueTRC:       trc,
	}
	p := &icc.Profile{
		Version: icc.Version4_3_0,
		TagData: tags,
	}
	p.ColorSpace = spaceRGB
	p.PCS = spaceXYZ
	return &Profile{icc: p}
}

// Name returns a short human-readable label.
func (p *Profile) Name() string {
	if p.name == "" {
		return "custom"
	}
	return p.name
}

// Bytes returns the serialized profile, or nil for derived profiles.
func (p *Profile) Bytes() []byte {
	return p.raw
}

// ICC exposes the decoded profile.
func (p *Profile) ICC() *icc.Profile {
	return p.icc
}

// IsSRGB reports whether the profile describes sRGB: sRGB colorants and the
// sRGB transfer curve on every channel. The answer is cached.
func (p *Profile) IsSRGB() bool {
	return p.analyze().srgb
}

// IsLinear reports whether every transfer curve is the identity.
func (p *Profile) IsLinear() bool {
	return p.analyze().linear
}

// CreateLinear returns a profile with the same colorants and identity
// transfer curves. A profile that already is linear is returned as-is
// unless force is set. The second result is false when the profile has no
// per-channel transfer curves to replace.
func (p *Profile) CreateLinear(force bool) (*Profile, bool) {
	a := p.analyze()
	if a.kind != kindMatrixTRC && a.kind != kindGrayTRC {
		return nil, false
	}
	if a.linear && !force {
		return p, true
	}

	lp := *p.icc
	lp.TagData = make(map[icc.TagType][]byte, len(p.icc.TagData))
	for k, v := range p.icc.TagData {
		lp.TagData[k] = v
	}
	identity := (&icc.Curve{Gamma: 1}).Encode()
	if a.kind == kindGrayTRC {
		lp.TagData[tagGrayTRC] = identity
	} else {
		lp.TagData[tagRedTRC] = identity
		lp.TagData[tagGreenTRC] = identity
		lp.TagData[tagBlueTRC] = identity
	}
	return &Profile{icc: &lp, name: p.Name() + " linear"}, true
}

func (p *Profile) analyze() *analysis {
	p.once.Do(func() {
		p.info = analyzeProfile(p.icc)
	})
	return &p.info
}

func analyzeProfile(ip *icc.Profile) analysis {
	var a analysis
	if ip == nil {
		return a
	}
	tags := ip.TagData
	if _, ok := tags[tagAToB0]; ok {
		a.kind = kindLUT
		return a
	}
	if _, ok := tags[tagBToA0]; ok {
		a.kind = kindLUT
		return a
	}

	space := uint32(ip.ColorSpace)
	switch {
	case space == spaceRGB && hasAll(tags, tagRedColorant, tagGreenColorant, tagBlueColorant, tagRedTRC, tagGreenTRC, tagBlueTRC):
		for i, tag := range []icc.TagType{tagRedColorant, tagGreenColorant, tagBlueColorant} {
			xyz, err := decodeXYZ(tags[tag])
			if err != nil {
				return a
			}
			a.colorants[i] = xyz
		}
		for i, tag := range []icc.TagType{tagRedTRC, tagGreenTRC, tagBlueTRC} {
			c, err := icc.DecodeCurve(tags[tag])
			if err != nil {
				return a
			}
			a.curves[i] = c
			a.trc[i] = classifyCurve(c)
		}
		a.kind = kindMatrixTRC
	case space == spaceGray && hasAll(tags, tagGrayTRC):
		c, err := icc.DecodeCurve(tags[tagGrayTRC])
		if err != nil {
			return a
		}
		for i := range a.curves {
			a.curves[i] = c
			a.trc[i] = classifyCurve(c)
		}
		a.kind = kindGrayTRC
	default:
		return a
	}

	a.linear = true
	allSRGB := true
	for _, k := range a.trc {
		if k != trcIdentity {
			a.linear = false
		}
		if k != trcSRGB {
			allSRGB = false
		}
	}
	a.srgb = a.kind == kindMatrixTRC && allSRGB && colorantsMatch(a.colorants, srgbColorants, 0.005)
	return a
}

var curveProbes = []float64{0.02, 0.1, 0.25, 0.5, 0.75, 0.9}

func classifyCurve(c *icc.Curve) trcKind {
	if c.IsIdentity() {
		return trcIdentity
	}
	identity, srgb := true, true
	for _, x := range curveProbes {
		y := c.Evaluate(x)
		if math.Abs(y-x) > 0.002 {
			identity = false
		}
		if math.Abs(y-srgbToLinear(x)) > 0.005 {
			srgb = false
		}
	}
	switch {
	case identity:
		return trcIdentity
	case srgb:
		return trcSRGB
	}
	return trcOther
}

func colorantsMatch(a, b [3][3]float64, tol float64) bool {
	for i := range a {
		for j := range a[i] {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func hasAll(tags map[icc.TagType][]byte, want ...icc.TagType) bool {
	for _, t := range want {
		if _, ok := tags[t]; !ok {
			return false
		}
	}
	return true
}

func decodeXYZ(data []byte) ([3]float64, error) {
	var v [3]float64
	if len(data) < 20 || string(data[:4]) != "XYZ " {
		return v, fmt.Errorf("%w: malformed XYZ tag", ErrInvalidProfile)
	}
	for i := range v {
		v[i] = float64(int32(binary.BigEndian.Uint32(data[8+4*i:]))) / 65536
	}
	return v, nil
}

func encodeXYZ(v [3]float64) []byte {
	data := make([]byte, 20)
	copy(data, "XYZ ")
	for i := range v {
		binary.BigEndian.PutUint32(data[8+4*i:], uint32(int32(math.Round(v[i]*65536))))
	}
	return data
}

// srgbToLinear applies the sRGB decoding curve, mirrored for negative input
// and unclamped above 1.
func srgbToLinear(v float64) float64 {
	if v < 0 {
		return -srgbToLinear(-v)
	}
	r, _, _ := colorful.Color{R: v}.LinearRgb()
	return r
}

func linearToSRGB(v float64) float64 {
	if v < 0 {
		return -linearToSRGB(-v)
	}
	return colorful.LinearRgb(v, 0, 0).R
}
