package astc

import (
	"fmt"
	"strconv"
	"strings"
)

// Profile is the color profile a block stream is decoded under.
type Profile int

const (
	ProfileLDR Profile = iota
	ProfileLDRSRGB
	ProfileHDRRGBLDRAlpha
	ProfileHDR
)

func (p Profile) String() string {
	switch p {
	case ProfileLDR:
		return "ldr"
	case ProfileLDRSRGB:
		return "ldr-srgb"
	case ProfileHDRRGBLDRAlpha:
		return "hdr-rgb-ldr-a"
	case ProfileHDR:
		return "hdr"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// ParseProfile is the inverse of Profile.String.
func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := ProfileLDR; p <= ProfileHDR; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown ASTC profile %q", s)
}

// IsHDR reports whether color endpoints may exceed [0, 1].
func (p Profile) IsHDR() bool {
	return p == ProfileHDR || p == ProfileHDRRGBLDRAlpha
}

// Flags adjust how the encoder weighs channels.
type Flags uint32

const (
	// FlagMapNormal stores a two-component normal map: X in RGB, Y in A.
	FlagMapNormal Flags = 1 << iota
)

// Quality presets, on the encoder's 0..100 effort scale.
const (
	QualityFastest      float32 = 0
	QualityFast         float32 = 10
	QualityMedium       float32 = 60
	QualityThorough     float32 = 98
	QualityVeryThorough float32 = 99
	QualityExhaustive   float32 = 100
)

var qualityPresets = map[string]float32{
	"fastest":      QualityFastest,
	"fast":         QualityFast,
	"medium":       QualityMedium,
	"thorough":     QualityThorough,
	"verythorough": QualityVeryThorough,
	"exhaustive":   QualityExhaustive,
}

// ParseQuality accepts a preset name or a number in [0, 100].
func ParseQuality(s string) (float32, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if q, ok := qualityPresets[s]; ok {
		return q, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadQuality, s)
	}
	q := float32(v)
	return q, ValidateQuality(q)
}

// ValidateQuality rejects values outside [0, 100].
func ValidateQuality(q float32) error {
	if q < 0 || q > 100 || q != q {
		return fmt.Errorf("%w: %v", ErrBadQuality, q)
	}
	return nil
}

// Config describes one encode.
type Config struct {
	Profile   Profile
	BlockSize BlockSize
	Quality   float32
	Flags     Flags
}

// Validate checks the block size, quality and profile.
func (c Config) Validate() error {
	if err := c.BlockSize.Validate(); err != nil {
		return err
	}
	if err := ValidateQuality(c.Quality); err != nil {
		return err
	}
	if c.Profile < ProfileLDR || c.Profile > ProfileHDR {
		return fmt.Errorf("%w: %d", ErrBadProfile, int(c.Profile))
	}
	return nil
}
