package imaging

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

// RGBAColor is a texel quantized to 8-bit components for display.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor is the display color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// TexelResult describes one texel both as stored and as displayed.
//
// Values holds the decoded components exactly as stored (normalized for
// integer types, unclamped for Float16). The display fields are derived
// from the first three components clamped to [0, 1]; Int8 data is remapped
// from [-1, 1] first, and gray images repeat their single component.
type TexelResult struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Z      int       `json:"z"`
	Values []float32 `json:"values"`
	Hex    string    `json:"hex"`
	RGBA   RGBAColor `json:"rgba"`
	HSL    HSLColor  `json:"hsl"`
}

// Texel samples the texel at (x, y, z).
//
// Parameters:
//   - x, y: 0-based coordinates, (0,0) at the top-left
//   - z: slice index, 0 for 2D images
//
// # Errors
//
//   - Returns error if the coordinate lies outside the image
func (c *Container) Texel(x, y, z int) (*TexelResult, error) {
	if x < 0 || y < 0 || z < 0 || x >= c.width || y >= c.height || z >= c.depth {
		return nil, errorf("sample", Other, "coordinates (%d, %d, %d) outside image bounds (%dx%dx%d)",
			x, y, z, c.width, c.height, c.depth)
	}
	n := c.format.Count
	size := c.format.Type.Size()
	base := ((z*c.height+y)*c.width + x) * c.format.ByteSize()
	vals := make([]float32, n)
	for i := range vals {
		vals[i] = pixel.Component(c.contents, base+i*size, c.format.Type)
	}

	disp := displayRGBA(vals, c.format.Type)
	col := colorful.Color{R: float64(disp[0]), G: float64(disp[1]), B: float64(disp[2])}
	h, s, l := col.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return &TexelResult{
		X:      x,
		Y:      y,
		Z:      z,
		Values: vals,
		Hex:    col.Hex(),
		RGBA: RGBAColor{
			R: to8(disp[0]),
			G: to8(disp[1]),
			B: to8(disp[2]),
			A: to8(disp[3]),
		},
		HSL: HSLColor{
			H: int(math.Round(h)),
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}, nil
}

// LabeledPoint is a named texel coordinate for batch sampling.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Label string `json:"label,omitempty"`
}

// LabeledTexel pairs a sampled texel with its label.
type LabeledTexel struct {
	Label string `json:"label,omitempty"`
	*TexelResult
}

// TexelsMulti samples several texels at once. Any out-of-range point fails
// the whole call.
func (c *Container) TexelsMulti(points []LabeledPoint) ([]LabeledTexel, error) {
	out := make([]LabeledTexel, 0, len(points))
	for i, p := range points {
		t, err := c.Texel(p.X, p.Y, p.Z)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, LabeledTexel{Label: p.Label, TexelResult: t})
	}
	return out, nil
}

// displayRGBA maps stored components to clamped display RGBA.
func displayRGBA(vals []float32, ct pixel.ComponentType) [4]float32 {
	m := func(v float32) float32 {
		if ct == pixel.Int8 {
			v = (v + 1) / 2
		}
		return min(max(v, 0), 1)
	}
	out := [4]float32{0, 0, 0, 1}
	switch len(vals) {
	case 1:
		out[0], out[1], out[2] = m(vals[0]), m(vals[0]), m(vals[0])
	case 2:
		out[0], out[1], out[2], out[3] = m(vals[0]), m(vals[0]), m(vals[0]), min(max(vals[1], 0), 1)
	case 3:
		out[0], out[1], out[2] = m(vals[0]), m(vals[1]), m(vals[2])
	default:
		out[0], out[1], out[2], out[3] = m(vals[0]), m(vals[1]), m(vals[2]), min(max(vals[3], 0), 1)
	}
	return out
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(v) * 255))
}
