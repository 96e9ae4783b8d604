package imaging

import (
	"math"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

// NormalMapOptions configure CreateNormalMap.
type NormalMapOptions struct {
	// Strength scales the height gradient before normalization. Larger
	// values give steeper normals. Zero selects 1.
	Strength float32

	// Channel selects the height component. A negative value uses the
	// BT.601 luminance of the first three components.
	Channel int

	// Blur smooths the height field with a 5×5 Gaussian first, which
	// suppresses noise from 8-bit quantization.
	Blur bool

	// Wrap samples across opposite edges, for tiling textures. Otherwise
	// edge texels are replicated.
	Wrap bool

	// FlipY produces DirectX-style normals (green pointing down).
	FlipY bool

	// Type is the output component type, UInt8 (default) or Int8.
	Type pixel.ComponentType
}

// DefaultNormalMapOptions returns luminance heights at strength 1, tiled,
// stored as UInt8.
func DefaultNormalMapOptions() NormalMapOptions {
	return NormalMapOptions{Strength: 1, Channel: -1, Wrap: true, Type: pixel.UInt8}
}

var (
	sobelX = [3][3]float32{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float32{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
	gaussian5 = [5][5]float32{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
)

const gaussian5Sum = 273

// CreateNormalMap treats the image as a height map and returns a
// three-component tangent-space normal map of the same dimensions.
//
// Gradients come from Sobel operators; every slice of a volume is
// processed on its own. With UInt8 output each vector is stored as
// n*0.5+0.5, with Int8 output as n. The result is linear data with no
// color profile.
func (c *Container) CreateNormalMap(opts NormalMapOptions) (*Container, error) {
	const op = "create normal map"
	if opts.Channel >= c.format.Count {
		return nil, errorf(op, UnsupportedComponentCount, "height channel %d of %d", opts.Channel, c.format.Count)
	}
	if opts.Type != pixel.UInt8 && opts.Type != pixel.Int8 {
		return nil, errorf(op, UnsupportedPixelFormat, "normal maps are stored as uint8 or int8, not %v", opts.Type)
	}
	strength := opts.Strength
	if strength == 0 {
		strength = 1
	}

	w, h := c.width, c.height
	vals := c.floats()
	n := c.format.Count
	out := make([]float32, 0, c.TexelCount()*3)

	at := func(field []float32, x, y int) float32 {
		if opts.Wrap {
			x = (x%w + w) % w
			y = (y%h + h) % h
		} else {
			x = clamp(x, 0, w-1)
			y = clamp(y, 0, h-1)
		}
		return field[y*w+x]
	}

	for z := 0; z < c.depth; z++ {
		heights := make([]float32, w*h)
		for i := range heights {
			t := vals[(z*w*h+i)*n:]
			switch {
			case opts.Channel >= 0:
				heights[i] = t[opts.Channel]
			case n >= 3:
				heights[i] = 0.299*t[0] + 0.587*t[1] + 0.114*t[2]
			default:
				heights[i] = t[0]
			}
		}
		if opts.Blur {
			blurred := make([]float32, w*h)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					var sum float32
					for ky := -2; ky <= 2; ky++ {
						for kx := -2; kx <= 2; kx++ {
							sum += at(heights, x+kx, y+ky) * gaussian5[ky+2][kx+2]
						}
					}
					blurred[y*w+x] = sum / gaussian5Sum
				}
			}
			heights = blurred
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var gx, gy float32
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						v := at(heights, x+kx, y+ky)
						gx += v * sobelX[ky+1][kx+1]
						gy += v * sobelY[ky+1][kx+1]
					}
				}
				// Image rows run downwards while tangent-space +Y points up.
				nx, ny := -gx*strength, gy*strength
				if opts.FlipY {
					ny = -ny
				}
				inv := float32(1 / math.Sqrt(float64(nx*nx+ny*ny+1)))
				nx, ny, nz := nx*inv, ny*inv, inv
				if opts.Type == pixel.UInt8 {
					nx, ny, nz = nx*0.5+0.5, ny*0.5+0.5, nz*0.5+0.5
				}
				out = append(out, nx, ny, nz)
			}
		}
	}

	f := pixel.Format{Type: opts.Type, Count: 3}
	buf := make([]byte, len(out)*f.Type.Size())
	pixel.EncodeFloat32(buf, out, f)
	Logger().Debug("generated normal map", "size", [3]int{w, h, c.depth}, "strength", strength, "wrap", opts.Wrap)
	return newOwned(w, h, c.depth, f, buf, ColorInfo{Linear: true}), nil
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
