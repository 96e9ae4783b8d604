// Package resample implements separable downscaling of float texel volumes.
//
// Images are filtered one axis at a time (X, then Y, then Z) using the
// kernels from github.com/disintegration/imaging. Axes whose size does not
// change are not touched.
package resample

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

// Algorithm selects the reconstruction filter.
type Algorithm int

const (
	Nearest Algorithm = iota
	Box
	Linear
	CatmullRom
	Mitchell
	Gaussian
	Lanczos
)

// DefaultQuality is the Lanczos lobe count used when Quality is not set.
const DefaultQuality = 3

var algorithmNames = map[Algorithm]string{
	Nearest:    "nearest",
	Box:        "box",
	Linear:     "linear",
	CatmullRom: "catmullrom",
	Mitchell:   "mitchell",
	Gaussian:   "gaussian",
	Lanczos:    "lanczos",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm maps a case-insensitive filter name to its Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range algorithmNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

var (
	// ErrUnknownAlgorithm is returned for an Algorithm outside the known set.
	ErrUnknownAlgorithm = errors.New("unknown resampling algorithm")
	// ErrInvalidTarget is returned when a target dimension is zero or
	// larger than the source.
	ErrInvalidTarget = errors.New("invalid resampling target")
	// ErrInvalidImage is returned when the pixel buffer does not match the
	// declared dimensions.
	ErrInvalidImage = errors.New("invalid source image")
)

// Image is an interleaved float volume.
type Image struct {
	Width, Height, Depth int
	Channels             int
	Pix                  []float32
}

func (im Image) validate() error {
	if im.Width < 1 || im.Height < 1 || im.Depth < 1 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidImage, im.Width, im.Height, im.Depth)
	}
	if im.Channels < 1 || im.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrInvalidImage, im.Channels)
	}
	if len(im.Pix) != im.Width*im.Height*im.Depth*im.Channels {
		return fmt.Errorf("%w: %d values for %dx%dx%dx%d", ErrInvalidImage,
			len(im.Pix), im.Width, im.Height, im.Depth, im.Channels)
	}
	return nil
}

// Options control a resampling operation.
type Options struct {
	Algorithm Algorithm
	// Quality widens the kernel: the lobe count for Lanczos and a support
	// multiplier (relative to 3) for Gaussian. Zero selects DefaultQuality.
	Quality float32

	Width, Height, Depth int

	// Renormalize rescales the first three channels of every texel to unit
	// length after filtering.
	Renormalize bool
	// Signed marks the data as already in [-1, 1]. Unsigned data is mapped
	// from [0, 1] to [-1, 1] for renormalization and back afterwards.
	Signed bool
}

// HalfSize returns the next mip level's dimensions.
func HalfSize(w, h, d int) (int, int, int) {
	return max(1, w/2), max(1, h/2), max(1, d/2)
}

// Downsample halves every axis, rounding down and never below 1.
func Downsample(src Image, opts Options, sink progress.Sink) (Image, error) {
	opts.Width, opts.Height, opts.Depth = HalfSize(src.Width, src.Height, src.Depth)
	return Resample(src, opts, sink)
}

// batchLines is the number of scanlines filtered between cancellation checks.
const batchLines = 16

// Resample filters src down to the dimensions in opts.
func Resample(src Image, opts Options, sink progress.Sink) (Image, error) {
	if err := src.validate(); err != nil {
		return Image{}, err
	}
	filter, err := kernel(opts.Algorithm, opts.Quality)
	if err != nil {
		return Image{}, err
	}
	target := [3]int{opts.Width, opts.Height, opts.Depth}
	dims := [3]int{src.Width, src.Height, src.Depth}
	for i := range target {
		if target[i] < 1 || target[i] > dims[i] {
			return Image{}, fmt.Errorf("%w: %dx%dx%d from %dx%dx%d", ErrInvalidTarget,
				target[0], target[1], target[2], dims[0], dims[1], dims[2])
		}
	}

	var axes []int
	for i := range target {
		if target[i] != dims[i] {
			axes = append(axes, i)
		}
	}

	pix := src.Pix
	if len(axes) == 0 {
		pix = append([]float32(nil), src.Pix...)
	}
	sink = progress.OrNop(sink)
	span := float32(1) / float32(max(len(axes), 1))
	for n, axis := range axes {
		sub := progress.Range(sink, span*float32(n), span*float32(n+1))
		pix, dims, err = resampleAxis(pix, dims, src.Channels, axis, target[axis], filter, sub)
		if err != nil {
			return Image{}, err
		}
	}

	if opts.Renormalize && src.Channels >= 3 {
		renormalize(pix, src.Channels, opts.Signed)
	}
	if err := progress.Check(sink, 1); err != nil {
		return Image{}, err
	}
	return Image{Width: dims[0], Height: dims[1], Depth: dims[2], Channels: src.Channels, Pix: pix}, nil
}

func kernel(a Algorithm, quality float32) (imaging.ResampleFilter, error) {
	q := float64(quality)
	if q <= 0 {
		q = DefaultQuality
	}
	switch a {
	case Nearest:
		return imaging.NearestNeighbor, nil
	case Box:
		return imaging.Box, nil
	case Linear:
		return imaging.Linear, nil
	case CatmullRom:
		return imaging.CatmullRom, nil
	case Mitchell:
		return imaging.MitchellNetravali, nil
	case Gaussian:
		if q == DefaultQuality {
			return imaging.Gaussian, nil
		}
		s := q / DefaultQuality
		return imaging.ResampleFilter{
			Support: imaging.Gaussian.Support * s,
			Kernel:  func(x float64) float64 { return imaging.Gaussian.Kernel(x / s) },
		}, nil
	case Lanczos:
		if q == DefaultQuality {
			return imaging.Lanczos, nil
		}
		lobes := math.Max(q, 1)
		return imaging.ResampleFilter{
			Support: lobes,
			Kernel: func(x float64) float64 {
				x = math.Abs(x)
				if x < lobes {
					return sinc(x) * sinc(x/lobes)
				}
				return 0
			},
		}, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, a)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

type tap struct {
	index  int
	weight float32
}

// weights computes, for each destination sample, the source taps and their
// normalized weights. The kernel is stretched by the reduction factor.
func weights(dstLen, srcLen int, f imaging.ResampleFilter) [][]tap {
	du := float64(srcLen) / float64(dstLen)
	out := make([][]tap, dstLen)

	if f.Support == 0 || f.Kernel == nil {
		for v := range out {
			u := int((float64(v) + 0.5) * du)
			out[v] = []tap{{index: min(u, srcLen-1), weight: 1}}
		}
		return out
	}

	scale := math.Max(du, 1)
	ru := math.Ceil(scale * f.Support)
	for v := range out {
		fu := (float64(v)+0.5)*du - 0.5
		begin := max(int(math.Ceil(fu-ru)), 0)
		end := min(int(math.Floor(fu+ru)), srcLen-1)

		var sum float64
		taps := make([]tap, 0, end-begin+1)
		ws := make([]float64, 0, end-begin+1)
		for u := begin; u <= end; u++ {
			w := f.Kernel((float64(u) - fu) / scale)
			if w != 0 {
				sum += w
				taps = append(taps, tap{index: u})
				ws = append(ws, w)
			}
		}
		if sum == 0 || len(taps) == 0 {
			u := min(max(int(math.Round(fu)), 0), srcLen-1)
			out[v] = []tap{{index: u, weight: 1}}
			continue
		}
		for i := range taps {
			taps[i].weight = float32(ws[i] / sum)
		}
		out[v] = taps
	}
	return out
}

func strides(dims [3]int, ch int) [3]int {
	return [3]int{ch, dims[0] * ch, dims[0] * dims[1] * ch}
}

// resampleAxis filters every line along axis down to n samples.
func resampleAxis(src []float32, dims [3]int, ch, axis, n int, f imaging.ResampleFilter, sink progress.Sink) ([]float32, [3]int, error) {
	outDims := dims
	outDims[axis] = n
	taps := weights(n, dims[axis], f)

	ss, ds := strides(dims, ch), strides(outDims, ch)
	o1, o2 := (axis+1)%3, (axis+2)%3
	if o1 > o2 {
		o1, o2 = o2, o1
	}
	lines := dims[o1] * dims[o2]
	dst := make([]float32, outDims[0]*outDims[1]*outDims[2]*ch)

	for first := 0; first < lines; first += batchLines {
		if err := progress.Check(sink, float32(first)/float32(lines)); err != nil {
			return nil, dims, err
		}
		last := min(first+batchLines, lines)
		parallel.Line(last-first, func(start, end int) {
			for l := first + start; l < first+end; l++ {
				i1, i2 := l%dims[o1], l/dims[o1]
				sBase := i1*ss[o1] + i2*ss[o2]
				dBase := i1*ds[o1] + i2*ds[o2]
				for v, tv := range taps {
					d := dBase + v*ds[axis]
					for c := 0; c < ch; c++ {
						var sum float32
						for _, t := range tv {
							sum += src[sBase+t.index*ss[axis]+c] * t.weight
						}
						dst[d+c] = sum
					}
				}
			}
		})
	}
	return dst, outDims, nil
}

func renormalize(pix []float32, ch int, signed bool) {
	for i := 0; i+ch <= len(pix); i += ch {
		v := pix[i : i+3]
		var x, y, z float64
		if signed {
			x, y, z = float64(v[0]), float64(v[1]), float64(v[2])
		} else {
			x, y, z = float64(v[0])*2-1, float64(v[1])*2-1, float64(v[2])*2-1
		}
		l := math.Sqrt(x*x + y*y + z*z)
		if l == 0 {
			continue
		}
		x, y, z = x/l, y/l, z/l
		if !signed {
			x, y, z = (x+1)/2, (y+1)/2, (z+1)/2
		}
		v[0], v[1], v[2] = float32(x), float32(y), float32(z)
	}
}
