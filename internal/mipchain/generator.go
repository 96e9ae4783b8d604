// Package mipchain produces full mip chains from an imaging.Editor, one
// level at a time, optionally compressing every level to ASTC.
//
// A chain starts with the editor's current image as level 0 and halves all
// axes (rounding down, never below 1) until a 1×1×1 level has been emitted.
// The number of levels always equals the container's
// CalculateMipLevelCount.
//
// Progress is divided into one equal step per level. Within a step the
// downsample that produced the level takes the first 30% and the per-level
// payload may report across the whole step; reports never go backwards.
package mipchain

import (
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
)

// downsampleShare is the fraction of a step spent producing its level.
const downsampleShare = 0.3

// Options configure the downsampling between levels.
type Options struct {
	Algorithm resample.Algorithm
	Quality   float32
	// Renormalize keeps normal-map vectors at unit length.
	Renormalize bool
}

// DefaultOptions returns Lanczos filtering at the default quality.
func DefaultOptions() Options {
	return Options{Algorithm: resample.Lanczos, Quality: resample.DefaultQuality}
}

// Level is one emitted entry of a chain.
type Level struct {
	Index int
	Image *imaging.Container

	// Compressed and Decompressed are filled by CompressChain.
	Compressed   *imaging.Compressed
	Decompressed *imaging.Container
}

// Payload runs once per level before it is emitted. It may fill in the
// level's other fields and reports its own progress to sink, which spans
// the level's step. A non-nil error stops the chain; the level is not
// emitted.
type Payload func(lv *Level, sink progress.Sink) error

// Emit receives every finished level in order.
type Emit func(lv Level) error

// Generate walks the chain of ed's working image.
//
// For each level it runs payload (when non-nil), hands the level to emit,
// stops if the level is 1×1×1, then checks for cancellation and downsamples
// the editor's image into the next level. The editor ends up holding the
// last level.
//
// # Errors
//
//   - Cancelled when sink asks to stop; levels emitted before that stay
//     valid
//   - any error from payload or emit, unchanged
//   - the downsample error, typically CompressionFailure
func Generate(ed *imaging.Editor, opts Options, payload Payload, emit Emit, sink progress.Sink) error {
	const op = "mip chain"
	total := ed.CalculateMipLevelCount()
	steps := progress.NewSteps(progress.Monotonic(sink), total)

	for level := 0; ; level++ {
		lv := Level{Index: level, Image: ed.Image()}
		if payload != nil {
			if err := payload(&lv, steps.Step(level)); err != nil {
				return err
			}
		}
		if emit != nil {
			if err := emit(lv); err != nil {
				return err
			}
		}
		imaging.Logger().Debug("emitted mip level",
			"level", level,
			"of", total,
			"size", [3]int{lv.Image.Width(), lv.Image.Height(), lv.Image.Depth()})

		if isTerminal(lv.Image) {
			break
		}
		if steps.Report(level, 1) {
			return &imaging.Error{Kind: imaging.Cancelled, Op: op, Err: progress.ErrCancelled}
		}
		down := progress.Range(steps.Step(level+1), 0, downsampleShare)
		if err := ed.Downsample(opts.Algorithm, opts.Quality, opts.Renormalize, down); err != nil {
			return err
		}
	}
	// The chain is complete; a cancellation request at 100% changes nothing.
	steps.Report(total, 0)
	return nil
}

func isTerminal(c *imaging.Container) bool {
	return c.Width() == 1 && c.Height() == 1 && c.Depth() == 1
}

// Collect runs Generate and gathers the emitted levels. On error the levels
// emitted so far are returned alongside it.
func Collect(ed *imaging.Editor, opts Options, payload Payload, sink progress.Sink) ([]Level, error) {
	var levels []Level
	err := Generate(ed, opts, payload, func(lv Level) error {
		levels = append(levels, lv)
		return nil
	}, sink)
	return levels, err
}

// IsNormalMapPath applies the naming convention for tangent-space normal
// maps: an LDR source whose path contains "normal".
func IsNormalMapPath(path string, hdr bool) bool {
	return !hdr && strings.Contains(strings.ToLower(path), "normal")
}
