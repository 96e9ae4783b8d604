package mipchain

import (
	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/colorprofile"
	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

// CompressOptions configure CompressChain.
type CompressOptions struct {
	Mip       Options
	BlockSize astc.BlockSize
	Quality   float32

	// NormalMap encodes X and Y only and renormalizes while downsampling.
	NormalMap bool
	// Decompress decodes every compressed level into Level.Decompressed.
	Decompress bool

	Codec       astc.Codec
	Transformer colorprofile.Transformer
}

// CompressChain generates the mip chain of ed's image and compresses every
// level to ASTC before emitting it.
//
// The working image is promoted to Float16 and linearized once up front so
// that every level is filtered in linear light at full precision. Alpha is
// kept for four-component images; HDR images with alpha use the
// HDR-RGB/LDR-alpha profile.
//
// Errors and cancellation behave as in Generate.
func CompressChain(ed *imaging.Editor, opts CompressOptions, emit Emit, sink progress.Sink) error {
	ed.SetTransformer(opts.Transformer)
	if ed.Format().Type == pixel.UInt8 {
		if err := ed.SetComponentType(pixel.Float16); err != nil {
			return err
		}
	}
	if err := ed.Linearize(); err != nil {
		imaging.Logger().Warn("linearization skipped, chain filtered as-is", "err", err)
	}

	mip := opts.Mip
	mip.Renormalize = mip.Renormalize || opts.NormalMap
	payload := func(lv *Level, sink progress.Sink) error {
		alpha := lv.Image.NumComponents() == 4
		z, err := lv.Image.CreateASTCCompressed(imaging.CompressOptions{
			BlockSize:     opts.BlockSize,
			Quality:       opts.Quality,
			ContainsAlpha: alpha,
			LDRAlpha:      lv.Image.IsHDR() && alpha,
			NormalMap:     opts.NormalMap,
			Codec:         opts.Codec,
			Transformer:   opts.Transformer,
		}, sink)
		if err != nil {
			return err
		}
		lv.Compressed = z
		if opts.Decompress {
			if lv.Decompressed, err = z.Decompress(); err != nil {
				return err
			}
		}
		return nil
	}
	return Generate(ed, mip, payload, emit, sink)
}

// CollectCompressed runs CompressChain and gathers the emitted levels. On
// error the levels emitted so far are returned alongside it.
func CollectCompressed(ed *imaging.Editor, opts CompressOptions, sink progress.Sink) ([]Level, error) {
	var levels []Level
	err := CompressChain(ed, opts, func(lv Level) error {
		levels = append(levels, lv)
		return nil
	}, sink)
	return levels, err
}
