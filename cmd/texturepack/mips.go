package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/mipchain"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
	"github.com/spf13/cobra"
)

var mipsCmd = &cobra.Command{
	Use:   "mips [file]",
	Short: "Generate a full mip chain, one file per level",
	Args:  cobra.ExactArgs(1),
	RunE:  runMips,
}

func init() {
	mipsCmd.Flags().StringP("output-dir", "o", ".", "Directory for level_<n> files")
	mipsCmd.Flags().Bool("compress", true, "Compress every level to ASTC; otherwise write PNG")
	mipsCmd.Flags().String("algorithm", "lanczos", "Resampling filter")
	addEncodingFlags(mipsCmd)
	rootCmd.AddCommand(mipsCmd)
}

func runMips(cmd *cobra.Command, args []string) error {
	path := args[0]
	outDir, _ := cmd.Flags().GetString("output-dir")
	compress, _ := cmd.Flags().GetBool("compress")
	algStr, _ := cmd.Flags().GetString("algorithm")

	alg, err := resample.ParseAlgorithm(algStr)
	if err != nil {
		return err
	}
	ed, err := imaging.LoadEditor(path, imaging.DefaultLoadOptions(path))
	if err != nil {
		return err
	}
	block, quality, normal, err := encodingFlags(cmd, path, ed.ColorInfo().HDR)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	emit := func(lv mipchain.Level) error {
		name := fmt.Sprintf("level_%d.png", lv.Index)
		var data []byte
		if lv.Compressed != nil {
			name = fmt.Sprintf("level_%d.astc", lv.Index)
			var err error
			if data, err = lv.Compressed.MarshalASTC(); err != nil {
				return err
			}
		}
		out := filepath.Join(outDir, name)
		if data != nil {
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
		} else if err := writePNG(out, lv.Image); err != nil {
			return err
		}
		fmt.Printf("%2d  %5d x %-5d  %s\n", lv.Index, lv.Image.Width(), lv.Image.Height(), out)
		return nil
	}

	mip := mipchain.Options{Algorithm: alg, Quality: resample.DefaultQuality, Renormalize: normal}
	sink := progressPrinter(filepath.Base(path))
	if compress {
		return mipchain.CompressChain(ed, mipchain.CompressOptions{
			Mip:       mip,
			BlockSize: block,
			Quality:   quality,
			NormalMap: normal,
		}, emit, sink)
	}
	return mipchain.Generate(ed, mip, nil, emit, sink)
}

func writePNG(path string, img *imaging.Container) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := img.EncodePNG(f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
