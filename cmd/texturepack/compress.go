package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/mipchain"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/spf13/cobra"
)

var compressCmd = &cobra.Command{
	Use:   "compress [file]",
	Short: "Compress a texture to a .astc file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompress,
}

func init() {
	compressCmd.Flags().StringP("output", "o", "", "Output .astc file (default: input with .astc extension)")
	compressCmd.Flags().Bool("zstd", false, "Supercompress the output with zstd (adds .zst)")
	addEncodingFlags(compressCmd)
	rootCmd.AddCommand(compressCmd)
}

// addEncodingFlags registers the flags shared by compress and mips.
func addEncodingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("block", "b", "4x4", "ASTC block footprint, e.g. 4x4, 8x8 or 4x4x4")
	cmd.Flags().StringP("quality", "q", "medium", "Encoder effort: preset name or 0-100")
	cmd.Flags().Bool("normal", false, "Encode as a normal map (default: derived from the file name)")
}

func encodingFlags(cmd *cobra.Command, path string, hdr bool) (astc.BlockSize, float32, bool, error) {
	blockStr, _ := cmd.Flags().GetString("block")
	qualityStr, _ := cmd.Flags().GetString("quality")
	block, err := astc.ParseBlockSize(blockStr)
	if err != nil {
		return astc.BlockSize{}, 0, false, err
	}
	quality, err := astc.ParseQuality(qualityStr)
	if err != nil {
		return astc.BlockSize{}, 0, false, err
	}
	normal := mipchain.IsNormalMapPath(path, hdr)
	if cmd.Flags().Changed("normal") {
		normal, _ = cmd.Flags().GetBool("normal")
	}
	return block, quality, normal, nil
}

// progressPrinter prints one line per 10% to stderr.
func progressPrinter(label string) progress.Sink {
	next := float32(0)
	return progress.Func(func(p float32) bool {
		for p >= next && next <= 1 {
			fmt.Fprintf(os.Stderr, "%s: %3.0f%%\n", label, next*100)
			next += 0.1
		}
		return false
	})
}

func runCompress(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".astc"
	}

	img, err := imaging.Load(path, imaging.DefaultLoadOptions(path))
	if err != nil {
		return err
	}
	block, quality, normal, err := encodingFlags(cmd, path, img.IsHDR())
	if err != nil {
		return err
	}

	alpha := img.NumComponents() == 4
	z, err := img.CreateASTCCompressed(imaging.CompressOptions{
		BlockSize:     block,
		Quality:       quality,
		ContainsAlpha: alpha,
		LDRAlpha:      img.IsHDR() && alpha,
		NormalMap:     normal,
	}, progressPrinter(filepath.Base(path)))
	if err != nil {
		return err
	}
	data, err := z.MarshalASTC()
	if err != nil {
		return err
	}
	if zst, _ := cmd.Flags().GetBool("zstd"); zst {
		if data, err = astc.Supercompress(data); err != nil {
			return err
		}
		if !strings.EqualFold(filepath.Ext(output), ".zst") {
			output += ".zst"
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("%s -> %s\n", path, output)
	fmt.Printf("  Block:    %s (%.2f bpp)\n", block, block.BitsPerTexel())
	fmt.Printf("  Profile:  %s\n", z.Profile)
	fmt.Printf("  Payload:  %d bytes (%d on disk)\n", z.Size(), len(data))
	if normal {
		fmt.Println("  Normal map encoding")
	}
	return nil
}
