package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/spf13/cobra"
)

var normalCmd = &cobra.Command{
	Use:   "normal [heightmap]",
	Short: "Derive a tangent-space normal map from a height map",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormal,
}

func init() {
	normalCmd.Flags().StringP("output", "o", "", "Output PNG file (default: <input>_normal.png)")
	normalCmd.Flags().Float32("strength", 1, "Gradient multiplier")
	normalCmd.Flags().Int("channel", -1, "Height component; -1 uses RGB luminance")
	normalCmd.Flags().Bool("blur", false, "Smooth heights with a 5x5 Gaussian first")
	normalCmd.Flags().Bool("wrap", true, "Sample across opposite edges (tiling textures)")
	normalCmd.Flags().Bool("flip-y", false, "DirectX convention, green pointing down")
	normalCmd.Flags().Bool("signed", false, "Store signed int8 components")
	rootCmd.AddCommand(normalCmd)
}

func runNormal(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + "_normal.png"
	}

	opts := imaging.DefaultNormalMapOptions()
	opts.Strength, _ = cmd.Flags().GetFloat32("strength")
	opts.Channel, _ = cmd.Flags().GetInt("channel")
	opts.Blur, _ = cmd.Flags().GetBool("blur")
	opts.Wrap, _ = cmd.Flags().GetBool("wrap")
	opts.FlipY, _ = cmd.Flags().GetBool("flip-y")
	if signed, _ := cmd.Flags().GetBool("signed"); signed {
		opts.Type = pixel.Int8
	}

	img, err := imaging.Load(path, imaging.DefaultLoadOptions(path))
	if err != nil {
		return err
	}
	out, err := img.CreateNormalMap(opts)
	if err != nil {
		return err
	}
	if err := writePNG(output, out); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d x %d, %s)\n", path, output, out.Width(), out.Height(), out.ComponentType())
	return nil
}
