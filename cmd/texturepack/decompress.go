package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/spf13/cobra"
)

var decompressCmd = &cobra.Command{
	Use:   "decompress [file.astc]",
	Short: "Decode a .astc file to PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecompress,
}

func init() {
	decompressCmd.Flags().StringP("output", "o", "", "Output PNG file (default: input with .png extension)")
	decompressCmd.Flags().String("profile", "ldr", "Decode profile: ldr, ldr-srgb, hdr-rgb-ldr-a or hdr")
	decompressCmd.Flags().Int("slice", 0, "Slice of a volume texture to write")
	rootCmd.AddCommand(decompressCmd)
}

func runDecompress(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	profileStr, _ := cmd.Flags().GetString("profile")
	slice, _ := cmd.Flags().GetInt("slice")
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}

	profile, err := astc.ParseProfile(profileStr)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	z, err := imaging.ParseASTC(data, profile, nil)
	if err != nil {
		return err
	}
	img, err := z.Decompress()
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := img.EncodePNG(f, slice); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d x %d, %s)\n", path, output, z.Header.Width, z.Header.Height, profile)
	return nil
}
