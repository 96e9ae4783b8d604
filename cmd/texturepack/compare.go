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

var compareCmd = &cobra.Command{
	Use:   "compare [reference] [file]",
	Short: "Report RMSE and PSNR between two textures",
	Long: `Compare two textures of the same size component by component.

A .astc file is decoded first; --profile selects how.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().String("profile", "ldr", "Decode profile for .astc inputs")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	profileStr, _ := cmd.Flags().GetString("profile")
	profile, err := astc.ParseProfile(profileStr)
	if err != nil {
		return err
	}

	var imgs [2]*imaging.Container
	for i, path := range args {
		if imgs[i], err = loadAny(path, profile); err != nil {
			return err
		}
	}
	r, err := imaging.Compare(imgs[0], imgs[1])
	if err != nil {
		return err
	}

	rmse := make([]string, len(r.RMSE))
	for i, v := range r.RMSE {
		rmse[i] = fmt.Sprintf("%.5f", v)
	}
	fmt.Printf("Texels:      %d (%d different)\n", r.TotalTexels, r.TexelsDifferent)
	fmt.Printf("Similarity:  %.3f\n", r.SimilarityScore)
	fmt.Printf("RMSE:        %s\n", strings.Join(rmse, " "))
	fmt.Printf("PSNR:        %.2f dB\n", r.PSNR)
	fmt.Printf("Max error:   %.5f\n", r.MaxError)
	return nil
}

// loadAny loads an image file, decoding .astc and .astc.zst files with
// profile.
func loadAny(path string, profile astc.Profile) (*imaging.Container, error) {
	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".astc") && !strings.EqualFold(ext, ".zst") {
		return imaging.Load(path, imaging.DefaultLoadOptions(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	z, err := imaging.ParseASTC(data, profile, nil)
	if err != nil {
		return nil, err
	}
	return z.Decompress()
}
