package main

import (
	"fmt"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Show dimensions, pixel format and color classification",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	img, err := imaging.Load(path, imaging.DefaultLoadOptions(path))
	if err != nil {
		return err
	}
	info := imaging.Describe(img)

	fmt.Printf("File:        %s\n", path)
	fmt.Printf("Dimensions:  %d x %d x %d\n", info.Width, info.Height, info.Depth)
	fmt.Printf("Format:      %d x %s\n", info.Components, info.ComponentType)
	if info.ColorProfile != "" {
		fmt.Printf("Profile:     %s\n", info.ColorProfile)
	} else {
		fmt.Println("Profile:     none")
	}
	fmt.Printf("sRGB:        %v\n", info.SRGB)
	fmt.Printf("Linear:      %v\n", info.Linear)
	fmt.Printf("HDR:         %v\n", info.HDR)
	fmt.Printf("Mip levels:  %d\n", info.MipLevels)
	return nil
}
