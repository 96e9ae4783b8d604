package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "texturepack",
	Short: "Inspect textures, build mip chains and compress them to ASTC",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			imaging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log decoder and pipeline details to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
