package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("texture-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	logLevel := os.Getenv("TEXTURE_MCP_LOG_LEVEL")
	if logLevel == "debug" {
		log.Printf("Texture MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		imaging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	srv := server.New()
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "texture-tools-mcp - MCP server for texture inspection, mip chains and ASTC compression")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: texture-tools-mcp [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tools:")
	fmt.Fprintln(w, "  texture_load                Report size, pixel format, color classification and mip count")
	fmt.Fprintln(w, "  texture_sample              Read texel values at one or more coordinates")
	fmt.Fprintln(w, "  texture_preview             Render a slice as a base64 PNG")
	fmt.Fprintln(w, "  texture_resample            Scale a texture down, optionally writing a PNG")
	fmt.Fprintln(w, "  texture_compress            Compress to ASTC (.astc, or .astc.zst supercompressed)")
	fmt.Fprintln(w, "  texture_mip_chain           Generate and optionally compress the full mip chain")
	fmt.Fprintln(w, "  texture_normal_from_height  Derive a tangent-space normal map from a height map")
	fmt.Fprintln(w, "  texture_compare             Compare against a reference (RMSE, PSNR, max error)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported inputs: PNG, JPEG, GIF, BMP, TIFF, WebP, TGA, Radiance HDR, OpenEXR")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  TEXTURE_MCP_LOG_LEVEL=debug    Enable debug logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(w, "Configure it in your MCP client (e.g., Claude Desktop).")
}
