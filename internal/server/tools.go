package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the source image (PNG, JPEG, GIF, BMP, TIFF, WebP, Radiance .hdr or TGA)",
	}
}

func blockSizeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "ASTC block footprint, e.g. \"4x4\", \"6x6\", \"12x12\" or \"4x4x4\" for volumes. Default 4x4",
		"default":     defaultBlockSize,
	}
}

func qualityProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Encoder effort: fastest, fast, medium, thorough, verythorough, exhaustive, or a number 0-100. Default medium",
		"default":     defaultQuality,
	}
}

func algorithmProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Resampling filter: nearest, box, linear, catmullrom, mitchell, gaussian or lanczos. Default lanczos",
		"enum":        []string{"nearest", "box", "linear", "catmullrom", "mitchell", "gaussian", "lanczos"},
		"default":     defaultAlgorithm,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "texture_load",
			Description: "Load a texture source and report its dimensions, pixel format, color classification (sRGB, linear, HDR) and mip chain length.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_sample",
			Description: "Read texel values at one coordinate, or at several labeled coordinates. Returns the stored components plus a display color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0 = left edge)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0 = top edge)",
					},
					"z": map[string]interface{}{
						"type":        "integer",
						"description": "Slice index for volume textures. Default 0",
						"default":     0,
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Optional list of points to sample instead of x/y/z",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"z":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_preview",
			Description: "Render one slice of a texture as a base64-encoded PNG, scaled down to fit max_size. Values are shown as stored, without tone mapping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"slice": map[string]interface{}{
						"type":        "integer",
						"description": "Slice index for volume textures. Default 0",
						"default":     0,
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Largest preview edge in pixels. Default 512",
						"default":     defaultPreviewSize,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_resample",
			Description: "Scale a texture down to the given dimensions and optionally write the result as PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Target width, at most the source width",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Target height, at most the source height",
					},
					"depth": map[string]interface{}{
						"type":        "integer",
						"description": "Target depth. Default: source depth",
					},
					"algorithm": algorithmProperty(),
					"quality": map[string]interface{}{
						"type":        "number",
						"description": "Lanczos lobes or Gaussian width. Default 3",
						"default":     defaultResampleQuality,
					},
					"renormalize": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat RGB as a unit vector (normal maps). Default false",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional PNG file to write the first slice to",
					},
				},
				"required": []string{"path", "width", "height"},
			},
		},
		{
			Name:        "texture_compress",
			Description: "Compress a texture to ASTC. Sources are promoted to half float and linearized before encoding. Optionally writes a .astc file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"block_size": blockSizeProperty(),
					"quality":    qualityProperty(),
					"normal_map": map[string]interface{}{
						"type":        "boolean",
						"description": "Encode as a two-channel normal map. Default: true for LDR files whose path contains \"normal\"",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional .astc file to write; a .zst suffix writes it zstd-supercompressed",
					},
					"measure_error": map[string]interface{}{
						"type":        "boolean",
						"description": "Decode the result and report RMSE and PSNR against the linearized source. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_mip_chain",
			Description: "Generate the full mip chain of a texture down to 1x1, optionally compressing every level to ASTC and writing one file per level.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"block_size": blockSizeProperty(),
					"quality":    qualityProperty(),
					"algorithm":  algorithmProperty(),
					"compress": map[string]interface{}{
						"type":        "boolean",
						"description": "Compress every level to ASTC. Default true",
						"default":     true,
					},
					"normal_map": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat the source as a normal map. Default: derived from the path",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for level_<n>.astc (or .png when not compressing)",
					},
					"sheet": map[string]interface{}{
						"type":        "boolean",
						"description": "Return a base64 PNG with every level side by side (decoded levels when compressing). Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_normal_from_height",
			Description: "Derive a tangent-space normal map from a height map using Sobel gradients. Returns a preview, or writes a PNG when output_path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"strength": map[string]interface{}{
						"type":        "number",
						"description": "Gradient multiplier; larger values give steeper normals. Default 1",
						"default":     1,
					},
					"channel": map[string]interface{}{
						"type":        "integer",
						"description": "Component holding the height. Default: luminance of RGB",
					},
					"blur": map[string]interface{}{
						"type":        "boolean",
						"description": "Smooth the heights with a 5x5 Gaussian first. Default false",
					},
					"wrap": map[string]interface{}{
						"type":        "boolean",
						"description": "Sample across opposite edges for tiling textures. Default true",
						"default":     true,
					},
					"flip_y": map[string]interface{}{
						"type":        "boolean",
						"description": "DirectX convention (green down). Default false",
					},
					"signed": map[string]interface{}{
						"type":        "boolean",
						"description": "Store signed int8 components instead of unsigned 0-255. Default false",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional PNG file to write",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "texture_compare",
			Description: "Compare a texture with a reference of the same size: per-component RMSE, PSNR, max error and the share of visibly different texels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"reference": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the reference image",
					},
				},
				"required": []string{"path", "reference"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
