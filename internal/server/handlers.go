package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/texture-tools-mcp/internal/astc"
	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
	"github.com/ironsheep/texture-tools-mcp/internal/mipchain"
	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
	"github.com/ironsheep/texture-tools-mcp/internal/progress"
	"github.com/ironsheep/texture-tools-mcp/internal/resample"
)

// Defaults applied to omitted tool arguments.
const (
	defaultBlockSize       = "4x4"
	defaultQuality         = "medium"
	defaultAlgorithm       = "lanczos"
	defaultResampleQuality = resample.DefaultQuality
	defaultPreviewSize     = 512
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "texture_load", "texture_compress").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When the request carries _meta.progressToken, notifications/progress
// messages are sent while the tool runs. Cancelling ctx stops the tool at
// its next progress report.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	var token interface{}
	if params.Meta != nil {
		token = params.Meta.ProgressToken
	}
	sink := progress.WithContext(ctx, s.progressSink(token))

	result, err := s.executeTool(params.Name, params.Arguments, sink)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// progressSink forwards progress as notifications/progress, skipping
// reports that advance less than 1%. Without a token nothing is sent.
func (s *Server) progressSink(token interface{}) progress.Sink {
	if token == nil {
		return progress.Nop()
	}
	last := float32(-1)
	return progress.Func(func(p float32) bool {
		if p-last < 0.01 && p < 1 {
			return false
		}
		last = p
		s.send(&MCPNotification{
			JSONRPC: "2.0",
			Method:  "notifications/progress",
			Params: map[string]interface{}{
				"progressToken": token,
				"progress":      p,
				"total":         1,
			},
		})
		return false
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/mipchain function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage, sink progress.Sink) (interface{}, error) {
	switch name {
	// Inspection
	case "texture_load":
		return s.handleTextureLoad(args)
	case "texture_sample":
		return s.handleTextureSample(args)
	case "texture_preview":
		return s.handleTexturePreview(args)

	// Processing
	case "texture_resample":
		return s.handleTextureResample(args, sink)
	case "texture_compress":
		return s.handleTextureCompress(args, sink)
	case "texture_mip_chain":
		return s.handleTextureMipChain(args, sink)
	case "texture_normal_from_height":
		return s.handleTextureNormalFromHeight(args)

	// Analysis
	case "texture_compare":
		return s.handleTextureCompare(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Inspection Handlers ===

type textureLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleTextureLoad(args json.RawMessage) (interface{}, error) {
	var a textureLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type textureSampleArgs struct {
	Path   string                 `json:"path"`
	X      int                    `json:"x"`
	Y      int                    `json:"y"`
	Z      int                    `json:"z"`
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleTextureSample(args json.RawMessage) (interface{}, error) {
	var a textureSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if len(a.Points) > 0 {
		return img.TexelsMulti(a.Points)
	}
	return img.Texel(a.X, a.Y, a.Z)
}

type texturePreviewArgs struct {
	Path    string `json:"path"`
	Slice   int    `json:"slice"`
	MaxSize int    `json:"max_size"`
}

func (s *Server) handleTexturePreview(args json.RawMessage) (interface{}, error) {
	var a texturePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize == 0 {
		a.MaxSize = defaultPreviewSize
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return img.Preview(a.Slice, a.MaxSize)
}

// === Processing Handlers ===

type textureResampleArgs struct {
	Path        string  `json:"path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Depth       int     `json:"depth"`
	Algorithm   string  `json:"algorithm"`
	Quality     float32 `json:"quality"`
	Renormalize bool    `json:"renormalize"`
	OutputPath  string  `json:"output_path"`
}

type resampleResult struct {
	*imaging.ImageInfo
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleTextureResample(args json.RawMessage, sink progress.Sink) (interface{}, error) {
	var a textureResampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Algorithm == "" {
		a.Algorithm = defaultAlgorithm
	}
	if a.Quality == 0 {
		a.Quality = defaultResampleQuality
	}
	alg, err := resample.ParseAlgorithm(a.Algorithm)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Depth == 0 {
		a.Depth = img.Depth()
	}

	out, err := img.CreateResampled(imaging.ResampleOptions{
		Algorithm:   alg,
		Quality:     a.Quality,
		Width:       a.Width,
		Height:      a.Height,
		Depth:       a.Depth,
		Renormalize: a.Renormalize,
	}, sink)
	if err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		if err := writePNG(a.OutputPath, out); err != nil {
			return nil, err
		}
	}
	return &resampleResult{ImageInfo: imaging.Describe(out), OutputPath: a.OutputPath}, nil
}

type textureCompressArgs struct {
	Path       string `json:"path"`
	BlockSize  string `json:"block_size"`
	Quality    string `json:"quality"`
	NormalMap  *bool  `json:"normal_map"`
	OutputPath string `json:"output_path"`

	MeasureError bool `json:"measure_error"`
}

type compressResult struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Depth        int     `json:"depth"`
	BlockSize    string  `json:"block_size"`
	Profile      string  `json:"profile"`
	NormalMap    bool    `json:"normal_map"`
	Bytes        int     `json:"bytes"`
	BitsPerTexel float64 `json:"bits_per_texel"`
	OutputPath   string  `json:"output_path,omitempty"`

	ErrorMetrics *imaging.CompareResult `json:"error_metrics,omitempty"`
}

func (s *Server) handleTextureCompress(args json.RawMessage, sink progress.Sink) (interface{}, error) {
	var a textureCompressArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	block, quality, err := parseEncoding(a.BlockSize, a.Quality)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	normal := mipchain.IsNormalMapPath(a.Path, img.IsHDR())
	if a.NormalMap != nil {
		normal = *a.NormalMap
	}

	alpha := img.NumComponents() == 4
	z, err := img.CreateASTCCompressed(imaging.CompressOptions{
		BlockSize:     block,
		Quality:       quality,
		ContainsAlpha: alpha,
		LDRAlpha:      img.IsHDR() && alpha,
		NormalMap:     normal,
	}, sink)
	if err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		if err := writeASTC(a.OutputPath, z); err != nil {
			return nil, err
		}
	}
	result := &compressResult{
		Width:        z.Header.Width,
		Height:       z.Header.Height,
		Depth:        z.Header.Depth,
		BlockSize:    block.String(),
		Profile:      z.Profile.String(),
		NormalMap:    normal,
		Bytes:        z.Size(),
		BitsPerTexel: block.BitsPerTexel(),
		OutputPath:   a.OutputPath,
	}
	if a.MeasureError {
		if result.ErrorMetrics, err = measureError(img, z); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// measureError decodes z and compares it with src brought into the same
// encoding the compressor used: half float, linearized when possible.
func measureError(src *imaging.Container, z *imaging.Compressed) (*imaging.CompareResult, error) {
	decoded, err := z.Decompress()
	if err != nil {
		return nil, err
	}
	ref := imaging.NewEditor(src)
	if err := ref.SetComponentType(pixel.Float16); err != nil {
		return nil, err
	}
	if err := ref.Linearize(); err != nil {
		imaging.Logger().Warn("comparing without linearization", "err", err)
	}
	return imaging.Compare(ref.Image(), decoded)
}

type textureMipChainArgs struct {
	Path      string `json:"path"`
	BlockSize string `json:"block_size"`
	Quality   string `json:"quality"`
	Algorithm string `json:"algorithm"`
	Compress  *bool  `json:"compress"`
	NormalMap *bool  `json:"normal_map"`
	OutputDir string `json:"output_dir"`
	Sheet     bool   `json:"sheet"`
}

type mipLevelResult struct {
	Level      int    `json:"level"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Depth      int    `json:"depth"`
	Bytes      int    `json:"bytes,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

type mipChainResult struct {
	LevelCount int              `json:"level_count"`
	Compressed bool             `json:"compressed"`
	NormalMap  bool             `json:"normal_map"`
	Levels     []mipLevelResult `json:"levels"`

	Sheet *imaging.SheetResult `json:"sheet,omitempty"`
}

func (s *Server) handleTextureMipChain(args json.RawMessage, sink progress.Sink) (interface{}, error) {
	var a textureMipChainArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Algorithm == "" {
		a.Algorithm = defaultAlgorithm
	}
	alg, err := resample.ParseAlgorithm(a.Algorithm)
	if err != nil {
		return nil, err
	}
	compress := a.Compress == nil || *a.Compress
	block, quality, err := parseEncoding(a.BlockSize, a.Quality)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	normal := mipchain.IsNormalMapPath(a.Path, img.IsHDR())
	if a.NormalMap != nil {
		normal = *a.NormalMap
	}
	if a.OutputDir != "" {
		if err := os.MkdirAll(a.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &mipChainResult{Compressed: compress, NormalMap: normal}
	var shown []*imaging.Container
	emit := func(lv mipchain.Level) error {
		if a.Sheet {
			if lv.Decompressed != nil {
				shown = append(shown, lv.Decompressed)
			} else {
				shown = append(shown, lv.Image)
			}
		}
		r := mipLevelResult{
			Level:  lv.Index,
			Width:  lv.Image.Width(),
			Height: lv.Image.Height(),
			Depth:  lv.Image.Depth(),
		}
		if lv.Compressed != nil {
			r.Bytes = lv.Compressed.Size()
		}
		if a.OutputDir != "" {
			var err error
			if r.OutputPath, err = writeLevel(a.OutputDir, lv); err != nil {
				return err
			}
		}
		result.Levels = append(result.Levels, r)
		return nil
	}

	mip := mipchain.Options{Algorithm: alg, Quality: defaultResampleQuality, Renormalize: normal}
	ed := imaging.NewEditor(img)
	if compress {
		err = mipchain.CompressChain(ed, mipchain.CompressOptions{
			Mip:        mip,
			BlockSize:  block,
			Quality:    quality,
			NormalMap:  normal,
			Decompress: a.Sheet,
		}, emit, sink)
	} else {
		err = mipchain.Generate(ed, mip, nil, emit, sink)
	}
	if err != nil {
		return nil, fmt.Errorf("mip chain stopped after %d levels: %w", len(result.Levels), err)
	}
	result.LevelCount = len(result.Levels)
	if a.Sheet {
		if result.Sheet, err = imaging.MipSheet(shown, 0, ""); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type textureNormalArgs struct {
	Path       string  `json:"path"`
	Strength   float32 `json:"strength"`
	Channel    *int    `json:"channel"`
	Blur       bool    `json:"blur"`
	Wrap       *bool   `json:"wrap"`
	FlipY      bool    `json:"flip_y"`
	Signed     bool    `json:"signed"`
	OutputPath string  `json:"output_path"`
}

type normalResult struct {
	*imaging.ImageInfo
	OutputPath string                 `json:"output_path,omitempty"`
	Preview    *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handleTextureNormalFromHeight(args json.RawMessage) (interface{}, error) {
	var a textureNormalArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := imaging.DefaultNormalMapOptions()
	if a.Strength != 0 {
		opts.Strength = a.Strength
	}
	if a.Channel != nil {
		opts.Channel = *a.Channel
	}
	if a.Wrap != nil {
		opts.Wrap = *a.Wrap
	}
	opts.Blur = a.Blur
	opts.FlipY = a.FlipY
	if a.Signed {
		opts.Type = pixel.Int8
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := img.CreateNormalMap(opts)
	if err != nil {
		return nil, err
	}
	result := &normalResult{ImageInfo: imaging.Describe(out), OutputPath: a.OutputPath}
	if a.OutputPath != "" {
		if err := writePNG(a.OutputPath, out); err != nil {
			return nil, err
		}
	} else if result.Preview, err = out.Preview(0, defaultPreviewSize); err != nil {
		return nil, err
	}
	return result, nil
}

// === Analysis Handlers ===

type textureCompareArgs struct {
	Path      string `json:"path"`
	Reference string `json:"reference"`
}

func (s *Server) handleTextureCompare(args json.RawMessage) (interface{}, error) {
	var a textureCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	ref, err := s.cache.Load(a.Reference)
	if err != nil {
		return nil, err
	}
	return imaging.Compare(ref, img)
}

func parseEncoding(blockSize, quality string) (astc.BlockSize, float32, error) {
	if blockSize == "" {
		blockSize = defaultBlockSize
	}
	if quality == "" {
		quality = defaultQuality
	}
	block, err := astc.ParseBlockSize(blockSize)
	if err != nil {
		return astc.BlockSize{}, 0, err
	}
	q, err := astc.ParseQuality(quality)
	if err != nil {
		return astc.BlockSize{}, 0, err
	}
	return block, q, nil
}

func writeLevel(dir string, lv mipchain.Level) (string, error) {
	if lv.Compressed != nil {
		path := filepath.Join(dir, fmt.Sprintf("level_%d.astc", lv.Index))
		return path, writeASTC(path, lv.Compressed)
	}
	path := filepath.Join(dir, fmt.Sprintf("level_%d.png", lv.Index))
	return path, writePNG(path, lv.Image)
}

// writeASTC writes a .astc file, zstd-supercompressed when path ends in
// .zst.
func writeASTC(path string, z *imaging.Compressed) error {
	data, err := z.MarshalASTC()
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".zst") {
		if data, err = astc.Supercompress(data); err != nil {
			return fmt.Errorf("failed to supercompress %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writePNG(path string, img *imaging.Container) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := img.EncodePNG(f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
