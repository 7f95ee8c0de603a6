package server

import (
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/image-quantize-mcp/internal/dither"
	"github.com/ironsheep/image-quantize-mcp/internal/imaging"
	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_quantize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.debugf("tool %s failed after %v: %v", params.Name, time.Since(start), err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.debugf("tool %s done in %v", params.Name, time.Since(start))

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

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Color Analysis
	case "image_histogram":
		return s.handleImageHistogram(args)
	case "image_palette":
		return s.handleImagePalette(args)

	// Conversion
	case "image_quantize":
		return s.handleImageQuantize(args)
	case "image_nearest_color":
		return s.handleImageNearestColor(args)
	case "image_dither_modes":
		return s.handleImageDitherModes(args)
	case "image_palette_swatch":
		return s.handleImagePaletteSwatch(args)

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

// unmarshalArgs decodes tool arguments into v. Missing arguments decode as
// an empty object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Color Analysis Handlers ===

// areaArgs selects part of an image, either by coordinates or by name.
type areaArgs struct {
	Region   *imaging.Region `json:"region,omitempty"`
	Quadrant string          `json:"quadrant,omitempty"`
}

// resolve returns the region to process in img, or nil for the whole image.
func (a areaArgs) resolve(img image.Image) (*imaging.Region, error) {
	if a.Region != nil {
		return a.Region, nil
	}
	if a.Quadrant != "" {
		return imaging.NamedRegion(img.Bounds(), a.Quadrant)
	}
	return nil, nil
}

type imageHistogramArgs struct {
	Path  string `json:"path"`
	Count *int   `json:"count,omitempty"`
	areaArgs
}

func (s *Server) handleImageHistogram(args json.RawMessage) (interface{}, error) {
	var a imageHistogramArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	count := 10
	if a.Count != nil {
		count = *a.Count
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region, err := a.resolve(img)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Prepare(img, imaging.PrepareOptions{Region: region})
	if err != nil {
		return nil, err
	}
	return imaging.TopColors(src, count)
}

type imagePaletteArgs struct {
	Path           string `json:"path"`
	Colors         int    `json:"colors"`
	Representative string `json:"representative"`
	areaArgs
}

func (s *Server) handleImagePalette(args json.RawMessage) (interface{}, error) {
	var a imagePaletteArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.imagePalette(a)
}

func (s *Server) imagePalette(a imagePaletteArgs) (*imaging.PaletteResult, error) {
	if a.Colors == 0 {
		a.Colors = 16
	}
	mode, err := palette.ParseRepresentative(a.Representative)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region, err := a.resolve(img)
	if err != nil {
		return nil, err
	}
	return imaging.PaletteColors(img, a.Colors, region, mode)
}

// === Conversion Handlers ===

type imageQuantizeArgs struct {
	Path           string  `json:"path"`
	Colors         int     `json:"colors"`
	Dither         string  `json:"dither"`
	Representative string  `json:"representative"`
	Weighted       bool    `json:"weighted"`
	Gamma          float64 `json:"gamma"`
	MaxWidth       int     `json:"max_width"`
	MaxHeight      int     `json:"max_height"`
	Format         string  `json:"format"`
	OutputPath     string  `json:"output_path"`
	areaArgs
}

// convertOptions merges a with the server defaults.
func (s *Server) convertOptions(a imageQuantizeArgs) (imaging.ConvertOptions, error) {
	opts := imaging.ConvertOptions{
		Colors:       s.config.Colors,
		Mode:         s.config.Dither,
		Weighted:     a.Weighted,
		OrderedGamma: s.config.OrderedGamma,
	}
	if a.Colors != 0 {
		opts.Colors = a.Colors
	}
	if a.Gamma != 0 {
		opts.OrderedGamma = a.Gamma
	}
	if a.Dither != "" {
		m, err := dither.ParseMode(a.Dither)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	rep, err := palette.ParseRepresentative(a.Representative)
	if err != nil {
		return opts, err
	}
	opts.Representative = rep
	return opts, nil
}

func (s *Server) handleImageQuantize(args json.RawMessage) (interface{}, error) {
	var a imageQuantizeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.convertOptions(a)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region, err := a.resolve(img)
	if err != nil {
		return nil, err
	}
	return imaging.QuantizeImage(img, imaging.QuantizeRequest{
		Prepare: imaging.PrepareOptions{
			Region:    region,
			MaxWidth:  a.MaxWidth,
			MaxHeight: a.MaxHeight,
		},
		Convert:    opts,
		Format:     a.Format,
		OutputPath: a.OutputPath,
	})
}

type imageNearestColorArgs struct {
	Palette  []string `json:"palette"`
	Color    string   `json:"color"`
	Exclude  []int    `json:"exclude"`
	Weighted bool     `json:"weighted"`
}

func (s *Server) handleImageNearestColor(args json.RawMessage) (interface{}, error) {
	var a imageNearestColorArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.NearestColor(a.Palette, a.Color, a.Exclude, a.Weighted)
}

type imagePaletteSwatchArgs struct {
	Palette   []string `json:"palette"`
	CellSize  int      `json:"cell_size"`
	ShowIndex bool     `json:"show_index"`
	imagePaletteArgs
}

// handleImagePaletteSwatch draws either the given palette or, when only a
// path is given, the palette image_palette would return for it.
func (s *Server) handleImagePaletteSwatch(args json.RawMessage) (interface{}, error) {
	var a imagePaletteSwatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	var p palette.Palette
	switch {
	case len(a.Palette) > 0:
		parsed, err := imaging.ParsePalette(a.Palette)
		if err != nil {
			return nil, err
		}
		p = parsed
	case a.Path != "":
		res, err := s.imagePalette(a.imagePaletteArgs)
		if err != nil {
			return nil, err
		}
		p = res.Palette()
	default:
		return nil, fmt.Errorf("palette or path is required")
	}
	return imaging.RenderSwatch(p, a.CellSize, a.ShowIndex)
}

// DitherModeInfo describes one dither mode for image_dither_modes.
type DitherModeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "nearest", "error-diffusion" or "ordered"

	// MatrixSize is the threshold matrix dimension of ordered modes.
	MatrixSize int `json:"matrix_size,omitempty"`
}

// DitherModesResult lists the dither modes and the configured defaults.
type DitherModesResult struct {
	Modes         []DitherModeInfo `json:"modes"`
	DefaultMode   string           `json:"default_mode"`
	DefaultColors int              `json:"default_colors"`
	OrderedGamma  float64          `json:"ordered_gamma"`
}

func (s *Server) handleImageDitherModes(_ json.RawMessage) (interface{}, error) {
	modes := dither.Modes()
	infos := make([]DitherModeInfo, len(modes))
	for i, m := range modes {
		info := DitherModeInfo{Name: m.String(), Kind: "error-diffusion"}
		switch {
		case m == dither.None:
			info.Kind = "nearest"
		case m.OrderedSize() > 0:
			info.Kind = "ordered"
			info.MatrixSize = m.OrderedSize()
		}
		infos[i] = info
	}
	return &DitherModesResult{
		Modes:         infos,
		DefaultMode:   s.config.Dither.String(),
		DefaultColors: s.config.Colors,
		OrderedGamma:  s.config.OrderedGamma,
	}, nil
}
