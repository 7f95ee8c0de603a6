package server

import (
	"fmt"

	"github.com/ironsheep/image-quantize-mcp/internal/dither"
	"github.com/ironsheep/image-quantize-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// quadrantNames are the named regions accepted by the "quadrant" argument.
var quadrantNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional rectangular region to process (x2, y2 exclusive)",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

func quadrantProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        quadrantNames,
		"description": "Optional named region to process. Ignored when region is given",
	}
}

func representativeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"mean", "original"},
		"description": "How each palette color is chosen: gamma-corrected mean of its bucket, or the bucket's median original color",
		"default":     "mean",
	}
}

func ditherNames() []string {
	modes := dither.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	return names
}

// GetToolDefinitions returns all available tools. Defaults that come from
// the server configuration are taken from cfg.
func GetToolDefinitions(cfg Config) []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, pixel type and number of distinct colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Color Analysis
		{
			Name:        "image_histogram",
			Description: "List the most frequent exact colors of an image or region with their pixel counts. No colors are merged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return (0 for all). Default 10",
						"default":     10,
					},
					"region":   regionProperty(),
					"quadrant": quadrantProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_palette",
			Description: "Compute a median-cut palette of an image or region and report the share of pixels each palette color covers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"colors": map[string]interface{}{
						"type":        "integer",
						"description": "Palette size, 2 to 256. Default 16",
						"default":     16,
					},
					"representative": representativeProperty(),
					"region":         regionProperty(),
					"quadrant":       quadrantProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_palette_swatch",
			Description: "Render a palette as a PNG grid of color cells, 16 per row. Pass the colors directly, or a path to draw the palette image_palette computes for it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"palette": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Palette colors as #RRGGBB or #RRGGBBAA. Takes precedence over path",
					},
					"path": pathProperty(),
					"colors": map[string]interface{}{
						"type":        "integer",
						"description": "Palette size when computing from path, 2 to 256. Default 16",
						"default":     16,
					},
					"representative": representativeProperty(),
					"region":         regionProperty(),
					"quadrant":       quadrantProperty(),
					"cell_size": map[string]interface{}{
						"type":        "integer",
						"description": fmt.Sprintf("Cell edge in pixels, %d to %d", imaging.MinSwatchCell, imaging.MaxSwatchCell),
						"default":     imaging.DefaultSwatchCell,
					},
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each cell with its palette index",
						"default":     false,
					},
				},
			},
		},

		// Conversion
		{
			Name:        "image_quantize",
			Description: "Convert an image to an indexed image with at most the given number of colors, using median cut and the chosen dither mode. Returns the palette and a base64-encoded image, or writes the image to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"colors": map[string]interface{}{
						"type":        "integer",
						"description": "Palette size, 2 to 256",
						"default":     cfg.Colors,
					},
					"dither": map[string]interface{}{
						"type":        "string",
						"enum":        ditherNames(),
						"description": "Dither mode",
						"default":     cfg.Dither.String(),
					},
					"representative": representativeProperty(),
					"weighted": map[string]interface{}{
						"type":        "boolean",
						"description": "Match colors with luma-weighted distance instead of plain RGB distance",
						"default":     false,
					},
					"gamma": map[string]interface{}{
						"type":        "number",
						"description": "Palette gamma for ordered dither modes",
						"default":     cfg.OrderedGamma,
					},
					"region":   regionProperty(),
					"quadrant": quadrantProperty(),
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Scale the image down to at most this width before converting. 0 for no limit",
						"default":     0,
					},
					"max_height": map[string]interface{}{
						"type":        "integer",
						"description": "Scale the image down to at most this height before converting. 0 for no limit",
						"default":     0,
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "gif", "bmp"},
						"description": "Encoding of the returned image",
						"default":     "png",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write (.png, .gif or .bmp) instead of returning the image inline",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_nearest_color",
			Description: "Find the palette entry closest to a color, optionally skipping some palette indices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"palette": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Palette colors as #RRGGBB or #RRGGBBAA",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Color to look up, #RRGGBB or #RRGGBBAA",
					},
					"exclude": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Palette indices that must not be returned",
					},
					"weighted": map[string]interface{}{
						"type":        "boolean",
						"description": "Use luma-weighted distance",
						"default":     false,
					},
				},
				"required": []string{"palette", "color"},
			},
		},
		{
			Name:        "image_dither_modes",
			Description: "List the available dither modes and the server's defaults.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
			"tools": GetToolDefinitions(s.config),
		},
	}
}
