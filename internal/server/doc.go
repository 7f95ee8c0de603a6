// Package server implements the MCP (Model Context Protocol) server for color
// reduction tools.
//
// This package provides a JSON-RPC 2.0 server that exposes histogram, palette
// and truecolor-to-indexed conversion capabilities through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata, including its color count
//   - image_dimensions: Get width and height
//
// Color Analysis:
//   - image_histogram: Most frequent exact colors
//   - image_palette: Median-cut palette with per-color coverage
//   - image_palette_swatch: Render a palette as a PNG grid of cells
//
// Conversion:
//   - image_quantize: Reduce to an indexed image with a chosen dither mode,
//     reporting how closely it matches the source
//   - image_nearest_color: Look up the closest palette entry
//   - image_dither_modes: List dither modes and configured defaults
//
// # Configuration
//
// LoadConfig reads IMAGE_MCP_LOG_LEVEL, IMAGE_QUANT_COLORS,
// IMAGE_QUANT_DITHER and IMAGE_QUANT_ORDERED_GAMMA. The last three set the
// defaults used when a tool call omits colors, dither or gamma.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	cfg, err := server.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.NewWithConfig(cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
