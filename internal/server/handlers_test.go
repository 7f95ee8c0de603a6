package server

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/image-quantize-mcp/internal/dither"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

// createGradientFile writes a horizontal red-to-blue ramp and returns its
// path.
func createGradientFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / (width - 1))
			img.Set(x, y, color.RGBA{255 - v, uint8(y * 4), v, 255})
		}
	}
	return writeTestPNG(t, img)
}

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	return tmpFile.Name()
}

// callTool runs a tools/call request and decodes the text content into a
// generic map.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %+v", name, resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
	return out
}

// callToolErr runs a tools/call request that is expected to fail.
func callToolErr(t *testing.T, s *Server, name string, args interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  paramsJSON,
	})
	if resp.Error == nil {
		t.Fatalf("%s: expected an error response", name)
	}
	return resp.Error
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	info := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath})

	if info["width"] != float64(100) || info["height"] != float64(80) {
		t.Errorf("dimensions: got %vx%v, want 100x80", info["width"], info["height"])
	}
	if info["distinct_colors"] != float64(1) {
		t.Errorf("distinct_colors: got %v, want 1", info["distinct_colors"])
	}
	if info["fits_palette"] != true {
		t.Errorf("fits_palette: got %v, want true", info["fits_palette"])
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	dims := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath})

	if dims["width"] != float64(200) || dims["height"] != float64(150) {
		t.Errorf("dimensions: got %vx%v, want 200x150", dims["width"], dims["height"])
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	e := callToolErr(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	if e.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", e.Code)
	}
	if data, _ := e.Data.(string); !strings.Contains(data, "failed to open image") {
		t.Errorf("Error data: got %v", e.Data)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	e := callToolErr(t, s, "nonexistent_tool", map[string]interface{}{})
	if data, _ := e.Data.(string); !strings.Contains(data, "unknown tool") {
		t.Errorf("Error data: got %v", e.Data)
	}
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	s := New()

	for _, name := range []string{"image_load", "image_dimensions"} {
		t.Run(name, func(t *testing.T) {
			e := callToolErr(t, s, name, map[string]interface{}{})
			if data, _ := e.Data.(string); !strings.Contains(data, "path is required") {
				t.Errorf("Error data: got %v", e.Data)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()

	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{not json`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_Histogram(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 10, 10, color.RGBA{16, 32, 48, 255})

	result := callTool(t, s, "image_histogram", map[string]interface{}{"path": imgPath})

	colors, ok := result["colors"].([]interface{})
	if !ok || len(colors) != 1 {
		t.Fatalf("colors: got %v", result["colors"])
	}
	first := colors[0].(map[string]interface{})
	if first["hex"] != "#102030" || first["pixels"] != float64(100) || first["percentage"] != float64(100) {
		t.Errorf("first color: got %v", first)
	}
}

func TestHandleToolsCall_Histogram_Quadrant(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 64, 16)

	whole := callTool(t, s, "image_histogram", map[string]interface{}{"path": imgPath, "count": 0})
	part := callTool(t, s, "image_histogram", map[string]interface{}{"path": imgPath, "count": 0, "quadrant": "top-left"})

	if whole["total_pixels"] != float64(64*16) {
		t.Errorf("whole total_pixels: got %v", whole["total_pixels"])
	}
	if part["total_pixels"] != float64(32*8) {
		t.Errorf("quadrant total_pixels: got %v", part["total_pixels"])
	}
	if n := len(whole["colors"].([]interface{})); n != 64*16 {
		t.Errorf("count 0 should list every color: got %d", n)
	}
}

func TestHandleToolsCall_Palette(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 64, 16)

	result := callTool(t, s, "image_palette", map[string]interface{}{
		"path":           imgPath,
		"colors":         8,
		"representative": "original",
	})

	colors, ok := result["colors"].([]interface{})
	if !ok || len(colors) < 2 || len(colors) > 8 {
		t.Fatalf("colors: got %d entries", len(colors))
	}
	if result["representative"] != "original" {
		t.Errorf("representative: got %v", result["representative"])
	}

	pixels := 0.0
	for _, c := range colors {
		pixels += c.(map[string]interface{})["pixels"].(float64)
	}
	if pixels != 64*16 {
		t.Errorf("palette covers %v pixels, want %d", pixels, 64*16)
	}
}

func TestHandleToolsCall_Palette_Region(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 64, 16)

	result := callTool(t, s, "image_palette", map[string]interface{}{
		"path":   imgPath,
		"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 1, "y2": 1},
	})
	colors := result["colors"].([]interface{})
	if len(colors) != 1 {
		t.Fatalf("colors: got %d, want 1", len(colors))
	}
	if hex := colors[0].(map[string]interface{})["hex"]; hex != "#FF0000" {
		t.Errorf("hex: got %v, want #FF0000", hex)
	}
}

func TestHandleToolsCall_Palette_Errors(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 16, 4)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"bad representative", map[string]interface{}{"path": imgPath, "representative": "median"}},
		{"too many colors", map[string]interface{}{"path": imgPath, "colors": 1000}},
		{"bad quadrant", map[string]interface{}{"path": imgPath, "quadrant": "middle"}},
		{"region out of bounds", map[string]interface{}{"path": imgPath, "region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 100, "y2": 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callToolErr(t, s, "image_palette", tt.args)
		})
	}
}

func TestHandleToolsCall_Quantize(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 64, 16)

	result := callTool(t, s, "image_quantize", map[string]interface{}{
		"path":   imgPath,
		"colors": 4,
		"dither": "atkinson",
	})

	if result["dither"] != "atkinson" {
		t.Errorf("dither: got %v, want atkinson", result["dither"])
	}
	if result["mime_type"] != "image/png" {
		t.Errorf("mime_type: got %v, want image/png", result["mime_type"])
	}
	if n := len(result["palette"].([]interface{})); n < 2 || n > 4 {
		t.Errorf("palette size %d outside [2,4]", n)
	}
	fidelity, ok := result["fidelity"].(map[string]interface{})
	if !ok || fidelity["total_pixels"] != float64(64*16) {
		t.Errorf("fidelity: got %v", result["fidelity"])
	}

	data, err := base64.StdEncoding.DecodeString(result["image_base64"].(string))
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if _, ok := img.(*image.Paletted); !ok {
		t.Errorf("decoded image is %T, want *image.Paletted", img)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 16 {
		t.Errorf("dimensions: got %v, want 64x16", img.Bounds())
	}
}

func TestHandleToolsCall_Quantize_ConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors = 2
	cfg.Dither = dither.Ordered8x8
	s := NewWithConfig(cfg)
	imgPath := createGradientFile(t, 32, 8)

	result := callTool(t, s, "image_quantize", map[string]interface{}{"path": imgPath})

	if result["dither"] != "ordered-8x8" {
		t.Errorf("dither: got %v, want ordered-8x8", result["dither"])
	}
	if n := len(result["palette"].([]interface{})); n != 2 {
		t.Errorf("palette size: got %d, want 2", n)
	}
}

func TestHandleToolsCall_Quantize_OutputPath(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 100, 50)
	outPath := filepath.Join(t.TempDir(), "out.gif")

	result := callTool(t, s, "image_quantize", map[string]interface{}{
		"path":        imgPath,
		"colors":      16,
		"dither":      "none",
		"max_width":   50,
		"output_path": outPath,
	})

	if result["output_path"] != outPath {
		t.Errorf("output_path: got %v, want %s", result["output_path"], outPath)
	}
	if _, ok := result["image_base64"]; ok {
		t.Error("image_base64 should be omitted when writing to a file")
	}
	if result["width"] != float64(50) || result["height"] != float64(25) {
		t.Errorf("dimensions: got %vx%v, want 50x25", result["width"], result["height"])
	}

	info := callTool(t, s, "image_load", map[string]interface{}{"path": outPath})
	if info["format"] != "gif" || info["color_depth"] != "indexed" {
		t.Errorf("saved image: got %v %v, want gif indexed", info["format"], info["color_depth"])
	}
}

func TestHandleToolsCall_Quantize_Errors(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 16, 4)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"bad dither", map[string]interface{}{"path": imgPath, "dither": "sierra"}},
		{"bad format", map[string]interface{}{"path": imgPath, "format": "jpeg"}},
		{"bad gamma", map[string]interface{}{"path": imgPath, "dither": "ordered-2x2", "gamma": -2}},
		{"bad representative", map[string]interface{}{"path": imgPath, "representative": "x"}},
		{"bad output extension", map[string]interface{}{"path": imgPath, "output_path": filepath.Join(t.TempDir(), "out.jpg")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callToolErr(t, s, "image_quantize", tt.args)
		})
	}
}

func TestHandleToolsCall_NearestColor(t *testing.T) {
	s := New()

	result := callTool(t, s, "image_nearest_color", map[string]interface{}{
		"palette": []string{"#000000", "#808080", "#FFFFFF"},
		"color":   "#707070",
	})
	if result["index"] != float64(1) {
		t.Errorf("index: got %v, want 1", result["index"])
	}
	if result["exact"] != false {
		t.Errorf("exact: got %v, want false", result["exact"])
	}

	excluded := callTool(t, s, "image_nearest_color", map[string]interface{}{
		"palette": []string{"#000000", "#808080", "#FFFFFF"},
		"color":   "#707070",
		"exclude": []int{1},
	})
	if excluded["index"] != float64(0) {
		t.Errorf("index with exclusion: got %v, want 0", excluded["index"])
	}
}

func TestHandleToolsCall_NearestColor_Errors(t *testing.T) {
	s := New()

	callToolErr(t, s, "image_nearest_color", map[string]interface{}{"palette": []string{}, "color": "#000000"})
	callToolErr(t, s, "image_nearest_color", map[string]interface{}{"palette": []string{"#000000"}, "color": "black"})
	callToolErr(t, s, "image_nearest_color", map[string]interface{}{"palette": []string{"#000000", "#000000"}, "color": "#101010"})
}

func TestHandleToolsCall_PaletteSwatch(t *testing.T) {
	s := New()

	result := callTool(t, s, "image_palette_swatch", map[string]interface{}{
		"palette":    []string{"#000000", "#FF0000", "#FFFFFF80"},
		"cell_size":  8,
		"show_index": true,
	})
	if result["columns"] != float64(3) || result["rows"] != float64(1) {
		t.Errorf("layout: got %vx%v, want 3x1", result["columns"], result["rows"])
	}
	if result["width"] != float64(28) || result["height"] != float64(10) {
		t.Errorf("size: got %vx%v, want 28x10", result["width"], result["height"])
	}

	data, err := base64.StdEncoding.DecodeString(result["image_base64"].(string))
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(strings.NewReader(string(data))); err != nil {
		t.Errorf("swatch is not a valid PNG: %v", err)
	}
}

func TestHandleToolsCall_PaletteSwatch_FromPath(t *testing.T) {
	s := New()
	imgPath := createGradientFile(t, 64, 8)

	result := callTool(t, s, "image_palette_swatch", map[string]interface{}{
		"path":     imgPath,
		"colors":   20,
		"quadrant": "left-half",
	})
	if result["columns"] != float64(16) || result["rows"] != float64(2) {
		t.Errorf("layout: got %vx%v, want 16x2", result["columns"], result["rows"])
	}
}

func TestHandleToolsCall_PaletteSwatch_Errors(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no palette or path", map[string]interface{}{}},
		{"bad color", map[string]interface{}{"palette": []string{"red"}}},
		{"repeated color", map[string]interface{}{"palette": []string{"#123456", "#123456"}}},
		{"cell too small", map[string]interface{}{"palette": []string{"#000000"}, "cell_size": 2}},
		{"missing file", map[string]interface{}{"path": "/nonexistent/image.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callToolErr(t, s, "image_palette_swatch", tt.args)
		})
	}
}

func TestHandleToolsCall_DitherModes(t *testing.T) {
	s := New()

	result := callTool(t, s, "image_dither_modes", map[string]interface{}{})

	modes, ok := result["modes"].([]interface{})
	if !ok {
		t.Fatalf("modes: got %v", result["modes"])
	}

	type row struct {
		Name string
		Kind string
		Size float64
	}
	var got []row
	for _, m := range modes {
		mm := m.(map[string]interface{})
		size, _ := mm["matrix_size"].(float64)
		got = append(got, row{mm["name"].(string), mm["kind"].(string), size})
	}
	want := []row{
		{"none", "nearest", 0},
		{"floyd-steinberg", "error-diffusion", 0},
		{"atkinson", "error-diffusion", 0},
		{"stucki", "error-diffusion", 0},
		{"burkes", "error-diffusion", 0},
		{"jarvis", "error-diffusion", 0},
		{"ordered-2x2", "ordered", 2},
		{"ordered-4x4", "ordered", 4},
		{"ordered-8x8", "ordered", 8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("modes mismatch (-want +got):\n%s", diff)
	}
	if result["default_mode"] != "floyd-steinberg" || result["default_colors"] != float64(256) {
		t.Errorf("defaults: got %v / %v", result["default_mode"], result["default_colors"])
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 100, color.RGBA{128, 128, 128, 255})

	// Test each tool to ensure executeTool correctly dispatches
	toolTests := []struct {
		name string
		args map[string]interface{}
	}{
		{"image_load", map[string]interface{}{"path": imgPath}},
		{"image_dimensions", map[string]interface{}{"path": imgPath}},
		{"image_histogram", map[string]interface{}{"path": imgPath}},
		{"image_palette", map[string]interface{}{"path": imgPath}},
		{"image_palette_swatch", map[string]interface{}{"path": imgPath}},
		{"image_quantize", map[string]interface{}{"path": imgPath}},
		{"image_nearest_color", map[string]interface{}{"palette": []string{"#808080"}, "color": "#000000"}},
		{"image_dither_modes", map[string]interface{}{}},
	}

	for _, tt := range toolTests {
		t.Run(tt.name, func(t *testing.T) {
			argsJSON, _ := json.Marshal(tt.args)
			result, err := s.executeTool(tt.name, argsJSON)
			if err != nil {
				t.Fatalf("executeTool(%s) failed: %v", tt.name, err)
			}
			if result == nil {
				t.Errorf("executeTool(%s) returned nil result", tt.name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()

	_, err := s.executeTool("image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestExecuteTool_NoArguments(t *testing.T) {
	s := New()

	if _, err := s.executeTool("image_dither_modes", nil); err != nil {
		t.Errorf("image_dither_modes without arguments failed: %v", err)
	}
}
