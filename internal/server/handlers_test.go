package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ironsheep/leaf-tools-mcp/internal/config"
)

// createTestImageFile writes a solid-color PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaf.png")
	if err := os.WriteFile(path, encodeTestImage(t, width, height, c), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func encodeTestImage(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	// A bright stripe gives the edge detector something to find.
	for y := 0; y < height; y++ {
		img.Set(width/2, y, color.White)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// callTool issues a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolContent returns the content items of a successful tool call.
func toolContent(t *testing.T, resp *MCPResponse) []map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatal("Result should contain content items")
	}
	if content[0]["type"] != "text" {
		t.Fatalf("first content item: got type %v, want text", content[0]["type"])
	}
	return content
}

// decodeText unmarshals the JSON text item into v.
func decodeText(t *testing.T, content []map[string]interface{}, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("text content is not JSON: %v", err)
	}
}

func decodeImageItem(t *testing.T, item map[string]interface{}) image.Image {
	t.Helper()
	if item["type"] != "image" {
		t.Fatalf("content type: got %v, want image", item["type"])
	}
	raw, err := base64.StdEncoding.DecodeString(item["data"].(string))
	if err != nil {
		t.Fatalf("image data is not base64: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image data does not decode: %v", err)
	}
	return img
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	path := createTestImageFile(t, 100, 80, color.NRGBA{R: 30, G: 120, B: 40, A: 255})

	content := toolContent(t, callTool(t, New(nil), "leaf_image_info", map[string]interface{}{"path": path}))

	var info struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Format    string `json:"format"`
		SizeBytes int64  `json:"size_bytes"`
	}
	decodeText(t, content, &info)
	if info.Width != 100 || info.Height != 80 || info.Format != "png" || info.SizeBytes == 0 {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(content) != 1 {
		t.Errorf("image info should not attach images, got %d items", len(content))
	}
}

func TestHandleToolsCall_Analyze(t *testing.T) {
	path := createTestImageFile(t, 40, 30, color.NRGBA{R: 20, G: 90, B: 30, A: 255})

	content := toolContent(t, callTool(t, New(nil), "leaf_analyze", map[string]interface{}{"path": path}))

	var res AnalyzeResult
	decodeText(t, content, &res)
	if _, err := uuid.Parse(res.ID); err != nil {
		t.Errorf("id %q is not a UUID: %v", res.ID, err)
	}
	if res.Width != 40 || res.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", res.Width, res.Height)
	}
	if res.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", res.MimeType)
	}
	if res.EdgeScore <= 0 || res.EdgeScore > 100 {
		t.Errorf("EdgeScore out of range: %v", res.EdgeScore)
	}
	if res.BrightnessScore <= 0 || res.BrightnessScore > 100 {
		t.Errorf("BrightnessScore out of range: %v", res.BrightnessScore)
	}

	if len(content) != 3 {
		t.Fatalf("expected text plus two images, got %d items", len(content))
	}
	for _, item := range content[1:] {
		if item["mimeType"] != "image/png" {
			t.Errorf("image mimeType: got %v", item["mimeType"])
		}
		if b := decodeImageItem(t, item).Bounds(); b.Dx() != 40 || b.Dy() != 30 {
			t.Errorf("derived image is %dx%d, want 40x30", b.Dx(), b.Dy())
		}
	}
}

func TestHandleToolsCall_AnalyzeDataURI(t *testing.T) {
	raw := encodeTestImage(t, 16, 12, color.NRGBA{R: 60, G: 140, B: 50, A: 255})
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	content := toolContent(t, callTool(t, New(nil), "leaf_analyze", map[string]interface{}{
		"data_uri": dataURI,
		"format":   "jpeg",
		"style":    "light",
	}))

	var res AnalyzeResult
	decodeText(t, content, &res)
	if res.MimeType != "image/jpeg" {
		t.Errorf("MimeType: got %s, want image/jpeg", res.MimeType)
	}
	if res.Width != 16 || res.Height != 12 {
		t.Errorf("dimensions: got %dx%d, want 16x12", res.Width, res.Height)
	}
}

func TestHandleToolsCall_EdgeMap(t *testing.T) {
	path := createTestImageFile(t, 20, 20, color.Black)

	content := toolContent(t, callTool(t, New(nil), "leaf_edge_map", map[string]interface{}{
		"path":  path,
		"style": "light",
	}))

	var res EdgeMapResult
	decodeText(t, content, &res)
	if res.Style != "light" {
		t.Errorf("Style: got %s, want light", res.Style)
	}
	if res.EdgeScore <= 0 {
		t.Errorf("EdgeScore: got %v, want > 0 for a striped image", res.EdgeScore)
	}
	if len(content) != 2 {
		t.Fatalf("expected text plus one image, got %d items", len(content))
	}

	// Light style: the border never carries an edge, so it renders white.
	r, g, b, _ := decodeImageItem(t, content[1]).At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("corner pixel: got (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestHandleToolsCall_Thermogram(t *testing.T) {
	path := createTestImageFile(t, 10, 10, color.NRGBA{A: 255})

	content := toolContent(t, callTool(t, New(nil), "leaf_thermogram", map[string]interface{}{"path": path}))

	var res ThermogramResult
	decodeText(t, content, &res)
	if len(content) != 2 {
		t.Fatalf("expected text plus one image, got %d items", len(content))
	}

	img := decodeImageItem(t, content[1])
	// Black maps to the coldest stop, the white stripe to the hottest.
	if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b>>8 != 255 {
		t.Errorf("black pixel: got (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(5, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("white pixel: got (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
}

func TestHandleToolsCall_Scores(t *testing.T) {
	path := createTestImageFile(t, 12, 12, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	content := toolContent(t, callTool(t, New(nil), "leaf_scores", map[string]interface{}{"path": path}))
	if len(content) != 1 {
		t.Errorf("scores should not attach images, got %d items", len(content))
	}

	var res struct {
		Width           int     `json:"width"`
		EdgeScore       float64 `json:"edge_score"`
		BrightnessScore float64 `json:"brightness_score"`
	}
	decodeText(t, content, &res)
	if res.Width != 12 {
		t.Errorf("Width: got %d, want 12", res.Width)
	}
	if res.EdgeScore <= 0 || res.BrightnessScore <= 50 {
		t.Errorf("unexpected scores: %+v", res)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	path := createTestImageFile(t, 8, 8, color.Black)

	tests := []struct {
		name    string
		tool    string
		args    map[string]interface{}
		wantMsg string
	}{
		{"unknown tool", "image_crop", map[string]interface{}{"path": path}, "unknown tool"},
		{"missing source", "leaf_analyze", map[string]interface{}{}, "one of path or data_uri"},
		{"both sources", "leaf_scores", map[string]interface{}{"path": path, "data_uri": "data:image/png;base64,AA=="}, "mutually exclusive"},
		{"missing file", "leaf_analyze", map[string]interface{}{"path": "/nonexistent/leaf.png"}, "failed to open image"},
		{"corrupt data", "leaf_edge_map", map[string]interface{}{"data_uri": "data:image/png;base64,AAAA"}, "failed to decode image"},
		{"bad format", "leaf_analyze", map[string]interface{}{"path": path, "format": "heic"}, "unsupported output format"},
		{"bad style", "leaf_edge_map", map[string]interface{}{"path": path, "style": "sepia"}, "unknown edge style"},
	}

	s := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
			if data, _ := resp.Error.Data.(string); !strings.Contains(data, tt.wantMsg) {
				t.Errorf("error data %q does not mention %q", data, tt.wantMsg)
			}
		})
	}
}

func TestHandleToolsCall_TooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxUploadBytes = 32
	s := New(cfg)

	raw := encodeTestImage(t, 32, 32, color.NRGBA{R: 200, A: 255})
	for name, args := range map[string]map[string]interface{}{
		"path":     {"path": createTestImageFile(t, 32, 32, color.NRGBA{R: 200, A: 255})},
		"data_uri": {"data_uri": "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)},
	} {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, "leaf_analyze", args)
			if resp.Error == nil {
				t.Fatal("expected an error for an oversized image")
			}
			if data, _ := resp.Error.Data.(string); !strings.Contains(data, "upload size limit") {
				t.Errorf("error data: got %q", data)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	resp := New(nil).handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name": 42}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	path := createTestImageFile(t, 16, 16, color.NRGBA{G: 180, A: 255})
	args, _ := json.Marshal(map[string]string{"path": path})

	s := New(nil)
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			result, err := s.executeTool(context.Background(), tool.Name, args)
			if err != nil {
				t.Fatalf("executeTool failed: %v", err)
			}
			if result == nil {
				t.Fatal("executeTool returned nil result")
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	_, err := New(nil).executeTool(context.Background(), "leaf_analyze", json.RawMessage(`{not json`))
	if err == nil {
		t.Error("expected error for invalid JSON arguments")
	}
}

func TestExecuteTool_Cancelled(t *testing.T) {
	path := createTestImageFile(t, 16, 16, color.Black)
	args, _ := json.Marshal(map[string]string{"path": path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(nil).executeTool(ctx, "leaf_analyze", args); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
