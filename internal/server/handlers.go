package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ironsheep/leaf-tools-mcp/internal/analysis"
	"github.com/ironsheep/leaf-tools-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "leaf_analyze", "leaf_edge_map").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imageResult is implemented by tool results that carry derived images.
// Their images are attached to the response as MCP image content in addition
// to the JSON text.
type imageResult interface {
	images() []imageContent
}

type imageContent struct {
	data     string
	mimeType string
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [
//	    {"type": "text", "text": "<JSON result>"},
//	    {"type": "image", "data": "<base64>", "mimeType": "image/png"}
//	  ]
//	}
//
// Image items are present only for tools that render images. Tool execution
// errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if ir, ok := result.(imageResult); ok {
		for _, img := range ir.images() {
			content = append(content, map[string]interface{}{
				"type":     "image",
				"data":     img.data,
				"mimeType": img.mimeType,
			})
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves the image from a path or data URI
//  3. Applies the optional format/style overrides
//  4. Runs the analysis
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "leaf_image_info":
		return s.handleImageInfo(args)
	case "leaf_analyze":
		return s.handleAnalyze(ctx, args)
	case "leaf_edge_map":
		return s.handleEdgeMap(ctx, args)
	case "leaf_thermogram":
		return s.handleThermogram(ctx, args)
	case "leaf_scores":
		return s.handleScores(ctx, args)
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

// imageSourceArgs names the input image. Exactly one of Path and DataURI
// must be set.
type imageSourceArgs struct {
	Path    string `json:"path"`
	DataURI string `json:"data_uri"`
}

var errNoImageSource = errors.New("one of path or data_uri is required")

// load returns the encoded image named by the arguments, enforcing the
// upload limit for both sources.
func (s *Server) load(a imageSourceArgs) ([]byte, error) {
	switch {
	case a.Path != "" && a.DataURI != "":
		return nil, errors.New("path and data_uri are mutually exclusive")
	case a.Path != "":
		return imaging.ReadImageFile(a.Path, s.cfg.MaxUploadBytes)
	case a.DataURI != "":
		raw, err := imaging.DecodeBytesOrDataURI([]byte(a.DataURI))
		if err != nil {
			return nil, err
		}
		if int64(len(raw)) > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("%w: %d bytes, limit %d", imaging.ErrTooLarge, len(raw), s.cfg.MaxUploadBytes)
		}
		return raw, nil
	default:
		return nil, errNoImageSource
	}
}

// renderArgs are the optional per-call rendering overrides.
type renderArgs struct {
	Format string `json:"format"`
	Style  string `json:"style"`
}

// analyzerFor returns the server's analyzer, or a new one when the call
// overrides the configured format or edge style.
func (s *Server) analyzerFor(r renderArgs) (*analysis.Analyzer, error) {
	if r.Format == "" && r.Style == "" {
		return s.analyzer, nil
	}
	opts := s.analyzer.Options()
	if r.Format != "" {
		f, err := imaging.ParseFormat(r.Format)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	if r.Style != "" {
		st, err := imaging.ParseEdgeStyle(r.Style)
		if err != nil {
			return nil, err
		}
		opts.EdgeStyle = st
	}
	return s.cfg.Analyzer(analysis.WithOptions(opts)), nil
}

// === Image Information ===

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(data)
}

// === Analysis ===

type analyzeArgs struct {
	imageSourceArgs
	renderArgs
}

// AnalyzeResult is the leaf_analyze tool output.
type AnalyzeResult struct {
	ID                    string  `json:"id"`
	Width                 int     `json:"width"`
	Height                int     `json:"height"`
	MimeType              string  `json:"mime_type"`
	EdgeScore             float64 `json:"edge_score"`
	BrightnessScore       float64 `json:"brightness_score"`
	EdgeImageBase64       string  `json:"edge_image_base64"`
	ThermogramImageBase64 string  `json:"thermogram_image_base64"`
}

func (r *AnalyzeResult) images() []imageContent {
	return []imageContent{
		{data: r.EdgeImageBase64, mimeType: r.MimeType},
		{data: r.ThermogramImageBase64, mimeType: r.MimeType},
	}
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, err
	}
	an, err := s.analyzerFor(a.renderArgs)
	if err != nil {
		return nil, err
	}
	res, err := an.Analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	return &AnalyzeResult{
		ID:                    uuid.NewString(),
		Width:                 res.Width,
		Height:                res.Height,
		MimeType:              res.MimeType,
		EdgeScore:             res.EdgeScore,
		BrightnessScore:       res.BrightnessScore,
		EdgeImageBase64:       base64.StdEncoding.EncodeToString(res.EdgeImage),
		ThermogramImageBase64: base64.StdEncoding.EncodeToString(res.ThermogramImage),
	}, nil
}

// EdgeMapResult is the leaf_edge_map tool output.
type EdgeMapResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Style       string  `json:"style"`
	EdgeScore   float64 `json:"edge_score"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
}

func (r *EdgeMapResult) images() []imageContent {
	return []imageContent{{data: r.ImageBase64, mimeType: r.MimeType}}
}

func (s *Server) handleEdgeMap(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, err
	}
	an, err := s.analyzerFor(a.renderArgs)
	if err != nil {
		return nil, err
	}
	res, err := an.EdgeMap(ctx, data)
	if err != nil {
		return nil, err
	}
	return &EdgeMapResult{
		Width:       res.Width,
		Height:      res.Height,
		Style:       an.Options().EdgeStyle.String(),
		EdgeScore:   res.Score,
		ImageBase64: base64.StdEncoding.EncodeToString(res.Image),
		MimeType:    res.MimeType,
	}, nil
}

// ThermogramResult is the leaf_thermogram tool output.
type ThermogramResult struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	BrightnessScore float64 `json:"brightness_score"`
	ImageBase64     string  `json:"image_base64"`
	MimeType        string  `json:"mime_type"`
}

func (r *ThermogramResult) images() []imageContent {
	return []imageContent{{data: r.ImageBase64, mimeType: r.MimeType}}
}

func (s *Server) handleThermogram(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSourceArgs)
	if err != nil {
		return nil, err
	}
	an, err := s.analyzerFor(a.renderArgs)
	if err != nil {
		return nil, err
	}
	res, err := an.Thermogram(ctx, data)
	if err != nil {
		return nil, err
	}
	return &ThermogramResult{
		Width:           res.Width,
		Height:          res.Height,
		BrightnessScore: res.BrightnessScore,
		ImageBase64:     base64.StdEncoding.EncodeToString(res.Image),
		MimeType:        res.MimeType,
	}, nil
}

func (s *Server) handleScores(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Scores(ctx, data)
}
