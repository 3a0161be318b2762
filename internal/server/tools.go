package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties are shared by every tool: the image comes either
// from a file path or from a data URI.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the leaf image file (PNG, JPEG, GIF, WEBP, BMP or TIFF)",
		},
		"data_uri": map[string]interface{}{
			"type":        "string",
			"description": "The image as a data URI (data:<mime>;base64,<data>). Use instead of path.",
		},
	}
}

func withRenderProperties(props map[string]interface{}) map[string]interface{} {
	props["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg"},
		"description": "Encoding of the derived images. Default png (lossless)",
		"default":     "png",
	}
	props["style"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"dark", "light"},
		"description": "Edge map style: dark = black background with bright edges, light = inverted. Default dark",
		"default":     "dark",
	}
	return props
}

func withoutStyle(props map[string]interface{}) map[string]interface{} {
	delete(props, "style")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "leaf_image_info",
			Description: "Get the width, height, format and size of a leaf image without decoding its pixels.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},
		{
			Name:        "leaf_analyze",
			Description: "Run the full leaf filter pipeline: Sobel edge map, false-color thermogram, edge score (0-100, higher means more edge detail) and brightness score (0-100, mean luma). Both images are returned base64-encoded with the input's dimensions.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withRenderProperties(imageSourceProperties()),
			},
		},
		{
			Name:        "leaf_edge_map",
			Description: "Compute the Sobel edge map of a leaf image and its edge score. The 1-pixel image border is always background.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withRenderProperties(imageSourceProperties()),
			},
		},
		{
			Name:        "leaf_thermogram",
			Description: "Render a leaf image as a blue-cyan-green-yellow-red brightness map (a simulated thermogram, not thermal data) and its brightness score.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withoutStyle(withRenderProperties(imageSourceProperties())),
			},
		},
		{
			Name:        "leaf_scores",
			Description: "Compute the edge score and brightness score of a leaf image without rendering images.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
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
