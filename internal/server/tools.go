package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Analysis
		{
			Name:        "detect_objects",
			Description: "Run object detection on an image and make the result current. Returns grouped object counts, statistics, the top 5 detections by confidence and image info. Starting a new detection supersedes one still running.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64 image data or a data:image/...;base64, URL (e.g. a camera capture). Use instead of path.",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Attach the annotated image as base64 PNG",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "analysis_summary",
			Description: "Return the current analysis result again without running detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Attach the annotated image as base64 PNG",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "reset_analysis",
			Description: "Clear the current image and result, cancelling any detection in progress.",
			InputSchema: noArgs(),
		},

		// Results
		{
			Name:        "export_annotated",
			Description: "Save the current annotated image as object-detection-<timestamp>.png and return its path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"directory": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write into. Defaults to the configured export directory.",
					},
				},
			},
		},
		{
			Name:        "crop_detection",
			Description: "Crop one detected object out of the current image and return it as base64-encoded PNG. Use this to zoom into a detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index into the detections of the current result (0-based)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the crop (up to 8)",
						"default":     1.0,
					},
				},
				"required": []string{"index"},
			},
		},

		// Reference
		{
			Name:        "image_info",
			Description: "Get dimensions, aspect ratio, format and file size of an image file without running detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "list_categories",
			Description: "List the object categories the detection model can report.",
			InputSchema: noArgs(),
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
