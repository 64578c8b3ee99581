package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
	"github.com/akshita317/object-detection/internal/provider"
	"github.com/akshita317/object-detection/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_objects", "export_annotated").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("Tool failed")
		return s.errorResponse(req.ID, -32000, toolErrorMessage(err), err.Error())
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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Analysis
	case "detect_objects":
		return s.handleDetectObjects(ctx, args)
	case "analysis_summary":
		return s.handleAnalysisSummary(args)
	case "reset_analysis":
		return s.handleResetAnalysis()

	// Results
	case "export_annotated":
		return s.handleExportAnnotated(args)
	case "crop_detection":
		return s.handleCropDetection(args)

	// Reference
	case "image_info":
		return s.handleImageInfo(args)
	case "list_categories":
		return s.handleListCategories()

	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// toolErrorMessage names the failure class of err for the JSON-RPC message.
func toolErrorMessage(err error) string {
	var failure *provider.DetectionFailureError
	var invalid *imaging.InvalidImageError
	switch {
	case errors.Is(err, provider.ErrModelUnavailable):
		return "Model unavailable"
	case errors.As(err, &failure):
		return "Detection failed"
	case errors.As(err, &invalid):
		return "Invalid image"
	case errors.Is(err, session.ErrSuperseded):
		return "Analysis superseded"
	case errors.Is(err, session.ErrNoAnalysis):
		return "No analysis available"
	default:
		return "Tool execution failed"
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

// unmarshalArgs decodes tool arguments; absent arguments decode as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}

// === Analysis Handlers ===

type detectObjectsArgs struct {
	Path         string `json:"path"`
	ImageBase64  string `json:"image_base64"`
	IncludeImage bool   `json:"include_image"`
}

func (s *Server) handleDetectObjects(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectObjectsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	var desc *imaging.Descriptor
	var err error
	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return nil, errors.New("give either path or image_base64, not both")
	case a.Path != "":
		desc, err = s.cache.Load(a.Path)
	case a.ImageBase64 != "":
		desc, err = imaging.DecodeBase64(a.ImageBase64)
	default:
		return nil, errors.New("path or image_base64 is required")
	}
	if err != nil {
		return nil, err
	}

	analysis, err := s.session.Analyze(ctx, desc)
	if err != nil {
		return nil, err
	}
	return analysis.Report(a.IncludeImage)
}

type analysisSummaryArgs struct {
	IncludeImage bool `json:"include_image"`
}

func (s *Server) handleAnalysisSummary(args json.RawMessage) (interface{}, error) {
	var a analysisSummaryArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	analysis, err := s.session.Current()
	if err != nil {
		return nil, err
	}
	return analysis.Report(a.IncludeImage)
}

func (s *Server) handleResetAnalysis() (interface{}, error) {
	s.session.Reset()
	s.cache.Clear()
	return map[string]interface{}{"reset": true}, nil
}

// === Result Handlers ===

type exportAnnotatedArgs struct {
	Directory string `json:"directory"`
}

type exportResult struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

func (s *Server) handleExportAnnotated(args json.RawMessage) (interface{}, error) {
	var a exportAnnotatedArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Directory == "" {
		a.Directory = s.exportDir
	}
	path, err := s.session.Export(a.Directory)
	if err != nil {
		return nil, err
	}
	return &exportResult{Path: path, MimeType: imaging.PNG.MimeType()}, nil
}

type cropDetectionArgs struct {
	Index int     `json:"index"`
	Scale float64 `json:"scale"`
}

type cropResult struct {
	Detection detection.Detection `json:"detection"`
	*imaging.EncodedImage
}

func (s *Server) handleCropDetection(args json.RawMessage) (interface{}, error) {
	var a cropDetectionArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, det, err := s.session.Crop(a.Index, a.Scale)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeBase64(img, imaging.PNG)
	if err != nil {
		return nil, err
	}
	return &cropResult{Detection: det, EncodedImage: encoded}, nil
}

// === Reference Handlers ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleListCategories() (interface{}, error) {
	categories := detection.Categories()
	return map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	}, nil
}
