// Package server implements the MCP (Model Context Protocol) server for object detection.
//
// This package provides a JSON-RPC 2.0 server that exposes a detection session
// through the MCP protocol, so that MCP clients can detect objects in images
// and read back the counts, statistics and annotated image.
//
// # Protocol
//
// The server communicates over a line-oriented stream, normally stdio:
//   - Input: JSON-RPC requests, one per line
//   - Output: JSON-RPC responses, one per line
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Analysis:
//   - detect_objects: Detect objects in a file or base64 image
//   - analysis_summary: Return the current result
//   - reset_analysis: Clear the current result
//
// Results:
//   - export_annotated: Save the annotated image as PNG
//   - crop_detection: Extract one detected object
//
// Reference:
//   - image_info: Describe an image file
//   - list_categories: List detectable categories
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with code -32000. The
// message names the failure class ("Model unavailable", "Detection failed",
// "Invalid image", ...) and data carries the Go error string.
//
// # Usage
//
//	srv := server.New(sess, server.Options{ExportDir: dir}, log)
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
