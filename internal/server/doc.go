// Package server implements the MCP (Model Context Protocol) server for the
// leaf analysis tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the leaf filter
// pipeline through the MCP protocol, so an assistant can request edge maps,
// thermograms and quality scores for a leaf photo.
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
// Every tool takes the image as either "path" or "data_uri":
//   - leaf_image_info: Dimensions, format and size
//   - leaf_analyze: Edge map, thermogram and both scores
//   - leaf_edge_map: Edge map and edge score
//   - leaf_thermogram: Thermogram and brightness score
//   - leaf_scores: Both scores, no images
//
// Image-producing tools accept "format" (png, jpeg) and, where relevant,
// "style" (dark, light).
//
// # Limits
//
// Inputs larger than the configured upload limit (10 MiB by default) are
// rejected before decoding. Nothing is cached between calls.
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
//	srv := server.New(cfg)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
