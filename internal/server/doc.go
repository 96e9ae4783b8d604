// Package server implements the MCP (Model Context Protocol) server for texture tools.
//
// This package provides a JSON-RPC 2.0 server that exposes texture loading,
// inspection, resampling and ASTC compression through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - notifications/cancelled: Stop an in-flight tools/call
//   - ping: Health check
//
// # Available Tools
//
// Inspection:
//   - texture_load: Load a texture and report format and classification
//   - texture_sample: Read texel values at one or more coordinates
//   - texture_preview: Render a slice as PNG
//
// Processing:
//   - texture_resample: Scale down with a chosen filter
//   - texture_compress: Encode to ASTC
//   - texture_mip_chain: Build (and optionally compress) the full mip chain
//   - texture_normal_from_height: Sobel normal map from a height map
//
// Analysis:
//   - texture_compare: RMSE and PSNR against a reference
//
// # Progress and Cancellation
//
// When a tools/call request carries params._meta.progressToken, the
// processing tools send notifications/progress messages with progress in
// [0, 1] and total 1. A notifications/cancelled message naming the request
// stops the tool at its next progress point; the call then fails with a
// cancelled error.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded textures. Textures are
// cached by path and reused across multiple tool calls, avoiding redundant
// decoding. The cache persists for the lifetime of the server process.
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
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
