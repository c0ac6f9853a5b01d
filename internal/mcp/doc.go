// ABOUTME: Package documentation for the mcp package
// ABOUTME: Describes the Streamable HTTP transport surface

// Package mcp exposes the trader tool registry to external MCP clients over
// the Streamable HTTP transport (POST/DELETE on a single /mcp endpoint,
// JSON-RPC 2.0 messages, session management via the Mcp-Session-Id header).
// Authentication is an optional static access token carried in the URL path,
// a query parameter, or a bearer header.
package mcp
