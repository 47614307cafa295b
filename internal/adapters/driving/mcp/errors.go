// Package mcp provides an MCP (Model Context Protocol) server adapter for
// cassation. It lets AI assistants search and read stored court decisions.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
