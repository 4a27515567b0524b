// Package mcp exposes a synchronization session as MCP tools.
package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// Tools serializes tool calls onto one session. The session keeps caches
// and a pending proposal, so calls never run concurrently.
type Tools struct {
	mu      sync.Mutex
	session *application.Session
}

// NewTools wraps a session
func NewTools(session *application.Session) *Tools {
	return &Tools{session: session}
}

// Register adds every read and write tool to the MCP server.
func Register(s *server.MCPServer, session *application.Session) {
	t := NewTools(session)
	RegisterReadTools(s, t)
	RegisterWriteTools(s, t)
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func layerArg(req mcp.CallToolRequest) (domain.Layer, error) {
	return domain.ParseLayer(req.GetString("layer", ""))
}
