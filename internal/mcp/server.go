package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/hvergara/dona/internal/memory"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the bot's conversation memory
// to other agents and tools.
type Server struct {
	memory *memory.Manager
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server over the memory manager.
func NewServer(mgr *memory.Manager) *Server {
	s := &Server{memory: mgr}

	s.mcp = server.NewMCPServer(
		"dona",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getHistoryTool, s.handleGetHistory)
	s.mcp.AddTool(getStatsTool, s.handleGetStats)
	s.mcp.AddTool(analyzeMessageTool, s.handleAnalyzeMessage)
	s.mcp.AddTool(getPreferencesTool, s.handleGetPreferences)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
