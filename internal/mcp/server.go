// Package mcp exposes the task runner to MCP clients over stdio: tools for
// the task lifecycle, resources for schema and statistics, and prompt
// templates for common analyses.
package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sf7293/ai-task-runner/internal/domain"
	"github.com/sf7293/ai-task-runner/internal/server"
)

// Tool-level error codes surfaced to MCP clients inside the JSON envelope.
// MCP transports have no HTTP status line, so the envelope carries the code.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeTaskNotFound     = "TASK_NOT_FOUND"
	CodeTaskNotCompleted = "TASK_NOT_COMPLETED"
	CodeQueryError       = "QUERY_ERROR"
	CodeCreationError    = "CREATION_ERROR"
)

// Server wraps the MCP server with the storage and the task creation logic it
// serves.
type Server struct {
	storage   domain.Storage
	logic     *server.ServerLogic
	mcpServer *mcpserver.MCPServer
}

// New builds a fully registered MCP server. appName and appVersion are
// reported to clients during the initialize handshake.
func New(appName, appVersion string, storage domain.Storage, logic *server.ServerLogic) *Server {
	s := &Server{
		storage: storage,
		logic:   logic,
		mcpServer: mcpserver.NewMCPServer(
			appName,
			appVersion,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(true, true),
			mcpserver.WithPromptCapabilities(true),
			mcpserver.WithLogging(),
		),
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// Run serves the MCP protocol on stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// successResult wraps a payload into the success envelope. The payload map is
// mutated, callers must not reuse it.
func successResult(payload map[string]any) (*mcp.CallToolResult, error) {
	payload["success"] = true
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult(CodeQueryError, err.Error())
	}
	return mcp.NewToolResultText(string(body)), nil
}

// errorResult wraps a tool-level failure. The error return stays nil so the
// client receives the envelope instead of a protocol error.
func errorResult(code, message string) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(map[string]any{
		"success":    false,
		"error":      message,
		"error_code": code,
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}
