// Package mcptools exposes the dispatcher as MCP tools so coding agents can
// drive a Strudel session over the Model Context Protocol.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/strudel-live/backend/internal/dispatch"
)

// defaultPattern is played when an agent calls play_code with no code.
const defaultPattern = `note("c d e f").s("piano").slow(2)`

// PlayCodeArgs are the arguments for the play_code tool.
type PlayCodeArgs struct {
	SessionID   string `json:"session_id" jsonschema:"four character session code shown in the browser"`
	Code        string `json:"code,omitempty" jsonschema:"Strudel pattern code to evaluate; a demo pattern is used when omitted"`
	Description string `json:"description,omitempty" jsonschema:"short description of the pattern"`
}

// StopPlayArgs are the arguments for the stop_play tool.
type StopPlayArgs struct {
	SessionID string `json:"session_id" jsonschema:"four character session code shown in the browser"`
}

// StatusArgs are the arguments for the get_mcp_status tool.
type StatusArgs struct {
	SessionID string `json:"session_id" jsonschema:"four character session code shown in the browser"`
}

// GetCodeArgs are the arguments for the get_currently_playing_code tool.
type GetCodeArgs struct {
	SessionID string `json:"session_id" jsonschema:"four character session code shown in the browser"`
}

// Server wraps an MCP server whose tools delegate to the dispatcher.
type Server struct {
	mcpServer  *mcp.Server
	dispatcher *dispatch.Dispatcher
}

// NewServer creates an MCP server exposing the Strudel control tools.
func NewServer(dispatcher *dispatch.Dispatcher) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "strudel-live",
			Version: "0.1.0",
		}, nil),
		dispatcher: dispatcher,
	}
	s.registerTools()
	return s
}

// registerTools binds every tool to the dispatcher. All tool outcomes,
// including failures, travel back as text content; the error return stays nil
// so the agent always sees a readable result.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "play_code",
		Description: "Send Strudel pattern code to a browser session and start playback.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayCodeArgs) (*mcp.CallToolResult, any, error) {
		code := args.Code
		if code == "" {
			code = defaultPattern
		}
		return textResult(s.dispatcher.Play(ctx, args.SessionID, code, args.Description)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "stop_play",
		Description: "Stop playback in a browser session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StopPlayArgs) (*mcp.CallToolResult, any, error) {
		return textResult(s.dispatcher.Stop(ctx, args.SessionID)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_mcp_status",
		Description: "Check whether a browser session is connected and ready.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
		return textResult(s.dispatcher.Status(args.SessionID)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_currently_playing_code",
		Description: "Fetch the current editor code from a browser session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetCodeArgs) (*mcp.CallToolResult, any, error) {
		return textResult(s.dispatcher.FetchCurrentCode(ctx, args.SessionID)), nil, nil
	})
}

// Handler returns an HTTP handler serving the MCP streamable transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// MCPServer returns the underlying MCP server, for transports other than HTTP.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
