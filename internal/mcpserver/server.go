// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the cravetown commands as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cravetown/internal/commands"
)

const getVersionSchema = "get_version_schema"

// Server wraps the MCP server with one tool per registered command.
type Server struct {
	mcp      *server.MCPServer
	reg      *commands.Registry
	handlers map[string]server.ToolHandlerFunc
}

// New creates a new MCP server exposing every command of reg.
func New(reg *commands.Registry, version string) *Server {
	s := &Server{reg: reg, handlers: map[string]server.ToolHandlerFunc{}}

	s.mcp = server.NewMCPServer(
		"Cravetown",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	for _, cmd := range reg.Commands() {
		s.addTool(toolFor(cmd), s.invoke(cmd.Name))
	}

	s.addTool(mcp.NewTool(getVersionSchema,
		mcp.WithDescription("Returns the layout of a version directory. "+
			"Call this before editing version files."),
	), s.getVersionSchema)

	s.mcp.AddResource(
		mcp.NewResource(VersionSchemaURI, "Version Layout",
			mcp.WithResourceDescription("Placeholder files and manifest of a cravetown version."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readVersionSchemaResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) addTool(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.handlers[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

// toolFor builds the tool definition of a command from its parameters.
func toolFor(cmd commands.Command) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(cmd.Description)}
	for _, p := range cmd.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		if p.List {
			opts = append(opts, mcp.WithArray(p.Name, append(props, mcp.WithStringItems())...))
		} else {
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(cmd.Name, opts...)
}

func (s *Server) invoke(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.reg.InvokeMap(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		switch v := res.(type) {
		case nil:
			return mcp.NewToolResultText("ok"), nil
		case string:
			return mcp.NewToolResultText(v), nil
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func (s *Server) getVersionSchema(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VersionSchema()), nil
}

func (s *Server) readVersionSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      VersionSchemaURI,
			MIMEType: "text/markdown",
			Text:     VersionSchema(),
		},
	}, nil
}
