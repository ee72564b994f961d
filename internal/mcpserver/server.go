// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the contact book to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/callerid/internal/apperr"
	"github.com/starford/callerid/internal/contactservice"
	"github.com/starford/callerid/internal/listener"
	"github.com/starford/callerid/internal/phone"
)

const permissionsURI = "callerid://permissions"

// Server wraps the MCP server with contact tools.
type Server struct {
	mcp *server.MCPServer
	svc *contactservice.Service
}

// New creates a new MCP server with all contact tools registered.
func New(svc *contactservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"callerid",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List every stored contact in display order."),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("add_contact",
		mcp.WithDescription("Add a contact. The phone number is normalized before it is stored "+
			"(non-digits removed, leading 62 replaced by 0)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("phone", mcp.Required(), mcp.Description("Phone number in any format, e.g. +62 812-3456-7890")),
		mcp.WithString("notes", mcp.Description("Optional free-form notes")),
	), s.addContact)

	s.mcp.AddTool(mcp.NewTool("lookup_contact",
		mcp.WithDescription("Resolve the name shown for a phone number. "+
			"Unknown numbers resolve to the number itself."),
		mcp.WithString("number", mcp.Required(), mcp.Description("Phone number in any format")),
	), s.lookupContact)

	s.mcp.AddResource(
		mcp.NewResource(permissionsURI, "Required Permissions",
			mcp.WithResourceDescription("Host permissions that must all be granted before events are delivered."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readPermissionsResource,
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

func (s *Server) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no contacts"), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := req.RequireString("phone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := s.svc.Add(ctx, name, number, req.GetString("notes", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s (%s) id=%d", c.Name, c.PhoneNumber, c.ID)), nil
}

func (s *Server) lookupContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := req.RequireString("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := s.svc.LookupKey(ctx, phone.Normalize(number))
	switch {
	case err == nil:
		return mcp.NewToolResultText(c.Name), nil
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultText(number), nil
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}

func (s *Server) readPermissionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names := make([]string, len(listener.Required))
	for i, p := range listener.Required {
		names[i] = string(p)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      permissionsURI,
			MIMEType: "text/plain",
			Text:     strings.Join(names, "\n"),
		},
	}, nil
}
