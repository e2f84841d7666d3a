// Package server exposes a search session over the Model Context Protocol.
// Each tool maps one message of the session contract; the transport is stdio.
package server

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/session"
	"github.com/domfind/domfind/internal/version"
)

// Server wraps one session behind an MCP stdio server.
type Server struct {
	sess   *session.Session
	server *mcp.Server
}

// New creates the server and registers its tools.
func New(sess *session.Session) *Server {
	s := &Server{
		sess: sess,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "domfind-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.SetMCPMode(true)
	debug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Search the rendered text of the loaded document. Supports literal, regex, fuzzy, and element (CSS/XPath) modes. A new search replaces the previous one.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Search query: text, a regex, keywords for fuzzy mode, or a selector in element mode",
				},
				"useRegex": {
					Type:        "boolean",
					Description: "Treat the query as a regular expression",
				},
				"caseSensitive": {
					Type:        "boolean",
					Description: "Match case exactly (default is case-insensitive)",
				},
				"useFuzzy": {
					Type:        "boolean",
					Description: "Keyword proximity matching tolerant of typos and diacritics",
				},
				"useElementSearch": {
					Type:        "boolean",
					Description: "Match elements by selector instead of text",
				},
				"elementSearchMode": {
					Type:        "string",
					Description: "Selector language for element search: 'css' (default) or 'xpath'",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "clear",
		Description: "Remove all highlights and reset search state. Safe to call with no active search.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleClear)

	s.server.AddTool(&mcp.Tool{
		Name:        "navigate_next",
		Description: "Move to the next match, wrapping past the last back to the first, and scroll it into view.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleNavigateNext)

	s.server.AddTool(&mcp.Tool{
		Name:        "navigate_prev",
		Description: "Move to the previous match, wrapping before the first back to the last, and scroll it into view.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleNavigatePrev)

	s.server.AddTool(&mcp.Tool{
		Name:        "jump_to_match",
		Description: "Navigate directly to a match by index, with the same wrapping as next/prev.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"index": {
					Type:        "integer",
					Description: "Zero-based match index",
				},
			},
			Required: []string{"index"},
		},
	}, s.handleJumpToMatch)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_state",
		Description: "Return the last search parameters, current match index, and total match count.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGetState)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_results_list",
		Description: "List all matches with matched text, surrounding context, the enclosing block's text, and element tag info.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"contextLength": {
					Type:        "integer",
					Description: "Bytes of rendered text quoted before and after each match (default 40)",
				},
			},
		},
	}, s.handleResultsList)
}
