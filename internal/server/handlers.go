package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/domfind/domfind/internal/protocol"
)

// dispatch routes a protocol request through the session and wraps the
// response for MCP. Handler failures are reported inside the result with
// IsError set, not as protocol-level errors.
func (s *Server) dispatch(req protocol.Request) (*mcp.CallToolResult, error) {
	resp, err := protocol.Dispatch(s.sess, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return createErrorResult(resp)
	}
	return createJSONResult(resp)
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p struct {
		Query             string `json:"query"`
		UseRegex          bool   `json:"useRegex"`
		CaseSensitive     bool   `json:"caseSensitive"`
		UseFuzzy          bool   `json:"useFuzzy"`
		UseElementSearch  bool   `json:"useElementSearch"`
		ElementSearchMode string `json:"elementSearchMode"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return s.dispatch(protocol.Request{
		Kind:              protocol.KindSearch,
		Query:             p.Query,
		UseRegex:          p.UseRegex,
		CaseSensitive:     p.CaseSensitive,
		UseFuzzy:          p.UseFuzzy,
		UseElementSearch:  p.UseElementSearch,
		ElementSearchMode: p.ElementSearchMode,
	})
}

func (s *Server) handleClear(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(protocol.Request{Kind: protocol.KindClear})
}

func (s *Server) handleNavigateNext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(protocol.Request{Kind: protocol.KindNavigateNext})
}

func (s *Server) handleNavigatePrev(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(protocol.Request{Kind: protocol.KindNavigatePrev})
}

func (s *Server) handleJumpToMatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return s.dispatch(protocol.Request{Kind: protocol.KindJumpToMatch, Index: p.Index})
}

func (s *Server) handleGetState(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(protocol.Request{Kind: protocol.KindGetState})
}

func (s *Server) handleResultsList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p struct {
		ContextLength int `json:"contextLength"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}
	return s.dispatch(protocol.Request{Kind: protocol.KindResultsList, ContextLength: p.ContextLength})
}

// createJSONResult wraps data as a JSON text content result.
func createJSONResult(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResult wraps a failed response with IsError set so callers see
// the failure inside the result and can self-correct.
func createErrorResult(resp protocol.Response) (*mcp.CallToolResult, error) {
	result, err := createJSONResult(resp)
	if err != nil {
		return nil, err
	}
	result.IsError = true
	return result, nil
}
