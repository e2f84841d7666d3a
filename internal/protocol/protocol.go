// Package protocol defines the wire contract between a host (the CLI, the
// MCP server, a test harness) and a search session. Requests form a
// discriminated union on Kind; every handler tolerates an empty session with
// no prior search.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/errors"
	"github.com/domfind/domfind/internal/session"
	"github.com/domfind/domfind/internal/state"
)

// Kind discriminates request types.
type Kind string

// DefaultContextLength is how many bytes of context surround each match in a
// get-results-list response when the request leaves contextLength unset.
const DefaultContextLength = 40

const (
	KindSearch       Kind = "search"
	KindClear        Kind = "clear"
	KindNavigateNext Kind = "navigate-next"
	KindNavigatePrev Kind = "navigate-prev"
	KindGetState     Kind = "get-state"
	KindResultsList  Kind = "get-results-list"
	KindJumpToMatch  Kind = "jump-to-match"
)

// Request is the union of all request payloads. Fields beyond Kind are
// meaningful only for the kinds that use them.
type Request struct {
	Kind Kind `json:"kind"`

	// search
	Query             string `json:"query,omitempty"`
	UseRegex          bool   `json:"useRegex,omitempty"`
	CaseSensitive     bool   `json:"caseSensitive,omitempty"`
	UseFuzzy          bool   `json:"useFuzzy,omitempty"`
	UseElementSearch  bool   `json:"useElementSearch,omitempty"`
	ElementSearchMode string `json:"elementSearchMode,omitempty"`

	// get-results-list; zero or negative requests DefaultContextLength.
	ContextLength int `json:"contextLength,omitempty"`

	// jump-to-match
	Index int `json:"index,omitempty"`
}

// Response carries the outcome of any request. Exactly the section matching
// the request kind is populated on success; Error and Severity are populated
// on failure.
type Response struct {
	Kind     Kind   `json:"kind"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Severity string `json:"severity,omitempty"`

	Search     *SearchOutcome            `json:"search,omitempty"`
	Navigation *session.NavigationResult `json:"navigation,omitempty"`
	State      *StateOutcome             `json:"state,omitempty"`
	Results    *ResultsOutcome           `json:"results,omitempty"`
}

// SearchOutcome reports the result of a search request.
type SearchOutcome struct {
	Count        int `json:"count"`
	CurrentIndex int `json:"currentIndex"`
	TotalMatches int `json:"totalMatches"`
}

// StateOutcome restores a UI: the last search parameters plus the current
// navigation position.
type StateOutcome struct {
	Search       state.SearchState `json:"search"`
	CurrentIndex int               `json:"currentIndex"`
	TotalMatches int               `json:"totalMatches"`
}

// ResultsOutcome is the enriched match listing.
type ResultsOutcome struct {
	Items        []session.ResultItem `json:"items"`
	TotalMatches int                  `json:"totalMatches"`
}

// Dispatch routes a request to its session operation. Unknown kinds are a
// contract violation and return an error rather than a failed Response.
func Dispatch(s *session.Session, req Request) (Response, error) {
	switch req.Kind {
	case KindSearch:
		return handleSearch(s, req), nil
	case KindClear:
		s.Clear()
		return Response{Kind: KindClear, Success: true}, nil
	case KindNavigateNext:
		nav := s.Next()
		return Response{Kind: KindNavigateNext, Success: true, Navigation: &nav}, nil
	case KindNavigatePrev:
		nav := s.Prev()
		return Response{Kind: KindNavigatePrev, Success: true, Navigation: &nav}, nil
	case KindJumpToMatch:
		nav := s.JumpTo(req.Index)
		return Response{Kind: KindJumpToMatch, Success: true, Navigation: &nav}, nil
	case KindGetState:
		st, nav := s.State()
		return Response{Kind: KindGetState, Success: true, State: &StateOutcome{
			Search:       st,
			CurrentIndex: nav.CurrentIndex,
			TotalMatches: nav.TotalMatches,
		}}, nil
	case KindResultsList:
		n := req.ContextLength
		if n <= 0 {
			n = DefaultContextLength
		}
		items := s.ResultsList(n)
		return Response{
			Kind:    KindResultsList,
			Success: true,
			Results: &ResultsOutcome{Items: items, TotalMatches: len(items)},
		}, nil
	default:
		return Response{}, fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

func handleSearch(s *session.Session, req Request) Response {
	res, err := s.Search(session.Params{
		Query:             req.Query,
		UseRegex:          req.UseRegex,
		CaseSensitive:     req.CaseSensitive,
		UseFuzzy:          req.UseFuzzy,
		UseElementSearch:  req.UseElementSearch,
		ElementSearchMode: req.ElementSearchMode,
	})
	if err != nil {
		debug.Log("protocol", "search request failed: %v\n", err)
		return Response{
			Kind:     KindSearch,
			Error:    err.Error(),
			Severity: errors.SeverityOf(err).String(),
		}
	}
	return Response{Kind: KindSearch, Success: true, Search: &SearchOutcome{
		Count:        res.Count,
		CurrentIndex: res.CurrentIndex,
		TotalMatches: res.TotalMatches,
	}}
}

// HandleJSON decodes one JSON request, dispatches it, and encodes the
// response. Malformed JSON and unknown kinds surface as errors so transports
// can fail the message instead of inventing a response.
func HandleJSON(s *session.Session, raw []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	resp, err := Dispatch(s, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
