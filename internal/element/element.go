// Package element evaluates CSS selector and XPath queries directly against
// the live DOM. Element search bypasses the virtual-text pipeline entirely.
package element

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/errors"
)

// Mode selects the query syntax.
type Mode string

const (
	ModeCSS   Mode = "css"
	ModeXPath Mode = "xpath"
)

// Search evaluates the query against the document and returns matching
// elements in document order. Elements inside the overlay containers
// (excludeIDs) are never returned. A syntactically invalid query yields a
// PatternError that names the offending syntax; it is the only error surfaced
// to the end user as a failed search.
func Search(doc *dom.Document, query string, mode Mode, excludeIDs ...string) ([]*html.Node, error) {
	var (
		nodes []*html.Node
		err   error
	)
	switch mode {
	case ModeCSS:
		nodes, err = searchCSS(doc, query)
	case ModeXPath:
		nodes, err = searchXPath(doc, query)
	default:
		return nil, fmt.Errorf("unknown element search mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	kept := nodes[:0]
	for _, n := range nodes {
		if dom.HasAncestorWithID(n, excludeIDs...) {
			continue
		}
		kept = append(kept, n)
	}
	debug.LogSearch("element search %s %q: %d matches\n", mode, query, len(kept))
	return kept, nil
}

func searchCSS(doc *dom.Document, query string) ([]*html.Node, error) {
	sel, err := cascadia.ParseGroup(query)
	if err != nil {
		return nil, errors.NewPatternError(errors.PatternCSS, query, err)
	}
	return cascadia.QueryAll(doc.Root, sel), nil
}

func searchXPath(doc *dom.Document, query string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(doc.Root, query)
	if err != nil {
		return nil, errors.NewPatternError(errors.PatternXPath, query, err)
	}

	// XPath can address attribute and text nodes; the result set is elements
	// only.
	elems := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			elems = append(elems, n)
		}
	}
	return elems, nil
}
