// Package vtext builds the virtual text projection of a document: a linear
// string of every rendered character plus sentinel markers between unrelated
// visual blocks, with per-byte provenance back into the source text nodes.
// The projection is the substrate all text matching runs against.
package vtext

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/dom"
)

// Boundary is the sentinel rune inserted between text belonging to different
// block-level ancestors. It sits in the private use area so no document the
// builder accepts ever contains it; the builder strips stray occurrences from
// input text defensively.
const Boundary rune = ''

// BoundaryString is the sentinel as a string, for substring checks.
const BoundaryString = string(Boundary)

var boundaryLen = utf8.RuneLen(Boundary)

// CharRef records where one byte of virtual text came from. Sentinel bytes
// carry a nil Node and Offset -1.
type CharRef struct {
	Node   *html.Node
	Offset int
}

// IsBoundary reports whether the byte is part of a boundary sentinel.
func (r CharRef) IsBoundary() bool { return r.Node == nil }

// VirtualText is the immutable projection built once per search pass.
// Invariant: len(Map) == len(Text), and Map[i] describes the DOM origin of
// Text[i].
type VirtualText struct {
	Text string
	Map  []CharRef
}

// Len returns the projection length in bytes.
func (vt *VirtualText) Len() int { return len(vt.Text) }

// Slice returns Text[start:end] without bounds panics; out-of-range spans
// yield "".
func (vt *VirtualText) Slice(start, end int) string {
	if start < 0 || end > len(vt.Text) || start >= end {
		return ""
	}
	return vt.Text[start:end]
}

// ContainsBoundary reports whether any byte in [start, end) belongs to a
// boundary sentinel.
func (vt *VirtualText) ContainsBoundary(start, end int) bool {
	return strings.Contains(vt.Slice(start, end), BoundaryString)
}

// Build walks the rendered text nodes under root and assembles the virtual
// text. Subtrees under non-rendering elements, hidden elements, and elements
// whose id is in excludeIDs (the overlay and minimap containers) are skipped.
// Whitespace is kept verbatim so offsets stay exact for regex use.
//
// One pass over the tree: O(total visible text length + element count).
func Build(root *html.Node, excludeIDs ...string) *VirtualText {
	var b builder
	b.exclude = excludeIDs

	dom.Walk(root, func(n *html.Node) bool {
		switch n.Type {
		case html.ElementNode:
			if dom.IsNonRendering(n) || dom.IsHidden(n) {
				return false
			}
			if id := dom.Attr(n, "id"); id != "" {
				for _, skip := range b.exclude {
					if id == skip {
						return false
					}
				}
			}
			return true
		case html.TextNode:
			b.addTextNode(n)
			return false
		default:
			return true
		}
	})

	return &VirtualText{Text: b.text.String(), Map: b.refs}
}

type builder struct {
	text      strings.Builder
	refs      []CharRef
	prevBlock *html.Node
	exclude   []string
}

// addTextNode appends one text node's content, preceded by a single boundary
// sentinel when the node's nearest block ancestor differs from the previous
// kept node's.
func (b *builder) addTextNode(n *html.Node) {
	if n.Data == "" {
		return
	}
	// A node holding nothing but stray sentinels contributes no text; treating
	// it as kept could produce two consecutive boundary markers.
	if strings.ContainsRune(n.Data, Boundary) && strings.Trim(n.Data, BoundaryString) == "" {
		return
	}

	block := dom.NearestBlockAncestor(n)
	if b.prevBlock != nil && block != b.prevBlock {
		b.appendBoundary()
	}
	b.prevBlock = block

	for i, r := range n.Data {
		if r == Boundary {
			continue
		}
		size := utf8.RuneLen(r)
		b.text.WriteRune(r)
		for j := 0; j < size; j++ {
			b.refs = append(b.refs, CharRef{Node: n, Offset: i + j})
		}
	}
}

func (b *builder) appendBoundary() {
	b.text.WriteRune(Boundary)
	for j := 0; j < boundaryLen; j++ {
		b.refs = append(b.refs, CharRef{Node: nil, Offset: -1})
	}
}
