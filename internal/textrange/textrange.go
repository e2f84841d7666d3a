// Package textrange converts virtual-text match spans into native DOM ranges
// anchored to text nodes, and extracts the rendered text a range covers.
package textrange

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/match"
	"github.com/domfind/domfind/internal/vtext"
)

// Range anchors a match to the document: a start position inside one text
// node and an exclusive end position inside another (possibly the same).
// Offsets are byte offsets into the node's Data.
type Range struct {
	StartNode   *html.Node
	StartOffset int
	EndNode     *html.Node
	EndOffset   int
}

// FromMatch builds a DOM range for a virtual-text match. Returns nil when
// either endpoint is missing or is a boundary sentinel, or when the mapped
// offsets no longer fit the node (the document moved underneath the match);
// construction never propagates a failure.
func FromMatch(m match.Match, vt *vtext.VirtualText) *Range {
	if m.Start < 0 || m.End <= m.Start || m.End > len(vt.Map) {
		return nil
	}

	start := vt.Map[m.Start]
	end := vt.Map[m.End-1]
	if start.IsBoundary() || end.IsBoundary() {
		return nil
	}

	r := &Range{
		StartNode:   start.Node,
		StartOffset: start.Offset,
		EndNode:     end.Node,
		EndOffset:   end.Offset + 1, // end-exclusive
	}
	if !r.valid() {
		debug.LogSearch("range [%d,%d) no longer fits its nodes, dropping\n", m.Start, m.End)
		return nil
	}
	return r
}

// FromMatches builds ranges for a match list, silently dropping matches that
// cannot be anchored.
func FromMatches(matches []match.Match, vt *vtext.VirtualText) []*Range {
	ranges := make([]*Range, 0, len(matches))
	for _, m := range matches {
		if r := FromMatch(m, vt); r != nil {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// valid checks the anchoring still holds against the live nodes.
func (r *Range) valid() bool {
	if r.StartNode == nil || r.EndNode == nil {
		return false
	}
	if r.StartNode.Type != html.TextNode || r.EndNode.Type != html.TextNode {
		return false
	}
	if r.StartOffset < 0 || r.StartOffset >= len(r.StartNode.Data) {
		return false
	}
	if r.EndOffset <= 0 || r.EndOffset > len(r.EndNode.Data) {
		return false
	}
	return true
}

// Text returns the rendered text the range covers: the tail of the start
// node, every rendered text node between, and the head of the end node.
// Non-rendered nodes (scripts, hidden subtrees) contribute nothing, matching
// the virtual text the range was built from.
func (r *Range) Text() string {
	if !r.valid() {
		return ""
	}
	if r.StartNode == r.EndNode {
		if r.StartOffset >= r.EndOffset {
			return ""
		}
		return r.StartNode.Data[r.StartOffset:r.EndOffset]
	}

	var b strings.Builder
	b.WriteString(r.StartNode.Data[r.StartOffset:])
	for n := nextNode(r.StartNode); n != nil; n = nextNode(n) {
		if n == r.EndNode {
			b.WriteString(n.Data[:r.EndOffset])
			return b.String()
		}
		if n.Type == html.TextNode && dom.IsRendered(n) {
			b.WriteString(n.Data)
		}
	}
	// End node unreachable from the start node: the match went stale.
	return b.String()
}

// Anchor returns the element the range's start is attached to, used as the
// scroll target during navigation.
func (r *Range) Anchor() *html.Node {
	if r.StartNode == nil {
		return nil
	}
	for cur := r.StartNode.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			return cur
		}
	}
	return nil
}

// nextNode is the depth-first successor of n in document order.
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}
