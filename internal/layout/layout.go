// Package layout computes client rectangles for document content. It is a
// deliberately simple flow model: block elements stack vertically, inline
// text wraps at the content width, and every character occupies a monospace
// cell measured with go-runewidth. That is enough geometry to drive overlay
// placement, visibility tests, and the minimap without a real browser layout
// engine underneath.
package layout

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/geom"
)

// Metrics are the measurement constants of the monospace flow model.
type Metrics struct {
	ContentWidth float64 // wrapping width for text, in pixels
	CharWidth    float64 // width of a single-cell character
	LineHeight   float64 // height of one text line
}

// DefaultMetrics mirrors a common default browser setup: 16px line boxes in
// an 800px-wide content area.
func DefaultMetrics() Metrics {
	return Metrics{ContentWidth: 800, CharWidth: 8, LineHeight: 16}
}

// TextBox is one laid-out fragment of a text node: the byte span of the
// node's data it covers and its document-absolute rectangle.
type TextBox struct {
	Node        *html.Node
	StartOffset int
	EndOffset   int
	Rect        geom.Rect
}

// Layout holds the computed geometry of one document snapshot. It is built
// once per search pass and discarded with it.
type Layout struct {
	metrics Metrics
	boxes   map[*html.Node][]TextBox
	elems   map[*html.Node]geom.Rect
	height  float64
	exclude []string
}

// Compute lays out the tree under root. Hidden and non-rendering subtrees and
// subtrees under excluded ids (the overlay containers) get no geometry.
func Compute(root *html.Node, m Metrics, excludeIDs ...string) *Layout {
	l := &Layout{
		metrics: m,
		boxes:   make(map[*html.Node][]TextBox),
		elems:   make(map[*html.Node]geom.Rect),
		exclude: excludeIDs,
	}
	c := &cursor{layout: l}
	l.layoutBlock(root, c)
	c.flushLine()
	l.height = c.y
	return l
}

// cursor tracks the flow position during layout.
type cursor struct {
	layout *Layout
	x, y   float64

	// A pending text fragment on the current line.
	lineNode  *html.Node
	lineStart int
	lineEnd   int
	lineX     float64
	lineWidth float64
}

// DocumentHeight returns the total scroll height of the laid-out document.
func (l *Layout) DocumentHeight() float64 { return l.height }

// Metrics returns the measurement constants the layout was computed with.
func (l *Layout) Metrics() Metrics { return l.metrics }

func (l *Layout) skipElement(n *html.Node) bool {
	if dom.IsNonRendering(n) || dom.IsHidden(n) {
		return true
	}
	if id := dom.Attr(n, "id"); id != "" {
		for _, skip := range l.exclude {
			if id == skip {
				return true
			}
		}
	}
	return false
}

// layoutBlock lays out a block element: inline content flows into wrapped
// lines, nested blocks stack below whatever line was open.
func (l *Layout) layoutBlock(n *html.Node, c *cursor) {
	startY := c.y
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		l.layoutNode(child, c)
	}
	c.flushLine()
	if c.x > 0 {
		c.newLine()
	}
	if n.Type == html.ElementNode {
		l.elems[n] = geom.Rect{X: 0, Y: startY, Width: l.metrics.ContentWidth, Height: c.y - startY}
	}
}

func (l *Layout) layoutNode(n *html.Node, c *cursor) {
	switch n.Type {
	case html.ElementNode:
		if l.skipElement(n) {
			return
		}
		if dom.IsBlockLevel(n) {
			c.flushLine()
			if c.x > 0 {
				c.newLine()
			}
			l.layoutBlock(n, c)
			return
		}
		// Inline element: children flow into the current line; the element
		// rect is the union of its descendants' boxes, resolved on demand.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			l.layoutNode(child, c)
		}
	case html.TextNode:
		l.layoutText(n, c)
	}
}

// layoutText flows a text node's characters into line boxes, wrapping
// greedily at the content width. A newline forces a line break, which keeps
// preformatted content plausible; carriage returns take no cell. Character
// cells keep verbatim whitespace otherwise, so box spans line up byte for
// byte with the virtual text built from the same node.
func (l *Layout) layoutText(n *html.Node, c *cursor) {
	for i, r := range n.Data {
		if r == '\n' {
			c.flushLine()
			c.newLine()
			continue
		}
		if r == '\r' {
			continue
		}
		w := float64(runewidth.RuneWidth(r)) * l.metrics.CharWidth
		if c.x+w > l.metrics.ContentWidth && c.x > 0 {
			c.flushLine()
			c.newLine()
		}
		if c.lineNode != n || c.lineEnd != i {
			c.flushLine()
			c.lineNode = n
			c.lineStart = i
			c.lineX = c.x
			c.lineWidth = 0
		}
		c.lineEnd = i + utf8.RuneLen(r)
		c.lineWidth += w
		c.x += w
	}
}

// flushLine commits the pending text fragment as a TextBox.
func (c *cursor) flushLine() {
	if c.lineNode == nil || c.lineEnd <= c.lineStart {
		c.lineNode = nil
		return
	}
	box := TextBox{
		Node:        c.lineNode,
		StartOffset: c.lineStart,
		EndOffset:   c.lineEnd,
		Rect: geom.Rect{
			X:      c.lineX,
			Y:      c.y,
			Width:  c.lineWidth,
			Height: c.layout.metrics.LineHeight,
		},
	}
	c.layout.boxes[c.lineNode] = append(c.layout.boxes[c.lineNode], box)
	c.lineNode = nil
}

// newLine advances the cursor to the start of the next line.
func (c *cursor) newLine() {
	c.x = 0
	c.y += c.layout.metrics.LineHeight
}

// Boxes returns the line boxes of a text node in document order.
func (l *Layout) Boxes(n *html.Node) []TextBox {
	return l.boxes[n]
}

// RectForElement returns the document-absolute bounding rectangle of an
// element. Block elements have a stored rect; inline elements resolve to the
// union of their descendants' text boxes.
func (l *Layout) RectForElement(n *html.Node) (geom.Rect, bool) {
	if r, ok := l.elems[n]; ok {
		return r, true
	}
	var union geom.Rect
	found := false
	dom.Walk(n, func(c *html.Node) bool {
		if c.Type != html.TextNode {
			return true
		}
		for _, box := range l.boxes[c] {
			if !found {
				union = box.Rect
				found = true
			} else {
				union = union.Union(box.Rect)
			}
		}
		return true
	})
	return union, found
}

// RectsForSpan returns the rectangles covering a byte span of rendered text
// that starts inside startNode and ends inside endNode (exclusive end
// offset). Fragments of line boxes are clipped to the requested span by
// measuring the uncovered prefix and suffix.
func (l *Layout) RectsForSpan(startNode *html.Node, startOff int, endNode *html.Node, endOff int) []geom.Rect {
	var rects []geom.Rect
	for n := startNode; n != nil; n = nextNode(n) {
		if n.Type == html.TextNode {
			from, to := 0, len(n.Data)
			if n == startNode {
				from = startOff
			}
			if n == endNode {
				to = endOff
			}
			rects = append(rects, l.clipBoxes(n, from, to)...)
		}
		if n == endNode {
			break
		}
	}
	return rects
}

// clipBoxes intersects a node's line boxes with the byte span [from, to).
func (l *Layout) clipBoxes(n *html.Node, from, to int) []geom.Rect {
	var rects []geom.Rect
	for _, box := range l.boxes[n] {
		s := max(box.StartOffset, from)
		e := min(box.EndOffset, to)
		if s >= e {
			continue
		}
		lead := l.measure(n.Data[box.StartOffset:s])
		width := l.measure(n.Data[s:e])
		if width <= 0 {
			continue
		}
		rects = append(rects, geom.Rect{
			X:      box.Rect.X + lead,
			Y:      box.Rect.Y,
			Width:  width,
			Height: box.Rect.Height,
		})
	}
	return rects
}

// measure returns the pixel width of a text fragment in the monospace model.
func (l *Layout) measure(s string) float64 {
	return float64(runewidth.StringWidth(s)) * l.metrics.CharWidth
}

// ClipRects returns the visible bounds of every scrollable ancestor of n.
// An element is scrollable when its inline style sets overflow (or
// overflow-y) to auto, scroll, or hidden.
func (l *Layout) ClipRects(n *html.Node) []geom.Rect {
	var clips []geom.Rect
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode || !isScrollable(cur) {
			continue
		}
		if r, ok := l.elems[cur]; ok {
			clips = append(clips, r)
		}
	}
	return clips
}

func isScrollable(n *html.Node) bool {
	style := dom.InlineStyle(n)
	if style == nil {
		return false
	}
	for _, prop := range []string{"overflow", "overflow-y", "overflow-x"} {
		switch style[prop] {
		case "auto", "scroll", "hidden":
			return true
		}
	}
	return false
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
