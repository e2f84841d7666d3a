package dom

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree and provides the node-level queries the
// search pipeline needs: element lookup, rendered-visibility checks, and a
// content fingerprint for change detection.
type Document struct {
	Root *html.Node

	// Source path the document was parsed from, empty for in-memory documents.
	Path string
}

// Parse reads and parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{Root: root}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(src string) (*Document, error) {
	return Parse(strings.NewReader(src))
}

// ParseFile parses the HTML document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Body returns the document's body element, or the root when the tree has no
// body (fragment parses).
func (d *Document) Body() *html.Node {
	if n := findElement(d.Root, "body"); n != nil {
		return n
	}
	return d.Root
}

// Fingerprint returns a stable hash of the serialized document. The observer
// uses it to skip re-searches when a coalesced event burst produced no net
// content change.
func (d *Document) Fingerprint() uint64 {
	var buf bytes.Buffer
	// Render only fails on unattachable node types, which a parsed tree
	// never contains.
	_ = html.Render(&buf, d.Root)
	return xxhash.Sum64(buf.Bytes())
}

// ElementByID returns the first element with the given id attribute.
func (d *Document) ElementByID(id string) *html.Node {
	var found *html.Node
	Walk(d.Root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk performs a depth-first traversal from n. The visitor returns false to
// prune the subtree below the visited node.
func Walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, visit)
	}
}

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present, regardless of value.
func HasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs map[string]string) *html.Node {
	n := &html.Node{
		Type: html.ElementNode,
		Data: tag,
	}
	for k, v := range attrs {
		SetAttr(n, k, v)
	}
	return n
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Detach removes n from its parent, tolerating already-detached nodes.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// HasAncestorWithID reports whether n or any of its ancestors carries one of
// the given id attributes. Used to exclude the overlay and minimap containers
// from text extraction and element search.
func HasAncestorWithID(n *html.Node, ids ...string) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		id := Attr(cur, "id")
		if id == "" {
			continue
		}
		for _, want := range ids {
			if id == want {
				return true
			}
		}
	}
	return false
}

// TagInfo returns a compact css-like description of an element, e.g.
// "div#main.card.active", used in result listings.
func TagInfo(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	var b strings.Builder
	b.WriteString(n.Data)
	if id := Attr(n, "id"); id != "" {
		b.WriteByte('#')
		b.WriteString(id)
	}
	for _, class := range strings.Fields(Attr(n, "class")) {
		b.WriteByte('.')
		b.WriteString(class)
	}
	return b.String()
}

func findElement(root *html.Node, tag string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(n, tag) {
			found = n
			return false
		}
		return true
	})
	return found
}
