package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Display is the effective display value of an element, reduced to the
// distinctions the virtual text builder cares about.
type Display string

const (
	DisplayBlock     Display = "block"
	DisplayInline    Display = "inline"
	DisplayFlex      Display = "flex"
	DisplayGrid      Display = "grid"
	DisplayListItem  Display = "list-item"
	DisplayTable     Display = "table"
	DisplayTableRow  Display = "table-row"
	DisplayTableCell Display = "table-cell"
	DisplayFlowRoot  Display = "flow-root"
	DisplayNone      Display = "none"
)

// alwaysInlineTags overrides any computed display: these tags are treated as
// inline no matter what, so a styled <span> can never introduce a block
// boundary into the virtual text.
var alwaysInlineTags = map[string]bool{
	"span": true, "strong": true, "em": true, "b": true, "i": true,
	"code": true, "kbd": true, "samp": true, "var": true, "a": true,
	"abbr": true, "cite": true, "q": true, "mark": true, "small": true,
	"sub": true, "sup": true,
}

// blockDisplays is the set of display values that make an element a block
// boundary candidate.
var blockDisplays = map[Display]bool{
	DisplayBlock: true, DisplayFlex: true, DisplayGrid: true,
	DisplayListItem: true, DisplayTable: true, DisplayTableRow: true,
	DisplayTableCell: true, DisplayFlowRoot: true,
}

// defaultDisplays maps tag names to their user-agent default display value.
// Tags absent from the map default to inline, matching browser behaviour for
// unknown elements.
var defaultDisplays = map[string]Display{
	"html": DisplayBlock, "body": DisplayBlock, "div": DisplayBlock,
	"p": DisplayBlock, "h1": DisplayBlock, "h2": DisplayBlock,
	"h3": DisplayBlock, "h4": DisplayBlock, "h5": DisplayBlock,
	"h6": DisplayBlock, "ul": DisplayBlock, "ol": DisplayBlock,
	"dl": DisplayBlock, "dt": DisplayBlock, "dd": DisplayBlock,
	"pre": DisplayBlock, "blockquote": DisplayBlock, "address": DisplayBlock,
	"article": DisplayBlock, "aside": DisplayBlock, "footer": DisplayBlock,
	"header": DisplayBlock, "main": DisplayBlock, "nav": DisplayBlock,
	"section": DisplayBlock, "figure": DisplayBlock, "figcaption": DisplayBlock,
	"form": DisplayBlock, "fieldset": DisplayBlock, "hr": DisplayBlock,
	"details": DisplayBlock, "summary": DisplayBlock,
	"li":    DisplayListItem,
	"table": DisplayTable,
	"tr":    DisplayTableRow,
	"td":    DisplayTableCell, "th": DisplayTableCell,
}

// DisplayOf returns the effective display of an element: the inline style
// attribute when it sets one, otherwise the user-agent default for the tag.
func DisplayOf(n *html.Node) Display {
	if n.Type != html.ElementNode {
		return DisplayInline
	}
	if v, ok := InlineStyle(n)["display"]; ok {
		return Display(v)
	}
	if d, ok := defaultDisplays[n.Data]; ok {
		return d
	}
	return DisplayInline
}

// IsBlockLevel reports whether n acts as a block boundary for virtual text
// construction. The curated inline tag list wins over any styled display.
func IsBlockLevel(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if alwaysInlineTags[n.Data] {
		return false
	}
	return blockDisplays[DisplayOf(n)]
}

// NearestBlockAncestor returns the closest block-level ancestor of n,
// including n itself when n is a block element. Returns nil when no block
// ancestor exists (detached fragments).
func NearestBlockAncestor(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if IsBlockLevel(cur) {
			return cur
		}
	}
	return nil
}

// InlineStyle parses the element's style attribute into a property map.
// Property names are lowercased; values keep their case but lose surrounding
// whitespace.
func InlineStyle(n *html.Node) map[string]string {
	raw := Attr(n, "style")
	if raw == "" {
		return nil
	}
	props := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name != "" && value != "" {
			props[name] = value
		}
	}
	return props
}
