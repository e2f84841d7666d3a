package dom

import "golang.org/x/net/html"

// nonRenderingTags are containers whose text content is never rendered and
// must never contribute to the virtual text.
var nonRenderingTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
	"noscript": true, "template": true, "iframe": true, "object": true,
}

// IsNonRendering reports whether n is an element whose subtree never renders
// text.
func IsNonRendering(n *html.Node) bool {
	return n.Type == html.ElementNode && nonRenderingTags[n.Data]
}

// IsHidden reports whether n itself is hidden via the hidden attribute,
// display:none, or visibility:hidden. It does not consult ancestors; use
// IsRendered for the full ancestor-aware check.
func IsHidden(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if HasAttr(n, "hidden") {
		return true
	}
	style := InlineStyle(n)
	if style == nil {
		return false
	}
	if style["display"] == "none" {
		return true
	}
	return style["visibility"] == "hidden"
}

// IsRendered reports whether a node's text would appear on screen: no
// non-rendering or hidden element may sit on its ancestor chain. An element
// argument is checked including itself.
func IsRendered(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if IsNonRendering(cur) || IsHidden(cur) {
			return false
		}
	}
	return true
}
