// Package minimap paints a compressed vertical strip along the right edge
// showing where matches sit relative to the full document height.
package minimap

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/layout"
	"github.com/domfind/domfind/internal/state"
)

// ContainerID is the fixed element id of the singleton minimap strip.
const ContainerID = "domfind-minimap"

// Options controls marker appearance.
type Options struct {
	StripWidth   float64
	MarkerHeight float64
	MarkerColor  string
	CurrentColor string
}

// DefaultOptions returns the stock minimap styling.
func DefaultOptions() Options {
	return Options{
		StripWidth:   8,
		MarkerHeight: 3,
		MarkerColor:  "rgba(255,165,0,0.9)",
		CurrentColor: "rgba(255,69,0,1)",
	}
}

// Renderer rebuilds the minimap strip from the current match set.
type Renderer struct {
	doc  *dom.Document
	opts Options
}

// NewRenderer creates a minimap renderer for the document.
func NewRenderer(doc *dom.Document, opts Options) *Renderer {
	return &Renderer{doc: doc, opts: opts}
}

// Update clears and repaints every marker. Each match's vertical position is
// expressed as a percentage of the document scroll height; the strip is
// hidden entirely when there are no matches.
func (r *Renderer) Update(st *state.Manager, l *layout.Layout) {
	strip := r.ensureStrip()
	clearChildren(strip)

	if !st.HasMatches() {
		dom.SetAttr(strip, "style", stripStyle(r.opts.StripWidth)+";display:none")
		return
	}
	dom.SetAttr(strip, "style", stripStyle(r.opts.StripWidth))

	docHeight := l.DocumentHeight()
	if docHeight <= 0 {
		return
	}

	current := st.CurrentIndex()
	positions := r.matchPositions(st, l)
	for i, y := range positions {
		pct := y / docHeight * 100
		color := r.opts.MarkerColor
		if i == current {
			color = r.opts.CurrentColor
		}
		marker := dom.NewElement("div", map[string]string{
			"class": "domfind-minimap-marker",
			"style": fmt.Sprintf("position:absolute;left:0;right:0;top:%.2f%%;height:%.0fpx;background:%s",
				pct, r.opts.MarkerHeight, color),
		})
		strip.AppendChild(marker)
	}
	debug.LogOverlay("minimap: %d markers\n", len(positions))
}

// Remove detaches the strip; used on session teardown.
func (r *Renderer) Remove() {
	if strip := r.doc.ElementByID(ContainerID); strip != nil {
		dom.Detach(strip)
	}
}

// matchPositions returns the document-absolute top of each match, in match
// order.
func (r *Renderer) matchPositions(st *state.Manager, l *layout.Layout) []float64 {
	var ys []float64
	if st.HasTextMatches() {
		for _, rng := range st.Ranges() {
			rects := l.RectsForSpan(rng.StartNode, rng.StartOffset, rng.EndNode, rng.EndOffset)
			if len(rects) == 0 {
				ys = append(ys, 0)
				continue
			}
			ys = append(ys, rects[0].Y)
		}
		return ys
	}
	for _, el := range st.Elements() {
		rect, ok := l.RectForElement(el)
		if !ok {
			ys = append(ys, 0)
			continue
		}
		ys = append(ys, rect.Y)
	}
	return ys
}

// ensureStrip returns the singleton strip, creating it only when absent.
func (r *Renderer) ensureStrip() *html.Node {
	if strip := r.doc.ElementByID(ContainerID); strip != nil {
		return strip
	}
	strip := dom.NewElement("div", map[string]string{
		"id":    ContainerID,
		"style": stripStyle(r.opts.StripWidth),
	})
	r.doc.Body().AppendChild(strip)
	return strip
}

func stripStyle(width float64) string {
	return fmt.Sprintf("position:fixed;top:0;right:0;bottom:0;width:%.0fpx;z-index:2147483647;pointer-events:none", width)
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
