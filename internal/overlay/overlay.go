// Package overlay paints highlight boxes over match rectangles. Overlays are
// real DOM nodes inside a fixed singleton container appended to the body, so
// the page's own content is never mutated; the virtual text builder and the
// element matcher exclude the container by id.
package overlay

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/geom"
	"github.com/domfind/domfind/internal/layout"
	"github.com/domfind/domfind/internal/state"
)

// ContainerID is the fixed element id of the singleton overlay container.
// Re-entrant searches look it up and reuse it rather than creating a
// duplicate.
const ContainerID = "domfind-highlight-container"

// Options controls highlight appearance and rebuild behaviour.
type Options struct {
	Padding            float64
	FillColor          string
	BorderColor        string
	CurrentFillColor   string
	CurrentBorderColor string
	MergeTolerance     float64
}

// DefaultOptions returns the stock highlight styling.
func DefaultOptions() Options {
	return Options{
		Padding:            2,
		FillColor:          "rgba(255,215,0,0.35)",
		BorderColor:        "rgba(255,165,0,0.8)",
		CurrentFillColor:   "rgba(255,69,0,0.45)",
		CurrentBorderColor: "rgba(255,69,0,0.95)",
		MergeTolerance:     geom.DefaultMergeTolerance,
	}
}

// Renderer rebuilds the overlay container from the current match set. One
// renderer exists per session; attach/detach of viewport listeners is
// idempotent.
type Renderer struct {
	doc      *dom.Document
	viewport *layout.Viewport
	opts     Options

	attached bool
	subID    int
	frame    *frameScheduler
}

// NewRenderer creates a renderer for the document and viewport.
func NewRenderer(doc *dom.Document, vp *layout.Viewport, opts Options) *Renderer {
	return &Renderer{
		doc:      doc,
		viewport: vp,
		opts:     opts,
		frame:    newFrameScheduler(defaultFrameInterval),
	}
}

// Attach subscribes the renderer to viewport scroll/resize events, coalescing
// bursts into at most one rebuild per frame. Repeated calls are no-ops: the
// attached flag, not the caller, guards duplicate registration.
func (r *Renderer) Attach(rebuild func()) {
	if r.attached {
		return
	}
	r.subID = r.viewport.Subscribe(func(layout.EventKind) {
		r.frame.Schedule(rebuild)
	})
	r.attached = true
	debug.LogOverlay("attached viewport listeners\n")
}

// Detach removes the viewport subscription and cancels any pending frame.
func (r *Renderer) Detach() {
	if !r.attached {
		return
	}
	r.viewport.Unsubscribe(r.subID)
	r.frame.Stop()
	r.attached = false
	debug.LogOverlay("detached viewport listeners\n")
}

// Update clears and rebuilds every overlay node from the current ranges or
// elements. Offscreen and clipped rectangles produce no overlay.
func (r *Renderer) Update(st *state.Manager, l *layout.Layout) {
	container := r.ensureContainer()
	clearChildren(container)
	st.ClearOverlays()

	current := st.CurrentIndex()
	count := 0
	if st.HasTextMatches() {
		for i, rng := range st.Ranges() {
			rects := l.RectsForSpan(rng.StartNode, rng.StartOffset, rng.EndNode, rng.EndOffset)
			clips := l.ClipRects(rng.StartNode)
			count += r.paint(st, container, rects, clips, i == current)
		}
	} else {
		for i, el := range st.Elements() {
			rect, ok := l.RectForElement(el)
			if !ok {
				continue
			}
			clips := l.ClipRects(el)
			count += r.paint(st, container, []geom.Rect{rect}, clips, i == current)
		}
	}
	debug.LogOverlay("rebuilt %d overlay nodes\n", count)
}

// Clear removes every overlay node and resets the state's overlay handles.
// Safe to call after a partially failed update.
func (r *Renderer) Clear(st *state.Manager) {
	if container := r.doc.ElementByID(ContainerID); container != nil {
		clearChildren(container)
	}
	st.ClearOverlays()
}

// Remove detaches the container itself; used on session teardown.
func (r *Renderer) Remove() {
	if container := r.doc.ElementByID(ContainerID); container != nil {
		dom.Detach(container)
	}
}

// paint merges, filters, converts, and appends overlay nodes for one match's
// rectangles. Returns the number of nodes created.
func (r *Renderer) paint(st *state.Manager, container *html.Node, rects []geom.Rect, clips []geom.Rect, isCurrent bool) int {
	count := 0
	for _, rect := range geom.MergeAdjacentRects(rects, r.opts.MergeTolerance) {
		if !geom.IsRectVisibleWithin(rect, clips) {
			continue
		}
		vpRect := r.viewport.ToViewport(rect)
		if !geom.IsRectVisibleInViewport(vpRect, r.viewport.Width, r.viewport.Height) {
			continue
		}
		node := r.createOverlay(vpRect.Expand(r.opts.Padding), isCurrent)
		container.AppendChild(node)
		st.AddOverlay(node)
		count++
	}
	return count
}

// createOverlay builds one highlight box node. Rectangles are already
// viewport-relative, and the container is fixed-positioned, so no scroll
// offset needs adding.
func (r *Renderer) createOverlay(rect geom.Rect, isCurrent bool) *html.Node {
	fill, border := r.opts.FillColor, r.opts.BorderColor
	if isCurrent {
		fill, border = r.opts.CurrentFillColor, r.opts.CurrentBorderColor
	}
	style := fmt.Sprintf(
		"position:fixed;left:%.1fpx;top:%.1fpx;width:%.1fpx;height:%.1fpx;"+
			"background:%s;border:1px solid %s;border-radius:2px;pointer-events:none",
		rect.X, rect.Y, rect.Width, rect.Height, fill, border)
	return dom.NewElement("div", map[string]string{
		"class": "domfind-highlight",
		"style": style,
	})
}

// ensureContainer returns the singleton overlay container, creating and
// appending it to the body only when it does not already exist.
func (r *Renderer) ensureContainer() *html.Node {
	if container := r.doc.ElementByID(ContainerID); container != nil {
		return container
	}
	container := dom.NewElement("div", map[string]string{
		"id":    ContainerID,
		"style": "position:fixed;top:0;left:0;width:0;height:0;z-index:2147483646;pointer-events:none",
	})
	r.doc.Body().AppendChild(container)
	return container
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
