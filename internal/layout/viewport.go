package layout

import (
	"math"

	"github.com/domfind/domfind/internal/geom"
)

// EventKind distinguishes the viewport events overlay repositioning reacts to.
type EventKind int

const (
	EventScroll EventKind = iota
	EventResize
)

// Viewport models the host's visible window over the document: its size, the
// current scroll position, and a listener registry for scroll/resize events.
// All overlay geometry is expressed relative to it.
type Viewport struct {
	Width  float64
	Height float64

	scrollX   float64
	scrollY   float64
	docHeight float64

	listeners map[int]func(EventKind)
	nextID    int
}

// NewViewport creates a viewport of the given size.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		Width:     width,
		Height:    height,
		listeners: make(map[int]func(EventKind)),
	}
}

// SetDocumentHeight sets the scrollable height, clamping the current scroll
// position into the new valid region.
func (v *Viewport) SetDocumentHeight(h float64) {
	v.docHeight = h
	v.ScrollTo(v.scrollX, v.scrollY)
}

// DocumentHeight returns the current scrollable height.
func (v *Viewport) DocumentHeight() float64 { return v.docHeight }

// Scroll returns the current scroll offsets.
func (v *Viewport) Scroll() (x, y float64) { return v.scrollX, v.scrollY }

// ScrollTo scrolls to an absolute position, clamped to the document bounds,
// and notifies listeners when the position changed.
func (v *Viewport) ScrollTo(x, y float64) {
	maxY := math.Max(0, v.docHeight-v.Height)
	x = math.Max(0, x)
	y = math.Min(math.Max(0, y), maxY)
	if x == v.scrollX && y == v.scrollY {
		return
	}
	v.scrollX = x
	v.scrollY = y
	v.notify(EventScroll)
}

// Resize changes the viewport size and notifies listeners.
func (v *Viewport) Resize(width, height float64) {
	if width == v.Width && height == v.Height {
		return
	}
	v.Width = width
	v.Height = height
	v.ScrollTo(v.scrollX, v.scrollY)
	v.notify(EventResize)
}

// ScrollIntoView scrolls so the document-absolute rectangle sits centered in
// the viewport. The host animates the transition; the model position updates
// immediately.
func (v *Viewport) ScrollIntoView(r geom.Rect) {
	target := r.Y + r.Height/2 - v.Height/2
	v.ScrollTo(v.scrollX, target)
}

// ToViewport converts a document-absolute rectangle to viewport-relative
// coordinates.
func (v *Viewport) ToViewport(r geom.Rect) geom.Rect {
	return r.Translate(-v.scrollX, -v.scrollY)
}

// Subscribe registers a scroll/resize listener and returns its handle for
// Unsubscribe. Callers guard their own attach-once semantics.
func (v *Viewport) Subscribe(fn func(EventKind)) int {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return id
}

// Unsubscribe removes a listener; unknown handles are ignored.
func (v *Viewport) Unsubscribe(id int) {
	delete(v.listeners, id)
}

func (v *Viewport) notify(kind EventKind) {
	for _, fn := range v.listeners {
		fn(kind)
	}
}
