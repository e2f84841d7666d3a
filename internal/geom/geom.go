// Package geom provides the rectangle primitives the overlay layer is built
// on: merging of fragmented client rects into per-line highlight boxes and
// visibility tests against viewport and clip bounds.
package geom

import (
	"math"
	"sort"
)

// Rect is an axis-aligned rectangle. Coordinates are CSS pixels; whether they
// are document-absolute or viewport-relative depends on context.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right returns the exclusive right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Expand returns the rectangle grown by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// Union returns the bounding rectangle of a and b.
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), o.Right()) - x,
		Height: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Intersects reports whether a and b overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// DefaultMergeTolerance is the horizontal gap, in pixels, below which two
// rects on the same line are considered one highlight.
const DefaultMergeTolerance = 1.0

// MergeAdjacentRects coalesces the fragmented rectangles of a single logical
// match into one rectangle per visual line. Rects are grouped by rounded top
// coordinate (absorbing sub-pixel jitter), sorted left to right, and
// consecutive rects whose gap is within tolerance are merged into their
// bounding box. The operation is idempotent.
func MergeAdjacentRects(rects []Rect, tolerance float64) []Rect {
	if len(rects) == 0 {
		return nil
	}

	lines := make(map[int][]Rect)
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		key := int(math.Round(r.Y))
		lines[key] = append(lines[key], r)
	}

	keys := make([]int, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var merged []Rect
	for _, k := range keys {
		line := lines[k]
		sort.Slice(line, func(i, j int) bool { return line[i].X < line[j].X })

		cur := line[0]
		for _, r := range line[1:] {
			if r.X-cur.Right() <= tolerance {
				cur = cur.Union(r)
			} else {
				merged = append(merged, cur)
				cur = r
			}
		}
		merged = append(merged, cur)
	}
	return merged
}

// IsRectVisibleInViewport reports whether a viewport-relative rectangle
// intersects a viewport of the given size.
func IsRectVisibleInViewport(r Rect, viewportWidth, viewportHeight float64) bool {
	return r.Intersects(Rect{Width: viewportWidth, Height: viewportHeight})
}

// IsRectVisibleWithin reports whether the rectangle intersects every clip
// bound, so overlays are never drawn over content scrolled out of a
// scrollable ancestor.
func IsRectVisibleWithin(r Rect, clips []Rect) bool {
	for _, clip := range clips {
		if !r.Intersects(clip) {
			return false
		}
	}
	return true
}
