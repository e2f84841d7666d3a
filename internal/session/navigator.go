package session

import (
	"strings"
	"unicode/utf8"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/geom"
	"github.com/domfind/domfind/internal/vtext"
	"golang.org/x/net/html"
)

// ResultItem is one entry of the enriched results listing.
type ResultItem struct {
	Index         int    `json:"index"`
	MatchedText   string `json:"matchedText"`
	ContextBefore string `json:"contextBefore"`
	ContextAfter  string `json:"contextAfter"`
	FullText      string `json:"fullText"`
	TagInfo       string `json:"tagInfo,omitempty"`
}

// navigate moves the current index to the requested position with circular
// wrapping: -1 wraps to the last match, total wraps to the first. With zero
// matches it reports {-1, 0} and touches nothing. Callers hold the lock.
func (s *Session) navigate(requested int) NavigationResult {
	total := s.st.TotalMatches()
	if total == 0 {
		return NavigationResult{CurrentIndex: -1}
	}

	idx := ((requested % total) + total) % total
	s.st.SetCurrentIndex(idx)

	if s.st.HasTextMatches() {
		// Current-match styling lives in the overlays, so a navigation
		// step repaints them even without a scroll.
		s.rebuildVisuals()
	}
	s.scrollToCurrent()

	return NavigationResult{CurrentIndex: idx, TotalMatches: total}
}

// scrollToCurrent centers the viewport on the current match. Failures (a
// match whose nodes left the document between search and navigation) are
// swallowed: navigation state already advanced and the next repaint heals.
func (s *Session) scrollToCurrent() {
	l := s.currentLayout()
	var r geom.Rect
	if cur := s.st.GetCurrentRange(); cur != nil {
		anchor := cur.Anchor()
		if anchor == nil {
			debug.LogSearch("navigate: current range has no anchor, skipping scroll\n")
			return
		}
		rects := l.RectsForSpan(cur.StartNode, cur.StartOffset, cur.EndNode, cur.EndOffset)
		if len(rects) == 0 {
			debug.LogSearch("navigate: no layout rect for current match, skipping scroll\n")
			return
		}
		r = rects[0]
	} else if el := s.st.GetCurrentElement(); el != nil {
		er, ok := l.RectForElement(el)
		if !ok {
			debug.LogSearch("navigate: no layout rect for current element, skipping scroll\n")
			return
		}
		r = er
	} else {
		return
	}
	s.viewport.ScrollIntoView(r)
}

// ResultsList produces the enriched listing of all matches. contextLength
// bounds the bytes of virtual text quoted before and after each text match;
// context never crosses a block boundary.
func (s *Session) ResultsList(contextLength int) []ResultItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contextLength < 0 {
		contextLength = 0
	}

	if s.st.HasElementMatches() {
		return s.elementResults()
	}
	return s.textResults(contextLength)
}

func (s *Session) textResults(contextLength int) []ResultItem {
	items := make([]ResultItem, 0, len(s.matches))
	ranges := s.st.Ranges()
	for i, m := range s.matches {
		item := ResultItem{
			Index:         i,
			MatchedText:   s.vt.Slice(m.Start, m.End),
			ContextBefore: contextBefore(s.vt.Text, m.Start, contextLength),
			ContextAfter:  contextAfter(s.vt.Text, m.End, contextLength),
			FullText:      s.blockText(m.Start, m.End),
		}
		if i < len(ranges) {
			if anchor := ranges[i].Anchor(); anchor != nil {
				item.TagInfo = dom.TagInfo(anchor)
			}
		}
		items = append(items, item)
	}
	return items
}

func (s *Session) elementResults() []ResultItem {
	els := s.st.Elements()
	items := make([]ResultItem, 0, len(els))
	for i, el := range els {
		text := strings.TrimSpace(renderedText(el))
		items = append(items, ResultItem{
			Index:       i,
			MatchedText: text,
			FullText:    text,
			TagInfo:     dom.TagInfo(el),
		})
	}
	return items
}

// contextBefore takes up to n bytes preceding start, stopping at the nearest
// block boundary sentinel. The cut is pulled forward to a rune boundary so
// the chunk stays valid UTF-8.
func contextBefore(text string, start, n int) string {
	from := start - n
	if from < 0 {
		from = 0
	}
	for from < start && !utf8.RuneStart(text[from]) {
		from++
	}
	chunk := text[from:start]
	if i := strings.LastIndex(chunk, vtext.BoundaryString); i >= 0 {
		chunk = chunk[i+len(vtext.BoundaryString):]
	}
	return chunk
}

// contextAfter takes up to n bytes following end, stopping at the nearest
// block boundary sentinel. The cut is pulled back to a rune boundary so the
// chunk stays valid UTF-8.
func contextAfter(text string, end, n int) string {
	to := end + n
	if to > len(text) {
		to = len(text)
	}
	for to > end && to < len(text) && !utf8.RuneStart(text[to]) {
		to--
	}
	chunk := text[end:to]
	if i := strings.Index(chunk, vtext.BoundaryString); i >= 0 {
		chunk = chunk[:i]
	}
	return chunk
}

// renderedText concatenates the rendered text content of an element subtree,
// skipping hidden and non-rendering descendants.
func renderedText(el *html.Node) string {
	var b strings.Builder
	dom.Walk(el, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (dom.IsNonRendering(n) || dom.IsHidden(n)) {
			return false
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}
