// Package session ties the engine together: one Session owns a document, its
// layout and virtual text projections, the search state, and the overlay and
// minimap renderers. Every public operation is safe to call with no prior
// search and safe to call as an asynchronous message handler.
package session

import (
	"strings"
	"sync"

	"github.com/domfind/domfind/internal/cache"
	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/element"
	"github.com/domfind/domfind/internal/errors"
	"github.com/domfind/domfind/internal/layout"
	"github.com/domfind/domfind/internal/match"
	"github.com/domfind/domfind/internal/minimap"
	"github.com/domfind/domfind/internal/overlay"
	"github.com/domfind/domfind/internal/state"
	"github.com/domfind/domfind/internal/textrange"
	"github.com/domfind/domfind/internal/vtext"
)

// Params are the search request parameters, mirroring the message contract.
type Params struct {
	Query             string
	UseRegex          bool
	CaseSensitive     bool
	UseFuzzy          bool
	UseElementSearch  bool
	ElementSearchMode string // "css" or "xpath"; css when empty
}

// Result is the outcome of a search operation.
type Result struct {
	Count        int
	CurrentIndex int
	TotalMatches int
}

// NavigationResult reports where navigation landed. CurrentIndex is -1 iff
// TotalMatches is 0.
type NavigationResult struct {
	CurrentIndex int `json:"currentIndex"`
	TotalMatches int `json:"totalMatches"`
}

// Options bundles the tuning knobs of one session.
type Options struct {
	Metrics        layout.Metrics
	ViewportHeight float64
	Overlay        overlay.Options
	Minimap        minimap.Options
	Fuzzy          match.FuzzyOptions
	StatePath      string // enables search-state persistence when non-empty
}

// DefaultOptions returns the stock session configuration.
func DefaultOptions() Options {
	return Options{
		Metrics:        layout.DefaultMetrics(),
		ViewportHeight: 600,
		Overlay:        overlay.DefaultOptions(),
		Minimap:        minimap.DefaultOptions(),
		Fuzzy:          match.DefaultFuzzyOptions(),
	}
}

// excludeIDs are the singleton container subtrees the engine must never match
// inside.
var excludeIDs = []string{overlay.ContainerID, minimap.ContainerID}

// Session is one independent search session over one document. Multiple
// sessions (per frame, per test) never share state.
type Session struct {
	mu sync.Mutex

	doc      *dom.Document
	viewport *layout.Viewport
	layout   *layout.Layout
	vt       *vtext.VirtualText

	st       *state.Manager
	overlays *overlay.Renderer
	minimap  *minimap.Renderer

	// matches runs parallel to the manager's ranges in text mode, carrying
	// the virtual-text spans used for result listings.
	matches []match.Match

	// patterns caches compiled matchers so watch-mode refreshes do not
	// recompile the same query on every document change.
	patterns *cache.PatternCache

	opts Options
}

// New creates a session over a parsed document.
func New(doc *dom.Document, opts Options) *Session {
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 600
	}
	vp := layout.NewViewport(opts.Metrics.ContentWidth, opts.ViewportHeight)
	s := &Session{
		doc:      doc,
		viewport: vp,
		st:       state.NewManager(),
		overlays: overlay.NewRenderer(doc, vp, opts.Overlay),
		minimap:  minimap.NewRenderer(doc, opts.Minimap),
		patterns: cache.NewPatternCache(cache.Config{
			MaxEntries:  cache.DefaultMaxEntries,
			TTL:         cache.DefaultTTL,
			AutoCleanup: false,
		}),
		opts: opts,
	}
	if opts.StatePath != "" {
		s.st.SetPersistPath(opts.StatePath)
	}
	s.refreshProjection()
	return s
}

// Viewport exposes the session's viewport so the host can feed it scroll and
// resize events.
func (s *Session) Viewport() *layout.Viewport { return s.viewport }

// Document returns the session's current document.
func (s *Session) Document() *dom.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Search tears down any previous search and runs a new one. Text matches and
// element matches are mutually exclusive per search. Invalid patterns return
// a PatternError naming the offending syntax; every other outcome is a
// well-formed result, including zero matches.
func (s *Session) Search(p Params) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardown()
	s.st.UpdateSearchState(state.SearchState{
		Query:             p.Query,
		UseRegex:          p.UseRegex,
		CaseSensitive:     p.CaseSensitive,
		UseFuzzy:          p.UseFuzzy,
		UseElementSearch:  p.UseElementSearch,
		ElementSearchMode: p.ElementSearchMode,
	})

	if p.Query == "" {
		return Result{CurrentIndex: -1}, nil
	}

	if p.UseElementSearch {
		if err := s.searchElements(p); err != nil {
			return Result{}, err
		}
	} else {
		if err := s.searchText(p); err != nil {
			return Result{}, err
		}
	}

	total := s.st.TotalMatches()
	if total > 0 {
		s.navigate(0)
	}
	s.overlays.Attach(s.onViewportEvent)
	s.rebuildVisuals()

	debug.LogSearch("search %q: %d matches\n", p.Query, total)
	return Result{Count: total, CurrentIndex: s.st.CurrentIndex(), TotalMatches: total}, nil
}

func (s *Session) searchText(p Params) error {
	s.refreshProjection()

	var found []match.Match
	if p.UseFuzzy {
		found = match.FuzzySearch(p.Query, s.vt, s.opts.Fuzzy)
	} else {
		m, err := s.compile(p)
		if err != nil {
			return errors.NewPatternError(errors.PatternRegex, p.Query, err)
		}
		found = m.Find(s.vt)
	}

	for _, vm := range found {
		if r := textrange.FromMatch(vm, s.vt); r != nil {
			s.st.AddRange(r)
			s.matches = append(s.matches, vm)
		}
	}
	return nil
}

func (s *Session) compile(p Params) (*match.Matcher, error) {
	key := cache.Key(p.Query, p.UseRegex, p.CaseSensitive)
	if v := s.patterns.Get(key); v != nil {
		return v.(*match.Matcher), nil
	}
	m, err := match.Compile(p.Query, p.UseRegex, p.CaseSensitive)
	if err != nil {
		return nil, err
	}
	s.patterns.Put(key, m)
	return m, nil
}

func (s *Session) searchElements(p Params) error {
	mode := element.Mode(p.ElementSearchMode)
	if mode == "" {
		mode = element.ModeCSS
	}
	els, err := element.Search(s.doc, p.Query, mode, excludeIDs...)
	if err != nil {
		return err
	}
	s.refreshProjection()
	for _, el := range els {
		s.st.AddElement(el)
	}
	return nil
}

// Clear tears down overlays, listeners, and match state. Always succeeds,
// even after a partially failed search.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// Next advances to the next match, wrapping past the end.
func (s *Session) Next() NavigationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(s.st.CurrentIndex() + 1)
}

// Prev moves to the previous match, wrapping before the start.
func (s *Session) Prev() NavigationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(s.st.CurrentIndex() - 1)
}

// JumpTo navigates straight to the requested index, with the same circular
// wrapping as Next/Prev.
func (s *Session) JumpTo(index int) NavigationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(index)
}

// State returns the last search parameters and current navigation position
// for UI restoration.
func (s *Session) State() (state.SearchState, NavigationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SearchState(), NavigationResult{
		CurrentIndex: s.st.CurrentIndex(),
		TotalMatches: s.st.TotalMatches(),
	}
}

// ReplaceDocument swaps in a fresh parse of the document (the observer's
// re-search path) and re-runs the last search against it.
func (s *Session) ReplaceDocument(doc *dom.Document) (Result, error) {
	s.mu.Lock()
	last := s.st.SearchState()
	s.teardown()
	s.doc = doc
	s.overlays = overlay.NewRenderer(doc, s.viewport, s.opts.Overlay)
	s.minimap = minimap.NewRenderer(doc, s.opts.Minimap)
	s.refreshProjection()
	s.mu.Unlock()

	if last.Query == "" {
		return Result{CurrentIndex: -1}, nil
	}
	return s.Search(Params{
		Query:             last.Query,
		UseRegex:          last.UseRegex,
		CaseSensitive:     last.CaseSensitive,
		UseFuzzy:          last.UseFuzzy,
		UseElementSearch:  last.UseElementSearch,
		ElementSearchMode: last.ElementSearchMode,
	})
}

// teardown synchronously removes overlays, listeners, and match state so no
// two active searches ever overlap. Callers hold the lock.
func (s *Session) teardown() {
	s.overlays.Detach()
	s.overlays.Clear(s.st)
	s.st.Clear()
	s.matches = nil
	s.minimap.Update(s.st, s.currentLayout())
}

// onViewportEvent is the frame-coalesced scroll/resize callback.
func (s *Session) onViewportEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildVisuals()
}

// rebuildVisuals repaints overlays and minimap from current state. Callers
// hold the lock.
func (s *Session) rebuildVisuals() {
	l := s.currentLayout()
	s.overlays.Update(s.st, l)
	s.minimap.Update(s.st, l)
}

// refreshProjection recomputes layout and virtual text from the current DOM.
// Callers hold the lock (or are the constructor).
func (s *Session) refreshProjection() {
	s.layout = layout.Compute(s.doc.Root, s.opts.Metrics, excludeIDs...)
	s.viewport.SetDocumentHeight(s.layout.DocumentHeight())
	s.vt = vtext.Build(s.doc.Root, excludeIDs...)
}

func (s *Session) currentLayout() *layout.Layout {
	if s.layout == nil {
		s.refreshProjection()
	}
	return s.layout
}

// blockText returns the sentinel-delimited block of virtual text around the
// span, used as a result item's full text.
func (s *Session) blockText(start, end int) string {
	text := s.vt.Text
	from := strings.LastIndex(text[:start], vtext.BoundaryString)
	if from < 0 {
		from = 0
	} else {
		from += len(vtext.BoundaryString)
	}
	to := strings.Index(text[end:], vtext.BoundaryString)
	if to < 0 {
		to = len(text)
	} else {
		to += end
	}
	return strings.TrimSpace(text[from:to])
}
