// Package state owns the mutable heart of a search session: the current
// match set, the navigation index, the overlay handles derived from them, and
// the last-used search parameters. All mutation is method-mediated so no
// component can leave the collections half-updated.
package state

import (
	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/textrange"
)

// SearchState is the last-used query and mode flags, serializable so a
// reopened UI can restore its controls.
type SearchState struct {
	Query             string `toml:"query" json:"query"`
	UseRegex          bool   `toml:"use_regex" json:"useRegex"`
	CaseSensitive     bool   `toml:"case_sensitive" json:"caseSensitive"`
	UseFuzzy          bool   `toml:"use_fuzzy" json:"useFuzzy"`
	UseElementSearch  bool   `toml:"use_element_search" json:"useElementSearch"`
	ElementSearchMode string `toml:"element_search_mode" json:"elementSearchMode"`
}

// Manager is the single owner of highlight data for one search session.
// Ranges (text mode) and elements (element mode) are mutually exclusive per
// search; overlays are always derived and rebuildable from whichever is
// populated.
type Manager struct {
	ranges   []*textrange.Range
	elements []*html.Node
	overlays []*html.Node

	currentIndex int
	search       SearchState

	persistPath string
}

// NewManager creates an empty state manager.
func NewManager() *Manager {
	return &Manager{currentIndex: -1}
}

// AddRange appends a text match range. Ignored with a log when the session
// already holds element matches: the two modes never mix within one search.
func (m *Manager) AddRange(r *textrange.Range) {
	if len(m.elements) > 0 {
		debug.LogSearch("dropping range add: element matches already present\n")
		return
	}
	m.ranges = append(m.ranges, r)
}

// AddElement appends an element match. Ignored with a log when the session
// already holds text ranges.
func (m *Manager) AddElement(n *html.Node) {
	if len(m.ranges) > 0 {
		debug.LogSearch("dropping element add: text matches already present\n")
		return
	}
	m.elements = append(m.elements, n)
}

// AddOverlay records an overlay node so it can be cleared later.
func (m *Manager) AddOverlay(n *html.Node) {
	m.overlays = append(m.overlays, n)
}

// SetCurrentIndex sets the navigation index. Out-of-range values are clamped
// to -1 (no current match).
func (m *Manager) SetCurrentIndex(i int) {
	if i < 0 || i >= m.TotalMatches() {
		m.currentIndex = -1
		return
	}
	m.currentIndex = i
}

// CurrentIndex returns the navigation index, -1 when there is no current
// match.
func (m *Manager) CurrentIndex() int {
	if m.TotalMatches() == 0 {
		return -1
	}
	return m.currentIndex
}

// UpdateSearchState records the last-used search parameters and persists them
// when a persist path is configured.
func (m *Manager) UpdateSearchState(s SearchState) {
	m.search = s
	if m.persistPath != "" {
		if err := Save(m.persistPath, s); err != nil {
			debug.LogSearch("failed to persist search state: %v\n", err)
		}
	}
}

// SearchState returns the last-used search parameters.
func (m *Manager) SearchState() SearchState {
	return m.search
}

// Clear resets everything: matches, overlays, index. The last search state is
// kept so the UI can still restore its controls.
func (m *Manager) Clear() {
	m.ranges = nil
	m.elements = nil
	m.overlays = nil
	m.currentIndex = -1
}

// ClearOverlays resets only the derived overlay handles, used before a full
// overlay rebuild.
func (m *Manager) ClearOverlays() {
	m.overlays = nil
}

// HasTextMatches reports whether the session holds text ranges.
func (m *Manager) HasTextMatches() bool { return len(m.ranges) > 0 }

// HasElementMatches reports whether the session holds element matches.
func (m *Manager) HasElementMatches() bool { return len(m.elements) > 0 }

// HasMatches reports whether the session holds matches of either kind.
func (m *Manager) HasMatches() bool { return m.HasTextMatches() || m.HasElementMatches() }

// TotalMatches returns the match count of the populated mode.
func (m *Manager) TotalMatches() int {
	if len(m.ranges) > 0 {
		return len(m.ranges)
	}
	return len(m.elements)
}

// GetCurrentRange returns the range at the navigation index, or nil when the
// index is out of range or the session is in element mode.
func (m *Manager) GetCurrentRange() *textrange.Range {
	if m.currentIndex < 0 || m.currentIndex >= len(m.ranges) {
		return nil
	}
	return m.ranges[m.currentIndex]
}

// GetCurrentElement returns the element at the navigation index, or nil when
// the index is out of range or the session is in text mode.
func (m *Manager) GetCurrentElement() *html.Node {
	if m.currentIndex < 0 || m.currentIndex >= len(m.elements) {
		return nil
	}
	return m.elements[m.currentIndex]
}

// Ranges returns a copy of the range list.
func (m *Manager) Ranges() []*textrange.Range {
	out := make([]*textrange.Range, len(m.ranges))
	copy(out, m.ranges)
	return out
}

// Elements returns a copy of the element list.
func (m *Manager) Elements() []*html.Node {
	out := make([]*html.Node, len(m.elements))
	copy(out, m.elements)
	return out
}

// Overlays returns a copy of the overlay handle list.
func (m *Manager) Overlays() []*html.Node {
	out := make([]*html.Node, len(m.overlays))
	copy(out, m.overlays)
	return out
}

// SetPersistPath enables search-state persistence to the given file and loads
// any previously saved state from it.
func (m *Manager) SetPersistPath(path string) {
	m.persistPath = path
	if s, err := Load(path); err == nil {
		m.search = s
	}
}
