package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/domfind/domfind/internal/vtext"
)

// normalized is a case- and diacritic-folded view of a string together with a
// per-byte mapping back to the source. Folding changes byte lengths, so fuzzy
// match offsets must be translated through the mapping before they are usable
// as virtual text offsets.
type normalized struct {
	text string

	// start[i] is the source byte offset of the rune that produced
	// normalized byte i; end[i] is that source rune's exclusive end.
	start []int
	end   []int
}

// normalizeString folds case and strips combining marks, keeping the
// provenance of every produced byte. The boundary sentinel passes through
// unchanged so folded text still cannot be matched across blocks.
func normalizeString(s string) normalized {
	var b strings.Builder
	n := normalized{}
	for i, r := range s {
		size := utf8.RuneLen(r)
		for _, fr := range foldRune(r) {
			w := utf8.RuneLen(fr)
			b.WriteRune(fr)
			for j := 0; j < w; j++ {
				n.start = append(n.start, i)
				n.end = append(n.end, i+size)
			}
		}
	}
	n.text = b.String()
	return n
}

// foldRune lowercases a rune and drops any combining marks produced by
// canonical decomposition, so "é" folds to "e".
func foldRune(r rune) []rune {
	if r == vtext.Boundary {
		return []rune{r}
	}
	if r < utf8.RuneSelf {
		return []rune{unicode.ToLower(r)}
	}
	var out []rune
	for _, d := range norm.NFD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		out = append(out, unicode.ToLower(d))
	}
	return out
}

// normalizeQuery folds a query string without provenance tracking.
func normalizeQuery(s string) string {
	var b strings.Builder
	for _, r := range s {
		for _, fr := range foldRune(r) {
			b.WriteRune(fr)
		}
	}
	return b.String()
}
