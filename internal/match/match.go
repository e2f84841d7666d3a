// Package match implements the pattern engines that run against virtual text:
// a literal/regex matcher with boundary-aware dot rewriting, and a fuzzy
// multi-keyword matcher with a proximity window.
package match

import (
	"regexp"
	"strings"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/vtext"
)

// Match is a half-open [Start, End) byte span into the virtual text.
// Invariant: 0 <= Start < End <= len(text), and no byte in the span belongs
// to a boundary sentinel.
type Match struct {
	Start int
	End   int
}

// dotClass replaces the bare `.` metacharacter: match anything except the
// block boundary sentinel and a literal newline, so `.` never silently spans
// unrelated blocks or swallows a line break.
const dotClass = `[^\x{E000}\n]`

// whitespaceRun collapses whitespace runs in literal queries so a query typed
// with single spaces still matches DOM text with collapsed or expanded
// spacing.
var whitespaceRun = regexp.MustCompile(`[ \t\r\n\f\v]+`)

// Matcher is a compiled text query.
type Matcher struct {
	re *regexp.Regexp
}

// Compile builds a matcher for the query. Literal queries are escaped and
// made whitespace-tolerant; regex queries get the boundary-aware dot rewrite.
// The returned error is the only signal callers should surface for malformed
// patterns.
func Compile(query string, useRegex, caseSensitive bool) (*Matcher, error) {
	var pattern string
	if useRegex {
		pattern = rewriteDots(query)
	} else {
		pattern = whitespaceRun.ReplaceAllString(regexp.QuoteMeta(query), `\s+`)
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re}, nil
}

// Find returns every boundary-free match in the virtual text. Zero-length
// matches are dropped, and any match whose span touches a boundary sentinel
// is discarded even if the pattern admitted it (a user-written character
// class can include the sentinel's codepoint).
func (m *Matcher) Find(vt *vtext.VirtualText) []Match {
	locs := m.re.FindAllStringIndex(vt.Text, -1)
	if locs == nil {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		if vt.ContainsBoundary(loc[0], loc[1]) {
			continue
		}
		matches = append(matches, Match{Start: loc[0], End: loc[1]})
	}
	return matches
}

// Search compiles and runs a query in one step. Invalid patterns yield an
// empty match list rather than an error; use Compile when the caller needs to
// report the malformed pattern.
func Search(query string, vt *vtext.VirtualText, useRegex, caseSensitive bool) []Match {
	m, err := Compile(query, useRegex, caseSensitive)
	if err != nil {
		debug.LogSearch("invalid pattern %q: %v\n", query, err)
		return nil
	}
	return m.Find(vt)
}

// rewriteDots replaces every unescaped `.` metacharacter outside a character
// class with the boundary-excluding class. Escaped dots (`\.`) and dots
// inside classes pass through untouched.
func rewriteDots(pattern string) string {
	var b strings.Builder
	escaped := false
	inClass := false
	for _, r := range pattern {
		if escaped {
			b.WriteRune('\\')
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '[':
			inClass = true
			b.WriteRune(r)
		case ']':
			inClass = false
			b.WriteRune(r)
		case '.':
			if inClass {
				b.WriteRune(r)
			} else {
				b.WriteString(dotClass)
			}
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		// Trailing lone backslash: keep it so compilation fails the same
		// way it would for the original pattern.
		b.WriteRune('\\')
	}
	return b.String()
}
