package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/vtext"
)

// FuzzyOptions is the tuning policy for multi-keyword matching. The window
// constants are heuristics, not laws; they live in configuration so saved
// behaviour can be reproduced or revised.
type FuzzyOptions struct {
	// Window size is clamp(totalKeywordLength*WindowMultiplier, MinWindow,
	// MaxWindow): short queries get a tight window, long queries a generous
	// but capped one.
	WindowMultiplier int
	MinWindow        int
	MaxWindow        int

	// SimilarityThreshold accepts near-miss word tokens by Jaro-Winkler
	// similarity. Zero disables near-miss acceptance.
	SimilarityThreshold float64

	// Stemming accepts tokens whose Porter2 stem equals the keyword's stem,
	// for keywords of at least MinStemLength bytes.
	Stemming      bool
	MinStemLength int
}

// DefaultFuzzyOptions returns the stock window policy.
func DefaultFuzzyOptions() FuzzyOptions {
	return FuzzyOptions{
		WindowMultiplier:    6,
		MinWindow:           20,
		MaxWindow:           200,
		SimilarityThreshold: 0.88,
		Stemming:            false,
		MinStemLength:       4,
	}
}

// occurrence is a keyword hit as a byte span in normalized text.
type occurrence struct {
	start, end int
}

// FuzzySearch splits the query into keywords, folds case and diacritics on
// both sides, and returns the minimal enclosing span for every combination of
// keyword occurrences that fits inside the proximity window. Spans touching a
// boundary sentinel are discarded like any other match.
func FuzzySearch(query string, vt *vtext.VirtualText, opts FuzzyOptions) []Match {
	keywords := strings.Fields(normalizeQuery(query))
	if len(keywords) == 0 {
		return nil
	}

	nt := normalizeString(vt.Text)
	tokens := tokenize(nt.text)

	totalLen := 0
	occs := make([][]occurrence, len(keywords))
	for i, kw := range keywords {
		totalLen += len(kw)
		occs[i] = findOccurrences(nt.text, tokens, kw, opts)
		if len(occs[i]) == 0 {
			debug.LogSearch("fuzzy: keyword %q not found\n", kw)
			return nil
		}
	}

	window := clamp(totalLen*opts.WindowMultiplier, opts.MinWindow, opts.MaxWindow)

	seen := make(map[Match]bool)
	var matches []Match
	for _, anchor := range occs[0] {
		span, ok := enclose(anchor, occs[1:], window)
		if !ok {
			continue
		}
		m := Match{Start: nt.start[span.start], End: nt.end[span.end-1]}
		if m.Start >= m.End || seen[m] {
			continue
		}
		if vt.ContainsBoundary(m.Start, m.End) {
			continue
		}
		seen[m] = true
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// enclose grows the anchor span with the nearest occurrence of every other
// keyword, accepting the combination only when the enclosing span fits the
// window.
func enclose(anchor occurrence, others [][]occurrence, window int) (occurrence, bool) {
	span := anchor
	for _, list := range others {
		best := nearest(list, anchor.start)
		if best.start < span.start {
			span.start = best.start
		}
		if best.end > span.end {
			span.end = best.end
		}
	}
	if span.end-span.start > window {
		return occurrence{}, false
	}
	return span, true
}

// nearest returns the occurrence whose start is closest to pos. The list is
// sorted, so binary search narrows it to two candidates.
func nearest(list []occurrence, pos int) occurrence {
	i := sort.Search(len(list), func(i int) bool { return list[i].start >= pos })
	if i == 0 {
		return list[0]
	}
	if i == len(list) {
		return list[len(list)-1]
	}
	if pos-list[i-1].start <= list[i].start-pos {
		return list[i-1]
	}
	return list[i]
}

// findOccurrences collects exact substring hits for the keyword plus token
// hits accepted by similarity or stemming, sorted and deduplicated.
func findOccurrences(text string, tokens []occurrence, kw string, opts FuzzyOptions) []occurrence {
	var out []occurrence
	for from := 0; ; {
		idx := strings.Index(text[from:], kw)
		if idx < 0 {
			break
		}
		out = append(out, occurrence{start: from + idx, end: from + idx + len(kw)})
		from += idx + 1
	}

	useStem := opts.Stemming && len(kw) >= opts.MinStemLength
	var kwStem string
	if useStem {
		kwStem = porter2.Stem(kw)
	}

	if opts.SimilarityThreshold > 0 || useStem {
		for _, tok := range tokens {
			word := text[tok.start:tok.end]
			if word == kw || strings.Contains(word, kw) {
				continue // already covered by the exact scan
			}
			if useStem && porter2.Stem(word) == kwStem {
				out = append(out, tok)
				continue
			}
			if opts.SimilarityThreshold > 0 {
				score, err := edlib.StringsSimilarity(word, kw, edlib.JaroWinkler)
				if err == nil && float64(score) >= opts.SimilarityThreshold {
					out = append(out, tok)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return dedupe(out)
}

// tokenize returns the spans of letter/digit word runs in normalized text.
func tokenize(text string) []occurrence {
	var tokens []occurrence
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, occurrence{start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, occurrence{start: start, end: len(text)})
	}
	return tokens
}

func dedupe(list []occurrence) []occurrence {
	out := list[:0]
	for i, o := range list {
		if i > 0 && o == list[i-1] {
			continue
		}
		out = append(out, o)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
