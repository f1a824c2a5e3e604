// Package chunker splits long text into retain-sized pieces on paragraph and
// heading boundaries.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxRunes is the largest piece Split produces by default.
const DefaultMaxRunes = 1500

// Split returns text as one or more pieces of at most maxRunes characters.
// Text that already fits comes back whole. Otherwise paragraphs are packed
// greedily in order; a paragraph that alone exceeds the limit is broken on
// line, then sentence, then word boundaries. A non-positive maxRunes uses
// DefaultMaxRunes.
func Split(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= maxRunes {
		return []string{text}
	}

	var pieces []string
	var cur string
	flush := func() {
		if cur != "" {
			pieces = append(pieces, cur)
			cur = ""
		}
	}

	for _, para := range paragraphs(text) {
		if runeLen(para) > maxRunes {
			flush()
			pieces = append(pieces, hardSplit(para, maxRunes)...)
			continue
		}
		if cur == "" {
			cur = para
			continue
		}
		if joined := cur + "\n\n" + para; runeLen(joined) <= maxRunes {
			cur = joined
			continue
		}
		flush()
		cur = para
	}
	flush()
	return pieces
}

// paragraphs splits on blank lines and before markdown headings.
func paragraphs(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if p := strings.TrimSpace(strings.Join(cur, "\n")); p != "" {
			out = append(out, p)
		}
		cur = nil
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
			continue
		case strings.HasPrefix(trimmed, "#"):
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// hardSplit breaks one oversized paragraph, preferring the coarsest boundary
// that still fits.
func hardSplit(para string, maxRunes int) []string {
	for _, sep := range []string{"\n", ". ", " "} {
		parts := strings.SplitAfter(para, sep)
		if len(parts) < 2 {
			continue
		}
		return pack(parts, maxRunes)
	}
	return cutRunes(para, maxRunes)
}

// pack concatenates parts greedily, cutting any single part that is still
// too long.
func pack(parts []string, maxRunes int) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, p := range parts {
		if runeLen(p) > maxRunes {
			flush()
			out = append(out, hardSplit(strings.TrimSpace(p), maxRunes)...)
			continue
		}
		if runeLen(b.String())+runeLen(p) > maxRunes {
			flush()
		}
		b.WriteString(p)
	}
	flush()
	return out
}

func cutRunes(s string, n int) []string {
	var out []string
	r := []rune(s)
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
