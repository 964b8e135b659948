// Package sentence slices text into sentence-like pieces.
//
// [Split] is the heuristic splitter used when segmenting markup: it respects
// quoted spans and only breaks before an uppercase letter. [SafeSplit] and
// [SafeSpans] are the total slicers used by reflow; they never drop a trailing
// fragment, even when the text has no terminal punctuation at all.
//
// Abbreviations followed by a capitalised word ("Mr. Smith") are treated as
// sentence ends. This is a known inaccuracy of the heuristic.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open byte window [Start, End) into the sliced text.
type Span struct {
	Start int
	End   int
}

const (
	leftDoubleQuote  = '“'
	rightDoubleQuote = '”'
)

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isUpper reports whether r is a cased letter in its uppercase form.
func isUpper(r rune) bool {
	return unicode.ToUpper(r) == r && unicode.ToLower(r) != r
}

// startsSentence reports whether the first non-space rune at or after pos is
// uppercase, or whether only whitespace remains.
func startsSentence(text string, pos int) bool {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !unicode.IsSpace(r) {
			return isUpper(r)
		}
		pos += size
	}
	return true
}

// skipTerminals returns the offset just past a run of terminal punctuation
// starting at pos.
func skipTerminals(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isTerminal(r) {
			break
		}
		pos += size
	}
	return pos
}

// Split breaks text into sentences. A '.', '!' or '?' outside a quoted span
// ends a sentence when the next non-space character is uppercase or the text
// ends. A closing quote that directly follows terminal punctuation ends the
// sentence under the same condition.
//
// Every non-space character of text appears in exactly one returned
// sentence; each sentence is trimmed and empty sentences are omitted.
func Split(text string) []string {
	var out []string
	start := 0
	straight := false
	curly := 0
	var prev rune

	cut := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		switch {
		case r == '"':
			straight = !straight
			if !straight && curly == 0 && isTerminal(prev) && startsSentence(text, next) {
				cut(next)
			}
		case r == leftDoubleQuote:
			curly++
		case r == rightDoubleQuote:
			if curly > 0 {
				curly--
			}
			if curly == 0 && !straight && isTerminal(prev) && startsSentence(text, next) {
				cut(next)
			}
		case isTerminal(r) && !straight && curly == 0:
			next = skipTerminals(text, next)
			if startsSentence(text, next) {
				cut(next)
			}
			r = '.'
		}

		prev = r
		i = next
	}

	cut(len(text))
	return out
}

// SafeSpans slices text into windows that end after a run of terminal
// punctuation followed by whitespace (the whitespace belongs to the window)
// or by the end of text. Whatever remains after the last such run becomes
// the final window. The windows are contiguous and cover text exactly.
func SafeSpans(text string) []Span {
	var out []Span
	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminal(r) {
			i += size
			continue
		}

		j := skipTerminals(text, i)
		if j == len(text) {
			break
		}
		nr, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(nr) {
			i = j
			continue
		}
		for j < len(text) {
			sr, ss := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(sr) {
				break
			}
			j += ss
		}
		out = append(out, Span{Start: start, End: j})
		start = j
		i = j
	}

	if start < len(text) {
		out = append(out, Span{Start: start, End: len(text)})
	}
	return out
}

// SafeSplit returns the trimmed text of each [SafeSpans] window, omitting
// windows that are entirely whitespace.
func SafeSplit(text string) []string {
	var out []string
	for _, sp := range SafeSpans(text) {
		if s := strings.TrimSpace(text[sp.Start:sp.End]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Pieces splits text with [Split] and greedily regroups the sentences into
// pieces of at most target words. A sentence longer than target is cut at
// word boundaries. Sentences inside a piece are joined by a single space.
func Pieces(text string, target int) []string {
	if target <= 0 {
		target = 1
	}

	var out []string
	var cur []string
	words := 0

	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
			words = 0
		}
	}

	for _, s := range Split(text) {
		fields := strings.Fields(s)
		if len(fields) > target {
			flush()
			for len(fields) > 0 {
				n := min(target, len(fields))
				out = append(out, strings.Join(fields[:n], " "))
				fields = fields[n:]
			}
			continue
		}
		if words+len(fields) > target {
			flush()
		}
		cur = append(cur, s)
		words += len(fields)
	}
	flush()
	return out
}
