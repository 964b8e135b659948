// Package reflow rebuilds display chunks from original chunks for a given
// viewport.
//
// [Reflow] is a pure function of its inputs. It splits text chunks whose
// measured height exceeds the budget into sentence windows, then merges
// neighbouring pieces while the joined text still fits. The returned [Layout]
// is never modified afterwards; a settings change produces a new Layout.
package reflow

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/sentence"
)

// MeasureFunc returns the rendered height of text at the current style and
// viewport width. It must return the same value for the same arguments.
type MeasureFunc func(text string, heading bool) float64

// MinBudget is the smallest height budget Reflow works with. Non-positive
// budgets are raised to it.
const MinBudget = 1.0

// joinSeparator joins merged display texts.
const joinSeparator = "\n\n"

// Params are the layout inputs besides the chunks themselves.
type Params struct {
	// ViewportWidth is recorded for callers; the measure function is expected
	// to already account for it.
	ViewportWidth float64

	// HeightBudget is the maximum measured height of one display chunk.
	HeightBudget float64
}

// Layout is the result of one reflow.
type Layout struct {
	Chunks []chunk.Display

	// DisplayToOriginal lists, per display chunk, the original indices it
	// was built from.
	DisplayToOriginal [][]int

	// OriginalToDisplay maps every original index to the first display chunk
	// that holds any of its content.
	OriginalToDisplay []int

	Params Params
}

// Len returns the number of display chunks.
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Chunks)
}

// piece is one original chunk, or a window of one, waiting to be merged.
type piece struct {
	source  int
	kind    chunk.Kind
	section chunk.Section
	key     string
	heading bool
	text    string
	image   []byte
	links   []chunk.Link
}

// Reflow splits and merges chunks into display chunks that fit
// p.HeightBudget as measured by measure. A nil measure counts words.
//
// A text chunk is split only when it is not a heading and its own height is
// over budget. Each window keeps the links that lie entirely inside it;
// links crossing a window edge are dropped. Pieces are merged only when their
// section, source key and heading flag agree and the joined text fits.
func Reflow(chunks []chunk.Original, p Params, measure MeasureFunc) *Layout {
	if measure == nil {
		measure = wordHeight
	}
	p.HeightBudget = budgetOrMin(p.HeightBudget)

	var pieces []piece
	for i, o := range chunks {
		pieces = appendPieces(pieces, i, o, p.HeightBudget, measure)
	}

	l := &Layout{
		OriginalToDisplay: make([]int, len(chunks)),
		Params:            p,
	}
	for i := range l.OriginalToDisplay {
		l.OriginalToDisplay[i] = -1
	}

	var pending chunk.Display
	hasPending := false
	closePending := func() {
		if !hasPending {
			return
		}
		d := len(l.Chunks)
		for _, src := range pending.Sources {
			if src >= 0 && src < len(l.OriginalToDisplay) && l.OriginalToDisplay[src] < 0 {
				l.OriginalToDisplay[src] = d
			}
		}
		l.Chunks = append(l.Chunks, pending)
		l.DisplayToOriginal = append(l.DisplayToOriginal, pending.Sources)
		hasPending = false
	}

	for _, pc := range pieces {
		if hasPending && canJoin(pending, pc) {
			joined := pending.Text + joinSeparator + pc.text
			if measure(joined, pending.Heading) <= p.HeightBudget {
				shift := len(pending.Text) + len(joinSeparator)
				pending.Links = appendLinks(pending.Links, chunk.ShiftLinks(pc.links, shift))
				pending.Text = joined
				if last := pending.Sources[len(pending.Sources)-1]; last != pc.source {
					pending.Sources = append(pending.Sources, pc.source)
				}
				continue
			}
		}
		closePending()
		pending = chunk.Display{
			Kind:      pc.kind,
			Section:   pc.section,
			SourceKey: pc.key,
			Heading:   pc.heading,
			Text:      pc.text,
			Image:     pc.image,
			Links:     pc.links,
			Sources:   []int{pc.source},
		}
		hasPending = true
	}
	closePending()

	// Originals that produced no piece (empty text) map to the display that
	// follows them, or the last display.
	next := len(l.Chunks) - 1
	for i := len(l.OriginalToDisplay) - 1; i >= 0; i-- {
		if l.OriginalToDisplay[i] < 0 {
			l.OriginalToDisplay[i] = max(next, 0)
		} else {
			next = l.OriginalToDisplay[i]
		}
	}
	return l
}

// budgetOrMin raises non-positive and NaN budgets to MinBudget and caps an
// infinite one.
func budgetOrMin(b float64) float64 {
	switch {
	case math.IsInf(b, 1):
		return math.MaxFloat64
	case b > 0:
		return b
	default:
		return MinBudget
	}
}

func canJoin(d chunk.Display, pc piece) bool {
	return d.Kind == chunk.KindText && pc.kind == chunk.KindText &&
		d.Section == pc.section && d.SourceKey == pc.key && d.Heading == pc.heading
}

func appendLinks(a, b []chunk.Link) []chunk.Link {
	if len(b) == 0 {
		return a
	}
	out := make([]chunk.Link, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// appendPieces appends o, the original at position source, split into
// windows when it does not fit.
func appendPieces(dst []piece, source int, o chunk.Original, budget float64, measure MeasureFunc) []piece {
	base := piece{
		source:  source,
		kind:    o.Kind,
		section: o.Section,
		key:     o.SourceKey,
		heading: o.Heading,
	}

	if o.Kind != chunk.KindText {
		base.image = o.Image
		return append(dst, base)
	}
	if o.Heading || measure(o.Text, false) <= budget {
		base.text = o.Text
		base.links = chunk.CloneLinks(o.Links)
		return append(dst, base)
	}

	for _, w := range windows(o.Text, budget, measure) {
		start, end := trimWindow(o.Text, w)
		if start >= end {
			continue
		}
		pc := base
		pc.text = o.Text[start:end]
		pc.links = carryLinks(o.Links, start, end)
		dst = append(dst, pc)
	}
	return dst
}

// windows greedily packs the sentence spans of text into windows whose
// trimmed text fits budget. A single span that does not fit alone becomes its
// own window.
func windows(text string, budget float64, measure MeasureFunc) []sentence.Span {
	spans := sentence.SafeSpans(text)
	if len(spans) == 0 {
		return nil
	}

	var out []sentence.Span
	cur := sentence.Span{Start: spans[0].Start, End: spans[0].Start}
	for _, sp := range spans {
		if cur.End > cur.Start {
			candidate := strings.TrimSpace(text[cur.Start:sp.End])
			if measure(candidate, false) > budget {
				out = append(out, cur)
				cur = sentence.Span{Start: sp.Start, End: sp.Start}
			}
		}
		cur.End = sp.End
	}
	return append(out, cur)
}

// trimWindow narrows w to exclude leading and trailing whitespace.
func trimWindow(text string, w sentence.Span) (start, end int) {
	start, end = w.Start, w.End
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

// carryLinks returns the links lying entirely within [start, end), rebased to
// start. Links that cross either edge are dropped.
func carryLinks(links []chunk.Link, start, end int) []chunk.Link {
	var out []chunk.Link
	for _, l := range links {
		if l.Within(start, end) {
			out = append(out, l.Shift(-start))
		}
	}
	return out
}

func wordHeight(text string, _ bool) float64 {
	return float64(chunk.WordCount(text))
}
