// Package navigate maps positions in original-chunk space to display-chunk
// space and back.
//
// A [Resolver] is built from the anchor map produced by segmentation and the
// layout produced by reflow. It never fails: out-of-range original indices,
// such as stale bookmarks from another edition, are clamped.
package navigate

import (
	"path"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/reflow"
)

// Bookmark is a persisted reading position.
type Bookmark struct {
	Index int    `json:"index" yaml:"index"`
	Label string `json:"label" yaml:"label"`
}

// Placement is a bookmark resolved against the current layout.
type Placement struct {
	Bookmark
	Display int `json:"display" yaml:"display"`
}

// Resolver answers navigation queries for one layout. It is safe for
// concurrent use.
type Resolver struct {
	anchors     chunk.AnchorMap
	fileAnchors chunk.AnchorMap
	layout      *reflow.Layout

	foldOnce sync.Once
	folded   []string
}

// New returns a Resolver over the bare anchor ids, the file-qualified
// ("sectionKey#id") anchors and layout. A nil layout behaves as an empty one.
func New(anchors, fileAnchors chunk.AnchorMap, layout *reflow.Layout) *Resolver {
	if layout == nil {
		layout = &reflow.Layout{}
	}
	return &Resolver{anchors: anchors, fileAnchors: fileAnchors, layout: layout}
}

// Layout returns the layout the resolver answers for.
func (r *Resolver) Layout() *reflow.Layout { return r.layout }

// NumOriginals returns the number of original chunks in the layout.
func (r *Resolver) NumOriginals() int { return len(r.layout.OriginalToDisplay) }

// ResolveAnchor returns the display chunk holding the anchor id.
func (r *Resolver) ResolveAnchor(id string) (int, bool) {
	return r.lookup(r.anchors, id)
}

func (r *Resolver) lookup(m chunk.AnchorMap, id string) (int, bool) {
	orig, ok := m[id]
	if !ok || orig < 0 || orig >= r.NumOriginals() {
		return 0, false
	}
	return r.layout.OriginalToDisplay[orig], true
}

// ResolveHref resolves an internal link such as "ch2.xhtml#note3" or "#top".
// The file-qualified anchor is tried first, then the bare fragment, then the
// first display chunk of the named file.
func (r *Resolver) ResolveHref(href string) (int, bool) {
	file, frag, _ := strings.Cut(href, "#")
	if frag != "" {
		if file != "" {
			if d, ok := r.lookup(r.fileAnchors, file+"#"+frag); ok {
				return d, true
			}
			if key, ok := r.findKey(file); ok {
				if d, ok := r.lookup(r.fileAnchors, key+"#"+frag); ok {
					return d, true
				}
			}
		}
		if d, ok := r.ResolveAnchor(frag); ok {
			return d, true
		}
	}
	if file == "" {
		return 0, false
	}
	key, ok := r.findKey(file)
	if !ok {
		return 0, false
	}
	for i, c := range r.layout.Chunks {
		if c.SourceKey == key {
			return i, true
		}
	}
	return 0, false
}

// findKey matches file against the source keys in the layout, exactly or by
// base name.
func (r *Resolver) findKey(file string) (string, bool) {
	base := path.Base(file)
	found := ""
	for _, c := range r.layout.Chunks {
		if c.SourceKey == file {
			return file, true
		}
		if found == "" && c.SourceKey != "" && path.Base(c.SourceKey) == base {
			found = c.SourceKey
		}
	}
	return found, found != ""
}

// ClampOriginal clamps i into [0, NumOriginals()-1], or returns 0 when there
// are no originals.
func (r *Resolver) ClampOriginal(i int) int {
	n := r.NumOriginals()
	switch {
	case n == 0 || i < 0:
		return 0
	case i >= n:
		return n - 1
	default:
		return i
	}
}

// ResolveOriginal returns the first display chunk holding original index i,
// after clamping i.
func (r *Resolver) ResolveOriginal(i int) int {
	if r.NumOriginals() == 0 {
		return 0
	}
	return r.layout.OriginalToDisplay[r.ClampOriginal(i)]
}

// ResolveChapter returns the display chunk where c starts.
func (r *Resolver) ResolveChapter(c chunk.Chapter) int {
	return r.ResolveOriginal(c.Index)
}

// ResolveBookmarks places every bookmark in the current layout. Indices are
// clamped, so each bookmark gets a placement.
func (r *Resolver) ResolveBookmarks(bookmarks []Bookmark) []Placement {
	if len(bookmarks) == 0 {
		return nil
	}
	out := make([]Placement, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = Placement{Bookmark: b, Display: r.ResolveOriginal(b.Index)}
	}
	return out
}

// LastRead returns the original index to persist for the display chunk
// currently on screen: the first original it was built from. display is
// clamped into range.
func (r *Resolver) LastRead(display int) int {
	n := len(r.layout.DisplayToOriginal)
	if n == 0 {
		return 0
	}
	display = min(max(display, 0), n-1)
	srcs := r.layout.DisplayToOriginal[display]
	if len(srcs) == 0 {
		return 0
	}
	return srcs[0]
}

// DisplayRange returns the first and last original index contributing to a
// display chunk.
func (r *Resolver) DisplayRange(display int) (first, last int, ok bool) {
	if display < 0 || display >= len(r.layout.DisplayToOriginal) {
		return 0, 0, false
	}
	srcs := r.layout.DisplayToOriginal[display]
	if len(srcs) == 0 {
		return 0, 0, false
	}
	return srcs[0], srcs[len(srcs)-1], true
}

// Find returns, in ascending order, the display chunks whose text contains
// query under Unicode case folding. Composed and decomposed accents match
// each other. An empty query matches nothing.
func (r *Resolver) Find(query string) []int {
	q := searchKey(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	r.foldOnce.Do(func() {
		r.folded = make([]string, len(r.layout.Chunks))
		for i, c := range r.layout.Chunks {
			if c.Kind == chunk.KindText {
				r.folded[i] = searchKey(c.Text)
			}
		}
	})

	var hits []int
	for i, t := range r.folded {
		if strings.Contains(t, q) {
			hits = append(hits, i)
		}
	}
	return hits
}

// searchKey case-folds s and puts it in NFC form.
func searchKey(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}
