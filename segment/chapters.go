package segment

import (
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/simp-lee/epubcards/chunk"
)

// chapterResolver maps a TOC href to a chunk index.
type chapterResolver func(href string) (int, bool)

// buildChapters converts the TOC tree into chapters, clamping every index
// into [0, numChunks-1]. Entries that cannot be resolved start at 0.
func buildChapters(toc []TOCEntry, depth, numChunks int, resolve chapterResolver) []chunk.Chapter {
	if len(toc) == 0 {
		return nil
	}
	out := make([]chunk.Chapter, 0, len(toc))
	for _, e := range toc {
		idx, _ := resolve(e.Href)
		out = append(out, chunk.Chapter{
			Title:    e.Title,
			Index:    clamp(idx, numChunks),
			Depth:    depth,
			Children: buildChapters(e.Children, depth+1, numChunks, resolve),
		})
	}
	return out
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// sectionLookup finds a section key by exact key or by base name, in spine
// order.
type sectionLookup struct {
	keys []string
	set  map[string]bool
}

func newSectionLookup(sections []Section) sectionLookup {
	l := sectionLookup{set: make(map[string]bool, len(sections))}
	for _, s := range sections {
		l.keys = append(l.keys, s.Key)
		l.set[s.Key] = true
	}
	return l
}

func (l sectionLookup) find(file string) (string, bool) {
	if file == "" {
		return "", false
	}
	if l.set[file] {
		return file, true
	}
	base := path.Base(file)
	for _, k := range l.keys {
		if path.Base(k) == base {
			return k, true
		}
	}
	return "", false
}

// exactResolver resolves hrefs against the real segmentation output: the
// anchor named by the fragment when known, else the first chunk of the
// referenced section.
func exactResolver(lookup sectionLookup, starts map[string]int, fileAnchors chunk.AnchorMap) chapterResolver {
	return func(href string) (int, bool) {
		key, ok := lookup.find(hrefFile(href))
		if !ok {
			return 0, false
		}
		if frag := hrefFragment(href); frag != "" {
			if idx, ok := fileAnchors[key+"#"+frag]; ok {
				return idx, true
			}
		}
		idx, ok := starts[key]
		return idx, ok
	}
}

// EstimateChapterStarts approximates chapter start indices without walking
// the chunks: every block element or image in a section is assumed to yield
// one chunk, and every section at least one. The result is clamped to
// [0, numChunks-1] and never fails.
func EstimateChapterStarts(sections []Section, toc []TOCEntry, numChunks int, blockTags []atom.Atom) []chunk.Chapter {
	if blockTags == nil {
		blockTags = DefaultBlockTags
	}
	blocks := blockSet(blockTags)

	lookup := newSectionLookup(sections)
	starts := make(map[string]int, len(sections))
	total := 0
	for _, s := range sections {
		if _, ok := starts[s.Key]; !ok {
			starts[s.Key] = total
		}
		total += max(1, countBlocks(s.Markup, blocks))
	}

	return buildChapters(toc, 0, numChunks, func(href string) (int, bool) {
		key, ok := lookup.find(hrefFile(href))
		if !ok {
			return 0, false
		}
		return starts[key], true
	})
}

// countBlocks counts block-level and image start tags in markup.
func countBlocks(markup string, blocks map[atom.Atom]bool) int {
	z := html.NewTokenizer(strings.NewReader(markup))
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the count so far stands.
			return n
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if blocks[a] || a == atom.Img || a == atom.Image {
				n++
			}
		}
	}
}
