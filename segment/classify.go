package segment

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/simp-lee/epubcards/chunk"
)

// keywordMatcher tests names and titles against a normalised keyword list.
type keywordMatcher struct {
	keywords []string
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	m := &keywordMatcher{}
	for _, k := range keywords {
		if n := normalizeName(k); n != "" {
			m.keywords = append(m.keywords, n)
		}
	}
	return m
}

func (m *keywordMatcher) match(s string) bool {
	n := normalizeName(s)
	if n == "" {
		return false
	}
	for _, k := range m.keywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// normalizeName case-folds s and drops every rune that is not a letter or a
// digit.
func normalizeName(s string) string {
	folded := cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}

// hrefFile returns href without its fragment.
func hrefFile(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

// hrefFragment returns the fragment of href, without the '#'.
func hrefFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[i+1:]
	}
	return ""
}

// trustedFiles collects the files referenced by TOC entries whose titles do
// not look like front or back matter.
type trustedFiles struct {
	full map[string]bool
	base map[string]bool
}

func collectTrusted(toc []TOCEntry, m *keywordMatcher) trustedFiles {
	t := trustedFiles{full: map[string]bool{}, base: map[string]bool{}}
	var walk func([]TOCEntry)
	walk = func(entries []TOCEntry) {
		for _, e := range entries {
			if file := hrefFile(e.Href); file != "" && !m.match(e.Title) {
				t.full[file] = true
				t.base[path.Base(file)] = true
			}
			walk(e.Children)
		}
	}
	walk(toc)
	return t
}

func (t trustedFiles) has(key string) bool {
	return t.full[key] || t.base[path.Base(key)]
}

// Classify assigns a section class to each markup section.
//
// The first section that is referenced by a trusted TOC entry, or whose file
// name carries no keyword, starts the content. Sections before it are front
// matter. Later sections are front (back) matter only when their file name
// carries a keyword and no trusted TOC entry references them. When no section
// qualifies as content, every section is classified as content.
func Classify(sections []Section, toc []TOCEntry, keywords []string) []chunk.Section {
	m := newKeywordMatcher(keywords)
	trusted := collectTrusted(toc, m)

	out := make([]chunk.Section, len(sections))
	first := -1
	for i, s := range sections {
		if trusted.has(s.Key) || !m.match(path.Base(s.Key)) {
			first = i
			break
		}
	}
	if first < 0 {
		return out
	}

	for i, s := range sections {
		switch {
		case i < first:
			out[i] = chunk.FrontMatter
		case m.match(path.Base(s.Key)) && !trusted.has(s.Key):
			out[i] = chunk.FrontMatter
		default:
			out[i] = chunk.Content
		}
	}
	return out
}
