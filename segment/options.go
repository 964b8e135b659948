package segment

import (
	"log/slog"

	"golang.org/x/net/html/atom"
)

// Options controls segmentation. The zero value of any field selects its
// default; see [DefaultOptions].
type Options struct {
	// MaxWords is the hard ceiling for a single text chunk. A flushed block
	// above the ceiling is split into sentence groups.
	MaxWords int

	// TargetWords is the size of each sentence group when a block is split.
	TargetWords int

	// MergeBelow is the word count under which a chunk absorbs the chunk that
	// follows it.
	MergeBelow int

	// Keywords marks front and back matter when found in a section file name
	// or a TOC title. Matching is case-insensitive and ignores punctuation.
	Keywords []string

	// BlockTags are the elements that close a chunk on entry and on exit.
	BlockTags []atom.Atom

	// Logger receives per-section parse failures and degradation notices.
	Logger *slog.Logger
}

// DefaultKeywords is the stock front/back matter keyword list.
var DefaultKeywords = []string{
	"cover", "titlepage", "copyright", "dedication", "epigraph", "foreword",
	"preface", "prologue", "acknowledgment", "acknowledgments", "about", "also",
	"toc", "contents", "nav", "index", "half-title", "frontispiece", "colophon",
	"publisher", "edition", "isbn", "introduction", "frontmatter", "backmatter",
	"endnotes", "appendix", "glossary", "bibliography",
}

// DefaultBlockTags is the stock set of chunk-closing elements.
var DefaultBlockTags = []atom.Atom{
	atom.P, atom.Div,
	atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
	atom.Li, atom.Blockquote,
	atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main,
	atom.Figure, atom.Figcaption, atom.Pre, atom.Hr, atom.Br,
}

// DefaultOptions returns the stock segmentation settings.
func DefaultOptions() Options {
	return Options{
		MaxWords:    80,
		TargetWords: 50,
		MergeBelow:  15,
		Keywords:    DefaultKeywords,
		BlockTags:   DefaultBlockTags,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxWords <= 0 {
		o.MaxWords = d.MaxWords
	}
	if o.TargetWords <= 0 {
		o.TargetWords = d.TargetWords
	}
	if o.TargetWords > o.MaxWords {
		o.TargetWords = o.MaxWords
	}
	if o.MergeBelow <= 0 {
		o.MergeBelow = d.MergeBelow
	}
	if o.Keywords == nil {
		o.Keywords = d.Keywords
	}
	if o.BlockTags == nil {
		o.BlockTags = d.BlockTags
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

func blockSet(tags []atom.Atom) map[atom.Atom]bool {
	m := make(map[atom.Atom]bool, len(tags))
	for _, a := range tags {
		m[a] = true
	}
	return m
}
