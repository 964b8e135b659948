package epubcards

import (
	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/navigate"
	"github.com/simp-lee/epubcards/reflow"
	"github.com/simp-lee/epubcards/segment"
)

// Document is a segmented book: the fixed original chunks plus everything
// needed to navigate them. It is read-only after Load returns and may be
// shared between goroutines.
type Document struct {
	Title    string
	Metadata Metadata

	Chunks   []chunk.Original
	Anchors  chunk.AnchorMap
	Chapters []chunk.Chapter

	// FileAnchors maps "sectionKey#id" to an original index.
	FileAnchors chunk.AnchorMap

	// Sections lists the spine documents that were segmented, with their
	// front matter classification.
	Sections []SectionInfo

	// Degraded is set when the plain-text fallback produced the chunks.
	Degraded bool

	// Warnings collects the non-fatal problems met while loading.
	Warnings []string
}

// SectionInfo describes one segmented spine document.
type SectionInfo struct {
	Key   string        `json:"key" yaml:"key"`
	Class chunk.Section `json:"class" yaml:"class"`
}

// Load opens raw ePub bytes and segments them. The only error is one that
// wraps ErrPackageUnreadable; any readable package yields at least one
// chunk.
func Load(data []byte, opts segment.Options) (*Document, error) {
	b, err := FromBytes(data)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return LoadBook(b, opts), nil
}

// LoadFile is Load for a file on disk.
func LoadFile(name string, opts segment.Options) (*Document, error) {
	b, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return LoadBook(b, opts), nil
}

// LoadBook segments an opened book. A nil opts.Logger uses the package
// logger.
func LoadBook(b *Book, opts segment.Options) *Document {
	if opts.Logger == nil {
		opts.Logger = Logger()
	}

	sections := b.Sections()
	in := segment.Input{
		Sections: make([]segment.Section, len(sections)),
		Images:   b.Images(),
		TOC:      segmentTOC(b.toc),
	}
	for i, s := range sections {
		in.Sections[i] = segment.Section{Key: s.Key, Markup: s.Markup}
	}

	res := segment.Segment(in, opts)

	doc := &Document{
		Title:       b.Title(),
		Metadata:    b.Metadata(),
		Chunks:      res.Chunks,
		Anchors:     res.Anchors,
		FileAnchors: res.FileAnchors,
		Chapters:    res.Chapters,
		Degraded:    res.Degraded,
		Warnings:    b.Warnings(),
	}
	for i, s := range sections {
		info := SectionInfo{Key: s.Key}
		if i < len(res.Classes) {
			info.Class = res.Classes[i]
		}
		doc.Sections = append(doc.Sections, info)
	}
	for _, key := range res.Skipped {
		doc.Warnings = append(doc.Warnings, "section "+key+": could not be parsed")
	}
	if res.Degraded {
		doc.Warnings = append(doc.Warnings, "segmentation degraded to plain text")
	}
	return doc
}

func segmentTOC(items []TOCItem) []segment.TOCEntry {
	if len(items) == 0 {
		return nil
	}
	out := make([]segment.TOCEntry, len(items))
	for i, it := range items {
		out[i] = segment.TOCEntry{
			Title:    it.Title,
			Href:     it.Href,
			Children: segmentTOC(it.Children),
		}
	}
	return out
}

// Reflow lays the document out for one viewport and style.
func (d *Document) Reflow(p reflow.Params, measure reflow.MeasureFunc) *reflow.Layout {
	return reflow.Reflow(d.Chunks, p, measure)
}

// Navigator returns a resolver for a layout of this document.
func (d *Document) Navigator(l *reflow.Layout) *navigate.Resolver {
	return navigate.New(d.Anchors, d.FileAnchors, l)
}
