// Package segment turns a book's markup sections into ordered reading chunks.
//
// [Segment] walks every section's DOM depth first. Block elements close a
// chunk on entry and on exit, images become their own chunks, links are kept
// as byte spans, and element ids are recorded as anchors. Oversized blocks are
// split into sentence groups and short neighbours are merged afterwards.
//
// Segment never fails. If the DOM walk panics or yields nothing, a tag-stripping
// fallback runs instead, and if that yields nothing too a single placeholder
// chunk is returned.
package segment

import (
	"fmt"
	"sort"

	"github.com/simp-lee/epubcards/chunk"
)

// Section is one markup document in reading order.
type Section struct {
	// Key identifies the section, normally its path inside the package.
	Key string

	// Markup is the raw XHTML/HTML source.
	Markup string
}

// TOCEntry is a table of contents node.
type TOCEntry struct {
	Title string

	// Href references a section key, optionally with a #fragment.
	Href string

	Children []TOCEntry
}

// Input is everything segmentation needs from the structural extractor.
type Input struct {
	Sections []Section

	// Images maps an image path to its raw bytes.
	Images map[string][]byte

	TOC []TOCEntry
}

// Result is the output of [Segment].
type Result struct {
	Chunks   []chunk.Original
	Anchors  chunk.AnchorMap
	Chapters []chunk.Chapter

	// FileAnchors maps "sectionKey#id" to a chunk index, so an id that
	// appears in several sections resolves per section.
	FileAnchors chunk.AnchorMap

	// Classes holds the section class assigned to each input section.
	Classes []chunk.Section

	// Skipped lists the keys of sections that could not be parsed.
	Skipped []string

	// Degraded is set when the fallback path produced the chunks.
	Degraded bool
}

// Segment converts markup sections into chunks, anchors and chapters.
func Segment(in Input, opts Options) Result {
	opts = opts.withDefaults()

	res, err := segmentDOM(in, opts)
	if err == nil && len(res.Chunks) > 0 {
		return res
	}

	if err != nil {
		opts.Logger.Warn("segmentation failed, using plain-text fallback", "error", err)
	} else {
		opts.Logger.Warn("segmentation produced no chunks, using plain-text fallback", "sections", len(in.Sections))
	}

	chunks := fallbackChunks(in.Sections, opts)
	return Result{
		Chunks:      chunks,
		Anchors:     chunk.AnchorMap{},
		FileAnchors: chunk.AnchorMap{},
		Chapters:    EstimateChapterStarts(in.Sections, in.TOC, len(chunks), opts.BlockTags),
		Classes:     res.Classes,
		Skipped:     res.Skipped,
		Degraded:    true,
	}
}

// segmentDOM is the primary path. Panics are converted into errors so the
// caller can fall back.
func segmentDOM(in Input, opts Options) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("segment: panic: %v", r)
		}
	}()

	keys := make([]string, 0, len(in.Images))
	for k := range in.Images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res.Classes = Classify(in.Sections, in.TOC, opts.Keywords)
	b := newBuilder(opts, newImageTable(in.Images, keys))

	for i, s := range in.Sections {
		if err := b.section(s, res.Classes[i]); err != nil {
			opts.Logger.Warn("skipping section", "section", s.Key, "error", err)
			res.Skipped = append(res.Skipped, s.Key)
		}
	}

	chunks, slots := mergeTiny(b.raw, opts)
	n := len(chunks)

	starts := remapSlots(b.sectionStarts, slots, n)

	res.Chunks = chunks
	res.Anchors = remapSlots(b.anchors, slots, n)
	res.FileAnchors = remapSlots(b.fileAnchors, slots, n)
	res.Chapters = buildChapters(in.TOC, 0, n, exactResolver(newSectionLookup(in.Sections), starts, res.FileAnchors))
	return res, nil
}

// remapSlots converts builder slots into final chunk indices.
func remapSlots(m map[string]int, slots []int, n int) chunk.AnchorMap {
	out := make(chunk.AnchorMap, len(m))
	for k, slot := range m {
		out[k] = clamp(slots[slot], n)
	}
	return out
}
