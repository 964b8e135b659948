// Package epubcards turns ePub books into reading cards: short chunks of text
// or images sized to fit a viewport.
//
// Loading happens once per book. [Load] reads the package (container, OPF,
// spine, table of contents) and segments every spine document into fixed
// original chunks, building an anchor map and resolving chapter starts.
// DRM-protected or malformed packages are rejected with an error wrapping
// [ErrPackageUnreadable]; every other problem degrades gracefully and is
// reported through [Document.Warnings].
//
//	doc, err := epubcards.LoadFile("book.epub", segment.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Layout
//
// Display chunks are derived from the originals for one viewport and text
// style. Use a [measure.Measurer] for font-accurate heights:
//
//	m, _ := measure.New(360, measure.DefaultStyle())
//	budget := reflow.Budget(640, 96, reflow.Comfortable)
//	layout := doc.Reflow(reflow.Params{ViewportWidth: 360, HeightBudget: budget}, m.Measure)
//
// A [Session] keeps the current layout and its [navigate.Resolver] together,
// replacing both atomically when the viewport or style changes.
//
// # Lower-level access
//
// [Open], [NewReader] and [FromBytes] return a [Book] exposing metadata, the
// table of contents, spine documents and manifest images without segmenting.
package epubcards
