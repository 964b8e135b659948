package output

import (
	"github.com/simp-lee/epubcards"
	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/reflow"
)

// Chunk is the printable form of an original or display chunk. Image bytes
// are reported by size.
type Chunk struct {
	Index     int           `json:"index" yaml:"index"`
	Kind      chunk.Kind    `json:"kind" yaml:"kind"`
	Section   chunk.Section `json:"section" yaml:"section"`
	Source    string        `json:"source,omitempty" yaml:"source,omitempty"`
	Heading   bool          `json:"heading,omitempty" yaml:"heading,omitempty"`
	Text      string        `json:"text,omitempty" yaml:"text,omitempty"`
	ImageSize int           `json:"image_size,omitempty" yaml:"image_size,omitempty"`
	Links     []chunk.Link  `json:"links,omitempty" yaml:"links,omitempty"`
	Sources   []int         `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Chapter is a printable chapter entry.
type Chapter struct {
	Title    string    `json:"title" yaml:"title"`
	Index    int       `json:"index" yaml:"index"`
	Display  *int      `json:"display,omitempty" yaml:"display,omitempty"`
	Children []Chapter `json:"children,omitempty" yaml:"children,omitempty"`
}

// Summary describes a loaded document.
type Summary struct {
	Title    string                  `json:"title" yaml:"title"`
	Metadata epubcards.Metadata      `json:"metadata" yaml:"metadata"`
	Chunks   int                     `json:"chunks" yaml:"chunks"`
	Anchors  int                     `json:"anchors" yaml:"anchors"`
	Degraded bool                    `json:"degraded" yaml:"degraded"`
	Sections []epubcards.SectionInfo `json:"sections" yaml:"sections"`
	Chapters []Chapter               `json:"chapters,omitempty" yaml:"chapters,omitempty"`
	Warnings []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Layout describes one reflow result.
type Layout struct {
	ViewportWidth float64 `json:"viewport_width" yaml:"viewport_width"`
	HeightBudget  float64 `json:"height_budget" yaml:"height_budget"`
	Cards         []Chunk `json:"cards" yaml:"cards"`
}

// NewSummary summarises doc.
func NewSummary(doc *epubcards.Document) Summary {
	return Summary{
		Title:    doc.Title,
		Metadata: doc.Metadata,
		Chunks:   len(doc.Chunks),
		Anchors:  len(doc.Anchors),
		Degraded: doc.Degraded,
		Sections: doc.Sections,
		Chapters: NewChapters(doc.Chapters, nil),
		Warnings: doc.Warnings,
	}
}

// NewChapters converts a chapter tree. When display is non-nil each entry
// also carries its display index.
func NewChapters(chapters []chunk.Chapter, display func(chunk.Chapter) int) []Chapter {
	if len(chapters) == 0 {
		return nil
	}
	out := make([]Chapter, len(chapters))
	for i, c := range chapters {
		out[i] = Chapter{Title: c.Title, Index: c.Index, Children: NewChapters(c.Children, display)}
		if display != nil {
			d := display(c)
			out[i].Display = &d
		}
	}
	return out
}

// NewOriginals converts original chunks.
func NewOriginals(chunks []chunk.Original) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = Chunk{
			Index:     c.Index,
			Kind:      c.Kind,
			Section:   c.Section,
			Source:    c.SourceKey,
			Heading:   c.Heading,
			Text:      c.Text,
			ImageSize: len(c.Image),
			Links:     c.Links,
		}
	}
	return out
}

// NewLayout converts a reflow layout.
func NewLayout(l *reflow.Layout) Layout {
	out := Layout{
		ViewportWidth: l.Params.ViewportWidth,
		HeightBudget:  l.Params.HeightBudget,
		Cards:         make([]Chunk, len(l.Chunks)),
	}
	for i, c := range l.Chunks {
		out.Cards[i] = Chunk{
			Index:     i,
			Kind:      c.Kind,
			Section:   c.Section,
			Source:    c.SourceKey,
			Heading:   c.Heading,
			Text:      c.Text,
			ImageSize: len(c.Image),
			Links:     c.Links,
			Sources:   c.Sources,
		}
	}
	return out
}
