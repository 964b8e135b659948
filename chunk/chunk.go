// Package chunk defines the reading units shared by the segmentation,
// reflow and navigation packages.
//
// An [Original] is produced once per book load and never changes. A [Display]
// is rebuilt from Originals every time the viewport or text style changes.
// Both are plain values: every transformation returns a new value, so slices
// of Originals can be shared freely between goroutines.
package chunk

import "strings"

// Kind distinguishes text chunks from image chunks.
type Kind uint8

const (
	// KindText is a chunk carrying Text and optional Links.
	KindText Kind = iota

	// KindImage is a chunk carrying raw Image bytes.
	KindImage
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Section classifies a chunk as front/back matter or main content.
type Section uint8

const (
	// Content is narrative material (chapters, parts).
	Content Section = iota

	// FrontMatter is non-narrative material such as a cover, title page or
	// copyright page. Back matter (appendix, glossary, ...) uses the same value.
	FrontMatter
)

// String returns the lowercase name of the section class.
func (s Section) String() string {
	switch s {
	case Content:
		return "content"
	case FrontMatter:
		return "front-matter"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Section) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Link is a hyperlink span inside a chunk's Text. Start and End are byte
// offsets, half-open: Text[Start:End] is the link text.
type Link struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	URL   string `json:"url" yaml:"url"`
}

// Shift returns the link moved by delta bytes.
func (l Link) Shift(delta int) Link {
	l.Start += delta
	l.End += delta
	return l
}

// Within reports whether the link lies entirely inside [start, end).
func (l Link) Within(start, end int) bool {
	return l.Start >= start && l.End <= end && l.Start < l.End
}

// Original is an atomic unit produced by segmentation.
type Original struct {
	// Index is the dense 0-based position of the chunk in the book.
	Index int

	Kind    Kind
	Section Section

	// SourceKey identifies the markup section (spine file) the chunk came from.
	SourceKey string

	// Text is set for KindText chunks.
	Text string

	// Image is set for KindImage chunks.
	Image []byte

	Heading bool

	// Links are ordered, non-overlapping spans into Text.
	Links []Link
}

// Words returns the number of whitespace-separated words in the chunk text.
func (o Original) Words() int {
	return WordCount(o.Text)
}

// Display is a unit sized to fit the measured viewport budget.
type Display struct {
	Kind      Kind
	Section   Section
	SourceKey string
	Heading   bool
	Text      string
	Image     []byte
	Links     []Link

	// Sources lists the Original indices this chunk was assembled from, in
	// ascending order. A single entry may denote a sub-slice of one Original.
	Sources []int
}

// AnchorMap maps an anchor id (an element id or name attribute) to the index
// of the Original that holds the anchor's target content.
type AnchorMap map[string]int

// Chapter is a table of contents entry resolved to an Original index.
type Chapter struct {
	Title    string
	Index    int
	Depth    int
	Children []Chapter
}

// Flatten returns the chapter tree in depth-first order.
func Flatten(chapters []Chapter) []Chapter {
	var out []Chapter
	var walk func([]Chapter)
	walk = func(cs []Chapter) {
		for _, c := range cs {
			out = append(out, c)
			walk(c.Children)
		}
	}
	walk(chapters)
	return out
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ShiftLinks returns a new slice with every link moved by delta bytes.
func ShiftLinks(links []Link, delta int) []Link {
	if len(links) == 0 {
		return nil
	}
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = l.Shift(delta)
	}
	return out
}

// CloneLinks returns a copy of links, or nil when links is empty.
func CloneLinks(links []Link) []Link {
	if len(links) == 0 {
		return nil
	}
	return append([]Link(nil), links...)
}
