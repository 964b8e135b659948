// Package measure computes the rendered height of card text from font
// metrics.
//
// A [Measurer] wraps text greedily at word boundaries against a fixed width
// and converts the line count into a height. Its Measure method has the
// signature expected by reflow.MeasureFunc and is deterministic for a fixed
// width and Style.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrInvalidWidth is returned when the layout width is not positive.
var ErrInvalidWidth = errors.New("measure: width must be positive")

// Style holds the text settings that affect height. Zero or negative sizes
// and scales take their DefaultStyle values.
type Style struct {
	// FontSize is the body font size in pixels.
	FontSize float64

	// LineSpacing multiplies the font size to give the line height.
	LineSpacing float64

	// TextScale multiplies every font size (accessibility text scaling).
	TextScale float64

	// HeadingScale multiplies the body size for heading text.
	HeadingScale float64

	// ParagraphGap is the extra space between paragraphs, in lines. Zero
	// means no gap; negative values are treated as zero.
	ParagraphGap float64
}

// DefaultStyle returns a 16px body style.
func DefaultStyle() Style {
	return Style{
		FontSize:     16,
		LineSpacing:  1.4,
		TextScale:    1,
		HeadingScale: 1.3,
		ParagraphGap: 0.5,
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.LineSpacing <= 0 {
		s.LineSpacing = d.LineSpacing
	}
	if s.TextScale <= 0 {
		s.TextScale = d.TextScale
	}
	if s.HeadingScale <= 0 {
		s.HeadingScale = d.HeadingScale
	}
	if s.ParagraphGap < 0 {
		s.ParagraphGap = 0
	}
	return s
}

// Measurer measures text against one width and style. It is safe for
// concurrent use.
type Measurer struct {
	width float64
	style Style

	mu      sync.Mutex
	body    font.Face
	heading font.Face
}

// New returns a Measurer using the Go fonts: Go Regular for body text and
// Go Bold for headings.
func New(width float64, style Style) (*Measurer, error) {
	return NewWithFonts(width, style, goregular.TTF, gobold.TTF)
}

// NewWithFonts returns a Measurer using the given TrueType or OpenType font
// data for body and heading text.
func NewWithFonts(width float64, style Style, body, heading []byte) (*Measurer, error) {
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWidth, width)
	}
	style = style.withDefaults()

	size := style.FontSize * style.TextScale
	bodyFace, err := newFace(body, size)
	if err != nil {
		return nil, err
	}
	headingFace, err := newFace(heading, size*style.HeadingScale)
	if err != nil {
		_ = bodyFace.Close()
		return nil, err
	}
	return &Measurer{
		width:   width,
		style:   style,
		body:    bodyFace,
		heading: headingFace,
	}, nil
}

func newFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("measure: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("measure: create face: %w", err)
	}
	return face, nil
}

// Width returns the layout width.
func (m *Measurer) Width() float64 { return m.width }

// Style returns the effective style, with defaults applied.
func (m *Measurer) Style() Style { return m.style }

// LineHeight returns the height of one line of body or heading text.
func (m *Measurer) LineHeight(heading bool) float64 {
	size := m.style.FontSize * m.style.TextScale
	if heading {
		size *= m.style.HeadingScale
	}
	return size * m.style.LineSpacing
}

// Measure returns the height of text wrapped to the measurer's width.
// Paragraphs are separated by blank lines; each break adds ParagraphGap
// lines. Empty text has zero height.
func (m *Measurer) Measure(text string, heading bool) float64 {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return 0
	}

	m.mu.Lock()
	face := m.body
	if heading {
		face = m.heading
	}
	lines := 0
	for _, p := range paragraphs {
		lines += m.wrap(face, p)
	}
	m.mu.Unlock()

	gaps := float64(len(paragraphs)-1) * m.style.ParagraphGap
	return (float64(lines) + gaps) * m.LineHeight(heading)
}

// Lines returns the number of wrapped lines text occupies, not counting
// paragraph gaps.
func (m *Measurer) Lines(text string, heading bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	face := m.body
	if heading {
		face = m.heading
	}
	lines := 0
	for _, p := range splitParagraphs(text) {
		lines += m.wrap(face, p)
	}
	return lines
}

// Close releases the font faces.
func (m *Measurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.body.Close(), m.heading.Close())
}

// wrap counts the lines paragraph takes with greedy word wrapping. A word
// wider than the line takes as many lines as its width requires.
func (m *Measurer) wrap(face font.Face, paragraph string) int {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return 0
	}
	space := toFloat(font.MeasureString(face, " "))

	lines := 1
	x := 0.0
	for _, w := range words {
		ww := toFloat(font.MeasureString(face, w))
		switch {
		case x == 0:
		case x+space+ww <= m.width:
			x += space + ww
			continue
		default:
			lines++
		}
		if ww > m.width {
			extra := int(math.Ceil(ww/m.width)) - 1
			lines += extra
			x = ww - float64(extra)*m.width
		} else {
			x = ww
		}
	}
	return lines
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
