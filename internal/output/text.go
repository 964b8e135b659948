package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simp-lee/epubcards/chunk"
)

// Approximate pixels per terminal column when sizing cards.
const pixelsPerColumn = 8

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true)

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Text draws every card as a bordered box roughly as wide as the viewport.
func (l Layout) Text() string {
	width := min(max(int(l.ViewportWidth/pixelsPerColumn), 20), 100)
	box := cardStyle.Width(width)

	var sb strings.Builder
	for _, c := range l.Cards {
		sb.WriteString(captionStyle.Render(fmt.Sprintf("card %d · originals %s", c.Index, sourceRange(c.Sources))))
		sb.WriteByte('\n')
		sb.WriteString(box.Render(cardBody(c)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cardBody(c Chunk) string {
	switch {
	case c.Kind == chunk.KindImage:
		return fmt.Sprintf("[image, %d bytes]", c.ImageSize)
	case c.Heading:
		return headingStyle.Render(c.Text)
	default:
		return c.Text
	}
}

// sourceRange formats ascending original indices as "3" or "3-5".
func sourceRange(srcs []int) string {
	switch len(srcs) {
	case 0:
		return "-"
	case 1:
		return fmt.Sprint(srcs[0])
	default:
		return fmt.Sprintf("%d-%d", srcs[0], srcs[len(srcs)-1])
	}
}
