package segment

import (
	"html"
	"regexp"
	"strings"

	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/sentence"
)

// PlaceholderText is the single chunk emitted when a book yields no text at all.
const PlaceholderText = "This book could not be parsed."

var (
	hiddenBlockPattern = regexp.MustCompile(`(?is)<head\b.*?</head>|<script\b.*?</script>|<style\b.*?</style>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]*>`)
)

// stripMarkup removes tags from markup and decodes entities.
func stripMarkup(markup string) string {
	s := hiddenBlockPattern.ReplaceAllString(markup, " ")
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(html.UnescapeString(s))
}

// fallbackChunks is the degraded segmentation path: tags are stripped from
// every section, the texts are joined with blank lines and regrouped into
// sentence pieces. It always returns at least one chunk.
func fallbackChunks(sections []Section, opts Options) []chunk.Original {
	var parts []string
	for _, s := range sections {
		if t := stripMarkup(s.Markup); t != "" {
			parts = append(parts, t)
		}
	}

	var out []chunk.Original
	for _, p := range sentence.Pieces(strings.Join(parts, "\n\n"), opts.TargetWords) {
		out = append(out, chunk.Original{
			Index:   len(out),
			Kind:    chunk.KindText,
			Section: chunk.Content,
			Text:    p,
		})
	}
	if len(out) == 0 {
		out = append(out, chunk.Original{Kind: chunk.KindText, Section: chunk.Content, Text: PlaceholderText})
	}
	return out
}
