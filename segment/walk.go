package segment

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/sentence"
)

// skipTags are elements whose subtree never produces chunks.
var skipTags = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var selfClosingSkipTagPattern = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

// normalizeSelfClosingSkipTags expands <script/> and <style/> so the HTML
// parser does not swallow the rest of the document as raw text.
func normalizeSelfClosingSkipTags(markup []byte) []byte {
	if !selfClosingSkipTagPattern.Match(markup) {
		return markup
	}
	return selfClosingSkipTagPattern.ReplaceAll(markup, []byte(`<$1$2></$1>`))
}

// walkContext is the immutable per-subtree state of the traversal.
type walkContext struct {
	heading bool
}

// builder accumulates chunks across all sections of a book. Anchors and
// section starts are recorded as slots: the position in raw that the next
// emitted chunk will take. Slots are mapped to final indices after merging.
type builder struct {
	opts   Options
	blocks map[atom.Atom]bool
	images *imageTable

	// current section
	key   string
	class chunk.Section

	buf     strings.Builder
	links   []chunk.Link
	flushes int

	raw           []chunk.Original
	anchors       map[string]int
	fileAnchors   map[string]int
	sectionStarts map[string]int
}

func newBuilder(opts Options, images *imageTable) *builder {
	return &builder{
		opts:          opts,
		blocks:        blockSet(opts.BlockTags),
		images:        images,
		anchors:       make(map[string]int),
		fileAnchors:   make(map[string]int),
		sectionStarts: make(map[string]int),
	}
}

// section parses one markup section and walks it. A parse failure leaves the
// builder untouched and is returned to the caller.
func (b *builder) section(s Section, class chunk.Section) error {
	doc, err := html.Parse(bytes.NewReader(normalizeSelfClosingSkipTags([]byte(s.Markup))))
	if err != nil {
		return fmt.Errorf("segment: parse %s: %w", s.Key, err)
	}

	b.key = s.Key
	b.class = class
	if _, ok := b.sectionStarts[s.Key]; !ok {
		b.sectionStarts[s.Key] = len(b.raw)
	}

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}
	b.walk(root, walkContext{})
	b.flush(walkContext{})
	return nil
}

func (b *builder) walk(n *html.Node, ctx walkContext) {
	switch n.Type {
	case html.TextNode:
		b.appendText(n.Data)
		return
	case html.ElementNode:
		if skipTags[n.DataAtom] {
			return
		}
		b.markAnchors(n)

		switch {
		case isImageElement(n):
			b.flush(ctx)
			b.image(n)
			return

		case n.DataAtom == atom.A && getAttr(n, "href") != "":
			start, gen := b.buf.Len(), b.flushes
			b.children(n, ctx)
			if b.flushes == gen {
				b.addLink(start, getAttr(n, "href"))
			}
			return

		case b.blocks[n.DataAtom]:
			b.flush(ctx)
			inner := ctx
			if isHeading(n.DataAtom) {
				inner.heading = true
			}
			b.children(n, inner)
			b.flush(inner)
			return
		}
	}
	b.children(n, ctx)
}

func (b *builder) children(n *html.Node, ctx walkContext) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c, ctx)
	}
}

// markAnchors records id and name attributes against the next chunk slot,
// both bare and qualified by the section key. A later occurrence of the same
// id replaces an earlier one.
func (b *builder) markAnchors(n *html.Node) {
	for _, key := range [...]string{"id", "name"} {
		v := strings.TrimSpace(getAttr(n, key))
		if v == "" {
			continue
		}
		b.anchors[v] = len(b.raw)
		b.fileAnchors[b.key+"#"+v] = len(b.raw)
	}
}

// appendText collapses whitespace runs in s, trims it and appends the result
// to the buffer, separated from earlier text by a single space.
func (b *builder) appendText(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return
	}
	if b.buf.Len() > 0 && !strings.HasSuffix(b.buf.String(), " ") {
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(strings.Join(fields, " "))
}

// addLink records a link over the text appended since start, if any.
func (b *builder) addLink(start int, href string) {
	text := b.buf.String()
	for start < len(text) && text[start] == ' ' {
		start++
	}
	if start >= len(text) {
		return
	}
	b.links = append(b.links, chunk.Link{Start: start, End: len(text), URL: href})
}

// flush closes the buffer as one or more chunks. Blocks above MaxWords are
// split into sentence groups and lose their links.
func (b *builder) flush(ctx walkContext) {
	text := b.buf.String()
	links := b.links
	b.buf.Reset()
	b.links = nil
	b.flushes++

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if chunk.WordCount(trimmed) <= b.opts.MaxWords {
		lead := strings.Index(text, trimmed)
		b.emit(chunk.Original{
			Kind:    chunk.KindText,
			Text:    trimmed,
			Heading: ctx.heading,
			Links:   validLinks(chunk.ShiftLinks(links, -lead), len(trimmed)),
		})
		return
	}

	for _, piece := range sentence.Pieces(trimmed, b.opts.TargetWords) {
		b.emit(chunk.Original{Kind: chunk.KindText, Text: piece, Heading: ctx.heading})
	}
}

func (b *builder) image(n *html.Node) {
	data, ok := b.images.resolve(imageSource(n))
	if !ok {
		return
	}
	b.emit(chunk.Original{Kind: chunk.KindImage, Image: data})
}

func (b *builder) emit(c chunk.Original) {
	c.Index = len(b.raw)
	c.Section = b.class
	c.SourceKey = b.key
	b.raw = append(b.raw, c)
}

func validLinks(links []chunk.Link, n int) []chunk.Link {
	var out []chunk.Link
	for _, l := range links {
		if l.Start >= 0 && l.Start < l.End && l.End <= n {
			out = append(out, l)
		}
	}
	return out
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func isImageElement(n *html.Node) bool {
	return n.DataAtom == atom.Img || n.DataAtom == atom.Image || (n.Namespace == "svg" && n.Data == "image")
}

// imageSource returns the raw reference of an <img> or SVG <image> element.
func imageSource(n *html.Node) string {
	if n.DataAtom == atom.Img {
		return getAttr(n, "src")
	}
	for _, a := range n.Attr {
		if a.Key == "href" || a.Key == "xlink:href" {
			return a.Val
		}
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// imageTable resolves image references by base name against the book's
// image files. Keys are kept sorted so resolution is deterministic.
type imageTable struct {
	keys []string
	data map[string][]byte
}

func newImageTable(images map[string][]byte, keys []string) *imageTable {
	return &imageTable{keys: keys, data: images}
}

func (t *imageTable) resolve(src string) ([]byte, bool) {
	src = strings.TrimSpace(src)
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if decoded, err := url.PathUnescape(src); err == nil {
		src = decoded
	}
	if src == "" || strings.HasPrefix(src, "data:") {
		return nil, false
	}
	base := path.Base(src)
	for _, k := range t.keys {
		if k == base || strings.HasSuffix(k, "/"+base) {
			return t.data[k], true
		}
	}
	return nil, false
}
