package epubcards

import (
	"fmt"
	"sort"
	"strings"
)

// Section is one spine document in reading order.
type Section struct {
	// Key is the archive path of the document.
	Key string

	// Markup is the document source with any BOM removed.
	Markup string

	// Linear is false for spine items marked linear="no". They are kept in
	// spine order.
	Linear bool
}

// markupTypes are the spine media types read as markup. An empty media type
// is accepted too.
var markupTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
	"application/xml":       true,
	"text/xml":              true,
}

// Sections returns the spine documents in reading order. Malformed spine
// entries (unknown idref, unsafe or missing file, non-markup media type) are
// skipped and recorded in Warnings.
func (b *Book) Sections() []Section {
	if b.sections != nil {
		return append([]Section(nil), b.sections...)
	}

	out := make([]Section, 0, len(b.spine))
	seen := make(map[string]bool, len(b.spine))
	for i, e := range b.spine {
		if e.Item == nil {
			b.warn(fmt.Sprintf("spine item %d: idref %q not in manifest", i, e.IDRef))
			continue
		}
		mt := strings.ToLower(strings.TrimSpace(e.Item.MediaType))
		if mt != "" && !markupTypes[mt] {
			b.warn(fmt.Sprintf("spine item %d: skipping %s (%s)", i, e.Item.Href, mt))
			continue
		}
		key := b.resolve(e.Item.Href)
		if key == "" {
			b.warn(fmt.Sprintf("spine item %d: unsafe href %q", i, e.Item.Href))
			continue
		}
		if seen[key] {
			continue
		}
		data, err := b.archive.read(key)
		if err != nil {
			b.warn(fmt.Sprintf("spine item %d: %v", i, err))
			continue
		}
		seen[key] = true
		out = append(out, Section{Key: key, Markup: string(data), Linear: e.Linear})
	}

	b.sections = out
	return append([]Section(nil), out...)
}

// Images returns every manifest image keyed by archive path. Images that
// cannot be read are skipped and recorded in Warnings.
func (b *Book) Images() map[string][]byte {
	if b.images == nil {
		b.images = make(map[string][]byte)
		for _, it := range b.pkg.Manifest.Items {
			if !isImageMediaType(it.MediaType) {
				continue
			}
			key := b.resolve(it.Href)
			if key == "" {
				continue
			}
			if _, ok := b.images[key]; ok {
				continue
			}
			data, err := b.archive.read(key)
			if err != nil {
				b.warn(fmt.Sprintf("image %s: %v", key, err))
				continue
			}
			b.images[key] = data
		}
	}

	out := make(map[string][]byte, len(b.images))
	for k, v := range b.images {
		out[k] = v
	}
	return out
}

// ImageKeys returns the archive paths of the book's images, sorted.
func (b *Book) ImageKeys() []string {
	imgs := b.Images()
	keys := make([]string, 0, len(imgs))
	for k := range imgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
