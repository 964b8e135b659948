package epubcards

import (
	"sort"
	"strconv"
	"strings"
)

// Metadata is the descriptive metadata a card reader shows for a book.
type Metadata struct {
	// Version is the ePub version from the package document, e.g. "3.0".
	Version string `json:"version" yaml:"version"`

	// Title is the primary title, or "" when the package names none.
	Title string `json:"title" yaml:"title"`

	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Language []string `json:"language,omitempty" yaml:"language,omitempty"`
}

func extractMetadata(pkg *packageDoc) Metadata {
	refines := refinesByID(pkg.Metadata.Metas)
	md := Metadata{
		Version: pkg.Version,
		Title:   primaryTitle(pkg.Metadata.Titles, refines),
	}
	for _, c := range pkg.Metadata.Creators {
		if v := strings.TrimSpace(c.Value); v != "" {
			md.Authors = append(md.Authors, v)
		}
	}
	for _, l := range pkg.Metadata.Languages {
		if v := strings.TrimSpace(l.Value); v != "" {
			md.Language = append(md.Language, v)
		}
	}
	return md
}

// refinesByID groups ePub 3 <meta refines="#id"> elements by the id they
// refine.
func refinesByID(metas []opfMeta) map[string][]opfMeta {
	m := make(map[string][]opfMeta)
	for _, meta := range metas {
		if id, ok := strings.CutPrefix(meta.Refines, "#"); ok && id != "" {
			m[id] = append(m[id], meta)
		}
	}
	return m
}

func refinement(refines map[string][]opfMeta, id, property string) string {
	for _, m := range refines[id] {
		if m.Property == property {
			if v := strings.TrimSpace(m.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// primaryTitle picks the dc:title refined as title-type "main", else the
// title with the lowest display-seq, else the first non-empty title.
func primaryTitle(titles []dcElement, refines map[string][]opfMeta) string {
	type candidate struct {
		value string
		seq   int
	}
	var cands []candidate
	for _, t := range titles {
		v := strings.TrimSpace(t.Value)
		if v == "" {
			continue
		}
		if t.ID != "" && refinement(refines, t.ID, "title-type") == "main" {
			return v
		}
		seq := 0
		if s := refinement(refines, t.ID, "display-seq"); t.ID != "" && s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				seq = n
			}
		}
		cands = append(cands, candidate{value: v, seq: seq})
	}
	if len(cands) == 0 {
		return ""
	}
	// Titles with a display-seq sort first, by seq; the rest keep their order.
	sort.SliceStable(cands, func(i, j int) bool {
		si, sj := cands[i].seq, cands[j].seq
		switch {
		case si == 0:
			return false
		case sj == 0:
			return true
		default:
			return si < sj
		}
	})
	return cands[0].value
}
