package epubcards

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// packageDoc is the subset of the OPF package document the loader needs.
type packageDoc struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	Metadata struct {
		Titles    []dcElement `xml:"http://purl.org/dc/elements/1.1/ title"`
		Creators  []dcElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
		Languages []dcElement `xml:"http://purl.org/dc/elements/1.1/ language"`
		Metas     []opfMeta   `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		TOC      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type dcElement struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta covers both the ePub 2 (name/content) and ePub 3
// (property/refines) forms of <meta>.
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Value    string `xml:",chardata"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

func (m manifestItem) hasProperty(p string) bool {
	for _, f := range strings.Fields(m.Properties) {
		if f == p {
			return true
		}
	}
	return false
}

// spineEntry is one itemref resolved against the manifest. Item is nil when
// the idref names no manifest item.
type spineEntry struct {
	IDRef  string
	Linear bool
	Item   *manifestItem
}

func parsePackage(data []byte) (*packageDoc, error) {
	var pkg packageDoc
	if err := xml.Unmarshal(preprocessHTMLEntities(stripBOM(data)), &pkg); err != nil {
		return nil, fmt.Errorf("epubcards: parse OPF: %w: %w", ErrInvalidEPub, err)
	}
	if pkg.Version == "" {
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

func (p *packageDoc) isEPub3() bool {
	return strings.HasPrefix(strings.TrimSpace(p.Version), "3")
}

// manifestByID indexes the manifest. The first item wins on duplicate ids.
func (p *packageDoc) manifestByID() map[string]*manifestItem {
	m := make(map[string]*manifestItem, len(p.Manifest.Items))
	for i := range p.Manifest.Items {
		it := &p.Manifest.Items[i]
		if _, ok := m[it.ID]; !ok {
			m[it.ID] = it
		}
	}
	return m
}

// spine resolves the itemrefs in reading order. Non-linear items are kept in
// place.
func (p *packageDoc) spine(byID map[string]*manifestItem) []spineEntry {
	out := make([]spineEntry, 0, len(p.Spine.ItemRefs))
	for _, ref := range p.Spine.ItemRefs {
		out = append(out, spineEntry{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no",
			Item:   byID[ref.IDRef],
		})
	}
	return out
}
