package epubcards

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TOCItem is one table of contents entry. Href is an archive path, possibly
// with a #fragment.
type TOCItem struct {
	Title    string    `json:"title" yaml:"title"`
	Href     string    `json:"href" yaml:"href"`
	Children []TOCItem `json:"children,omitempty" yaml:"children,omitempty"`
}

// loadTOC reads the ePub 3 nav document when the manifest names one and
// falls back to the NCX. Problems are returned as warnings; a book without
// a readable TOC gets an empty one.
func loadTOC(a *archive, pkg *packageDoc, byID map[string]*manifestItem, opfPath string) ([]TOCItem, []string) {
	var warnings []string

	hasNav := false
	for _, it := range pkg.Manifest.Items {
		if !it.hasProperty("nav") {
			continue
		}
		hasNav = true
		navPath := resolveRelativePath(opfPath, it.Href)
		data, err := a.read(navPath)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("nav document: %v", err))
			break
		}
		toc, err := parseNav(data, navPath)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("nav document: %v", err))
			break
		}
		if len(toc) > 0 {
			return toc, warnings
		}
		break
	}
	if !hasNav && pkg.isEPub3() {
		warnings = append(warnings, "ePub 3 package has no nav document")
	}

	id := pkg.Spine.TOC
	if id == "" {
		// Some ePub 2 files omit spine@toc but still ship an NCX.
		for _, it := range pkg.Manifest.Items {
			if it.MediaType == "application/x-dtbncx+xml" {
				id = it.ID
				break
			}
		}
	}
	if it, ok := byID[id]; ok && id != "" {
		ncxPath := resolveRelativePath(opfPath, it.Href)
		data, err := a.read(ncxPath)
		if err != nil {
			return nil, append(warnings, fmt.Sprintf("NCX: %v", err))
		}
		toc, err := parseNCX(data, ncxPath)
		if err != nil {
			return nil, append(warnings, fmt.Sprintf("NCX: %v", err))
		}
		return toc, warnings
	}
	return nil, warnings
}

type ncxPoint struct {
	Label    string     `xml:"navLabel>text"`
	Src      ncxContent `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

func parseNCX(data []byte, ncxPath string) ([]TOCItem, error) {
	var doc struct {
		XMLName xml.Name   `xml:"ncx"`
		Points  []ncxPoint `xml:"navMap>navPoint"`
	}
	if err := xml.Unmarshal(preprocessHTMLEntities(stripBOM(data)), &doc); err != nil {
		return nil, fmt.Errorf("epubcards: parse NCX: %w", err)
	}
	return ncxItems(doc.Points, ncxPath), nil
}

func ncxItems(points []ncxPoint, base string) []TOCItem {
	if len(points) == 0 {
		return nil
	}
	out := make([]TOCItem, 0, len(points))
	for _, p := range points {
		out = append(out, TOCItem{
			Title:    strings.Join(strings.Fields(p.Label), " "),
			Href:     resolveRelativePath(base, p.Src.Src),
			Children: ncxItems(p.Children, base),
		})
	}
	return out
}

// parseNav extracts the <nav epub:type="toc"> list of an ePub 3 navigation
// document.
func parseNav(data []byte, navPath string) ([]TOCItem, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("epubcards: parse nav document: %w", err)
	}

	var toc *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if toc != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Nav && hasToken(attr(n, "epub:type"), "toc") {
			toc = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if toc == nil {
		return nil, nil
	}
	ol := firstDescendant(toc, atom.Ol)
	if ol == nil {
		return nil, nil
	}
	return navList(ol, navPath), nil
}

func navList(ol *html.Node, base string) []TOCItem {
	var out []TOCItem
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type == html.ElementNode && li.DataAtom == atom.Li {
			out = append(out, navItem(li, base))
		}
	}
	return out
}

// navItem reads one <li>: the first <a> (or a <span> heading) gives the
// title and href, a nested <ol> gives the children.
func navItem(li *html.Node, base string) TOCItem {
	var item TOCItem
	linked := false
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.A:
			if !linked {
				linked = true
				item.Title = textContent(c)
				item.Href = resolveRelativePath(base, attr(c, "href"))
			}
		case atom.Span:
			if item.Title == "" {
				item.Title = textContent(c)
			}
		case atom.Ol:
			item.Children = navList(c, base)
		}
	}
	return item
}

// firstTitle returns the first non-empty title in depth-first order.
func firstTitle(items []TOCItem) string {
	for _, it := range items {
		if it.Title != "" {
			return it.Title
		}
		if t := firstTitle(it.Children); t != "" {
			return t
		}
	}
	return ""
}

func copyTOC(in []TOCItem) []TOCItem {
	if in == nil {
		return nil
	}
	out := make([]TOCItem, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Children = copyTOC(in[i].Children)
	}
	return out
}
