package epubcards_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log"

	"github.com/simp-lee/epubcards"
	"github.com/simp-lee/epubcards/measure"
	"github.com/simp-lee/epubcards/reflow"
	"github.com/simp-lee/epubcards/segment"
)

// tinyEPub builds a one-chapter book in memory.
func tinyEPub() []byte {
	files := []struct{ name, body string }{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", `<container><rootfiles><rootfile full-path="content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`},
		{"content.opf", `<package version="3.0" xmlns="http://www.idpf.org/2007/opf">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Tiny</dc:title></metadata>
<manifest><item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/></manifest>
<spine><itemref idref="c1"/></spine></package>`},
		{"c1.xhtml", `<html><body><h1>Chapter One</h1><p>Hello world.</p></body></html>`},
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			log.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		log.Fatal(err)
	}
	return buf.Bytes()
}

func ExampleLoad() {
	doc, err := epubcards.Load(tinyEPub(), segment.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(doc.Title)
	for _, c := range doc.Chunks {
		fmt.Println(c.Index, c.Heading, c.Text)
	}
	// Output:
	// Tiny
	// 0 true Chapter One
	// 1 false Hello world.
}

func ExampleSession() {
	doc, err := epubcards.Load(tinyEPub(), segment.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	m, err := measure.New(360, measure.DefaultStyle())
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	params := reflow.Params{ViewportWidth: 360, HeightBudget: reflow.Budget(640, 96, reflow.Comfortable)}
	s := epubcards.NewSession(doc, params, m.Measure)

	view := s.View()
	fmt.Println(view.Layout.Len(), "cards")
	fmt.Println("resume at card", view.Resolver.ResolveOriginal(1))
	// Output:
	// 2 cards
	// resume at card 1
}

func ExampleBook_TOC() {
	book, err := epubcards.Open("book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer book.Close()

	for _, item := range book.TOC() {
		fmt.Println(item.Title, item.Href)
	}
}
