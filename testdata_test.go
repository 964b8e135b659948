package epubcards

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildTestZip creates an in-memory ZIP archive from files (path → content).
// The "mimetype" entry, when present, is written first; the rest follow in
// name order.
func buildTestZip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	names := make([]string, 0, len(files))
	for name := range files {
		if name != mimetypeEntry {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files[mimetypeEntry]; ok {
		names = append([]string{mimetypeEntry}, names...)
	}

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestArchive returns an archive index over files.
func buildTestArchive(t *testing.T, files map[string]string) *archive {
	t.Helper()
	data := buildTestZip(t, files)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestArchive: open reader: %v", err)
	}
	return newArchive(zr)
}

// buildTestEPubFile writes files as an ePub to a temporary file and returns
// its path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestZip(t, files), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// minimalEPubFiles returns the minimum set of files that open without error.
func minimalEPubFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf":      `<?xml version="1.0"?><package/>`,
	}
}

func xhtml(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>t</title></head>
<body>` + body + `</body>
</html>`
}

// epub2Files is a three-document ePub 2 book with an NCX and one image:
//
//	titlepage.xhtml  heading + byline (front matter)
//	chapter1.xhtml   heading + paragraph
//	chapter2.xhtml   paragraph, heading#part2, paragraph with link, image
func epub2Files() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf": `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>The Test Book</dc:title>
    <dc:creator opf:role="aut">Jane Roe</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:1234</dc:identifier>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="title" href="titlepage.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="fig1" href="images/fig1.png" media-type="image/png"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="title"/>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`,
		"OEBPS/toc.ncx": `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1" playOrder="1"><navLabel><text>Title Page</text></navLabel><content src="titlepage.xhtml"/></navPoint>
    <navPoint id="np2" playOrder="2"><navLabel><text>Chapter One</text></navLabel><content src="chapter1.xhtml"/>
      <navPoint id="np3" playOrder="3"><navLabel><text>Part Two</text></navLabel><content src="chapter2.xhtml#part2"/></navPoint>
    </navPoint>
  </navMap>
</ncx>`,
		"OEBPS/titlepage.xhtml": xhtml(`<h1>The Test Book</h1><p>by Jane Roe</p>`),
		"OEBPS/chapter1.xhtml": xhtml(`<h1>Chapter One</h1>
<p>It was a bright cold day in April, and the clocks were striking thirteen.</p>`),
		"OEBPS/chapter2.xhtml": xhtml(`<p>Plain opening.</p>
<h2 id="part2">Part Two</h2>
<p>More text <a href="chapter1.xhtml">back</a> home.</p>
<p><img src="images/fig1.png" alt="Figure one"/></p>`),
		"OEBPS/images/fig1.png": "\x89PNG fake image bytes",
	}
}

// epub3Files is a two-document ePub 3 book with a nav document, refined
// titles and an NCX that must be ignored.
func epub3Files() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf": `<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title id="sub">A Subtitle</dc:title>
    <dc:title id="main">Main Title&mdash;Complete</dc:title>
    <meta refines="#main" property="title-type">main</meta>
    <meta refines="#sub" property="title-type">subtitle</meta>
    <dc:creator>First Author</dc:creator>
    <dc:creator>Second Author</dc:creator>
    <dc:language>en</dc:language>
    <dc:language>fr</dc:language>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="c1" href="text/one.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/two.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="c1"/>
    <itemref idref="c2" linear="no"/>
  </spine>
</package>`,
		"OEBPS/nav.xhtml": xhtml(`<nav epub:type="toc"><h1>Contents</h1><ol>
<li><a href="text/one.xhtml">One</a></li>
<li><span>Part</span><ol><li><a href="text/two.xhtml#s2">Two</a></li></ol></li>
</ol></nav>
<nav epub:type="landmarks"><ol><li><a href="text/one.xhtml">Start</a></li></ol></nav>`),
		"OEBPS/toc.ncx": `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/"><navMap>
<navPoint id="x"><navLabel><text>From NCX</text></navLabel><content src="text/one.xhtml"/></navPoint>
</navMap></ncx>`,
		"OEBPS/text/one.xhtml": xhtml(`<h1>One</h1><p>First words here.</p>`),
		"OEBPS/text/two.xhtml": xhtml(`<h1 id="s2">Two</h1><p>Second words here.</p>`),
	}
}
