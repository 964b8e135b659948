package epubcards

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	containerPath = "META-INF/container.xml"
	opfMediaType  = "application/oebps-package+xml"
	epubMimetype  = "application/epub+zip"
	mimetypeEntry = "mimetype"
)

type containerDoc struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// locateOPF returns the archive path of the package document. It reads
// META-INF/container.xml and prefers the rootfile with the OPF media type;
// without container.xml it falls back to the first ".opf" entry.
func locateOPF(a *archive) (string, error) {
	if a.find(containerPath) == nil {
		for _, f := range a.zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
				return f.Name, nil
			}
		}
		return "", fmt.Errorf("epubcards: no container.xml and no .opf entry: %w", ErrInvalidEPub)
	}

	data, err := a.read(containerPath)
	if err != nil {
		return "", fmt.Errorf("epubcards: read container.xml: %w", err)
	}
	var c containerDoc
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("epubcards: parse container.xml: %w: %w", ErrInvalidEPub, err)
	}

	first := ""
	for _, rf := range c.RootFiles {
		p := strings.TrimSpace(rf.FullPath)
		if p == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), opfMediaType) {
			return p, nil
		}
		if first == "" {
			first = p
		}
	}
	if first == "" {
		return "", fmt.Errorf("epubcards: container.xml names no rootfile: %w", ErrInvalidEPub)
	}
	return first, nil
}

// checkMimetype returns a warning when the first entry is not a "mimetype"
// file holding the ePub media type, or "" when it is.
func checkMimetype(a *archive) string {
	if len(a.zr.File) == 0 {
		return "empty ZIP archive; mimetype entry missing"
	}
	first := a.zr.File[0]
	if first.Name != mimetypeEntry {
		return `first ZIP entry is not "mimetype"`
	}
	data, err := readEntry(first, a.limit)
	if err != nil {
		return fmt.Sprintf("cannot read mimetype entry: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != epubMimetype {
		return fmt.Sprintf("unexpected mimetype: %q", got)
	}
	return ""
}
