package epubcards

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Book is an opened ePub package: its reading order, images and table of
// contents. Use Open, NewReader or FromBytes to create one.
//
// A Book is not safe for concurrent use by multiple goroutines.
type Book struct {
	archive  *archive
	closer   io.Closer // non-nil only when created via Open
	opfPath  string
	pkg      *packageDoc
	manifest map[string]*manifestItem
	spine    []spineEntry
	metadata Metadata
	toc      []TOCItem
	warnings []string

	sections []Section // cached by Sections
	images   map[string][]byte
}

// Open opens the ePub file at name. The caller must call Close when done.
func Open(name string) (*Book, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, unreadable(fmt.Errorf("epubcards: open %s: %w", name, err))
	}
	b, err := newBook(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return b, nil
}

// NewReader reads a Book from r. The caller owns r; Close only releases
// internal state.
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, unreadable(fmt.Errorf("epubcards: open zip: %w", err))
	}
	return newBook(zr, nil)
}

// FromBytes reads a Book from raw ePub bytes.
func FromBytes(data []byte) (*Book, error) {
	return NewReader(bytes.NewReader(data), int64(len(data)))
}

// newBook validates the container, rejects DRM and parses the package
// document and TOC. Every returned error wraps ErrPackageUnreadable.
func newBook(zr *zip.Reader, closer io.Closer) (*Book, error) {
	b := &Book{archive: newArchive(zr), closer: closer}

	if w := checkMimetype(b.archive); w != "" {
		b.warn(w)
	}

	opfPath, err := locateOPF(b.archive)
	if err != nil {
		return nil, unreadable(err)
	}
	b.opfPath = opfPath

	obfuscated, err := drmStatus(b.archive)
	if err != nil {
		return nil, unreadable(err)
	}
	if obfuscated {
		b.warn("font obfuscation detected; obfuscated fonts are left as is")
	}

	data, err := b.archive.read(opfPath)
	if err != nil {
		return nil, unreadable(fmt.Errorf("epubcards: read OPF %s: %w: %w", opfPath, ErrInvalidEPub, err))
	}
	pkg, err := parsePackage(data)
	if err != nil {
		return nil, unreadable(err)
	}
	b.pkg = pkg
	b.manifest = pkg.manifestByID()
	b.spine = pkg.spine(b.manifest)
	b.metadata = extractMetadata(pkg)

	toc, warnings := loadTOC(b.archive, pkg, b.manifest, opfPath)
	for _, w := range warnings {
		b.warn(w)
	}
	b.toc = toc
	if b.metadata.Title == "" {
		b.metadata.Title = firstTitle(toc)
	}
	return b, nil
}

func (b *Book) warn(msg string) {
	b.warnings = append(b.warnings, msg)
	Logger().Warn(msg, "opf", b.opfPath)
}

// Close releases the file opened by Open. It is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// Title returns the primary dc:title, or the first TOC title when the
// package has none, or "".
func (b *Book) Title() string { return b.metadata.Title }

// Metadata returns the book's descriptive metadata.
func (b *Book) Metadata() Metadata {
	md := b.metadata
	md.Authors = append([]string(nil), md.Authors...)
	md.Language = append([]string(nil), md.Language...)
	return md
}

// TOC returns the table of contents tree. Hrefs are archive paths.
func (b *Book) TOC() []TOCItem { return copyTOC(b.toc) }

// Warnings returns the non-fatal problems met so far, including those from
// Sections and Images.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// ReadFile reads an archive entry by path, falling back to a
// case-insensitive match.
func (b *Book) ReadFile(name string) ([]byte, error) {
	return b.archive.read(name)
}

// OPFPath returns the archive path of the package document.
func (b *Book) OPFPath() string { return b.opfPath }

// resolve turns a manifest href into an archive path.
func (b *Book) resolve(href string) string {
	return resolveRelativePath(b.opfPath, href)
}
