package epubcards

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"OEBPS/content.opf", "chapter1.xhtml", "OEBPS/chapter1.xhtml"},
		{"OEBPS/content.opf", "text/ch%201.xhtml", "OEBPS/text/ch 1.xhtml"},
		{"OEBPS/text/nav.xhtml", "../images/a.png", "OEBPS/images/a.png"},
		{"content.opf", "ch.xhtml#frag", "ch.xhtml#frag"},
		{"OEBPS/content.opf", "../../escape.xhtml", ""},
		{"OEBPS/content.opf", "/abs.xhtml", ""},
		{"OEBPS/content.opf", "   ", ""},
	}
	for _, tt := range tests {
		if got := resolveRelativePath(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveRelativePath(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		p    string
		want bool
	}{
		{"OEBPS/a.xhtml", true},
		{"a/../b", true},
		{"../a", false},
		{"..", false},
		{"/etc/passwd", false},
		{"a/../../b", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.p); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestArchiveRead(t *testing.T) {
	a := buildTestArchive(t, map[string]string{
		"OEBPS/Text.xhtml": "\xEF\xBB\xBF<html/>",
		"big.txt":          strings.Repeat("x", 64),
	})

	data, err := a.read("oebps/text.XHTML")
	if err != nil {
		t.Fatalf("read() error = %v", err)
	}
	if !bytes.Equal(data, []byte("<html/>")) {
		t.Errorf("read() = %q, want BOM stripped", data)
	}

	if _, err := a.read("missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("read(missing) error = %v, want ErrFileNotFound", err)
	}

	a.limit = 16
	if _, err := a.read("big.txt"); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("read(big) error = %v, want size limit", err)
	}
}
