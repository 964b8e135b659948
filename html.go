package epubcards

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// namedEntityPattern matches a named character reference such as &mdash;.
var namedEntityPattern = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]{1,31});`)

// xmlEntities are the references encoding/xml understands natively.
var xmlEntities = map[string]bool{
	"amp": true, "lt": true, "gt": true, "quot": true, "apos": true,
}

// preprocessHTMLEntities rewrites HTML named entities, which encoding/xml
// rejects, as numeric character references. Unknown names are left alone.
func preprocessHTMLEntities(data []byte) []byte {
	return namedEntityPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(m[1 : len(m)-1])
		if xmlEntities[name] {
			return m
		}
		decoded := html.UnescapeString(string(m))
		if decoded == string(m) {
			lower := "&" + strings.ToLower(name) + ";"
			if decoded = html.UnescapeString(lower); decoded == lower {
				return m
			}
		}
		// Named references expand to one or two code points; anything longer
		// is a prefix match such as "&not" inside "&notanentity;".
		if utf8.RuneCountInString(decoded) > 2 {
			return m
		}
		var sb strings.Builder
		for _, r := range decoded {
			if r == utf8.RuneError {
				return m
			}
			fmt.Fprintf(&sb, "&#%d;", r)
		}
		return []byte(sb.String())
	})
}

// attr returns the value of the attribute named key on n. Namespaced
// attributes match on their prefixed form, e.g. "epub:type".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val
		}
		if a.Namespace != "" && a.Namespace+":"+a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if f == token {
			return true
		}
	}
	return false
}

// firstDescendant returns the first element below n, depth first, with the
// given atom.
func firstDescendant(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := firstDescendant(c, a); found != nil {
			return found
		}
	}
	return nil
}

// textContent returns the text below n with whitespace runs collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
