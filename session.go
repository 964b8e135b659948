package epubcards

import (
	"sync/atomic"

	"github.com/simp-lee/epubcards/navigate"
	"github.com/simp-lee/epubcards/reflow"
)

// View is one complete layout of a document together with its resolver.
// Readers always see both halves of the same layout.
type View struct {
	Layout   *reflow.Layout
	Resolver *navigate.Resolver

	gen uint64
}

// Session holds the current View of a Document and replaces it as a unit on
// every relayout. All methods are safe for concurrent use.
type Session struct {
	doc  *Document
	gen  atomic.Uint64
	view atomic.Pointer[View]
}

// NewSession lays doc out once with p and measure.
func NewSession(doc *Document, p reflow.Params, measure reflow.MeasureFunc) *Session {
	s := &Session{doc: doc}
	s.Relayout(p, measure)
	return s
}

// Document returns the session's document.
func (s *Session) Document() *Document { return s.doc }

// View returns the current view.
func (s *Session) View() *View { return s.view.Load() }

// Relayout reflows the document and publishes the result. When relayouts
// overlap, the one started last wins; Relayout returns the view that is
// current when it finishes.
func (s *Session) Relayout(p reflow.Params, measure reflow.MeasureFunc) *View {
	gen := s.gen.Add(1)
	l := s.doc.Reflow(p, measure)
	v := &View{Layout: l, Resolver: s.doc.Navigator(l), gen: gen}

	for {
		cur := s.view.Load()
		if cur != nil && cur.gen > gen {
			return cur
		}
		if s.view.CompareAndSwap(cur, v) {
			return v
		}
	}
}
