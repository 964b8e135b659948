package segment

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/simp-lee/epubcards/chunk"
)

func xhtml(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Ignored Title</title><style>p { color: red; }</style></head>
<body>` + body + `</body>
</html>`
}

func texts(chunks []chunk.Original) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestSegment_HeadingAndParagraph(t *testing.T) {
	res := Segment(Input{
		Sections: []Section{{Key: "chapter1.xhtml", Markup: xhtml(`<h1>Chapter One</h1><p>Hello world.</p>`)}},
	}, DefaultOptions())

	if res.Degraded {
		t.Fatal("unexpected degraded result")
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(res.Chunks), texts(res.Chunks))
	}
	want := []struct {
		index   int
		heading bool
		text    string
	}{
		{0, true, "Chapter One"},
		{1, false, "Hello world."},
	}
	for i, w := range want {
		c := res.Chunks[i]
		if c.Index != w.index || c.Heading != w.heading || c.Text != w.text {
			t.Errorf("chunk[%d] = {%d %v %q}, want {%d %v %q}", i, c.Index, c.Heading, c.Text, w.index, w.heading, w.text)
		}
		if c.Kind != chunk.KindText || c.SourceKey != "chapter1.xhtml" {
			t.Errorf("chunk[%d] kind/key = %v/%q", i, c.Kind, c.SourceKey)
		}
	}
	if len(res.Anchors) != 0 {
		t.Errorf("anchors = %v, want empty", res.Anchors)
	}
}

func TestSegment_InlineElementsJoinWithSpace(t *testing.T) {
	res := Segment(Input{
		Sections: []Section{{Key: "a.xhtml", Markup: xhtml(`<p>The <em>quick</em>
		brown   <strong>fox</strong></p>`)}},
	}, DefaultOptions())
	if got := texts(res.Chunks); !reflect.DeepEqual(got, []string{"The quick brown fox"}) {
		t.Errorf("texts = %q", got)
	}

	tests := []struct {
		body string
		want string
	}{
		{`<p><b>Note:</b>text here</p>`, "Note: text here"},
		{`<p>Once upon a <em>time</em>, far away.</p>`, "Once upon a time, far away."},
		{`<p><span class="dropcap">O</span>nce</p>`, "O nce"},
	}
	for _, tt := range tests {
		res = Segment(Input{Sections: []Section{{Key: "a.xhtml", Markup: xhtml(tt.body)}}}, DefaultOptions())
		if got := texts(res.Chunks); !reflect.DeepEqual(got, []string{tt.want}) {
			t.Errorf("%s: texts = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestSegment_Links(t *testing.T) {
	res := Segment(Input{
		Sections: []Section{{Key: "a.xhtml", Markup: xhtml(`<p>See <a href="notes.xhtml#n1">the <i>map</i></a> now, or <a href="#empty"></a>not.</p>`)}},
	}, DefaultOptions())
	if len(res.Chunks) != 1 {
		t.Fatalf("got %d chunks", len(res.Chunks))
	}
	c := res.Chunks[0]
	if c.Text != "See the map now, or not." {
		t.Fatalf("text = %q", c.Text)
	}
	want := []chunk.Link{{Start: 4, End: 11, URL: "notes.xhtml#n1"}}
	if !reflect.DeepEqual(c.Links, want) {
		t.Errorf("links = %+v, want %+v", c.Links, want)
	}
	if got := c.Text[c.Links[0].Start:c.Links[0].End]; got != "the map" {
		t.Errorf("link text = %q", got)
	}
}

func TestSegment_AnchorsPointAtOwningChunk(t *testing.T) {
	body := `<p>` + strings.Repeat("intro ", 20) + `</p>` +
		`<h2 id="s1">Section One</h2>` +
		`<p>` + strings.Repeat("body ", 20) + `<span id="deep">x</span></p>` +
		`<p><a name="tail"></a></p>`
	res := Segment(Input{Sections: []Section{{Key: "ch.xhtml", Markup: xhtml(body)}}}, DefaultOptions())

	if len(res.Chunks) != 3 {
		t.Fatalf("got %d chunks: %q", len(res.Chunks), texts(res.Chunks))
	}
	tests := []struct {
		id   string
		want int
	}{
		{"s1", 1},
		{"deep", 2},
		{"tail", 2}, // nothing follows the anchor; clamped to the last chunk
	}
	for _, tt := range tests {
		got, ok := res.Anchors[tt.id]
		if !ok || got != tt.want {
			t.Errorf("Anchors[%q] = %d, %v; want %d", tt.id, got, ok, tt.want)
		}
	}
	if got, ok := res.FileAnchors["ch.xhtml#s1"]; !ok || got != 1 {
		t.Errorf(`FileAnchors["ch.xhtml#s1"] = %d, %v; want 1`, got, ok)
	}
}

func TestSegment_DuplicateIDs(t *testing.T) {
	long := strings.Repeat("word ", 20)
	res := Segment(Input{Sections: []Section{
		{Key: "a.xhtml", Markup: xhtml(`<p id="x">` + long + `</p>`)},
		{Key: "b.xhtml", Markup: xhtml(`<p>` + long + `</p><p id="x">` + long + `</p>`)},
	}}, DefaultOptions())
	if len(res.Chunks) != 3 {
		t.Fatalf("got %d chunks", len(res.Chunks))
	}
	if want := (chunk.AnchorMap{"x": 2}); !reflect.DeepEqual(res.Anchors, want) {
		t.Errorf("Anchors = %v, want %v", res.Anchors, want)
	}
	if want := (chunk.AnchorMap{"a.xhtml#x": 0, "b.xhtml#x": 2}); !reflect.DeepEqual(res.FileAnchors, want) {
		t.Errorf("FileAnchors = %v, want %v", res.FileAnchors, want)
	}
}

func TestSegment_AnchorsFollowMerges(t *testing.T) {
	body := `<p id="a">Tiny one.</p><p id="b">Tiny two.</p><p id="c">` + strings.Repeat("long ", 30) + `</p>`
	res := Segment(Input{Sections: []Section{{Key: "x.xhtml", Markup: xhtml(body)}}}, DefaultOptions())

	// "Tiny one." absorbs "Tiny two." and then the 30-word paragraph (4 < 15, 34 <= 80).
	if len(res.Chunks) != 1 {
		t.Fatalf("got %d chunks: %q", len(res.Chunks), texts(res.Chunks))
	}
	for _, id := range []string{"a", "b", "c"} {
		if res.Anchors[id] != 0 {
			t.Errorf("Anchors[%q] = %d, want 0", id, res.Anchors[id])
		}
	}
}

func TestSegment_Images(t *testing.T) {
	images := map[string][]byte{
		"OEBPS/images/fig1.png":   []byte("png-1"),
		"OEBPS/images/myfig2.png": []byte("png-2"),
	}
	body := strings.Repeat("word ", 20) + `<img src="../images/fig1.png" alt=""/>` +
		strings.Repeat("after ", 20) + `<img src="fig2.png"/>` +
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><image xlink:href="images/fig%31.png"/></svg>`
	res := Segment(Input{
		Sections: []Section{{Key: "OEBPS/text/c.xhtml", Markup: xhtml(`<div>` + body + `</div>`)}},
		Images:   images,
	}, DefaultOptions())

	var kinds []chunk.Kind
	for _, c := range res.Chunks {
		kinds = append(kinds, c.Kind)
	}
	want := []chunk.Kind{chunk.KindText, chunk.KindImage, chunk.KindText, chunk.KindImage}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v (texts %q)", kinds, want, texts(res.Chunks))
	}
	if !bytes.Equal(res.Chunks[1].Image, []byte("png-1")) || !bytes.Equal(res.Chunks[3].Image, []byte("png-1")) {
		t.Errorf("unexpected image payloads")
	}
	if res.Chunks[1].Text != "" || res.Chunks[1].Heading {
		t.Errorf("image chunk carries text or heading: %+v", res.Chunks[1])
	}
	for i, c := range res.Chunks {
		if c.Index != i {
			t.Errorf("chunk[%d].Index = %d", i, c.Index)
		}
	}
}

func TestSegment_OversizedBlockIsSplitAndDropsLinks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Sentence number %d has exactly seven words. ", i)
	}
	body := `<p><a href="x.html">Linked</a> ` + sb.String() + `</p>`
	res := Segment(Input{Sections: []Section{{Key: "c.xhtml", Markup: xhtml(body)}}}, DefaultOptions())

	if len(res.Chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(res.Chunks))
	}
	total := 0
	for _, c := range res.Chunks {
		if n := c.Words(); n > 80 {
			t.Errorf("chunk %d has %d words", c.Index, n)
		}
		if len(c.Links) != 0 {
			t.Errorf("chunk %d kept links %+v", c.Index, c.Links)
		}
		total += c.Words()
	}
	if total != 141 {
		t.Errorf("total words = %d, want 141", total)
	}
}

func TestSegment_MergeShiftsLinks(t *testing.T) {
	body := `<p>Short one.</p><p>Go <a href="b.html">there</a> now.</p>`
	res := Segment(Input{Sections: []Section{{Key: "c.xhtml", Markup: xhtml(body)}}}, DefaultOptions())
	if len(res.Chunks) != 1 {
		t.Fatalf("got %d chunks", len(res.Chunks))
	}
	c := res.Chunks[0]
	if c.Text != "Short one.\n\nGo there now." {
		t.Fatalf("text = %q", c.Text)
	}
	if len(c.Links) != 1 || c.Text[c.Links[0].Start:c.Links[0].End] != "there" {
		t.Errorf("links = %+v", c.Links)
	}
}

func TestSegment_MergeRespectsBoundaries(t *testing.T) {
	res := Segment(Input{Sections: []Section{
		{Key: "ch1.xhtml", Markup: xhtml(`<p>End of one.</p>`)},
		{Key: "ch2.xhtml", Markup: xhtml(`<h2>Two</h2><p>Start of two.</p>`)},
	}}, DefaultOptions())
	want := []string{"End of one.", "Two", "Start of two."}
	if got := texts(res.Chunks); !reflect.DeepEqual(got, want) {
		t.Errorf("texts = %q, want %q", got, want)
	}
}

func TestSegment_MergeStopsAtThreshold(t *testing.T) {
	body := `<p>` + strings.Repeat("a ", 15) + `</p><p>next</p>`
	res := Segment(Input{Sections: []Section{{Key: "c.xhtml", Markup: xhtml(body)}}}, DefaultOptions())
	if len(res.Chunks) != 2 {
		t.Errorf("15-word chunk should not absorb its neighbour: %q", texts(res.Chunks))
	}
}

func TestSegment_ScriptStyleAndSelfClosing(t *testing.T) {
	body := `<p>Before</p><script/><script>var hidden = 1;</script><p>After</p>`
	res := Segment(Input{Sections: []Section{{Key: "c.xhtml", Markup: xhtml(body)}}}, DefaultOptions())
	joined := strings.Join(texts(res.Chunks), " ")
	if strings.Contains(joined, "hidden") || strings.Contains(joined, "color") || strings.Contains(joined, "Ignored") {
		t.Errorf("hidden content leaked: %q", joined)
	}
	if !strings.Contains(joined, "Before") || !strings.Contains(joined, "After") {
		t.Errorf("visible content missing: %q", joined)
	}
}

func TestSegment_LosslessCoverage(t *testing.T) {
	body := `<section><h1>Title  Here</h1><p>Alpha <b>beta</b> gamma.</p>
	<ul><li>delta</li><li>epsilon <a href="#z">zeta</a></li></ul>
	<blockquote>eta<br/>theta</blockquote><pre>iota   kappa</pre>
	<div>lambda<div>mu</div>nu</div></section>`
	res := Segment(Input{Sections: []Section{{Key: "c.xhtml", Markup: xhtml(body)}}}, DefaultOptions())

	got := strings.Fields(strings.Join(texts(res.Chunks), " "))
	want := strings.Fields("Title Here Alpha beta gamma. delta epsilon zeta eta theta iota kappa lambda mu nu")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("words\n got: %q\nwant: %q", got, want)
	}
}

func TestSegment_Classes(t *testing.T) {
	res := Segment(Input{
		Sections: []Section{
			{Key: "titlepage.xhtml", Markup: xhtml(`<h1>A Book</h1>`)},
			{Key: "chapter1.xhtml", Markup: xhtml(`<p>Once upon a time.</p>`)},
		},
		TOC: []TOCEntry{{Title: "Chapter 1", Href: "chapter1.xhtml"}},
	}, DefaultOptions())
	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks", len(res.Chunks))
	}
	if res.Chunks[0].Section != chunk.FrontMatter || res.Chunks[1].Section != chunk.Content {
		t.Errorf("sections = %v, %v", res.Chunks[0].Section, res.Chunks[1].Section)
	}
}

func TestSegment_FallbackWhenDOMYieldsNothing(t *testing.T) {
	res := Segment(Input{Sections: []Section{
		{Key: "a.xhtml", Markup: xhtml(`<noscript>Only hidden words. Still here.</noscript>`)},
	}}, DefaultOptions())
	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	if got := texts(res.Chunks); !reflect.DeepEqual(got, []string{"Only hidden words. Still here."}) {
		t.Errorf("texts = %q", got)
	}
	c := res.Chunks[0]
	if c.Section != chunk.Content || c.Heading || len(c.Links) != 0 {
		t.Errorf("fallback chunk = %+v", c)
	}
	if res.Anchors == nil {
		t.Error("anchors should be an empty map, not nil")
	}
}

func TestSegment_Placeholder(t *testing.T) {
	for _, in := range []Input{
		{},
		{Sections: []Section{{Key: "empty.xhtml", Markup: xhtml(``)}}},
	} {
		res := Segment(in, Options{})
		if len(res.Chunks) != 1 || res.Chunks[0].Text != PlaceholderText || !res.Degraded {
			t.Errorf("Segment(%d sections) = %+v", len(in.Sections), res.Chunks)
		}
	}
}

func TestSegment_ChaptersExact(t *testing.T) {
	long := func(w string) string { return `<p>` + strings.Repeat(w+" ", 20) + `</p>` }
	res := Segment(Input{
		Sections: []Section{
			{Key: "OEBPS/cover.xhtml", Markup: xhtml(`<div><img src="missing.jpg"/></div>`)},
			{Key: "OEBPS/ch1.xhtml", Markup: xhtml(`<h1>One</h1>` + long("a") + long("b"))},
			{Key: "OEBPS/ch2.xhtml", Markup: xhtml(`<h1>Two</h1>` + long("c") + `<h2 id="s2">Sub</h2>` + long("d"))},
		},
		TOC: []TOCEntry{
			{Title: "Cover", Href: "OEBPS/cover.xhtml"},
			{Title: "One", Href: "OEBPS/ch1.xhtml"},
			{Title: "Two", Href: "ch2.xhtml", Children: []TOCEntry{
				{Title: "Sub", Href: "OEBPS/ch2.xhtml#s2"},
				{Title: "Gone", Href: "OEBPS/nowhere.xhtml"},
			}},
		},
	}, DefaultOptions())

	// ch1: One, a, b -> 0,1,2 ; ch2: Two, c, Sub, d -> 3,4,5,6
	if len(res.Chunks) != 7 {
		t.Fatalf("got %d chunks: %q", len(res.Chunks), texts(res.Chunks))
	}
	flat := chunk.Flatten(res.Chapters)
	want := []struct {
		title string
		index int
		depth int
	}{
		{"Cover", 0, 0}, // cover produced no chunks; it starts where the next chunk lands
		{"One", 0, 0},
		{"Two", 3, 0},
		{"Sub", 5, 1},
		{"Gone", 0, 1},
	}
	if len(flat) != len(want) {
		t.Fatalf("got %d chapters", len(flat))
	}
	for i, w := range want {
		if flat[i].Title != w.title || flat[i].Index != w.index || flat[i].Depth != w.depth {
			t.Errorf("chapter[%d] = %+v, want %+v", i, flat[i], w)
		}
	}
}

func TestEstimateChapterStarts(t *testing.T) {
	sections := []Section{
		{Key: "a.xhtml", Markup: `<p>1</p><p>2</p><img src="x.png"/>`},
		{Key: "b.xhtml", Markup: `plain text only`},
		{Key: "dir/c.xhtml", Markup: `<h1>t</h1><br/>`},
	}
	toc := []TOCEntry{
		{Title: "A", Href: "a.xhtml"},
		{Title: "B", Href: "b.xhtml#x"},
		{Title: "C", Href: "c.xhtml"},
	}
	got := EstimateChapterStarts(sections, toc, 100, nil)
	wantIdx := []int{0, 3, 4}
	for i, w := range wantIdx {
		if got[i].Index != w {
			t.Errorf("chapter %q index = %d, want %d", got[i].Title, got[i].Index, w)
		}
	}

	clamped := EstimateChapterStarts(sections, toc, 2, nil)
	if clamped[2].Index != 1 {
		t.Errorf("clamped index = %d, want 1", clamped[2].Index)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{TargetWords: 200}.withDefaults()
	if o.MaxWords != 80 || o.TargetWords != 80 || o.MergeBelow != 15 {
		t.Errorf("withDefaults() = %+v", o)
	}
	if o.Logger == nil || o.Logger.Handler() != slog.DiscardHandler {
		t.Errorf("default logger handler = %v, want slog.DiscardHandler", o.Logger)
	}

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := (Options{Logger: l}).withDefaults().Logger; got != l {
		t.Error("withDefaults replaced a configured logger")
	}
}
