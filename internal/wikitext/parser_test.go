package wikitext

import (
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text only",
		"Lead text.\n== Heading ==\nBody with [[Link|anchor]] and {{template|x}}.\n",
		"<!-- comment -->text<ref>cite</ref>more",
		"unclosed {{ template and [[ link stay text",
		"== heading at start ==\nbody",
		"{{nested|{{inner}}}} after",
	}
	for _, src := range cases {
		doc := Parse(src)
		if doc.String() != src {
			t.Errorf("round trip mismatch:\n in: %q\nout: %q", src, doc.String())
		}
		if doc.Source() != src {
			t.Errorf("source mismatch for %q", src)
		}
	}
}

func TestParseNodeKinds(t *testing.T) {
	doc := Parse("text [[Page|anchor]] more {{tmpl}} <!--c--> <ref name=a>x</ref> end")
	var texts, links, templates, comments, tags int
	for _, n := range doc.Nodes() {
		switch n.(type) {
		case *TextNode:
			texts++
		case *LinkNode:
			links++
		case *TemplateNode:
			templates++
		case *CommentNode:
			comments++
		case *TagNode:
			tags++
		}
	}
	if links != 1 || templates != 1 || comments != 1 || tags != 1 {
		t.Errorf("got links=%d templates=%d comments=%d tags=%d", links, templates, comments, tags)
	}
	if texts < 4 {
		t.Errorf("expected text runs between constructs, got %d", texts)
	}
}

func TestParseHeadingOnlyAtLineStart(t *testing.T) {
	doc := Parse("text == not a heading ==\n== Real ==\nbody")
	var headings []*HeadingNode
	for _, n := range doc.Nodes() {
		if h, ok := n.(*HeadingNode); ok {
			headings = append(headings, h)
		}
	}
	if len(headings) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(headings))
	}
	if headings[0].Title != " Real " || headings[0].Level != 2 {
		t.Errorf("heading parsed as %q level %d", headings[0].Title, headings[0].Level)
	}
}

func TestParseHeadingWithTrailingText(t *testing.T) {
	doc := Parse("lead\n==References== foo\nmore")
	var headings []*HeadingNode
	for _, n := range doc.Nodes() {
		if h, ok := n.(*HeadingNode); ok {
			headings = append(headings, h)
		}
	}
	if len(headings) != 1 || headings[0].Title != "References" {
		t.Fatalf("headings = %+v", headings)
	}
	if doc.String() != "lead\n==References== foo\nmore" {
		t.Errorf("round trip mismatch: %q", doc.String())
	}
	// The trailing text lands in the heading's section.
	sections := doc.Sections()
	if len(sections) != 2 || sections[1].Name != "References" {
		t.Fatalf("sections = %+v", sections)
	}
}

func TestParseIndentedHeadingIsText(t *testing.T) {
	doc := Parse("lead\n === Bar ===\nmore")
	for _, n := range doc.Nodes() {
		if _, ok := n.(*HeadingNode); ok {
			t.Fatal("indented heading must stay text")
		}
	}
}

func TestParseTextNodeSpans(t *testing.T) {
	src := "abc [[L]] def"
	doc := Parse(src)
	for _, tn := range doc.TextNodes() {
		sp := tn.Span()
		if src[sp.Start:sp.End] != tn.Original() {
			t.Errorf("span %v does not cover original %q", sp, tn.Original())
		}
	}
}

func TestSectionsFlatSplit(t *testing.T) {
	doc := Parse("Lead.\n== References ==\nfoo\n=== Bar ===\nbaz\n== Other ==\nqux\n")
	sections := doc.Sections()
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	want := []string{LeadSectionName, "References", "Bar", "Other"}
	if len(names) != len(want) {
		t.Fatalf("got sections %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("section %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSectionsNoLead(t *testing.T) {
	doc := Parse("== First ==\nbody")
	sections := doc.Sections()
	if len(sections) != 1 || sections[0].Name != "First" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"hello_world", "Hello world"},
		{"  spaced  ", "Spaced"},
		{"page#fragment", "Page"},
		{"%C3%A9tude", "Étude"},
		{"already Upper", "Already Upper"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeAnchor(t *testing.T) {
	if got := NormalizeAnchor("  Some Anchor "); got != "some anchor" {
		t.Errorf("got %q", got)
	}
}

func TestExtractWikilinks(t *testing.T) {
	src := "a [[Target]] b [[other_page|Anchor Text]] c {{tmpl|[[Nested]]}} d"
	links := ExtractWikilinks(src)
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d: %+v", len(links), links)
	}
	if links[0].Target != "Target" || links[0].Anchor != "target" {
		t.Errorf("bare link: %+v", links[0])
	}
	if links[1].Target != "Other page" || links[1].Anchor != "anchor text" {
		t.Errorf("piped link: %+v", links[1])
	}
	if links[2].Target != "Nested" {
		t.Errorf("nested link: %+v", links[2])
	}
}
