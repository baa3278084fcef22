// Package wikitext parses raw wiki markup into a flat node tree and exposes
// section groupings, text runs, and outgoing links.
package wikitext

// Span is a byte range in the original source.
type Span struct {
	Start int
	End   int
}

// Node is a top-level markup node.
type Node interface {
	// Source returns the current serialized form of the node.
	Source() string
	// Span returns the node's byte range in the original document source.
	Span() Span
}

// TextNode is a run of plain text. Value is mutable: the linker replaces it
// with annotated markup when a link is inserted. The original run is retained
// for offset computation.
type TextNode struct {
	Value    string
	original string
	span     Span
}

func (t *TextNode) Source() string { return t.Value }
func (t *TextNode) Span() Span     { return t.span }

// Original returns the text run as it appeared in the original source,
// unaffected by any substitutions.
func (t *TextNode) Original() string { return t.original }

// HeadingNode is a section heading like "== References ==".
type HeadingNode struct {
	Title string
	Level int
	raw   string
	span  Span
}

func (h *HeadingNode) Source() string { return h.raw }
func (h *HeadingNode) Span() Span     { return h.span }

// LinkNode is a wikilink like "[[Target|anchor]]".
type LinkNode struct {
	Target string // raw target, not normalized
	Anchor string // raw anchor; empty when the link has no pipe
	raw    string
	span   Span
}

func (l *LinkNode) Source() string { return l.raw }
func (l *LinkNode) Span() Span     { return l.span }

// TemplateNode is a transclusion like "{{cite web|...}}".
type TemplateNode struct {
	raw  string
	span Span
}

func (t *TemplateNode) Source() string { return t.raw }
func (t *TemplateNode) Span() Span     { return t.span }

// CommentNode is an HTML comment "<!-- ... -->".
type CommentNode struct {
	raw  string
	span Span
}

func (c *CommentNode) Source() string { return c.raw }
func (c *CommentNode) Span() Span     { return c.span }

// TagNode is an extension or HTML tag span like "<ref>...</ref>".
type TagNode struct {
	Name string
	raw  string
	span Span
}

func (t *TagNode) Source() string { return t.raw }
func (t *TagNode) Span() Span     { return t.span }

// Document is an ordered flat list of top-level nodes plus the immutable
// original serialization.
type Document struct {
	source string
	nodes  []Node
}

// Source returns the original wikitext the document was parsed from.
func (d *Document) Source() string { return d.source }

// Nodes returns the top-level nodes in document order.
func (d *Document) Nodes() []Node { return d.nodes }

// TextNodes returns the top-level text runs in document order.
func (d *Document) TextNodes() []*TextNode {
	var out []*TextNode
	for _, n := range d.nodes {
		if t, ok := n.(*TextNode); ok {
			out = append(out, t)
		}
	}
	return out
}

// String serializes the document with any text substitutions applied.
func (d *Document) String() string {
	var b []byte
	for _, n := range d.nodes {
		b = append(b, n.Source()...)
	}
	return string(b)
}
