package wikitext

import "strings"

// Wikilink is an outgoing link with normalized target and anchor.
type Wikilink struct {
	Target string // normalized title
	Anchor string // normalized (lowercased) anchor text
}

// ExtractWikilinks returns every wikilink in src, including links nested
// inside templates, tags, and other links. When a link carries no anchor
// text, the raw target doubles as the anchor.
func ExtractWikilinks(src string) []Wikilink {
	var links []Wikilink
	collectWikilinks(src, &links)
	return links
}

func collectWikilinks(src string, links *[]Wikilink) {
	for i := 0; i < len(src); {
		idx := strings.Index(src[i:], "[[")
		if idx < 0 {
			return
		}
		start := i + idx
		end, ok := matchBalanced(src, start, "[[", "]]")
		if !ok {
			i = start + 2
			continue
		}
		content := src[start+2 : end-2]
		target, anchor := splitLink(content)
		if anchor == "" {
			anchor = target
		}
		*links = append(*links, Wikilink{
			Target: NormalizeTitle(target),
			Anchor: NormalizeAnchor(anchor),
		})
		// nested links, e.g. inside image captions
		collectWikilinks(content, links)
		i = end
	}
}
