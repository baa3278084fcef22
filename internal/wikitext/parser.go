package wikitext

import (
	"regexp"
	"strings"
)

// A heading is recognized at start of line only. Text may follow the closing
// equals signs on the same line; it is kept as a separate text node.
var headingRe = regexp.MustCompile(`^(={1,6})(.+?)(={1,6})`)

// Parse splits src into a flat list of top-level nodes. Markup constructs that
// do not close (stray "{{", "[[", "<") are treated as plain text, matching the
// forgiving behavior of MediaWiki parsers.
func Parse(src string) *Document {
	d := &Document{source: src}
	var nodes []Node
	textStart := 0
	i := 0

	flushText := func(end int) {
		if end > textStart {
			nodes = append(nodes, &TextNode{
				Value:    src[textStart:end],
				original: src[textStart:end],
				span:     Span{Start: textStart, End: end},
			})
		}
	}

	for i < len(src) {
		// Headings are line constructs: only recognized at start of line.
		if src[i] == '=' && (i == 0 || src[i-1] == '\n') {
			lineEnd := strings.IndexByte(src[i:], '\n')
			if lineEnd < 0 {
				lineEnd = len(src)
			} else {
				lineEnd += i
			}
			line := src[i:lineEnd]
			if m := headingRe.FindStringSubmatch(line); m != nil && len(m[1]) == len(m[3]) {
				hEnd := i + len(m[0])
				flushText(i)
				nodes = append(nodes, &HeadingNode{
					Title: m[2],
					Level: len(m[1]),
					raw:   m[0],
					span:  Span{Start: i, End: hEnd},
				})
				textStart = hEnd
				i = hEnd
				continue
			}
		}
		if strings.HasPrefix(src[i:], "<!--") {
			end := strings.Index(src[i+4:], "-->")
			if end < 0 {
				end = len(src)
			} else {
				end = i + 4 + end + 3
			}
			flushText(i)
			nodes = append(nodes, &CommentNode{raw: src[i:end], span: Span{Start: i, End: end}})
			textStart = end
			i = end
			continue
		}
		if strings.HasPrefix(src[i:], "{{") {
			if end, ok := matchBalanced(src, i, "{{", "}}"); ok {
				flushText(i)
				nodes = append(nodes, &TemplateNode{raw: src[i:end], span: Span{Start: i, End: end}})
				textStart = end
				i = end
				continue
			}
		}
		if strings.HasPrefix(src[i:], "[[") {
			if end, ok := matchBalanced(src, i, "[[", "]]"); ok {
				flushText(i)
				target, anchor := splitLink(src[i+2 : end-2])
				nodes = append(nodes, &LinkNode{
					Target: target,
					Anchor: anchor,
					raw:    src[i:end],
					span:   Span{Start: i, End: end},
				})
				textStart = end
				i = end
				continue
			}
		}
		if src[i] == '<' {
			if end, name, ok := matchTag(src, i); ok {
				flushText(i)
				nodes = append(nodes, &TagNode{Name: name, raw: src[i:end], span: Span{Start: i, End: end}})
				textStart = end
				i = end
				continue
			}
		}
		i++
	}
	flushText(len(src))
	d.nodes = nodes
	return d
}

// matchBalanced matches a construct opened by open at position i, tracking
// nesting, and returns the byte offset just past the matching close.
func matchBalanced(src string, i int, open, close string) (int, bool) {
	depth := 0
	k := i
	for k < len(src) {
		switch {
		case strings.HasPrefix(src[k:], open):
			depth++
			k += len(open)
		case strings.HasPrefix(src[k:], close):
			depth--
			k += len(close)
			if depth == 0 {
				return k, true
			}
		default:
			k++
		}
	}
	return 0, false
}

// splitLink splits wikilink content at the first top-level pipe.
// The anchor is everything after that pipe, pipes included, which is how
// extra parameters such as "|pr=0.8" stay attached to the anchor.
func splitLink(content string) (target, anchor string) {
	depth := 0
	for k := 0; k < len(content); k++ {
		switch {
		case strings.HasPrefix(content[k:], "[[") || strings.HasPrefix(content[k:], "{{"):
			depth++
			k++
		case strings.HasPrefix(content[k:], "]]") || strings.HasPrefix(content[k:], "}}"):
			depth--
			k++
		case content[k] == '|' && depth == 0:
			return content[:k], content[k+1:]
		}
	}
	return content, ""
}

var tagOpenRe = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9]*)((?:\s[^<>]*)?)(/?)>`)

// matchTag matches a self-closing tag or a paired open/close tag starting at i.
// Unpaired open tags are not treated as tag nodes.
func matchTag(src string, i int) (end int, name string, ok bool) {
	m := tagOpenRe.FindStringSubmatch(src[i:])
	if m == nil {
		return 0, "", false
	}
	name = m[1]
	openEnd := i + len(m[0])
	if m[3] == "/" {
		return openEnd, name, true
	}
	closeTag := "</" + strings.ToLower(name)
	rest := strings.ToLower(src[openEnd:])
	idx := strings.Index(rest, closeTag)
	if idx < 0 {
		return 0, "", false
	}
	gt := strings.IndexByte(rest[idx:], '>')
	if gt < 0 {
		return 0, "", false
	}
	return openEnd + idx + gt + 1, name, true
}
