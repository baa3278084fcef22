package linker

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// matchMention returns the byte offset of the first occurrence of surface in
// text that is safe to turn into a link, or -1. An occurrence qualifies when
// it sits on word boundaries, is not already the start of a link target or
// the tail of a comment marker, and is not inside the target part of an
// existing link.
func matchMention(text, surface string) int {
	if surface == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(text[from:], surface)
		if i < 0 {
			return -1
		}
		i += from
		if mentionGuardsOK(text, i, len(surface)) {
			return i
		}
		from = i + 1
	}
}

func mentionGuardsOK(text string, start, length int) bool {
	end := start + length

	// Word boundaries on both sides.
	prev, hasPrev := lastRune(text[:start])
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if (hasPrev && isWordRune(prev)) == isWordRune(first) {
		return false
	}
	last, _ := lastRune(text[start:end])
	next, hasNext := firstRune(text[end:])
	if isWordRune(last) == (hasNext && isWordRune(next)) {
		return false
	}

	// Not the start of a link target, not glued to a closed comment.
	if strings.HasSuffix(text[:start], "[[") || strings.HasSuffix(text[:start], "-->") {
		return false
	}

	// Not inside the target part of an existing link: skipping forward over
	// word characters and whitespace must not land on a closing bracket.
	k := end
	for k < len(text) {
		r, size := utf8.DecodeRuneInString(text[k:])
		if !isWordRune(r) && !unicode.IsSpace(r) {
			break
		}
		k += size
	}
	if k < len(text) && text[k] == ']' {
		return false
	}
	return true
}

// substituteMention replaces the first safe occurrence of surface in text
// with a wikilink to target. The second return is false when no safe
// occurrence exists.
func substituteMention(text, surface, target string, prob float64, tagProb bool) (string, bool) {
	i := matchMention(text, surface)
	if i < 0 {
		return text, false
	}
	var b strings.Builder
	b.Grow(len(text) + len(target) + 16)
	b.WriteString(text[:i])
	b.WriteString("[[")
	b.WriteString(target)
	b.WriteString("|")
	b.WriteString(surface)
	if tagProb {
		b.WriteString("|pr=")
		b.WriteString(strconv.FormatFloat(prob, 'g', -1, 64))
	}
	b.WriteString("]]")
	b.WriteString(text[i+len(surface):])
	return b.String(), true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func firstRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

func lastRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r, true
}
