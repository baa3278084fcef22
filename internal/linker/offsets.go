package linker

import (
	"strings"
	"unicode/utf8"

	"github.com/wikimedia/research-mwaddlink/internal/wikitext"
)

// buildLink re-locates the inserted mention in the original article text and
// assembles the result record. Both the node text and the surface form are
// folded with the wiki's locale so the search is symmetric: asymmetric
// folding produced spurious relocation failures for locale-specific casings
// such as the Azeri İ.
func (r *run) buildLink(node *wikitext.TextNode, mention, surface, target string, prob float64) (Link, error) {
	orig := node.Original()
	lowered := r.caser.String(orig)
	needle := r.caser.String(surface)
	byteIdx := matchMention(lowered, needle)
	if byteIdx < 0 {
		return Link{}, &MentionOffsetError{Mention: mention, Context: orig}
	}
	runeIdx := utf8.RuneCountInString(lowered[:byteIdx])
	mentionRunes := utf8.RuneCountInString(needle)

	origRunes := []rune(orig)
	if runeIdx+mentionRunes > len(origRunes) {
		// The fold changed the run's length and the match cannot be mapped
		// back. Known to happen for locale-specific casings such as Azeri İ.
		return Link{}, &MentionOffsetError{Mention: mention, Context: orig}
	}

	start := r.nodeRuneStart[node] + runeIdx
	end := start + mentionRunes

	matchIndex := 0
	for _, n := range r.textNodes {
		if n == node {
			break
		}
		matchIndex += strings.Count(n.Original(), surface)
	}
	matchIndex += strings.Count(string(origRunes[:runeIdx]), surface)

	return Link{
		LinkText:       surface,
		WikitextOffset: start,
		ContextBefore:  r.contextSlice(start-r.req.ContextChars, start),
		ContextAfter:   r.contextSlice(end, end+r.req.ContextChars),
		LinkTarget:     target,
		MatchIndex:     matchIndex,
		Score:          prob,
		LinkIndex:      len(r.links),
	}, nil
}

// contextSlice returns the original document runes in [from, to), clamped to
// the document bounds.
func (r *run) contextSlice(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(r.origRunes) {
		to = len(r.origRunes)
	}
	if from >= to {
		return ""
	}
	return string(r.origRunes[from:to])
}
