package wikitext

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle normalizes a link target the way MediaWiki canonicalizes
// page titles: percent-decode, trim, uppercase the first rune, underscores to
// spaces, and drop any fragment.
func NormalizeTitle(title string) string {
	if unquoted, err := url.PathUnescape(title); err == nil {
		title = unquoted
	}
	title = strings.TrimSpace(title)
	if title != "" {
		r, size := utf8.DecodeRuneInString(title)
		title = string(unicode.ToUpper(r)) + title[size:]
	}
	title = strings.ReplaceAll(title, "_", " ")
	if idx := strings.IndexByte(title, '#'); idx >= 0 {
		title = title[:idx]
	}
	return title
}

// NormalizeAnchor normalizes anchor text for dictionary lookup: trim and
// lowercase only, since the string must still match the article text. The
// fold is the full locale-independent Unicode mapping, which is what the
// dataset pipeline applies when building the anchor dictionaries.
func NormalizeAnchor(anchor string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(anchor))
}
