// Package tokenizer generates candidate mention n-grams from article text.
package tokenizer

import (
	"strings"
	"unicode"
)

// SplitSentences splits text into sentences, line by line. Newlines are hard
// boundaries; within a line, a sentence ends after a run of ".", "!" or "?"
// followed by whitespace. Inter-sentence whitespace is dropped, sentence
// content is preserved verbatim.
func SplitSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		start := 0
		runes := []rune(line)
		for i := 0; i < len(runes); i++ {
			if isSentenceEnd(runes[i]) {
				// consume the full terminator run
				for i+1 < len(runes) && isSentenceEnd(runes[i+1]) {
					i++
				}
				if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
					sent := strings.TrimSpace(string(runes[start : i+1]))
					if sent != "" {
						sentences = append(sentences, sent)
					}
					start = i + 1
				}
			}
		}
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Tokens splits a sentence into word and punctuation tokens interleaved with
// explicit single-space markers, so that concatenating a token window
// reproduces the original spacing exactly. For example "Berlin, Germany"
// tokenizes to ["Berlin", ",", " ", "Germany"].
func Tokens(sent string) []string {
	var tokens []string
	words := strings.Split(sent, " ")
	for wi, w := range words {
		if wi > 0 {
			tokens = append(tokens, " ")
		}
		tokens = append(tokens, splitWord(w)...)
	}
	return tokens
}

// splitWord separates punctuation from a whitespace-delimited chunk.
// Apostrophes and hyphens between word characters stay inside the word.
func splitWord(w string) []string {
	var tokens []string
	runes := []rune(w)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isWordRune(r) {
			continue
		}
		if (r == '\'' || r == '-') && i > start && i+1 < len(runes) && isWordRune(runes[i+1]) {
			continue
		}
		if i > start {
			tokens = append(tokens, string(runes[start:i]))
		}
		tokens = append(tokens, string(r))
		start = i + 1
	}
	if start < len(runes) {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
