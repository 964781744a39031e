// Package textutil splits article text into words and n-grams.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize splits text into runs of letters, digits and underscores.
// Everything else separates tokens. Returns nil when text has no tokens.
func Tokenize(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Words is Tokenize without single character tokens, the unit the
// vectorizers count.
func Words(text string) []string {
	var words []string
	for _, tok := range Tokenize(text) {
		if utf8.RuneCountInString(tok) > 1 {
			words = append(words, tok)
		}
	}
	return words
}

// Ngrams returns every run of lo..hi consecutive words joined by a space,
// shortest first and in text order within each length.
func Ngrams(words []string, lo, hi int) []string {
	hi = min(hi, len(words))
	if lo < 1 || lo > hi {
		return nil
	}
	grams := make([]string, 0, (hi-lo+1)*len(words))
	for n := lo; n <= hi; n++ {
		for start := 0; start+n <= len(words); start++ {
			grams = append(grams, strings.Join(words[start:start+n], " "))
		}
	}
	return grams
}

// CollapseSpaces turns every run of whitespace, line breaks included, into
// one space and trims both ends.
func CollapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WordCount is the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
