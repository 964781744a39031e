package textutil

import (
	"regexp"
	"strings"
)

// punctuation is ASCII punctuation plus typographic double and single quotes.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~“‘’”"

var (
	punctReplacer = newPunctReplacer()

	// digitWordRe matches any word run that contains a decimal digit.
	digitWordRe = regexp.MustCompile(`[\p{L}\p{N}_]*\p{Nd}[\p{L}\p{N}_]*`)
)

func newPunctReplacer() *strings.Replacer {
	var pairs []string
	for _, r := range punctuation {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}

// Clean normalizes raw article text for modeling and sentiment scoring.
//
// The steps run in a fixed order: punctuation becomes a single space, the text
// is lowercased, the spaced-out abbreviation "h i v" is rewritten to
// "hivaids", and any word containing a digit is replaced by a single space.
// Whitespace is not collapsed. Clean never fails and is idempotent.
func Clean(text string) string {
	text = punctReplacer.Replace(text)
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "h i v", "hivaids")
	return digitWordRe.ReplaceAllString(text, " ")
}
