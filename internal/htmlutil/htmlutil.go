// Package htmlutil extracts article text from news pages.
package htmlutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/happyhackingspace/konu/internal/textutil"
)

// LoadHTMLString parses HTML string into a goquery Document.
func LoadHTMLString(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// ArticleSelectors locate body paragraphs, most specific first. They cover
// the current article template and the older archive layouts.
var ArticleSelectors = []string{
	`section[name="articleBody"] p`,
	`div.StoryBodyCompanionColumn p`,
	`p.story-body-text`,
	`div.story-body p`,
	`div#articleBody p`,
	`div.articleBody p`,
	`article p`,
}

// ArticleText returns the article body as one paragraph per line. When no
// selector matches it falls back to the visible text of <body>.
func ArticleText(doc *goquery.Document) string {
	for _, sel := range ArticleSelectors {
		paras := Paragraphs(doc.Find(sel))
		if len(paras) > 0 {
			return strings.Join(paras, "\n")
		}
	}
	return Sanitize(VisibleText(doc.Find("body")))
}

// Paragraphs returns the sanitized, non-empty text of each selected element.
func Paragraphs(s *goquery.Selection) []string {
	var paras []string
	s.Each(func(_ int, p *goquery.Selection) {
		if text := Sanitize(p.Text()); text != "" {
			paras = append(paras, text)
		}
	})
	return paras
}

var sanitizer = transform.Chain(
	norm.NFC,
	runes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}),
	runes.Remove(runes.In(unicode.Cc)),
	runes.Remove(runes.In(unicode.Cf)),
)

// Sanitize normalizes text to NFC, drops control and format characters and
// collapses whitespace to single spaces.
func Sanitize(text string) string {
	out, _, err := transform.String(sanitizer, text)
	if err != nil {
		out = text
	}
	return textutil.CollapseSpaces(out)
}
