// Package lemma reduces cleaned article text to lemmas using part-of-speech
// aware rules validated against an English dictionary.
package lemma

import (
	"bufio"
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball/english"
)

// POS is the coarse part of speech used to pick detachment rules.
type POS int

const (
	Noun POS = iota
	Verb
	Adjective
	Adverb
)

func (p POS) String() string {
	switch p {
	case Verb:
		return "verb"
	case Adjective:
		return "adjective"
	case Adverb:
		return "adverb"
	default:
		return "noun"
	}
}

// TagPOS maps a Penn Treebank tag to a coarse part of speech.
// J is an adjective, V a verb, R an adverb; everything else is a noun.
func TagPOS(tag string) POS {
	if tag == "" {
		return Noun
	}
	switch tag[0] {
	case 'J':
		return Adjective
	case 'V':
		return Verb
	case 'R':
		return Adverb
	default:
		return Noun
	}
}

// WordLemmatizer reduces a single word to its base form.
type WordLemmatizer interface {
	Lemmatize(word string, pos POS) string
}

// Kind names a lemmatizer implementation.
const (
	KindDictionary = "dictionary"
	KindSnowball   = "snowball"
)

// New returns the word lemmatizer for kind.
func New(kind string) (WordLemmatizer, error) {
	switch kind {
	case "", KindDictionary:
		return NewDictionary()
	case KindSnowball:
		return Snowball{}, nil
	default:
		return nil, fmt.Errorf("lemma: unknown lemmatizer %q", kind)
	}
}

// Pipeline tags text and lemmatizes every token. The tagger model is built
// by the first call and reused; a Pipeline is not safe for concurrent use.
type Pipeline struct {
	words WordLemmatizer
	model *prose.Model
}

// NewPipeline wraps a word lemmatizer with a part-of-speech tagger.
func NewPipeline(words WordLemmatizer) *Pipeline {
	return &Pipeline{words: words}
}

// Lemmatize tokenizes and tags text, lemmatizes each token with its coarse
// part of speech and joins the results with single spaces.
func (p *Pipeline) Lemmatize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	opts := []prose.DocOpt{
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	}
	if p.model != nil {
		opts = append(opts, prose.UsingModel(p.model))
	}
	doc, err := prose.NewDocument(text, opts...)
	if err != nil {
		return "", fmt.Errorf("lemma: tag text: %w", err)
	}
	p.model = doc.Model

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		word := strings.TrimSpace(tok.Text)
		if word == "" {
			continue
		}
		out = append(out, p.words.Lemmatize(word, TagPOS(tok.Tag)))
	}
	return strings.Join(out, " "), nil
}

// Snowball stems words with the English Snowball stemmer, ignoring POS.
type Snowball struct{}

// Lemmatize implements WordLemmatizer.
func (Snowball) Lemmatize(word string, _ POS) string {
	return english.Stem(word, false)
}

//go:embed exc/*.exc
var excFiles embed.FS

var excNames = map[POS]string{
	Noun:      "exc/noun.exc",
	Verb:      "exc/verb.exc",
	Adjective: "exc/adj.exc",
	Adverb:    "exc/adv.exc",
}

// Dictionary lemmatizes the way WordNet's morphy does: irregular forms come
// from the exception lists of their part of speech, everything else from
// detachment rules whose candidates must be known lemmas of the word in the
// golem English dictionary. Of several valid candidates the shortest wins.
type Dictionary struct {
	dict       *golem.Lemmatizer
	exceptions map[POS]map[string][]string
}

// NewDictionary loads the English dictionary and the exception lists.
func NewDictionary() (*Dictionary, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("lemma: load dictionary: %w", err)
	}
	d := &Dictionary{dict: l, exceptions: make(map[POS]map[string][]string, len(excNames))}
	for pos, name := range excNames {
		if d.exceptions[pos], err = loadExceptions(name); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// loadExceptions reads one "form lemma [lemma...]" line per irregular form.
func loadExceptions(name string) (map[string][]string, error) {
	f, err := excFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("lemma: %w", err)
	}
	defer f.Close()

	exc := make(map[string][]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		exc[fields[0]] = fields[1:]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lemma: read %s: %w", name, err)
	}
	return exc, nil
}

// Lemmatize implements WordLemmatizer.
func (d *Dictionary) Lemmatize(word string, pos POS) string {
	word = strings.ToLower(word)
	if lemmas, ok := d.exceptions[pos][word]; ok {
		return shortest(lemmas)
	}
	if !d.dict.InDict(word) {
		return word
	}
	known := d.dict.Lemmas(word)

	var valid []string
	for _, cand := range append([]string{word}, detach(word, pos)...) {
		if slices.Contains(known, cand) && !slices.Contains(valid, cand) {
			valid = append(valid, cand)
		}
	}
	switch {
	case len(valid) > 0:
		return shortest(valid)
	case pos == Adjective || pos == Adverb || len(known) == 0:
		// Base adjectives and adverbs (united, quickly) are their own lemma.
		return word
	default:
		// Irregular nouns and verbs missing from the exception lists.
		return known[0]
	}
}

// shortest returns the first of the shortest strings in list.
func shortest(list []string) string {
	best := list[0]
	for _, s := range list[1:] {
		if len(s) < len(best) {
			best = s
		}
	}
	return best
}

type rule struct{ suffix, repl string }

var rules = map[POS][]rule{
	Noun: {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	Verb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	Adjective: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
}

// detach returns candidate base forms in rule order. Verbs and adjectives
// also get the form with a doubled final consonant undoubled (banned -> ban).
func detach(word string, pos POS) []string {
	var out []string
	for _, r := range rules[pos] {
		if !strings.HasSuffix(word, r.suffix) || len(word) <= len(r.suffix) {
			continue
		}
		base := word[:len(word)-len(r.suffix)]
		out = append(out, base+r.repl)
		if r.repl == "" && (pos == Verb || pos == Adjective) && r.suffix != "s" && doubled(base) {
			out = append(out, base[:len(base)-1])
		}
	}
	return out
}

func doubled(s string) bool {
	n := len(s)
	return n >= 2 && s[n-1] == s[n-2] && !strings.ContainsRune("aeiou", rune(s[n-1]))
}
