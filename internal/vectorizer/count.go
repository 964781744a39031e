package vectorizer

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/happyhackingspace/konu/internal/textutil"
)

// CountVectorizer counts lowercased word n-grams per document over a
// vocabulary fitted on a corpus.
//
// MinDF and MaxDF bound a term's document frequency. A value up to 1 is a
// proportion of the corpus; a larger value is an absolute document count and
// must be a whole number. A zero MaxDF means no upper bound.
type CountVectorizer struct {
	Vocabulary map[string]int  `json:"vocabulary"`
	Terms      []string        `json:"terms"`
	DocFreq    []int           `json:"doc_freq"`
	NgramRange [2]int          `json:"ngram_range"`
	Binary     bool            `json:"binary"`
	MinDF      float64         `json:"min_df"`
	MaxDF      float64         `json:"max_df"`
	StopWords  map[string]bool `json:"stop_words,omitempty"`
}

// NewCountVectorizer returns an unfitted vectorizer. A zero ngramRange means
// unigrams and a zero maxDF means every document.
func NewCountVectorizer(ngramRange [2]int, binary bool, minDF, maxDF float64, stopWords map[string]bool) *CountVectorizer {
	if ngramRange == [2]int{} {
		ngramRange = [2]int{1, 1}
	}
	if maxDF == 0 {
		maxDF = 1
	}
	return &CountVectorizer{
		NgramRange: ngramRange,
		Binary:     binary,
		MinDF:      minDF,
		MaxDF:      maxDF,
		StopWords:  stopWords,
	}
}

// analyze lowercases text, drops stop-word tokens and forms n-grams.
func (cv *CountVectorizer) analyze(text string) []string {
	tokens := textutil.Words(strings.ToLower(text))
	if len(cv.StopWords) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if !cv.StopWords[tok] {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	return textutil.Ngrams(tokens, cv.NgramRange[0], cv.NgramRange[1])
}

func (cv *CountVectorizer) validate() error {
	if cv.NgramRange[0] < 1 || cv.NgramRange[1] < cv.NgramRange[0] {
		return fmt.Errorf("vectorizer: ngram range %v: %w", cv.NgramRange, ErrInvalidParameter)
	}
	for name, v := range map[string]float64{"min_df": cv.MinDF, "max_df": cv.MaxDF} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("vectorizer: %s %v is negative: %w", name, v, ErrInvalidParameter)
		}
		if v > 1 && v != math.Trunc(v) {
			return fmt.Errorf("vectorizer: %s %v is neither a proportion nor a count: %w", name, v, ErrInvalidParameter)
		}
	}
	return nil
}

// docCount resolves a proportion or absolute bound against the corpus size.
func docCount(v float64, nDocs int) float64 {
	if v <= 1 {
		return v * float64(nDocs)
	}
	return v
}

// documentFrequencies counts, for every n-gram, the number of documents
// containing it at least once.
func (cv *CountVectorizer) documentFrequencies(corpus []string) map[string]int {
	df := make(map[string]int)
	for _, doc := range corpus {
		grams := cv.analyze(doc)
		slices.Sort(grams)
		for _, g := range slices.Compact(grams) {
			df[g]++
		}
	}
	return df
}

// Fit learns the vocabulary: every n-gram whose document frequency falls in
// [MinDF, MaxDF] and is not itself a stop word, sorted lexicographically so
// that column indices do not depend on corpus order.
func (cv *CountVectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}
	if err := cv.validate(); err != nil {
		return err
	}
	lo, hi := docCount(cv.MinDF, len(corpus)), docCount(cv.MaxDF, len(corpus))
	if lo > hi {
		return fmt.Errorf("vectorizer: max_df %v covers fewer documents than min_df %v: %w", cv.MaxDF, cv.MinDF, ErrInvalidParameter)
	}

	df := cv.documentFrequencies(corpus)
	var kept []string
	for term, n := range df {
		if f := float64(n); f >= lo && f <= hi && !cv.StopWords[term] {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return ErrEmptyVocabulary
	}
	slices.Sort(kept)

	cv.Terms = kept
	cv.Vocabulary = make(map[string]int, len(kept))
	cv.DocFreq = make([]int, len(kept))
	for col, term := range kept {
		cv.Vocabulary[term] = col
		cv.DocFreq[col] = df[term]
	}
	return nil
}

// FitTransform fits the corpus and returns one count row per document.
func (cv *CountVectorizer) FitTransform(corpus []string) ([]SparseVector, error) {
	if err := cv.Fit(corpus); err != nil {
		return nil, err
	}
	rows := make([]SparseVector, 0, len(corpus))
	for _, doc := range corpus {
		rows = append(rows, cv.Transform(doc))
	}
	return rows, nil
}

// Transform counts the in-vocabulary n-grams of text. With Binary set a
// term counts once however often it occurs. Unknown n-grams are ignored.
func (cv *CountVectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, g := range cv.analyze(text) {
		col, ok := cv.Vocabulary[g]
		switch {
		case !ok:
		case cv.Binary:
			counts[col] = 1
		default:
			counts[col]++
		}
	}
	return fromCounts(len(cv.Vocabulary), counts)
}

// VocabSize is the number of fitted terms.
func (cv *CountVectorizer) VocabSize() int {
	return len(cv.Vocabulary)
}
