// Package konu infers topics and sentiment from a corpus of news articles.
//
// It is a batch pipeline: article text is cleaned and lemmatized, turned
// into a TF-IDF document-term matrix, factorized into topics (NMF or LDA),
// and every article is assigned its dominant topic and a sentiment score.
// All per-article results are keyed by the article ID.
//
//	p, _ := konu.NewPreparer(konu.LemmatizerDictionary)
//	docs, _ = p.Prepare(docs)
//	res, _ := konu.Run(docs, konu.DefaultConfig())
//	for _, d := range res.Documents {
//	    fmt.Println(d.ID, d.Topic, d.Sentiment.Polarity)
//	}
package konu

import (
	"github.com/happyhackingspace/konu/internal/lemma"
	"github.com/happyhackingspace/konu/internal/stopwords"
	"github.com/happyhackingspace/konu/internal/vectorizer"
	"github.com/happyhackingspace/konu/topic"
)

// Errors returned by Run. Test with errors.Is.
var (
	ErrEmptyCorpus      = vectorizer.ErrEmptyCorpus
	ErrEmptyVocabulary  = vectorizer.ErrEmptyVocabulary
	ErrDegenerateInput  = topic.ErrDegenerateInput
	ErrInvalidParameter = topic.ErrInvalidParameter
)

// Lemmatizer kinds accepted by NewPreparer.
const (
	LemmatizerDictionary = lemma.KindDictionary
	LemmatizerSnowball   = lemma.KindSnowball
)

// Config holds the settings of one modeling run.
type Config struct {
	Strategy string `json:"strategy" toml:"strategy"`
	Topics   int    `json:"topics" toml:"topics"`
	Seed     uint64 `json:"seed" toml:"seed"`

	// StopWords are excluded from the vocabulary.
	StopWords  []string `json:"-" toml:"-"`
	MinDF      float64  `json:"min_df" toml:"min_df"`
	MaxDF      float64  `json:"max_df" toml:"max_df"`
	NgramRange [2]int   `json:"ngram_range" toml:"ngram_range"`

	// NMF
	MaxIter   int     `json:"max_iter" toml:"max_iter"`
	Tolerance float64 `json:"tolerance" toml:"tolerance"`

	// LDA
	Passes         int     `json:"passes" toml:"passes"`
	Iterations     int     `json:"iterations" toml:"iterations"`
	Alpha          string  `json:"alpha" toml:"alpha"`
	ChunkSize      int     `json:"chunk_size" toml:"chunk_size"`
	GammaThreshold float64 `json:"gamma_threshold" toml:"gamma_threshold"`
	MinProbability float64 `json:"min_probability" toml:"min_probability"`

	// Scorer overrides the built-in lexicon sentiment analyzer.
	Scorer Scorer `json:"-" toml:"-"`
}

// DefaultConfig returns the settings that produced the most readable topics
// on the article corpus: nine NMF topics over unigrams and bigrams found in
// 1% to 90% of articles.
func DefaultConfig() Config {
	nmf := topic.NewNMF(9, 0)
	lda := topic.NewLDA(9, 0)
	return Config{
		Strategy:       topic.StrategyNMF,
		Topics:         9,
		MinDF:          0.01,
		MaxDF:          0.9,
		NgramRange:     [2]int{1, 2},
		MaxIter:        nmf.MaxIter,
		Tolerance:      nmf.Tol,
		Passes:         lda.Passes,
		Iterations:     lda.Iterations,
		Alpha:          lda.Alpha,
		ChunkSize:      lda.ChunkSize,
		MinProbability: lda.MinProbability,
	}
}

// DefaultStopWords returns the built-in stop words plus extra.
func DefaultStopWords(extra ...string) ([]string, error) {
	s, err := stopwords.Default(extra...)
	if err != nil {
		return nil, err
	}
	return s.Words(), nil
}

// Sentiment is a polarity in [-1, 1] and a subjectivity in [0, 1].
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// Scorer scores the sentiment of cleaned text.
type Scorer interface {
	Score(text string) Sentiment
}

// DocumentResult holds every stage's output for one document.
type DocumentResult struct {
	ID           string              `json:"id"`
	Topic        int                 `json:"topic"`
	Weights      []float64           `json:"weights"`
	Distribution []topic.TopicWeight `json:"distribution,omitempty"`
	Sentiment    Sentiment           `json:"sentiment"`
}

// Result is the output of Run.
type Result struct {
	Model          *topic.Model     `json:"model"`
	VocabularySize int              `json:"vocabulary_size"`
	Documents      []DocumentResult `json:"documents"`

	byID map[string]int
}

// ByID returns the result for the document with the given ID. Results
// built by Run are indexed; a decoded Result is searched in order.
func (r *Result) ByID(id string) (DocumentResult, bool) {
	if r.byID != nil {
		i, ok := r.byID[id]
		if !ok {
			return DocumentResult{}, false
		}
		return r.Documents[i], true
	}
	for _, d := range r.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentResult{}, false
}

// TopTerms returns the n highest weighted terms of every topic.
func (r *Result) TopTerms(n int) [][]topic.TermWeight {
	out := make([][]topic.TermWeight, r.Model.K)
	for k := range out {
		out[k] = r.Model.TopTerms(k, n)
	}
	return out
}
