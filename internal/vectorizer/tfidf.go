package vectorizer

import "math"

// Config holds the vectorization settings for one run.
type Config struct {
	StopWords  map[string]bool
	MinDF      float64
	MaxDF      float64
	NgramRange [2]int
}

// TfidfVectorizer weights raw term counts by smoothed IDF and L2
// normalizes each document row.
type TfidfVectorizer struct {
	CountVec *CountVectorizer `json:"count_vec"`
	IDF      []float64        `json:"idf"`
}

// NewTfidfVectorizer returns an unfitted vectorizer for cfg. Lowercasing
// is always on.
func NewTfidfVectorizer(cfg Config) *TfidfVectorizer {
	return &TfidfVectorizer{
		CountVec: NewCountVectorizer(cfg.NgramRange, false, cfg.MinDF, cfg.MaxDF, cfg.StopWords),
	}
}

// Fit learns the vocabulary and the smoothed IDF of every term,
// ln((1+n)/(1+df)) + 1 over n documents.
func (tv *TfidfVectorizer) Fit(corpus []string) error {
	if err := tv.CountVec.Fit(corpus); err != nil {
		return err
	}
	n := float64(len(corpus))
	tv.IDF = make([]float64, len(tv.CountVec.DocFreq))
	for term, df := range tv.CountVec.DocFreq {
		tv.IDF[term] = math.Log((1+n)/(1+float64(df))) + 1
	}
	return nil
}

// FitTransform fits the corpus and returns its document-term matrix, one
// row per document in input order.
func (tv *TfidfVectorizer) FitTransform(corpus []string) (*Matrix, error) {
	if err := tv.Fit(corpus); err != nil {
		return nil, err
	}
	m := &Matrix{Rows: make([]SparseVector, 0, len(corpus)), TermList: tv.CountVec.Terms}
	for _, doc := range corpus {
		m.Rows = append(m.Rows, tv.Transform(doc))
	}
	return m, nil
}

// Transform counts the terms of one document, weights them by IDF and
// normalizes the row.
func (tv *TfidfVectorizer) Transform(text string) SparseVector {
	sv := tv.CountVec.Transform(text)
	sv.Weight(tv.IDF)
	sv.Normalize()
	return sv
}

// VocabSize is the number of fitted terms.
func (tv *TfidfVectorizer) VocabSize() int {
	return tv.CountVec.VocabSize()
}
