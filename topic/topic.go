// Package topic infers latent topics from a document-term matrix.
//
// Two strategies are provided: non-negative matrix factorization (NMF),
// which is deterministic for a given seed, and latent Dirichlet allocation
// (LDA) fitted by online variational Bayes. Both return a Model holding the
// topic-term and document-topic weights.
//
//	m, err := topic.NewNMF(9, 42).Fit(dtm)
//	for _, tw := range m.TopTerms(0, 10) {
//	    fmt.Println(tw.Term, tw.Weight)
//	}
package topic

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidParameter is returned for a non-positive topic count or an
	// out-of-range strategy setting.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDegenerateInput is returned when the matrix has fewer non-zero
	// entries than requested topics.
	ErrDegenerateInput = errors.New("degenerate input")
)

// Strategy names.
const (
	StrategyNMF = "nmf"
	StrategyLDA = "lda"
)

// Matrix is a sparse document-term matrix. Row returns ascending column
// indices and their weights.
type Matrix interface {
	Dims() (docs, terms int)
	Row(i int) ([]int, []float64)
	Terms() []string
}

// Estimator fits a topic model.
type Estimator interface {
	Fit(x Matrix) (*Model, error)
}

// TermWeight is a term and its weight within a topic.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopicWeight is a topic index and its weight within a document.
type TopicWeight struct {
	Topic  int     `json:"topic"`
	Weight float64 `json:"weight"`
}

// Model is a fitted topic model. It is not modified after fitting.
type Model struct {
	Strategy string   `json:"strategy"`
	K        int      `json:"k"`
	Seed     uint64   `json:"seed"`
	Terms    []string `json:"terms"`
	// TopicTerm has K rows of len(Terms) weights.
	TopicTerm [][]float64 `json:"topic_term"`
	// DocTopic has one row of K weights per document.
	DocTopic [][]float64 `json:"doc_topic"`
	// MinProbability hides small topics in Distribution.
	MinProbability float64 `json:"min_probability,omitempty"`
}

// NumDocuments returns the number of fitted documents.
func (m *Model) NumDocuments() int {
	return len(m.DocTopic)
}

// TopTerms returns the n highest weighted terms of topic, ordered by weight
// descending and then by column index.
func (m *Model) TopTerms(topic, n int) []TermWeight {
	if topic < 0 || topic >= len(m.TopicTerm) {
		return nil
	}
	row := m.TopicTerm[topic]
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] > row[idx[b]]
	})
	if n > len(idx) || n < 0 {
		n = len(idx)
	}
	out := make([]TermWeight, n)
	for i := 0; i < n; i++ {
		out[i] = TermWeight{Term: m.Terms[idx[i]], Weight: row[idx[i]]}
	}
	return out
}

// DocumentWeights returns the full topic weight vector of document i.
func (m *Model) DocumentWeights(i int) []float64 {
	return m.DocTopic[i]
}

// Distribution returns the non-zero topic weights of document i that reach
// MinProbability, in topic order.
func (m *Model) Distribution(i int) []TopicWeight {
	var out []TopicWeight
	for k, w := range m.DocTopic[i] {
		if w > 0 && w >= m.MinProbability {
			out = append(out, TopicWeight{Topic: k, Weight: w})
		}
	}
	return out
}

// DominantTopic returns the dominant topic of document i.
func (m *Model) DominantTopic(i int) int {
	return DominantTopic(m.DocTopic[i])
}

// DominantTopic returns the index of the largest weight. The lowest index
// wins ties; an empty vector yields -1.
func DominantTopic(weights []float64) int {
	best := -1
	for k, w := range weights {
		if best < 0 || w > weights[best] {
			best = k
		}
	}
	return best
}

// Validate checks the model shape.
func (m *Model) Validate() error {
	if m.K <= 0 {
		return fmt.Errorf("topic: model has %d topics: %w", m.K, ErrInvalidParameter)
	}
	if len(m.TopicTerm) != m.K {
		return fmt.Errorf("topic: model has %d topic rows, want %d", len(m.TopicTerm), m.K)
	}
	for k, row := range m.TopicTerm {
		if len(row) != len(m.Terms) {
			return fmt.Errorf("topic: topic %d has %d weights, want %d", k, len(row), len(m.Terms))
		}
	}
	for i, row := range m.DocTopic {
		if len(row) != m.K {
			return fmt.Errorf("topic: document %d has %d weights, want %d", i, len(row), m.K)
		}
	}
	return nil
}

// nonZero counts entries and sums weights.
func nonZero(x Matrix) (nnz int, sum float64) {
	docs, _ := x.Dims()
	for i := 0; i < docs; i++ {
		_, vals := x.Row(i)
		for _, v := range vals {
			if v != 0 {
				nnz++
				sum += v
			}
		}
	}
	return nnz, sum
}

func checkInput(x Matrix, k int) error {
	if k <= 0 {
		return fmt.Errorf("topic: %d topics: %w", k, ErrInvalidParameter)
	}
	if nnz, _ := nonZero(x); nnz < k {
		return fmt.Errorf("topic: %d non-zero entries for %d topics: %w", nnz, k, ErrDegenerateInput)
	}
	return nil
}
