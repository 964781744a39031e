// Package vectorizer turns a corpus into a TF-IDF document-term matrix,
// following scikit-learn's TfidfVectorizer defaults.
package vectorizer

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// SparseVector is one document row: the columns it uses, ascending, and
// the weight of each. Ascending order keeps every sum over a row in the
// same order from run to run.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

func fromCounts(dim int, counts map[int]float64) SparseVector {
	idx := slices.Sorted(maps.Keys(counts))
	vals := make([]float64, len(idx))
	for i, j := range idx {
		vals[i] = counts[j]
	}
	return SparseVector{Indices: idx, Values: vals, Dim: dim}
}

// Weight multiplies every entry by the weight of its column. Columns past
// the end of weights are left as they are.
func (sv SparseVector) Weight(weights []float64) {
	for i, j := range sv.Indices {
		if j < len(weights) {
			sv.Values[i] *= weights[j]
		}
	}
}

// Normalize scales the row to unit L2 norm. An all-zero row is unchanged.
func (sv SparseVector) Normalize() {
	if norm := sv.L2Norm(); norm > 0 {
		floats.Scale(1/norm, sv.Values)
	}
}

// L2Norm is the Euclidean length of the row.
func (sv SparseVector) L2Norm() float64 {
	return floats.Norm(sv.Values, 2)
}

// ToDense expands the row to Dim columns.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, j := range sv.Indices {
		if j < sv.Dim {
			dense[j] = sv.Values[i]
		}
	}
	return dense
}

// Nnz is the number of stored entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}
