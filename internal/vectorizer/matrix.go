package vectorizer

// Matrix is a sparse document-term matrix. Row i belongs to the i-th input
// document and column j to TermList[j].
type Matrix struct {
	Rows     []SparseVector
	TermList []string
}

// Dims returns the number of documents and terms.
func (m *Matrix) Dims() (docs, terms int) {
	return len(m.Rows), len(m.TermList)
}

// Row returns the non-zero column indices and values of row i.
func (m *Matrix) Row(i int) ([]int, []float64) {
	return m.Rows[i].Indices, m.Rows[i].Values
}

// Terms returns the vocabulary in column order.
func (m *Matrix) Terms() []string {
	return m.TermList
}

// Nnz returns the number of non-zero entries.
func (m *Matrix) Nnz() int {
	n := 0
	for _, r := range m.Rows {
		n += r.Nnz()
	}
	return n
}
