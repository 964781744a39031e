package topic

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
)

// denseMatrix is a small Matrix for tests.
type denseMatrix struct {
	rows  [][]float64
	terms []string
}

func (d denseMatrix) Dims() (int, int) { return len(d.rows), len(d.terms) }

func (d denseMatrix) Row(i int) ([]int, []float64) {
	var idx []int
	var vals []float64
	for j, v := range d.rows[i] {
		if v != 0 {
			idx = append(idx, j)
			vals = append(vals, v)
		}
	}
	return idx, vals
}

func (d denseMatrix) Terms() []string { return d.terms }

// blocks has two groups of documents over disjoint vocabularies.
var blocks = denseMatrix{
	rows: [][]float64{
		{0.7, 0.5, 0.5, 0, 0, 0},
		{0.6, 0.6, 0.4, 0, 0, 0},
		{0.5, 0.4, 0.7, 0, 0, 0},
		{0, 0, 0, 0.6, 0.5, 0.6},
		{0, 0, 0, 0.5, 0.7, 0.4},
		{0, 0, 0, 0.4, 0.5, 0.7},
	},
	terms: []string{"marriage", "court", "wedding", "military", "soldier", "ban"},
}

func TestDominantTopic(t *testing.T) {
	tests := []struct {
		weights []float64
		want    int
	}{
		{[]float64{0.2, 0.8}, 1},
		{[]float64{0.5, 0.5}, 0},
		{[]float64{0.1, 0.9, 0.9}, 1},
		{[]float64{0, 0, 0}, 0},
		{nil, -1},
	}
	for _, tt := range tests {
		if got := DominantTopic(tt.weights); got != tt.want {
			t.Errorf("DominantTopic(%v) = %d, want %d", tt.weights, got, tt.want)
		}
	}
}

func TestTopTerms(t *testing.T) {
	m := &Model{
		K:         1,
		Terms:     []string{"a", "b", "c", "d"},
		TopicTerm: [][]float64{{0.1, 0.4, 0.4, 0.2}},
	}
	got := m.TopTerms(0, 3)
	want := []TermWeight{{"b", 0.4}, {"c", 0.4}, {"d", 0.2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopTerms = %v, want %v", got, want)
	}
	if got := m.TopTerms(0, 10); len(got) != 4 {
		t.Errorf("TopTerms(10) returned %d terms", len(got))
	}
	if got := m.TopTerms(5, 3); got != nil {
		t.Errorf("TopTerms out of range = %v", got)
	}
}

func TestDistribution(t *testing.T) {
	m := &Model{K: 3, DocTopic: [][]float64{{0.005, 0.695, 0.3}}, MinProbability: 0.01}
	got := m.Distribution(0)
	want := []TopicWeight{{1, 0.695}, {2, 0.3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Distribution = %v, want %v", got, want)
	}
}

func TestNMFDeterministic(t *testing.T) {
	a, err := NewNMF(2, 7).Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewNMF(2, 7).Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different models")
	}
}

func TestNMFShapesAndNonNegative(t *testing.T) {
	m, err := NewNMF(2, 1).Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if m.NumDocuments() != 6 || len(m.TopicTerm[0]) != 6 {
		t.Fatalf("unexpected shape: %d docs, %d terms", m.NumDocuments(), len(m.TopicTerm[0]))
	}
	for _, rows := range [][][]float64{m.TopicTerm, m.DocTopic} {
		for _, row := range rows {
			for _, v := range row {
				if v < 0 || math.IsNaN(v) {
					t.Fatalf("negative or NaN weight %v", v)
				}
			}
		}
	}
}

func TestNMFSeparatesBlocks(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		m, err := NewNMF(2, seed).Fit(blocks)
		if err != nil {
			t.Fatal(err)
		}
		first, second := m.DominantTopic(0), m.DominantTopic(3)
		if first == second {
			continue
		}
		ok := true
		for i := 0; i < 6; i++ {
			want := first
			if i >= 3 {
				want = second
			}
			if m.DominantTopic(i) != want {
				ok = false
			}
		}
		if ok {
			return
		}
	}
	t.Error("no seed separated the two document groups")
}

func TestFitErrors(t *testing.T) {
	tiny := denseMatrix{rows: [][]float64{{1, 0}, {0, 0}}, terms: []string{"a", "b"}}
	estimators := map[string]func(k int) Estimator{
		"nmf": func(k int) Estimator { return NewNMF(k, 0) },
		"lda": func(k int) Estimator { return NewLDA(k, 0) },
	}
	for name, newEst := range estimators {
		if _, err := newEst(0).Fit(blocks); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s K=0 err = %v, want ErrInvalidParameter", name, err)
		}
		if _, err := newEst(-2).Fit(blocks); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s K=-2 err = %v, want ErrInvalidParameter", name, err)
		}
		if _, err := newEst(2).Fit(tiny); !errors.Is(err, ErrDegenerateInput) {
			t.Errorf("%s nnz<K err = %v, want ErrDegenerateInput", name, err)
		}
	}

	lda := NewLDA(2, 0)
	lda.Alpha = "lots"
	if _, err := lda.Fit(blocks); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("bad alpha err = %v", err)
	}
	lda = NewLDA(2, 0)
	lda.Passes = 0
	if _, err := lda.Fit(blocks); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero passes err = %v", err)
	}
}

func TestLDADistributions(t *testing.T) {
	for _, alpha := range []string{AlphaSymmetric, AlphaAuto, "0.3"} {
		lda := NewLDA(2, 3)
		lda.Passes = 10
		lda.Alpha = alpha
		m, err := lda.Fit(blocks)
		if err != nil {
			t.Fatalf("alpha %s: %v", alpha, err)
		}
		for i, row := range m.DocTopic {
			if s := row[0] + row[1]; math.Abs(s-1) > 1e-9 {
				t.Errorf("alpha %s: doc %d sums to %v", alpha, i, s)
			}
			for _, tw := range m.Distribution(i) {
				if tw.Weight < m.MinProbability {
					t.Errorf("alpha %s: doc %d kept topic below threshold: %v", alpha, i, tw)
				}
			}
		}
		for k, row := range m.TopicTerm {
			var s float64
			for _, v := range row {
				s += v
			}
			if math.Abs(s-1) > 1e-9 {
				t.Errorf("alpha %s: topic %d sums to %v", alpha, k, s)
			}
		}
	}
}

func TestLDASeeded(t *testing.T) {
	lda := NewLDA(2, 11)
	lda.Passes = 3
	a, err := lda.Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	b, err := lda.Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.DocTopic, b.DocTopic) {
		t.Error("same seed produced different document distributions")
	}
	if a.Seed != 11 || a.Strategy != StrategyLDA {
		t.Errorf("model metadata = %s/%d", a.Strategy, a.Seed)
	}
}

func TestSaveLoadModel(t *testing.T) {
	m, err := NewNMF(2, 5).Fit(blocks)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveModel(m, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.TopTerms(0, 3), m.TopTerms(0, 3)) {
		t.Error("loaded model ranks terms differently")
	}

	if _, err := UnmarshalModel([]byte(`{"k":2,"terms":["a"],"topic_term":[[1]]}`)); err == nil {
		t.Error("expected validation error for short topic_term")
	}
}

func TestNewEstimator(t *testing.T) {
	if _, err := New("lsa", NMF{}, LDA{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("unknown strategy err = %v", err)
	}
	est, err := New(StrategyLDA, NMF{}, NewLDA(3, 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := est.(LDA); !ok {
		t.Errorf("New(lda) = %T", est)
	}
}

func TestSpecialFunctions(t *testing.T) {
	if got := trigamma(1); math.Abs(got-math.Pi*math.Pi/6) > 1e-9 {
		t.Errorf("trigamma(1) = %v", got)
	}
	rng := newRand(1)
	var sum float64
	const n = 20000
	for range n {
		sum += gammaVariate(rng, 100)
	}
	if mean := sum / n; math.Abs(mean-100) > 0.5 {
		t.Errorf("gamma mean = %v, want about 100", mean)
	}
}
