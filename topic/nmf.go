package topic

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// NMF factorizes X ≈ W·H with W, H ≥ 0 by coordinate descent on the
// Frobenius objective.
type NMF struct {
	K       int
	MaxIter int
	// Tol stops fitting once the projected gradient falls to Tol times its
	// first-iteration value. Zero runs MaxIter iterations.
	Tol  float64
	Seed uint64
}

// NewNMF returns an NMF estimator with scikit-learn's default iteration
// budget and tolerance.
func NewNMF(k int, seed uint64) NMF {
	return NMF{K: k, MaxIter: 200, Tol: 1e-4, Seed: seed}
}

// Fit factorizes x. Identical input, K and Seed give bit-identical output.
func (n NMF) Fit(x Matrix) (*Model, error) {
	if err := checkInput(x, n.K); err != nil {
		return nil, err
	}
	if n.MaxIter <= 0 {
		return nil, fmt.Errorf("topic: nmf max iterations %d: %w", n.MaxIter, ErrInvalidParameter)
	}
	if n.Tol < 0 || math.IsNaN(n.Tol) {
		return nil, fmt.Errorf("topic: nmf tolerance %v: %w", n.Tol, ErrInvalidParameter)
	}

	docs, terms := x.Dims()
	k := n.K
	rng := newRand(n.Seed)

	// Random init scaled so W·H has the mean of X.
	_, sum := nonZero(x)
	avg := math.Sqrt(sum / float64(docs*terms) / float64(k))
	ht := mat.NewDense(terms, k, nil) // H transposed, one row per term
	w := mat.NewDense(docs, k, nil)
	for _, d := range []*mat.Dense{ht, w} {
		raw := d.RawMatrix().Data
		for i := range raw {
			raw[i] = avg * math.Abs(rng.NormFloat64())
		}
	}

	var violationInit float64
	for iter := range n.MaxIter {
		violation := cdUpdate(w, gram(ht), productXH(x, ht, docs, k))
		violation += cdUpdate(ht, gram(w), productXtW(x, w, terms, k))

		if iter == 0 {
			violationInit = violation
		}
		if violationInit == 0 {
			break
		}
		ratio := violation / violationInit
		slog.Debug("NMF iteration", "iteration", iter+1, "violation", ratio)
		if ratio <= n.Tol {
			break
		}
	}

	model := &Model{
		Strategy:  StrategyNMF,
		K:         k,
		Seed:      n.Seed,
		Terms:     append([]string(nil), x.Terms()...),
		TopicTerm: make([][]float64, k),
		DocTopic:  make([][]float64, docs),
	}
	for t := 0; t < k; t++ {
		model.TopicTerm[t] = mat.Col(nil, t, ht)
	}
	for i := 0; i < docs; i++ {
		model.DocTopic[i] = mat.Row(nil, i, w)
	}
	return model, nil
}

// gram returns AᵀA.
func gram(a *mat.Dense) *mat.Dense {
	var g mat.Dense
	g.Mul(a.T(), a)
	return &g
}

// productXH returns X·Hᵀ given Hᵀ (terms × k).
func productXH(x Matrix, ht *mat.Dense, docs, k int) *mat.Dense {
	out := mat.NewDense(docs, k, nil)
	for i := 0; i < docs; i++ {
		dst := out.RawRowView(i)
		idx, vals := x.Row(i)
		for p, j := range idx {
			hj := ht.RawRowView(j)
			for t := 0; t < k; t++ {
				dst[t] += vals[p] * hj[t]
			}
		}
	}
	return out
}

// productXtW returns Xᵀ·W.
func productXtW(x Matrix, w *mat.Dense, terms, k int) *mat.Dense {
	out := mat.NewDense(terms, k, nil)
	docs, _ := x.Dims()
	for i := 0; i < docs; i++ {
		wi := w.RawRowView(i)
		idx, vals := x.Row(i)
		for p, j := range idx {
			dst := out.RawRowView(j)
			for t := 0; t < k; t++ {
				dst[t] += vals[p] * wi[t]
			}
		}
	}
	return out
}

// cdUpdate runs one coordinate descent sweep over the columns of a, where the
// gradient of row i is a_i·hess − xh_i. It returns the projected gradient norm.
func cdUpdate(a, hess, xh *mat.Dense) float64 {
	rows, k := a.Dims()
	var violation float64
	for t := 0; t < k; t++ {
		ht := hess.At(t, t)
		for i := 0; i < rows; i++ {
			ai := a.RawRowView(i)
			grad := -xh.At(i, t)
			for r := 0; r < k; r++ {
				grad += ai[r] * hess.At(r, t)
			}
			pg := grad
			if ai[t] == 0 {
				pg = math.Min(0, grad)
			}
			violation += math.Abs(pg)
			if ht != 0 {
				ai[t] = math.Max(ai[t]-grad/ht, 0)
			}
		}
	}
	return violation
}

// newRand returns a PCG generator fully determined by seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
