package topic

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
)

// Alpha settings.
const (
	AlphaSymmetric = "symmetric"
	AlphaAuto      = "auto"
)

// LDA fits latent Dirichlet allocation by online variational Bayes.
//
// Training always runs Passes full sweeps over the corpus in chunks of
// ChunkSize documents. Per-document inference runs Iterations rounds; a
// positive GammaThreshold lets a document stop early once the mean change of
// its topic weights drops below it.
type LDA struct {
	K          int
	Passes     int
	Iterations int
	// Alpha is "symmetric" (1/K), "auto" (learned from 1/K) or a number.
	Alpha          string
	Eta            float64
	ChunkSize      int
	GammaThreshold float64
	MinProbability float64
	Seed           uint64
}

// NewLDA returns an LDA estimator with gensim's defaults.
func NewLDA(k int, seed uint64) LDA {
	return LDA{
		K:              k,
		Passes:         1,
		Iterations:     50,
		Alpha:          AlphaSymmetric,
		ChunkSize:      2000,
		MinProbability: 0.01,
		Seed:           seed,
	}
}

func (l LDA) prior() ([]float64, bool, error) {
	alpha := make([]float64, l.K)
	switch l.Alpha {
	case "", AlphaSymmetric, AlphaAuto:
		for k := range alpha {
			alpha[k] = 1 / float64(l.K)
		}
		return alpha, l.Alpha == AlphaAuto, nil
	}
	v, err := strconv.ParseFloat(l.Alpha, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false, fmt.Errorf("topic: lda alpha %q: %w", l.Alpha, ErrInvalidParameter)
	}
	for k := range alpha {
		alpha[k] = v
	}
	return alpha, false, nil
}

func (l LDA) validate() error {
	switch {
	case l.Passes <= 0:
		return fmt.Errorf("topic: lda passes %d: %w", l.Passes, ErrInvalidParameter)
	case l.Iterations <= 0:
		return fmt.Errorf("topic: lda iterations %d: %w", l.Iterations, ErrInvalidParameter)
	case l.ChunkSize <= 0:
		return fmt.Errorf("topic: lda chunk size %d: %w", l.ChunkSize, ErrInvalidParameter)
	case l.Eta < 0, l.GammaThreshold < 0, l.MinProbability < 0:
		return fmt.Errorf("topic: lda eta, gamma threshold and min probability must be non-negative: %w", ErrInvalidParameter)
	}
	return nil
}

// ldaState holds the variational parameters during fitting.
type ldaState struct {
	k, terms    int
	alpha       []float64
	eta         float64
	sstats      [][]float64 // K × terms sufficient statistics
	expElogbeta [][]float64
	rng         *rand.Rand
}

// Fit trains the model and infers a topic distribution for every document.
func (l LDA) Fit(x Matrix) (*Model, error) {
	if err := checkInput(x, l.K); err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	alpha, learnAlpha, err := l.prior()
	if err != nil {
		return nil, err
	}
	docs, terms := x.Dims()
	eta := l.Eta
	if eta == 0 {
		eta = 1 / float64(l.K)
	}

	s := &ldaState{
		k:     l.K,
		terms: terms,
		alpha: alpha,
		eta:   eta,
		rng:   newRand(l.Seed),
	}
	s.sstats = make([][]float64, l.K)
	for k := range s.sstats {
		s.sstats[k] = s.gammaDraws(terms)
	}
	s.updateExpElogbeta()

	numUpdates := 0
	for pass := range l.Passes {
		for start := 0; start < docs; start += l.ChunkSize {
			end := min(start+l.ChunkSize, docs)
			rho := math.Pow(1+float64(pass)+float64(numUpdates)/float64(l.ChunkSize), -0.5)

			gammas, sstats := s.estep(x, start, end, l.Iterations, l.GammaThreshold, true)
			if learnAlpha {
				s.updateAlpha(gammas, rho)
			}
			s.mstep(sstats, rho, float64(docs)/float64(end-start))
			numUpdates += end - start
		}
		slog.Debug("LDA pass", "pass", pass+1, "alpha", s.alpha)
	}

	model := &Model{
		Strategy:       StrategyLDA,
		K:              l.K,
		Seed:           l.Seed,
		Terms:          append([]string(nil), x.Terms()...),
		TopicTerm:      make([][]float64, l.K),
		DocTopic:       make([][]float64, docs),
		MinProbability: l.MinProbability,
	}
	for k := range model.TopicTerm {
		row := make([]float64, terms)
		for w := range row {
			row[w] = s.eta + s.sstats[k][w]
		}
		floats.Scale(1/floats.Sum(row), row)
		model.TopicTerm[k] = row
	}
	gammas, _ := s.estep(x, 0, docs, l.Iterations, l.GammaThreshold, false)
	for i, g := range gammas {
		floats.Scale(1/floats.Sum(g), g)
		model.DocTopic[i] = g
	}
	return model, nil
}

// estep infers per-document topic weights for rows [start, end). When
// collect is set it also returns the chunk's sufficient statistics.
func (s *ldaState) estep(x Matrix, start, end, iterations int, threshold float64, collect bool) ([][]float64, [][]float64) {
	var sstats [][]float64
	if collect {
		sstats = make([][]float64, s.k)
		for k := range sstats {
			sstats[k] = make([]float64, s.terms)
		}
	}
	gammas := make([][]float64, 0, end-start)
	expElogtheta := make([]float64, s.k)
	last := make([]float64, s.k)

	for i := start; i < end; i++ {
		ids, cts := x.Row(i)
		gamma := s.gammaDraws(s.k)
		expDirichlet(gamma, expElogtheta)
		phinorm := s.phinorm(ids, expElogtheta)

		for range iterations {
			copy(last, gamma)
			for k := 0; k < s.k; k++ {
				var dot float64
				beta := s.expElogbeta[k]
				for p, w := range ids {
					dot += cts[p] / phinorm[p] * beta[w]
				}
				gamma[k] = s.alpha[k] + expElogtheta[k]*dot
			}
			expDirichlet(gamma, expElogtheta)
			phinorm = s.phinorm(ids, expElogtheta)
			if threshold > 0 && meanAbsDiff(gamma, last) < threshold {
				break
			}
		}
		if collect {
			for k := 0; k < s.k; k++ {
				for p, w := range ids {
					sstats[k][w] += expElogtheta[k] * cts[p] / phinorm[p]
				}
			}
		}
		gammas = append(gammas, gamma)
	}

	if collect {
		for k := range sstats {
			floats.Mul(sstats[k], s.expElogbeta[k])
		}
	}
	return gammas, sstats
}

func (s *ldaState) phinorm(ids []int, expElogtheta []float64) []float64 {
	out := make([]float64, len(ids))
	for p, w := range ids {
		for k := 0; k < s.k; k++ {
			out[p] += expElogtheta[k] * s.expElogbeta[k][w]
		}
		out[p] += 1e-100
	}
	return out
}

// mstep blends the chunk statistics, scaled up to the corpus size, into the
// running statistics with weight rho.
func (s *ldaState) mstep(sstats [][]float64, rho, scale float64) {
	for k := range s.sstats {
		for w := range s.sstats[k] {
			s.sstats[k][w] = (1-rho)*s.sstats[k][w] + rho*scale*sstats[k][w]
		}
	}
	s.updateExpElogbeta()
}

func (s *ldaState) updateExpElogbeta() {
	if s.expElogbeta == nil {
		s.expElogbeta = make([][]float64, s.k)
	}
	lambda := make([]float64, s.terms)
	for k := range s.sstats {
		for w := range lambda {
			lambda[w] = s.eta + s.sstats[k][w]
		}
		if s.expElogbeta[k] == nil {
			s.expElogbeta[k] = make([]float64, s.terms)
		}
		expDirichlet(lambda, s.expElogbeta[k])
	}
}

// updateAlpha takes one Newton step on the Dirichlet prior toward the
// chunk's mean expected log topic proportions.
func (s *ldaState) updateAlpha(gammas [][]float64, rho float64) {
	n := float64(len(gammas))
	logphat := make([]float64, s.k)
	elog := make([]float64, s.k)
	for _, g := range gammas {
		dirichletExpectation(g, elog)
		floats.Add(logphat, elog)
	}
	floats.Scale(1/n, logphat)

	sumAlpha := floats.Sum(s.alpha)
	gradf := make([]float64, s.k)
	q := make([]float64, s.k)
	var sumGQ, sumInvQ float64
	for k, a := range s.alpha {
		gradf[k] = n * (mathext.Digamma(sumAlpha) - mathext.Digamma(a) + logphat[k])
		q[k] = -n * trigamma(a)
		sumGQ += gradf[k] / q[k]
		sumInvQ += 1 / q[k]
	}
	c := n * trigamma(sumAlpha)
	b := sumGQ / (1/c + sumInvQ)

	step := make([]float64, s.k)
	for k := range step {
		step[k] = -(gradf[k] - b) / q[k]
		if s.alpha[k]+rho*step[k] <= 0 {
			return
		}
	}
	floats.AddScaled(s.alpha, rho, step)
}

// gammaDraws returns n Gamma(100, 1/100) variates.
func (s *ldaState) gammaDraws(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = gammaVariate(s.rng, 100) / 100
	}
	return out
}

// gammaVariate samples Gamma(shape, 1) for shape >= 1 with the
// Marsaglia-Tsang method.
func gammaVariate(rng *rand.Rand, shape float64) float64 {
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		z := rng.NormFloat64()
		v := 1 + c*z
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u > 0 && math.Log(u) < 0.5*z*z+d-d*v+d*math.Log(v) {
			return d * v
		}
	}
}

// dirichletExpectation writes E[log θ] for θ ~ Dir(alpha) into dst.
func dirichletExpectation(alpha, dst []float64) {
	psiSum := mathext.Digamma(floats.Sum(alpha))
	for i, a := range alpha {
		dst[i] = mathext.Digamma(a) - psiSum
	}
}

// expDirichlet writes exp(E[log θ]) into dst.
func expDirichlet(alpha, dst []float64) {
	dirichletExpectation(alpha, dst)
	for i := range dst {
		dst[i] = math.Exp(dst[i])
	}
}

// trigamma is the first derivative of digamma, ζ(2, x).
func trigamma(x float64) float64 {
	return mathext.Zeta(2, x)
}

func meanAbsDiff(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}
