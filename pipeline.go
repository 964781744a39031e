package konu

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/lemma"
	"github.com/happyhackingspace/konu/internal/sentiment"
	"github.com/happyhackingspace/konu/internal/textutil"
	"github.com/happyhackingspace/konu/internal/vectorizer"
	"github.com/happyhackingspace/konu/topic"
)

// Preparer fills the derived text fields of documents.
type Preparer struct {
	lemmas *lemma.Pipeline
}

// NewPreparer returns a Preparer using the given lemmatizer kind.
func NewPreparer(kind string) (*Preparer, error) {
	words, err := lemma.New(kind)
	if err != nil {
		return nil, fmt.Errorf("konu: %w", err)
	}
	return &Preparer{lemmas: lemma.NewPipeline(words)}, nil
}

// Prepare sets SentimentText to the cleaned body and ModelText to its
// lemmatized form. Documents whose ModelText ends up empty are dropped.
// The input slice is not modified.
func (p *Preparer) Prepare(docs []corpus.Document) ([]corpus.Document, error) {
	out := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		d.SentimentText = textutil.Clean(d.Text)
		lemmas, err := p.lemmas.Lemmatize(d.SentimentText)
		if err != nil {
			return nil, fmt.Errorf("konu: document %s: %w", d.ID, err)
		}
		d.ModelText = lemmas
		if strings.TrimSpace(d.ModelText) == "" {
			slog.Warn("Dropping document with empty text", "id", d.ID)
			continue
		}
		out = append(out, d)
	}
	slog.Debug("Prepared documents", "kept", len(out), "dropped", len(docs)-len(out))
	return out, nil
}

// Run vectorizes the documents' ModelText, fits the configured topic model,
// assigns each document its dominant topic and scores its SentimentText.
// Every stage must succeed for Run to return a result.
func Run(docs []corpus.Document, cfg Config) (*Result, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("konu: %w", ErrEmptyCorpus)
	}
	byID, err := corpus.Index(docs)
	if err != nil {
		return nil, fmt.Errorf("konu: %v: %w", err, ErrInvalidParameter)
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.ModelText) == "" {
			return nil, fmt.Errorf("konu: document %s has empty model text: %w", d.ID, ErrInvalidParameter)
		}
		texts[i] = d.ModelText
	}

	stop := make(map[string]bool, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = true
	}
	tv := vectorizer.NewTfidfVectorizer(vectorizer.Config{
		StopWords:  stop,
		MinDF:      cfg.MinDF,
		MaxDF:      cfg.MaxDF,
		NgramRange: cfg.NgramRange,
	})
	dtm, err := tv.FitTransform(texts)
	if errors.Is(err, vectorizer.ErrInvalidParameter) {
		return nil, fmt.Errorf("konu: vectorize: %w: %w", err, ErrInvalidParameter)
	}
	if err != nil {
		return nil, fmt.Errorf("konu: vectorize: %w", err)
	}
	slog.Debug("Vectorized corpus", "documents", len(docs), "vocabulary", tv.VocabSize(), "nnz", dtm.Nnz())

	est, err := topic.New(cfg.Strategy, cfg.nmf(), cfg.lda())
	if err != nil {
		return nil, fmt.Errorf("konu: %w", err)
	}
	model, err := est.Fit(dtm)
	if err != nil {
		return nil, fmt.Errorf("konu: fit %s: %w", cfg.Strategy, err)
	}
	slog.Debug("Fitted topic model", "strategy", model.Strategy, "topics", model.K, "seed", model.Seed)

	scorer := cfg.Scorer
	if scorer == nil {
		scorer = lexiconScorer{sentiment.NewAnalyzer()}
	}

	res := &Result{
		Model:          model,
		VocabularySize: tv.VocabSize(),
		Documents:      make([]DocumentResult, len(docs)),
		byID:           byID,
	}
	for i, d := range docs {
		res.Documents[i] = DocumentResult{
			ID:           d.ID,
			Topic:        model.DominantTopic(i),
			Weights:      model.DocumentWeights(i),
			Distribution: model.Distribution(i),
			Sentiment:    scorer.Score(d.SentimentText),
		}
	}
	return res, nil
}

func (c Config) nmf() topic.NMF {
	return topic.NMF{K: c.Topics, MaxIter: c.MaxIter, Tol: c.Tolerance, Seed: c.Seed}
}

func (c Config) lda() topic.LDA {
	return topic.LDA{
		K:              c.Topics,
		Passes:         c.Passes,
		Iterations:     c.Iterations,
		Alpha:          c.Alpha,
		ChunkSize:      c.ChunkSize,
		GammaThreshold: c.GammaThreshold,
		MinProbability: c.MinProbability,
		Seed:           c.Seed,
	}
}

// NewLexiconScorer returns the built-in lexicon scorer with the entries of
// each file merged over it, later files winning.
func NewLexiconScorer(files ...string) (Scorer, error) {
	a := sentiment.NewAnalyzer()
	for _, f := range files {
		if err := a.LoadLexicon(f); err != nil {
			return nil, fmt.Errorf("konu: %w", err)
		}
	}
	slog.Debug("Loaded sentiment lexicon", "files", len(files), "entries", a.Len())
	return lexiconScorer{a}, nil
}

// lexiconScorer adapts the built-in analyzer to Scorer.
type lexiconScorer struct {
	a *sentiment.Analyzer
}

func (s lexiconScorer) Score(text string) Sentiment {
	r := s.a.Score(text)
	return Sentiment{Polarity: r.Polarity, Subjectivity: r.Subjectivity}
}
