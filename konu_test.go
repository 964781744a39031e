package konu

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/topic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeDocs() []corpus.Document {
	texts := []string{
		"Same sex marriage is legal in many states",
		"The military banned gay soldiers for decades",
		"Religious groups opposed marriage equality",
	}
	docs := make([]corpus.Document, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		docs[i] = corpus.Document{
			ID:            string(rune('a' + i)),
			Text:          t,
			SentimentText: lower,
			ModelText:     lower,
		}
	}
	return docs
}

func threeDocConfig(seed uint64) Config {
	cfg := DefaultConfig()
	cfg.Topics = 2
	cfg.Seed = seed
	cfg.MinDF = 0
	cfg.MaxDF = 1
	cfg.NgramRange = [2]int{1, 1}
	cfg.StopWords = []string{"is", "in", "many", "the", "for"}
	return cfg
}

func TestRunThreeDocuments(t *testing.T) {
	docs := threeDocs()

	separated := false
	for seed := uint64(0); seed < 20; seed++ {
		res, err := Run(docs, threeDocConfig(seed))
		require.NoError(t, err)
		require.Len(t, res.Documents, 3)

		terms := res.Model.Terms
		for _, want := range []string{"marriage", "military", "religious"} {
			assert.Contains(t, terms, want)
		}
		for _, stop := range []string{"is", "in", "many", "the", "for"} {
			assert.NotContains(t, terms, stop)
		}

		a, _ := res.ByID("a")
		b, _ := res.ByID("b")
		c, _ := res.ByID("c")
		if a.Topic == c.Topic && a.Topic != b.Topic {
			separated = true
			break
		}
	}
	assert.True(t, separated, "no seed grouped the two marriage documents apart from the military one")
}

func TestRunDeterministic(t *testing.T) {
	docs := threeDocs()
	for _, strategy := range []string{topic.StrategyNMF, topic.StrategyLDA} {
		cfg := threeDocConfig(7)
		cfg.Strategy = strategy
		first, err := Run(docs, cfg)
		require.NoError(t, err, strategy)
		second, err := Run(docs, cfg)
		require.NoError(t, err, strategy)
		assert.Equal(t, first.Model.DocTopic, second.Model.DocTopic, strategy)
		assert.Equal(t, first.Model.TopicTerm, second.Model.TopicTerm, strategy)
	}
}

func TestRunJoinsByID(t *testing.T) {
	docs := threeDocs()
	docs[0].SentimentText = "a good and happy day"
	docs[1].SentimentText = "a cruel and violent attack"

	res, err := Run(docs, threeDocConfig(1))
	require.NoError(t, err)

	for i, d := range docs {
		got, ok := res.ByID(d.ID)
		require.True(t, ok)
		assert.Equal(t, res.Documents[i], got)
		assert.Len(t, got.Weights, 2)
		assert.Equal(t, topic.DominantTopic(got.Weights), got.Topic)
	}
	a, _ := res.ByID("a")
	b, _ := res.ByID("b")
	assert.Greater(t, a.Sentiment.Polarity, 0.0)
	assert.Less(t, b.Sentiment.Polarity, 0.0)

	_, ok := res.ByID("missing")
	assert.False(t, ok)
}

func TestByIDIndexBuiltByRun(t *testing.T) {
	res, err := Run(threeDocs(), threeDocConfig(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, res.byID)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, ok := decoded.ByID("b")
	require.True(t, ok)
	assert.Equal(t, res.Documents[1].ID, got.ID)
	assert.Nil(t, decoded.byID, "lookup must not build an index")
	_, ok = decoded.ByID("missing")
	assert.False(t, ok)
}

type fixedScorer float64

func (s fixedScorer) Score(string) Sentiment { return Sentiment{Polarity: float64(s)} }

func TestRunCustomScorer(t *testing.T) {
	cfg := threeDocConfig(1)
	cfg.Scorer = fixedScorer(0.25)
	res, err := Run(threeDocs(), cfg)
	require.NoError(t, err)
	for _, d := range res.Documents {
		assert.Equal(t, 0.25, d.Sentiment.Polarity)
	}
}

func TestRunErrors(t *testing.T) {
	_, err := Run(nil, DefaultConfig())
	assert.True(t, errors.Is(err, ErrEmptyCorpus))

	dup := threeDocs()
	dup[2].ID = dup[0].ID
	_, err = Run(dup, threeDocConfig(1))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	blank := threeDocs()
	blank[1].ModelText = "  "
	_, err = Run(blank, threeDocConfig(1))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	cfg := threeDocConfig(1)
	cfg.MinDF = 1.0
	_, err = Run(threeDocs(), cfg)
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	cfg = threeDocConfig(1)
	cfg.Topics = 0
	_, err = Run(threeDocs(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	cfg = threeDocConfig(1)
	cfg.Topics = 1000
	_, err = Run(threeDocs(), cfg)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	cfg = threeDocConfig(1)
	cfg.Strategy = "svd"
	_, err = Run(threeDocs(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestResultTopTerms(t *testing.T) {
	res, err := Run(threeDocs(), threeDocConfig(3))
	require.NoError(t, err)
	top := res.TopTerms(3)
	require.Len(t, top, 2)
	for _, terms := range top {
		assert.Len(t, terms, 3)
		assert.GreaterOrEqual(t, terms[0].Weight, terms[1].Weight)
	}
}

func TestPrepare(t *testing.T) {
	p, err := NewPreparer(LemmatizerSnowball)
	require.NoError(t, err)

	in := []corpus.Document{
		{ID: "1", Text: "Soldiers marched in 1987, demanding “equality”!"},
		{ID: "2", Text: "1987 2001"},
	}
	out, err := p.Prepare(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "soldiers marched in demanding equality", strings.Join(strings.Fields(out[0].SentimentText), " "))
	assert.NotEmpty(t, out[0].ModelText)
	assert.NotContains(t, out[0].ModelText, "1987")
	assert.Empty(t, in[0].SentimentText)

	_, err = NewPreparer("porter")
	assert.Error(t, err)
}

func TestDefaultStopWords(t *testing.T) {
	words, err := DefaultStopWords("parade")
	require.NoError(t, err)
	assert.Contains(t, words, "the")
	assert.Contains(t, words, "homosexual")
	assert.Contains(t, words, "parade")
}

func TestRunVectorizerParameterError(t *testing.T) {
	cfg := threeDocConfig(1)
	cfg.MinDF = 3
	cfg.MaxDF = 2
	_, err := Run(threeDocs(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNewLexiconScorer(t *testing.T) {
	s, err := NewLexiconScorer()
	require.NoError(t, err)
	assert.Equal(t, Sentiment{}, s.Score("the parade route"))

	path := filepath.Join(t.TempDir(), "extra.tsv")
	require.NoError(t, os.WriteFile(path, []byte("parade\t0.5\t0.5\t1\n"), 0644))
	s, err = NewLexiconScorer(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Score("the parade route").Polarity, 1e-9)

	_, err = NewLexiconScorer(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)
}
