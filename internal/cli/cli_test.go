package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/report"
	"github.com/happyhackingspace/konu/internal/stopwords"
	"github.com/happyhackingspace/konu/internal/storage"
	"github.com/happyhackingspace/konu/topic"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	c := New("test")
	c.rootCmd.SetArgs(args)
	return c.Run()
}

func seedStore(t *testing.T, path string) {
	t.Helper()
	store, err := storage.Open(path)
	require.NoError(t, err)
	defer store.Close()

	docs := []corpus.Document{
		{ID: "m1", PubDate: "1987-06-28", TypeOfMaterial: "News",
			Text: "The couple celebrated their marriage at city hall with a wedding license and rings."},
		{ID: "m2", PubDate: "2004-05-17", TypeOfMaterial: "News",
			Text: "Marriage licenses were issued as couples lined up for weddings at city hall."},
		{ID: "s1", PubDate: "1993-01-29", TypeOfMaterial: "Op-Ed",
			Text: "Soldiers and sailors faced discharge from the military under the new service policy."},
		{ID: "s2", PubDate: "2010-12-18", TypeOfMaterial: "News",
			Text: "The military ended the discharge policy and soldiers may now serve openly in the service."},
		{ID: "o1", PubDate: "1999-03-01", TypeOfMaterial: "Obituary",
			Text: "He died on Tuesday."},
		{ID: "e1", PubDate: "1999-04-01", TypeOfMaterial: "News"},
	}
	require.NoError(t, store.SaveArticles(context.Background(), docs))
}

func TestEndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "konu.db")
	out := filepath.Join(t.TempDir(), "out")
	seedStore(t, db)

	require.NoError(t, run(t, "-s", "--db", db, "prepare", "--lemmatizer", "snowball"))

	store, err := storage.Open(db)
	require.NoError(t, err)
	prepared, err := store.Articles(context.Background(), storage.Query{Prepared: true})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	ids := []string{}
	for _, d := range prepared {
		ids = append(ids, d.ID)
		assert.NotEmpty(t, d.SentimentText)
	}
	assert.ElementsMatch(t, []string{"m1", "m2", "s1", "s2"}, ids)

	require.NoError(t, run(t, "-s", "--db", db, "model", "--topics", "2", "--seed", "7", "--min-df", "0", "--ngram-max", "1", "model.json"))
	require.NoError(t, run(t, "-s", "--db", db, "topics", "--json"))
	require.NoError(t, run(t, "-s", "topics", "model.json"))
	require.NoError(t, run(t, "-s", "--db", db, "report", "--out", out))

	for _, name := range []string{report.TopicsFile, report.SentimentFile, report.TopicTermsFile, report.ReportFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	require.NoError(t, run(t, "-s", "--db", db, "data", "stats"))
	require.NoError(t, run(t, "-s", "--db", db, "runs"))

	store, err = storage.Open(db)
	require.NoError(t, err)
	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)

	require.NoError(t, run(t, "-s", "--db", db, "runs", "rm", runs[0].ID))
	err = run(t, "-s", "--db", db, "report")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, run(t, "-s", "--db", db, "runs", "rm", runs[0].ID), storage.ErrNotFound)
}

func TestDataStatsEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "konu.db")
	require.NoError(t, run(t, "-s", "--db", db, "data", "stats"))
}

func TestTopicsMissingModelFile(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "konu.db")
	// Not a file, so it is looked up as a run id.
	err := run(t, "-s", "--db", db, "topics", "missing.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Contains(t, buf.String(), "No runs yet")

	buf.Reset()
	printRuns(&buf, []storage.Run{{
		ID: "0b6f1d2e-8f0c-4a8e-9a43-1b1e6c3f7d10", Strategy: "lda", K: 9, Seed: 42,
		VocabularySize: 1200, CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}})
	out := buf.String()
	assert.Contains(t, out, "0b6f1d2e-8f0c-4a8e-9a43-1b1e6c3f7d10")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Regexp(t, `lda\s+9\s+42\s+1200`, out)
}

func TestStopwordsCommand(t *testing.T) {
	set := stopwords.New()
	set.Add(stopwords.SourceDomain, "gay", "york")
	set.Add("config", "gay")

	var buf bytes.Buffer
	explainStopwords(&buf, set, []string{"Gay", "parade"})
	out := buf.String()
	assert.Regexp(t, `Gay\s+stop word \(domain, config\)`, out)
	assert.Regexp(t, `parade\s+kept`, out)

	buf.Reset()
	printStopwordSources(&buf, set)
	out = buf.String()
	assert.Contains(t, out, "2 stop words")
	assert.Regexp(t, `config\s+1`, out)
	assert.Regexp(t, `domain\s+2`, out)

	t.Chdir(t.TempDir())
	require.NoError(t, run(t, "-s", "stopwords", "the", "marriage"))
}

func TestReportWithoutRun(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "konu.db")
	err := run(t, "-s", "--db", db, "report")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestModelInvalidStrategy(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "konu.db")
	err := run(t, "-s", "--db", db, "model", "--strategy", "svd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.strategy")
}

func TestWithCleared(t *testing.T) {
	all := []corpus.Document{
		{ID: "a", ModelText: "old"},
		{ID: "b", ModelText: "stale", SentimentText: "stale"},
		{ID: "c"},
	}
	prepared := []corpus.Document{{ID: "a", ModelText: "new", SentimentText: "new"}}

	got := withCleared(all, prepared)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ModelText)
	assert.Equal(t, "b", got[1].ID)
	assert.Empty(t, got[1].ModelText)
	assert.Empty(t, got[1].SentimentText)
}

func TestPrintTopics(t *testing.T) {
	var buf bytes.Buffer
	printTopics(&buf, [][]topic.TermWeight{
		{{Term: "military", Weight: 1}, {Term: "ban", Weight: 0.5}},
		{{Term: "aid", Weight: 1}, {Term: "dr", Weight: 0.3}},
	}, []string{"Military"}, map[string]string{"aid": "AIDS", "dr": "doctor"})

	out := buf.String()
	assert.Contains(t, out, "Military")
	assert.Contains(t, out, "military, ban")
	assert.Contains(t, out, "topic 1")
	assert.Contains(t, out, "AIDS, doctor")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, []corpus.Document{
		{ID: "a", PubDate: "1987-06-28", Abstract: "one two", Text: "body", ModelText: "bodi"},
		{ID: "b", PubDate: "1989-01-01", Abstract: "one two three four"},
		{ID: "c", PubDate: "2004-05-17"},
	})
	out := buf.String()
	assert.Contains(t, out, "Articles: 3  scraped: 1  prepared: 1")
	assert.Contains(t, out, "abstract 2.0")
	assert.Regexp(t, `1980\s+2`, out)
	assert.Regexp(t, `2000\s+1`, out)

	buf.Reset()
	printStats(&buf, nil)
	assert.Equal(t, "Articles: 0  scraped: 0  prepared: 0\n", buf.String())
}

func TestWriteArticlesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeArticlesCSV(&buf, []corpus.Document{{
		ID: "a", PubDate: "1987-06-28", Headline: "March, and rally", WordCount: 812,
		Subjects: []string{"Homosexuality", "Parades"}, Text: "line one\nline two",
	}}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "March, and rally", records[1][2])
	assert.Equal(t, "812", records[1][6])
	assert.Equal(t, "Homosexuality; Parades", records[1][8])
	assert.Equal(t, "line one\nline two", records[1][12])
}
