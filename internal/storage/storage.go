// Package storage keeps the article corpus and modeling runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/happyhackingspace/konu"
	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/topic"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("storage: create directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveArticles upserts article metadata. A stored body is kept when the
// incoming document has none.
func (s *Store) SaveArticles(ctx context.Context, docs []corpus.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, headline, abstract, lead_paragraph, snippet, section, news_desk,
			type_of_material, web_url, pub_date, word_count, subjects, locations, text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			headline = excluded.headline,
			abstract = excluded.abstract,
			lead_paragraph = excluded.lead_paragraph,
			snippet = excluded.snippet,
			section = excluded.section,
			news_desk = excluded.news_desk,
			type_of_material = excluded.type_of_material,
			web_url = excluded.web_url,
			pub_date = excluded.pub_date,
			word_count = excluded.word_count,
			subjects = excluded.subjects,
			locations = excluded.locations,
			text = CASE WHEN excluded.text <> '' THEN excluded.text ELSE articles.text END,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("storage: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("storage: article without id (%s)", d.WebURL)
		}
		subjects, err := marshalList(d.Subjects)
		if err != nil {
			return err
		}
		locations, err := marshalList(d.Locations)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Headline, d.Abstract, d.LeadParagraph, d.Snippet,
			d.Section, d.NewsDesk, d.TypeOfMaterial, d.WebURL, d.PubDate, d.WordCount,
			subjects, locations, d.Text, now); err != nil {
			return fmt.Errorf("storage: save article %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// SetText stores the scraped body of an article.
func (s *Store) SetText(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET text = ?, updated_at = ? WHERE id = ?", text, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("storage: set text %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: article %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateDerived stores SentimentText and ModelText of every document.
func (s *Store) UpdateDerived(ctx context.Context, docs []corpus.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE articles SET sentiment_text = ?, model_text = ?, updated_at = ? WHERE id = ?",
			d.SentimentText, d.ModelText, now, d.ID); err != nil {
			return fmt.Errorf("storage: update article %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// Query selects articles.
type Query struct {
	// MissingText selects articles that have not been scraped yet.
	MissingText bool
	// Prepared selects articles with a non-empty ModelText.
	Prepared bool
}

// Articles returns the matching articles ordered by publication date and id.
func (s *Store) Articles(ctx context.Context, q Query) ([]corpus.Document, error) {
	query := `
		SELECT id, headline, abstract, lead_paragraph, snippet, section, news_desk, type_of_material,
			web_url, pub_date, word_count, subjects, locations, text, sentiment_text, model_text
		FROM articles WHERE 1 = 1`
	if q.MissingText {
		query += " AND text = ''"
	}
	if q.Prepared {
		query += " AND model_text <> ''"
	}
	query += " ORDER BY pub_date, id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: query articles: %w", err)
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		var d corpus.Document
		var subjects, locations string
		if err := rows.Scan(&d.ID, &d.Headline, &d.Abstract, &d.LeadParagraph, &d.Snippet,
			&d.Section, &d.NewsDesk, &d.TypeOfMaterial, &d.WebURL, &d.PubDate, &d.WordCount,
			&subjects, &locations, &d.Text, &d.SentimentText, &d.ModelText); err != nil {
			return nil, fmt.Errorf("storage: scan article: %w", err)
		}
		if err := json.Unmarshal([]byte(subjects), &d.Subjects); err != nil {
			return nil, fmt.Errorf("storage: article %s subjects: %w", d.ID, err)
		}
		if err := json.Unmarshal([]byte(locations), &d.Locations); err != nil {
			return nil, fmt.Errorf("storage: article %s locations: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate articles: %w", err)
	}
	return docs, nil
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count articles: %w", err)
	}
	return n, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("storage: encode list: %w", err)
	}
	return string(data), nil
}

// Run is a stored modeling run.
type Run struct {
	ID             string
	Strategy       string
	K              int
	Seed           uint64
	Config         json.RawMessage
	VocabularySize int
	CreatedAt      time.Time
	Model          *topic.Model
}

// SaveRun stores a run with its per-document results and the topN terms of
// every topic, and returns the new run id.
func (s *Store) SaveRun(ctx context.Context, res *konu.Result, cfg konu.Config, topN int) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("storage: encode config: %w", err)
	}
	modelJSON, err := topic.MarshalModel(res.Model)
	if err != nil {
		return "", fmt.Errorf("storage: encode model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, strategy, k, seed, config, model, vocabulary_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, res.Model.Strategy, res.Model.K, int64(res.Model.Seed), string(cfgJSON), string(modelJSON),
		res.VocabularySize, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("storage: save run: %w", err)
	}

	for _, d := range res.Documents {
		weights, err := json.Marshal(d.Weights)
		if err != nil {
			return "", fmt.Errorf("storage: encode weights: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (run_id, doc_id, topic, weights, polarity, subjectivity)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, d.ID, d.Topic, string(weights), d.Sentiment.Polarity, d.Sentiment.Subjectivity); err != nil {
			return "", fmt.Errorf("storage: save result %s: %w", d.ID, err)
		}
	}

	for k, terms := range res.TopTerms(topN) {
		for rank, tw := range terms {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO topic_terms (run_id, topic, rank, term, weight) VALUES (?, ?, ?, ?, ?)
			`, id, k, rank, tw.Term, tw.Weight); err != nil {
				return "", fmt.Errorf("storage: save topic term: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: commit run: %w", err)
	}
	return id, nil
}

// GetRun returns the run with the given id. An empty id selects the latest run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT id, strategy, k, seed, config, model, vocabulary_size, created_at FROM runs`
	var args []any
	if id == "" {
		query += " ORDER BY created_at DESC, rowid DESC LIMIT 1"
	} else {
		query += " WHERE id = ?"
		args = append(args, id)
	}

	var r Run
	var seed int64
	var cfgJSON, modelJSON string
	var createdAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&r.ID, &r.Strategy, &r.K, &seed,
		&cfgJSON, &modelJSON, &r.VocabularySize, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan run: %w", err)
	}
	r.Seed = uint64(seed)
	r.Config = json.RawMessage(cfgJSON)
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time
	}
	if r.Model, err = topic.UnmarshalModel([]byte(modelJSON)); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", r.ID, err)
	}
	return &r, nil
}

// Results returns the per-document results of a run, ordered by document id.
func (s *Store) Results(ctx context.Context, runID string) ([]konu.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, topic, weights, polarity, subjectivity
		FROM results WHERE run_id = ? ORDER BY doc_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: query results: %w", err)
	}
	defer rows.Close()

	var out []konu.DocumentResult
	for rows.Next() {
		var d konu.DocumentResult
		var weights string
		if err := rows.Scan(&d.ID, &d.Topic, &weights, &d.Sentiment.Polarity, &d.Sentiment.Subjectivity); err != nil {
			return nil, fmt.Errorf("storage: scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(weights), &d.Weights); err != nil {
			return nil, fmt.Errorf("storage: result %s weights: %w", d.ID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate results: %w", err)
	}
	return out, nil
}

// TopicTerms returns the stored top terms of every topic of a run.
func (s *Store) TopicTerms(ctx context.Context, runID string) ([][]topic.TermWeight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, term, weight FROM topic_terms WHERE run_id = ? ORDER BY topic, rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: query topic terms: %w", err)
	}
	defer rows.Close()

	var out [][]topic.TermWeight
	for rows.Next() {
		var k int
		var tw topic.TermWeight
		if err := rows.Scan(&k, &tw.Term, &tw.Weight); err != nil {
			return nil, fmt.Errorf("storage: scan topic term: %w", err)
		}
		for len(out) <= k {
			out = append(out, nil)
		}
		out[k] = append(out[k], tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate topic terms: %w", err)
	}
	return out, nil
}

// ListRuns returns every stored run, latest first. Models are not decoded,
// so Model is nil on the returned runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, k, seed, vocabulary_size, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var seed int64
		var createdAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Strategy, &r.K, &seed, &r.VocabularySize, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		r.Seed = uint64(seed)
		r.CreatedAt = createdAt.Time
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate runs: %w", err)
	}
	return out, nil
}

// DeleteRun removes a run and its results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: run %s: %w", id, ErrNotFound)
	}
	return nil
}
