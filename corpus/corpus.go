// Package corpus defines the article records that flow through the pipeline.
package corpus

import (
	"fmt"
	"strconv"

	"github.com/happyhackingspace/konu/internal/textutil"
)

// IncludedMaterialTypes are the article types kept for modeling. Other types
// (obituaries, reviews, corrections, ...) are dropped at ingestion.
var IncludedMaterialTypes = []string{"News", "Letter", "Op-Ed", "Editorial", "Brief", "Archives"}

// Document is one article. ID is the join key every stage result carries.
type Document struct {
	ID             string   `json:"id"`
	Headline       string   `json:"headline"`
	Abstract       string   `json:"abstract"`
	LeadParagraph  string   `json:"lead_paragraph"`
	Snippet        string   `json:"snippet"`
	Section        string   `json:"section"`
	NewsDesk       string   `json:"news_desk"`
	TypeOfMaterial string   `json:"type_of_material"`
	WebURL         string   `json:"web_url"`
	PubDate        string   `json:"pub_date"`
	WordCount      int      `json:"word_count"`
	Subjects       []string `json:"subjects,omitempty"`
	Locations      []string `json:"locations,omitempty"`

	// Text is the raw scraped body. Normalization never modifies it.
	Text string `json:"text"`

	// SentimentText is the cleaned, unlemmatized text scored for sentiment.
	SentimentText string `json:"sentiment_text,omitempty"`
	// ModelText is the cleaned and lemmatized text used for topic modeling.
	ModelText string `json:"model_text,omitempty"`
}

// Year returns the publication year parsed from PubDate.
func (d Document) Year() (int, error) {
	if len(d.PubDate) < 4 {
		return 0, fmt.Errorf("corpus: document %s: pub date %q has no year", d.ID, d.PubDate)
	}
	y, err := strconv.Atoi(d.PubDate[:4])
	if err != nil {
		return 0, fmt.Errorf("corpus: document %s: pub date %q: %w", d.ID, d.PubDate, err)
	}
	return y, nil
}

// Decade returns the publication decade, e.g. 1980 for 1987.
func (d Document) Decade() (int, error) {
	y, err := d.Year()
	if err != nil {
		return 0, err
	}
	return y - y%10, nil
}

// AbstractWords returns the number of words in the abstract.
func (d Document) AbstractWords() int {
	return textutil.WordCount(d.Abstract)
}

// LeadWords returns the number of words in the lead paragraph.
func (d Document) LeadWords() int {
	return textutil.WordCount(d.LeadParagraph)
}

// Filter keeps documents with a non-empty body whose material type is in
// types. A nil types keeps every type.
func Filter(docs []Document, types []string) []Document {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	var out []Document
	for _, d := range docs {
		if textutil.WordCount(d.Text) == 0 {
			continue
		}
		if types != nil && !allowed[d.TypeOfMaterial] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Index maps document IDs to their position in docs.
func Index(docs []Document) (map[string]int, error) {
	idx := make(map[string]int, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("corpus: document at position %d has no id", i)
		}
		if _, dup := idx[d.ID]; dup {
			return nil, fmt.Errorf("corpus: duplicate document id %s", d.ID)
		}
		idx[d.ID] = i
	}
	return idx, nil
}
