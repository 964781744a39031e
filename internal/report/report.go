// Package report aggregates a topic run over time: topic counts per year and
// decade, mean sentiment per period and topic, and the top terms of every
// topic for word clouds.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/happyhackingspace/konu"
	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/topic"
)

var (
	// ErrOutOfRange is returned by FindBin for years outside every bin.
	ErrOutOfRange = errors.New("year out of range")
	// ErrInvalidOptions is returned for unusable report options.
	ErrInvalidOptions = errors.New("invalid report options")
	// ErrMissingDocument is returned when a result has no matching article.
	ErrMissingDocument = errors.New("result has no document")
)

// FindBin returns the lower edge of the width-year bin holding year. Bins
// start at low and the last one starts at high, so valid years are
// [low, high+width).
func FindBin(year, low, high, width int) (int, error) {
	if width <= 0 || high < low {
		return 0, fmt.Errorf("report: bins %d..%d by %d: %w", low, high, width, ErrInvalidOptions)
	}
	if year < low || year >= high+width {
		return 0, fmt.Errorf("report: year %d outside %d..%d: %w", year, low, high+width-1, ErrOutOfRange)
	}
	return low + (year-low)/width*width, nil
}

// Options configures Build.
type Options struct {
	MinYear  int
	BinLow   int
	BinHigh  int
	BinWidth int
	// TopTerms caps the terms kept per topic. Zero keeps all.
	TopTerms   int
	TopicNames []string
	Relabels   map[string]string
}

// Row is one article joined with its topic and sentiment.
type Row struct {
	ID           string  `json:"id" jsonschema:"required"`
	Year         int     `json:"year" jsonschema:"required"`
	YearBin      int     `json:"year_bin" jsonschema:"description=Lower edge of the year bin; 0 when the year is outside every bin"`
	Decade       int     `json:"decade" jsonschema:"required"`
	Topic        int     `json:"topic" jsonschema:"required,minimum=0"`
	TopicName    string  `json:"topic_name"`
	Polarity     float64 `json:"polarity" jsonschema:"minimum=-1,maximum=1"`
	Subjectivity float64 `json:"subjectivity" jsonschema:"minimum=0,maximum=1"`
}

// Crosstab counts articles per period (rows) and topic (columns).
type Crosstab struct {
	Periods []int   `json:"periods"`
	Counts  [][]int `json:"counts"`
}

// Count returns the number of articles for period and topic.
func (c Crosstab) Count(period, topic int) int {
	i, ok := slices.BinarySearch(c.Periods, period)
	if !ok || topic < 0 || topic >= len(c.Counts[i]) {
		return 0
	}
	return c.Counts[i][topic]
}

// Mean is an average polarity over the articles sharing Key.
type Mean struct {
	Key   int     `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Term is a display term of a topic.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopicTerms lists the top terms of one topic.
type TopicTerms struct {
	Topic int    `json:"topic"`
	Name  string `json:"name"`
	Terms []Term `json:"terms"`
}

// Report is the aggregated view of a run.
type Report struct {
	RunID   string `json:"run_id,omitempty"`
	Topics  int    `json:"topics" jsonschema:"required,minimum=1"`
	MinYear int    `json:"min_year"`

	// Rows holds every joined article, ordered by year then id.
	Rows []Row `json:"rows"`

	ByDecade Crosstab `json:"by_decade"`
	ByYear   Crosstab `json:"by_year"`

	PolarityByYear    []Mean `json:"polarity_by_year"`
	PolarityByYearBin []Mean `json:"polarity_by_year_bin"`
	PolarityByDecade  []Mean `json:"polarity_by_decade"`
	PolarityByTopic   []Mean `json:"polarity_by_topic"`

	TopicTerms []TopicTerms `json:"topic_terms"`
}

// Build joins docs with results by ID and aggregates them. terms holds the
// top terms of each topic, as returned by the fitted model.
func Build(docs []corpus.Document, results []konu.DocumentResult, terms [][]topic.TermWeight, opts Options) (*Report, error) {
	if opts.BinWidth <= 0 || opts.BinHigh < opts.BinLow {
		return nil, fmt.Errorf("report: bins %d..%d by %d: %w", opts.BinLow, opts.BinHigh, opts.BinWidth, ErrInvalidOptions)
	}

	byID := make(map[string]corpus.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	k := len(terms)
	for _, r := range results {
		k = max(k, r.Topic+1)
	}
	if k == 0 {
		return nil, fmt.Errorf("report: no topics: %w", ErrInvalidOptions)
	}

	rep := &Report{Topics: k, MinYear: opts.MinYear}
	for _, r := range results {
		d, ok := byID[r.ID]
		if !ok {
			return nil, fmt.Errorf("report: %s: %w", r.ID, ErrMissingDocument)
		}
		year, err := d.Year()
		if err != nil {
			slog.Warn("Skipping article without a year", "id", d.ID, "error", err)
			continue
		}
		bin, err := FindBin(year, opts.BinLow, opts.BinHigh, opts.BinWidth)
		if err != nil {
			slog.Debug("Article outside year bins", "id", d.ID, "year", year)
		}
		rep.Rows = append(rep.Rows, Row{
			ID:           r.ID,
			Year:         year,
			YearBin:      bin,
			Decade:       year - year%10,
			Topic:        r.Topic,
			TopicName:    TopicName(opts.TopicNames, r.Topic),
			Polarity:     r.Sentiment.Polarity,
			Subjectivity: r.Sentiment.Subjectivity,
		})
	}
	slices.SortFunc(rep.Rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), strings.Compare(a.ID, b.ID))
	})

	rep.ByDecade = crosstab(rep.Rows, k, func(r Row) int { return r.Decade })
	rep.ByYear = crosstab(rep.Rows, k, func(r Row) int { return r.Year })

	rep.PolarityByYear = means(rep.Rows, func(r Row) (int, bool) { return r.Year, true })
	rep.PolarityByYearBin = means(rep.Rows, func(r Row) (int, bool) { return r.YearBin, r.YearBin != 0 })
	rep.PolarityByDecade = means(rep.Rows, func(r Row) (int, bool) { return r.Decade, true })
	rep.PolarityByTopic = means(rep.Rows, func(r Row) (int, bool) { return r.Topic, true })

	for t, tw := range terms {
		n := len(tw)
		if opts.TopTerms > 0 {
			n = min(n, opts.TopTerms)
		}
		tt := TopicTerms{Topic: t, Name: TopicName(opts.TopicNames, t), Terms: make([]Term, 0, n)}
		for _, w := range tw[:n] {
			tt.Terms = append(tt.Terms, Term{Term: Relabel(w.Term, opts.Relabels), Weight: w.Weight})
		}
		rep.TopicTerms = append(rep.TopicTerms, tt)
	}
	return rep, nil
}

// TopicRows returns the rows published after MinYear.
func (r *Report) TopicRows() []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Year > r.MinYear {
			out = append(out, row)
		}
	}
	return out
}

// Relabel returns the display form of term.
func Relabel(term string, relabels map[string]string) string {
	if to, ok := relabels[term]; ok {
		return to
	}
	return term
}

// TopicName returns the configured name of topic t or a numbered default.
func TopicName(names []string, t int) string {
	if t >= 0 && t < len(names) && names[t] != "" {
		return names[t]
	}
	return fmt.Sprintf("topic %d", t)
}

func crosstab(rows []Row, k int, period func(Row) int) Crosstab {
	counts := map[int][]int{}
	for _, r := range rows {
		p := period(r)
		if counts[p] == nil {
			counts[p] = make([]int, k)
		}
		counts[p][r.Topic]++
	}
	ct := Crosstab{Periods: slices.Sorted(maps.Keys(counts))}
	for _, p := range ct.Periods {
		ct.Counts = append(ct.Counts, counts[p])
	}
	return ct
}

func means(rows []Row, key func(Row) (int, bool)) []Mean {
	groups := map[int][]float64{}
	for _, r := range rows {
		if k, ok := key(r); ok {
			groups[k] = append(groups[k], r.Polarity)
		}
	}
	out := make([]Mean, 0, len(groups))
	for _, k := range slices.Sorted(maps.Keys(groups)) {
		out = append(out, Mean{Key: k, Mean: stat.Mean(groups[k], nil), Count: len(groups[k])})
	}
	return out
}
