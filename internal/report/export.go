package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/invopop/jsonschema"
)

// Output file names written by WriteFiles.
const (
	TopicsFile     = "tableau_topics.csv"
	SentimentFile  = "sentiment.csv"
	TopicTermsFile = "topic_terms.json"
	ReportFile     = "report.json"
)

// WriteTopicsCSV writes the topic of every article published after MinYear.
func (r *Report) WriteTopicsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "year", "year_bin", "decade", "topic", "topic_name"})
	for _, row := range r.TopicRows() {
		_ = cw.Write([]string{
			row.ID,
			strconv.Itoa(row.Year),
			binField(row.YearBin),
			strconv.Itoa(row.Decade),
			strconv.Itoa(row.Topic),
			row.TopicName,
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteSentimentCSV writes the sentiment of every article.
func (r *Report) WriteSentimentCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "year", "year_bin", "decade", "topic", "polarity", "subjectivity"})
	for _, row := range r.Rows {
		_ = cw.Write([]string{
			row.ID,
			strconv.Itoa(row.Year),
			binField(row.YearBin),
			strconv.Itoa(row.Decade),
			strconv.Itoa(row.Topic),
			strconv.FormatFloat(row.Polarity, 'f', -1, 64),
			strconv.FormatFloat(row.Subjectivity, 'f', -1, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}

func binField(bin int) string {
	if bin == 0 {
		return ""
	}
	return strconv.Itoa(bin)
}

// WriteTopicTermsJSON writes the display terms of every topic, the input of
// a word cloud renderer.
func (r *Report) WriteTopicTermsJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.TopicTerms)
}

// WriteJSON writes the whole report.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFiles writes every export into dir and returns the written paths.
func (r *Report) WriteFiles(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TopicsFile, r.WriteTopicsCSV},
		{SentimentFile, r.WriteSentimentCSV},
		{TopicTermsFile, r.WriteTopicTermsJSON},
		{ReportFile, r.WriteJSON},
	}

	var paths []string
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := writeFile(path, o.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return f.Close()
}

// Schema returns the JSON Schema of report.json.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Report{})
	schema.Title = "konu report"
	return json.MarshalIndent(schema, "", "  ")
}

// Print writes a plain-text summary of r.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Articles: %d  Topics: %d\n", len(r.Rows), r.Topics)

	printCrosstab(w, "Articles by decade and topic", r.ByDecade, r.Topics)

	fmt.Fprintf(w, "\nMean polarity by topic:\n")
	for _, m := range r.PolarityByTopic {
		name := ""
		if m.Key < len(r.TopicTerms) {
			name = r.TopicTerms[m.Key].Name
		}
		fmt.Fprintf(w, "%6d  %-24s %+.3f  (%d)\n", m.Key, name, m.Mean, m.Count)
	}

	fmt.Fprintf(w, "\nMean polarity by decade:\n")
	for _, m := range r.PolarityByDecade {
		fmt.Fprintf(w, "%6d  %+.3f  (%d)\n", m.Key, m.Mean, m.Count)
	}
}

func printCrosstab(w io.Writer, title string, ct Crosstab, k int) {
	if len(ct.Periods) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	fmt.Fprintf(w, "%6s", "")
	for t := range k {
		fmt.Fprintf(w, " %5d", t)
	}
	fmt.Fprintf(w, "  total\n")

	for i, p := range ct.Periods {
		fmt.Fprintf(w, "%6d", p)
		total := 0
		for _, n := range ct.Counts[i] {
			total += n
			if n == 0 {
				fmt.Fprintf(w, " %5s", ".")
			} else {
				fmt.Fprintf(w, " %5d", n)
			}
		}
		fmt.Fprintf(w, "  %5d\n", total)
	}
}
