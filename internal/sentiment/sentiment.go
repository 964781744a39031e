// Package sentiment scores the polarity and subjectivity of article text
// with an adjective lexicon.
package sentiment

import (
	"bufio"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/happyhackingspace/konu/internal/textutil"
)

//go:embed lexicon.tsv
var defaultLexicon string

// Result holds polarity in [-1, 1] and subjectivity in [0, 1].
type Result struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// Entry is one lexicon row.
type Entry struct {
	Polarity     float64
	Subjectivity float64
	Intensity    float64
}

// modifier reports whether the entry only scales the next word.
func (e Entry) modifier() bool {
	return e.Polarity == 0 && e.Subjectivity == 0 && e.Intensity != 1
}

var negations = map[string]bool{
	"not": true, "never": true, "no": true, "nor": true,
	"neither": true, "without": true, "cannot": true,
}

// negationWindow is how many unscored words a negation or modifier survives.
const negationWindow = 2

// Analyzer scores text against a polarity and subjectivity lexicon.
type Analyzer struct {
	lexicon map[string]Entry
}

// NewAnalyzer returns an Analyzer with the embedded lexicon.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{lexicon: make(map[string]Entry)}
	if err := a.load(strings.NewReader(defaultLexicon)); err != nil {
		panic(fmt.Sprintf("sentiment: embedded lexicon: %v", err))
	}
	return a
}

// LoadLexicon merges a lexicon file over the current entries. A .xml file
// is read in pattern's en-sentiment.xml format; anything else as tab
// separated word, polarity, subjectivity and intensity.
func (a *Analyzer) LoadLexicon(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}
	defer func() { _ = f.Close() }()
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return a.loadXML(f)
	}
	return a.load(f)
}

// loadXML reads <word form pos polarity subjectivity intensity> elements.
// A word listed under several senses gets the mean of their scores. Adverbs
// with an intensity other than 1 become modifiers of the next word.
func (a *Analyzer) loadXML(r io.Reader) error {
	type sums struct {
		p, s, i  float64
		n        int
		modifier bool
	}
	words := make(map[string]*sums)
	var order []string

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("sentiment: lexicon xml: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "word" {
			continue
		}
		var form, pos string
		vals := [3]float64{0, 0, 1}
		for _, attr := range el.Attr {
			var idx int
			switch attr.Name.Local {
			case "form":
				form = strings.ToLower(strings.TrimSpace(attr.Value))
				continue
			case "pos":
				pos = attr.Value
				continue
			case "polarity":
				idx = 0
			case "subjectivity":
				idx = 1
			case "intensity":
				idx = 2
			default:
				continue
			}
			v, err := strconv.ParseFloat(attr.Value, 64)
			if err != nil {
				return fmt.Errorf("sentiment: lexicon xml %q %s: %w", form, attr.Name.Local, err)
			}
			vals[idx] = v
		}
		if form == "" {
			continue
		}
		w, seen := words[form]
		if !seen {
			w = &sums{}
			words[form] = w
			order = append(order, form)
		}
		w.p += vals[0]
		w.s += vals[1]
		w.i += vals[2]
		w.n++
		if strings.HasPrefix(pos, "RB") && vals[2] != 1 {
			w.modifier = true
		}
	}

	for _, form := range order {
		w := words[form]
		n := float64(w.n)
		if w.modifier {
			a.lexicon[form] = Entry{Intensity: w.i / n}
			continue
		}
		a.lexicon[form] = Entry{Polarity: w.p / n, Subjectivity: w.s / n, Intensity: w.i / n}
	}
	return nil
}

func (a *Analyzer) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 4 {
			return fmt.Errorf("sentiment: lexicon line %d: want 4 fields, got %d", line, len(fields))
		}
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
			if err != nil {
				return fmt.Errorf("sentiment: lexicon line %d: %w", line, err)
			}
			vals[i] = v
		}
		a.lexicon[strings.ToLower(fields[0])] = Entry{Polarity: vals[0], Subjectivity: vals[1], Intensity: vals[2]}
	}
	return scanner.Err()
}

// Score averages the lexicon assessments of text. Modifiers scale the next
// assessment and a negation multiplies its polarity by -0.5. Text without any
// lexicon word scores (0, 0).
func (a *Analyzer) Score(text string) Result {
	var (
		sumP, sumS float64
		n          int
		scale      = 1.0
		negate     bool
		idle       int
	)
	for _, w := range textutil.Tokenize(strings.ToLower(text)) {
		if negations[w] {
			negate, idle = true, 0
			continue
		}
		e, ok := a.lexicon[w]
		if !ok {
			idle++
			if idle > negationWindow {
				scale, negate = 1, false
			}
			continue
		}
		if e.modifier() {
			scale *= e.Intensity
			idle = 0
			continue
		}
		p := e.Polarity * scale
		s := e.Subjectivity * scale
		if negate {
			p *= -0.5
		}
		sumP += p
		sumS += s
		n++
		scale, negate, idle = 1, false, 0
	}
	if n == 0 {
		return Result{}
	}
	return Result{
		Polarity:     clamp(sumP/float64(n), -1, 1),
		Subjectivity: clamp(sumS/float64(n), 0, 1),
	}
}

// Len returns the number of lexicon entries.
func (a *Analyzer) Len() int {
	return len(a.lexicon)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
