// Package stopwords builds the stop-word set excluded from the vocabulary.
//
// A Set is the union of any number of sources. Every word remembers which
// sources contributed it so a report can explain why a term is missing.
package stopwords

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed data/*.txt
var data embed.FS

// Built-in source names.
const (
	SourceRanks  = "ranks"
	SourceNLTK   = "nltk"
	SourceDomain = "domain"
)

// DomainWords are corpus-specific terms that appear in nearly every article
// and would otherwise dominate every topic.
var DomainWords = []string{
	"gay", "homosexual", "lesbian", "men", "woman", "york",
	"homosexuality", "editor", "article", "news", "year",
	"book", "guy", "girl", "man",
}

// Set is a union of stop-word sources.
type Set struct {
	words map[string][]string
}

// New returns an empty set.
func New() *Set {
	return &Set{words: make(map[string][]string)}
}

// Default returns the ranks.nl and NLTK lists plus DomainWords and extra.
func Default(extra ...string) (*Set, error) {
	s := New()
	for _, name := range []string{SourceRanks, SourceNLTK} {
		if err := s.AddBuiltin(name); err != nil {
			return nil, err
		}
	}
	s.Add(SourceDomain, DomainWords...)
	s.Add("config", extra...)
	return s, nil
}

// Add records words from source. Words are lowercased and trimmed; blanks are ignored.
func (s *Set) Add(source string, words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		srcs := s.words[w]
		if !containsString(srcs, source) {
			s.words[w] = append(srcs, source)
		}
	}
}

// AddBuiltin adds one of the embedded lists by name.
func (s *Set) AddBuiltin(name string) error {
	f, err := data.Open("data/" + name + ".txt")
	if err != nil {
		return fmt.Errorf("stopwords: unknown builtin list %q", name)
	}
	defer func() { _ = f.Close() }()
	return s.AddReader(name, f)
}

// AddFile adds a word list file, one word per line, # starting a comment.
func (s *Set) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stopwords: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.AddReader(path, f)
}

// AddReader adds a word list read from r.
func (s *Set) AddReader(source string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.Add(source, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stopwords: read %s: %w", source, err)
	}
	return nil
}

// Contains reports whether w is a stop word.
func (s *Set) Contains(w string) bool {
	_, ok := s.words[strings.ToLower(w)]
	return ok
}

// Sources returns the sources that contributed w.
func (s *Set) Sources(w string) []string {
	return s.words[strings.ToLower(w)]
}

// Len returns the number of distinct words.
func (s *Set) Len() int {
	return len(s.words)
}

// Words returns all words sorted.
func (s *Set) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
