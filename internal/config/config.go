// Package config loads konu settings from a TOML file, a .env file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/happyhackingspace/konu"
	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/lemma"
	"github.com/happyhackingspace/konu/internal/stopwords"
	"github.com/happyhackingspace/konu/topic"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "konu.toml"

// Environment variables that override the file.
const (
	EnvAPIKey   = "NYT_API_KEY"
	EnvDatabase = "KONU_DATABASE"
)

const dateLayout = "2006-01-02"

// Config is the full konu configuration.
type Config struct {
	Database string  `toml:"database"`
	Collect  Collect `toml:"collect"`
	Prepare  Prepare `toml:"prepare"`
	Model    Model   `toml:"model"`
	Report   Report  `toml:"report"`

	// APIKey only comes from the environment.
	APIKey string `toml:"-"`
}

// Collect configures article search and scraping.
type Collect struct {
	BaseURL         string   `toml:"base_url"`
	Begin           string   `toml:"begin"`
	End             string   `toml:"end"`
	Query           string   `toml:"query"`
	IntervalSeconds int      `toml:"interval_seconds"`
	MaxPages        int      `toml:"max_pages"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	Domains         []string `toml:"domains"`
	Render          bool     `toml:"render"`
	MaterialTypes   []string `toml:"material_types"`
}

// Prepare configures text preparation.
type Prepare struct {
	Lemmatizer string `toml:"lemmatizer"`
}

// Model configures vectorization and topic fitting.
type Model struct {
	Strategy      string   `toml:"strategy"`
	Topics        int      `toml:"topics"`
	Seed          uint64   `toml:"seed"`
	MinDF         float64  `toml:"min_df"`
	MaxDF         float64  `toml:"max_df"`
	NgramRange    [2]int   `toml:"ngram_range"`
	StopWords     []string `toml:"stop_words"`
	StopWordFiles []string `toml:"stop_word_files"`

	MaxIter   int     `toml:"max_iter"`
	Tolerance float64 `toml:"tolerance"`

	Passes         int     `toml:"passes"`
	Iterations     int     `toml:"iterations"`
	Alpha          string  `toml:"alpha"`
	ChunkSize      int     `toml:"chunk_size"`
	GammaThreshold float64 `toml:"gamma_threshold"`
	MinProbability float64 `toml:"min_probability"`

	// Lexicon is a tab separated sentiment lexicon merged over the built-in one.
	Lexicon string `toml:"lexicon"`
}

// Report configures aggregation and export.
type Report struct {
	MinYear  int               `toml:"min_year"`
	BinLow   int               `toml:"bin_low"`
	BinHigh  int               `toml:"bin_high"`
	BinWidth int               `toml:"bin_width"`
	TopTerms int               `toml:"top_terms"`
	OutDir   string            `toml:"out_dir"`
	Relabels map[string]string `toml:"relabels"`

	// TopicNames labels topics by index once a run has been inspected.
	TopicNames []string `toml:"topic_names"`
}

// Default returns the built-in configuration.
func Default() Config {
	run := konu.DefaultConfig()
	return Config{
		Database: "konu.db",
		Collect: Collect{
			BaseURL:         "https://api.nytimes.com/svc/search/v2/articlesearch.json",
			Begin:           "1960-01-01",
			End:             "2020-08-30",
			Query:           `subject:("homosexuality","homosexuality and bisexuality","same-sex marriages, civil unions and domestic partnerships","transgender and transsexuals")`,
			IntervalSeconds: 6,
			MaxPages:        100,
			TimeoutSeconds:  30,
			Domains:         []string{"nytimes.com"},
			MaterialTypes:   corpus.IncludedMaterialTypes,
		},
		Prepare: Prepare{Lemmatizer: lemma.KindDictionary},
		Model: Model{
			Strategy:       run.Strategy,
			Topics:         run.Topics,
			MinDF:          run.MinDF,
			MaxDF:          run.MaxDF,
			NgramRange:     run.NgramRange,
			MaxIter:        run.MaxIter,
			Tolerance:      run.Tolerance,
			Passes:         run.Passes,
			Iterations:     run.Iterations,
			Alpha:          run.Alpha,
			ChunkSize:      run.ChunkSize,
			MinProbability: run.MinProbability,
		},
		Report: Report{
			MinYear:  1969,
			BinLow:   1960,
			BinHigh:  2020,
			BinWidth: 5,
			TopTerms: 10,
			OutDir:   "out",
			Relabels: map[string]string{
				"aid":     "AIDS",
				"hivaids": "HIV",
				"dr":      "doctor",
			},
		},
	}
}

// Load reads path over the defaults, then .env and the environment.
// An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: %w", err)
	}

	_ = godotenv.Load(".env")
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database path is empty")
	}

	begin, err := time.Parse(dateLayout, c.Collect.Begin)
	if err != nil {
		return fmt.Errorf("config: collect.begin: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Collect.End)
	if err != nil {
		return fmt.Errorf("config: collect.end: %w", err)
	}
	if end.Before(begin) {
		return fmt.Errorf("config: collect.end %s is before collect.begin %s", c.Collect.End, c.Collect.Begin)
	}
	if c.Collect.IntervalSeconds < 0 {
		return fmt.Errorf("config: collect.interval_seconds %d is negative", c.Collect.IntervalSeconds)
	}
	if c.Collect.MaxPages < 1 || c.Collect.MaxPages > 100 {
		return fmt.Errorf("config: collect.max_pages %d is outside 1..100", c.Collect.MaxPages)
	}
	if c.Collect.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: collect.timeout_seconds %d must be positive", c.Collect.TimeoutSeconds)
	}

	switch c.Prepare.Lemmatizer {
	case lemma.KindDictionary, lemma.KindSnowball:
	default:
		return fmt.Errorf("config: prepare.lemmatizer %q: want %s or %s", c.Prepare.Lemmatizer, lemma.KindDictionary, lemma.KindSnowball)
	}

	m := c.Model
	if m.Strategy != topic.StrategyNMF && m.Strategy != topic.StrategyLDA {
		return fmt.Errorf("config: model.strategy %q: want %s or %s", m.Strategy, topic.StrategyNMF, topic.StrategyLDA)
	}
	if m.Topics <= 0 {
		return fmt.Errorf("config: model.topics %d must be positive", m.Topics)
	}
	if m.MinDF < 0 || m.MaxDF < 0 {
		return fmt.Errorf("config: model document frequencies must not be negative")
	}
	if m.NgramRange[0] < 1 || m.NgramRange[1] < m.NgramRange[0] {
		return fmt.Errorf("config: model.ngram_range %v is invalid", m.NgramRange)
	}

	r := c.Report
	if r.BinWidth <= 0 {
		return fmt.Errorf("config: report.bin_width %d must be positive", r.BinWidth)
	}
	if r.BinHigh <= r.BinLow {
		return fmt.Errorf("config: report.bin_high %d must exceed bin_low %d", r.BinHigh, r.BinLow)
	}
	if r.TopTerms <= 0 {
		return fmt.Errorf("config: report.top_terms %d must be positive", r.TopTerms)
	}
	return nil
}

// Window returns the parsed collection date range.
func (c Collect) Window() (begin, end time.Time, err error) {
	if begin, err = time.Parse(dateLayout, c.Begin); err != nil {
		return
	}
	end, err = time.Parse(dateLayout, c.End)
	return
}

// Interval returns the delay between API requests.
func (c Collect) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// StopWordSet builds the stop words for a run: the built-in lists, the
// configured words and every configured file.
func (m Model) StopWordSet() (*stopwords.Set, error) {
	set, err := stopwords.Default(m.StopWords...)
	if err != nil {
		return nil, err
	}
	for _, path := range m.StopWordFiles {
		if err := set.AddFile(path); err != nil {
			return nil, fmt.Errorf("config: stop words: %w", err)
		}
	}
	return set, nil
}

// Pipeline converts the model settings to a run configuration.
func (m Model) Pipeline() (konu.Config, error) {
	set, err := m.StopWordSet()
	if err != nil {
		return konu.Config{}, err
	}
	cfg := konu.Config{
		Strategy:       m.Strategy,
		Topics:         m.Topics,
		Seed:           m.Seed,
		StopWords:      set.Words(),
		MinDF:          m.MinDF,
		MaxDF:          m.MaxDF,
		NgramRange:     m.NgramRange,
		MaxIter:        m.MaxIter,
		Tolerance:      m.Tolerance,
		Passes:         m.Passes,
		Iterations:     m.Iterations,
		Alpha:          m.Alpha,
		ChunkSize:      m.ChunkSize,
		GammaThreshold: m.GammaThreshold,
		MinProbability: m.MinProbability,
	}
	if m.Lexicon != "" {
		if cfg.Scorer, err = konu.NewLexiconScorer(m.Lexicon); err != nil {
			return konu.Config{}, err
		}
	}
	return cfg, nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return "config: " + strconv.Quote(err.Error())
	}
	return string(data)
}
