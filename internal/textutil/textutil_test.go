package textutil

import (
	"reflect"
	"strings"
	"testing"
	"unicode"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"user_name", []string{"user_name"}},
		{"email@example.com", []string{"email", "example", "com"}},
		{"", nil},
		{"  spaces  ", []string{"spaces"}},
		{"café résumé", []string{"café", "résumé"}},
		{"hello-world", []string{"hello", "world"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a same sex marriage", []string{"same", "sex", "marriage"}},
		{"i am ok", []string{"am", "ok"}},
		{"x y z", nil},
		{"  über  ", []string{"über"}},
	}
	for _, tt := range tests {
		got := Words(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNgrams(t *testing.T) {
	words := []string{"gay", "pride", "parade", "route"}
	tests := []struct {
		lo, hi int
		want   []string
	}{
		{1, 1, []string{"gay", "pride", "parade", "route"}},
		{1, 2, []string{"gay", "pride", "parade", "route", "gay pride", "pride parade", "parade route"}},
		{3, 5, []string{"gay pride parade", "pride parade route", "gay pride parade route"}},
		{5, 6, nil},
		{0, 1, nil},
	}
	for _, tt := range tests {
		got := Ngrams(words, tt.lo, tt.hi)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Ngrams(%d, %d) = %v, want %v", tt.lo, tt.hi, got, tt.want)
		}
	}
	if got := Ngrams(nil, 1, 2); got != nil {
		t.Errorf("Ngrams(nil) = %v, want nil", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a\n\nb   c\r\nd", "a b c d"},
		{"  lead\tline  ", "lead line"},
		{"", ""},
		{"\n\n", ""},
	}
	for _, tt := range tests {
		if got := CollapseSpaces(tt.in); got != tt.want {
			t.Errorf("CollapseSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation and case", "Hello, World!", "hello  world "},
		{"hiv abbreviation", "H.I.V. cases", "hivaids  cases"},
		{"digit word removed whole", "the world2020war ended", "the   ended"},
		{"covid removed", "covid19 spread", "  spread"},
		{"typographic quotes", "“yes” ‘no’", " yes   no "},
		{"empty", "", ""},
		{"only digits", "1969", " "},
		{"already clean", "hivaids", "hivaids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanProperties(t *testing.T) {
	inputs := []string{
		"Gay rights activists marched on Fifth Avenue in 1970.",
		"The H I V epidemic, “AIDS” and the 1980s.",
		"Same-sex marriage is legal in 37 states; it's news.",
		"MIXED case: A1B2 c3 and__under_score",
	}
	for _, in := range inputs {
		out := Clean(in)
		for _, r := range out {
			if unicode.IsUpper(r) {
				t.Errorf("Clean(%q) kept uppercase rune %q", in, r)
			}
			if unicode.IsDigit(r) {
				t.Errorf("Clean(%q) kept digit %q", in, r)
			}
			if strings.ContainsRune(punctuation, r) {
				t.Errorf("Clean(%q) kept punctuation %q", in, r)
			}
		}
		if twice := Clean(out); twice != out {
			t.Errorf("Clean not idempotent: %q -> %q", out, twice)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two\tthree\n"); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount empty = %d, want 0", got)
	}
}

func FuzzCleanIdempotent(f *testing.F) {
	f.Add("H.I.V. and AIDS in the 1980s")
	f.Add("world2020war")
	f.Add("“quoted”")
	f.Fuzz(func(t *testing.T, s string) {
		once := Clean(s)
		if twice := Clean(once); twice != once {
			t.Fatalf("Clean(Clean(%q)) = %q, want %q", s, twice, once)
		}
	})
}
