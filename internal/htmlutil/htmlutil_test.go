package htmlutil

import (
	"strings"
	"testing"
)

const articleHTML = `
<html><head><title>Marchers Fill Fifth Avenue - The New York Times</title>
<script>var tracking = "ignore me";</script></head>
<body>
<header><nav><a href="/">Home</a> <a href="/section/us">U.S.</a></nav></header>
<article>
  <h1>Marchers Fill Fifth Avenue</h1>
  <section name="articleBody">
    <div class="StoryBodyCompanionColumn">
      <p>Thousands   marched down
         Fifth Avenue on Sunday.</p>
      <p></p>
      <p>“It was a long time coming,” one marcher said.</p>
    </div>
  </section>
  <figure><figcaption>A photo caption</figcaption></figure>
</article>
<footer>Copyright</footer>
</body></html>
`

func TestArticleText(t *testing.T) {
	doc, err := LoadHTMLString(articleHTML)
	if err != nil {
		t.Fatal(err)
	}
	got := ArticleText(doc)
	want := "Thousands marched down Fifth Avenue on Sunday.\n“It was a long time coming,” one marcher said."
	if got != want {
		t.Errorf("ArticleText() = %q, want %q", got, want)
	}
}

func TestArticleTextFallback(t *testing.T) {
	doc, err := LoadHTMLString(`<html><body>
<nav>Menu</nav>
<div class="page"><span>Old archive</span> scan <b>text</b></div>
<script>x()</script>
<div hidden>secret</div>
<div aria-hidden="true">icon</div>
<footer>Copyright</footer>
</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ArticleText(doc), "Old archive scan text"; got != want {
		t.Errorf("ArticleText() = %q, want %q", got, want)
	}
}

func TestArticleTextEmpty(t *testing.T) {
	doc, err := LoadHTMLString(`<html><body><script>only()</script></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := ArticleText(doc); got != "" {
		t.Errorf("ArticleText() = %q, want empty", got)
	}
}

func TestVisibleText(t *testing.T) {
	doc, _ := LoadHTMLString(articleHTML)
	got := VisibleText(doc.Find("body"))
	for _, hidden := range []string{"Home", "ignore me", "A photo caption", "Copyright"} {
		if strings.Contains(got, hidden) {
			t.Errorf("VisibleText() contains %q: %q", hidden, got)
		}
	}
	if !strings.Contains(got, "Marchers Fill Fifth Avenue Thousands marched down Fifth Avenue on Sunday.") {
		t.Errorf("VisibleText() = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"tab\tand\nnewline\r\nend", "tab and newline end"},
		{"zero\u200bwidth", "zerowidth"},
		{"bell\x07char", "bellchar"},
		// "e" followed by a combining acute accent composes to "é".
		{"cafe\u0301", "caf\u00e9"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
