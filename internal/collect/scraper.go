package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/happyhackingspace/konu/corpus"
	"github.com/happyhackingspace/konu/internal/htmlutil"
	"github.com/happyhackingspace/konu/internal/textutil"
)

// ErrForeignDomain is returned for URLs outside the allowed domains.
var ErrForeignDomain = errors.New("domain not allowed")

// Renderer returns the HTML of a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromeRenderer renders pages in a headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

// Render implements Renderer.
func (r ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, r.Timeout)
		defer cancel()
	}

	var html string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	return html, nil
}

// ScraperOptions configures a Scraper.
type ScraperOptions struct {
	// Domains lists the registered domains (eTLD+1) that may be fetched.
	Domains   []string
	Interval  time.Duration
	Timeout   int
	UserAgent string
	// Renderer, when set, replaces plain HTTP fetching.
	Renderer Renderer
}

// Scraper downloads article pages and extracts their body text.
type Scraper struct {
	allowed   map[string]bool
	userAgent string
	http      doer
	renderer  Renderer
	limiter   *rate.Limiter
}

// NewScraper returns a scraper for opts.
func NewScraper(opts ScraperOptions) *Scraper {
	allowed := make(map[string]bool, len(opts.Domains))
	for _, d := range opts.Domains {
		allowed[strings.ToLower(strings.TrimSpace(d))] = true
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Scraper{
		allowed:   allowed,
		userAgent: opts.UserAgent,
		http:      newHTTPClient(opts.Timeout),
		renderer:  opts.Renderer,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Allowed reports whether rawURL belongs to an allowed domain.
func (s *Scraper) Allowed(rawURL string) bool {
	return s.allowed[RegisteredDomain(rawURL)]
}

// Scrape fetches rawURL and returns its article text.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	if !s.Allowed(rawURL) {
		return "", fmt.Errorf("collect: %s: %w", rawURL, ErrForeignDomain)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var page string
	if s.renderer != nil {
		html, err := s.renderer.Render(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("collect: %w", err)
		}
		page = html
	} else {
		res, err := get(ctx, s.http, rawURL, s.userAgent, acceptHTML)
		if err != nil {
			return "", fmt.Errorf("collect: fetch %s: %w", rawURL, err)
		}
		if !res.ok() {
			return "", fmt.Errorf("collect: fetch %s: HTTP %d", rawURL, res.status)
		}
		page = string(res.body)
	}

	doc, err := htmlutil.LoadHTMLString(page)
	if err != nil {
		return "", fmt.Errorf("collect: parse %s: %w", rawURL, err)
	}
	return htmlutil.ArticleText(doc), nil
}

// ScrapeAll scrapes every document and passes each non-empty body to save.
// Failed pages are logged and skipped. It returns the number of saved bodies.
func (s *Scraper) ScrapeAll(ctx context.Context, docs []corpus.Document, save func(id, text string) error) (int, error) {
	saved := 0
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		text, err := s.Scrape(ctx, d.WebURL)
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}
		if err != nil {
			slog.Warn("Failed to scrape article", "id", d.ID, "url", d.WebURL, "error", err)
			continue
		}
		if text == "" {
			slog.Warn("Article has no body text", "id", d.ID, "url", d.WebURL)
			continue
		}
		if err := save(d.ID, text); err != nil {
			return saved, err
		}
		saved++
		slog.Debug("Scraped article", "id", d.ID, "words", textutil.WordCount(text), "progress", fmt.Sprintf("%d/%d", i+1, len(docs)))
	}
	return saved, nil
}
