package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/happyhackingspace/konu/corpus"
)

// pageSize is the number of documents the Article Search API returns per page.
const pageSize = 10

// ErrNoAPIKey is returned when the client has no API key.
var ErrNoAPIKey = errors.New("no API key")

// Window is an inclusive range of publication days.
type Window struct {
	Begin time.Time
	End   time.Time
}

// Weeks splits [begin, end] into consecutive seven-day windows. The last
// window is cut short at end.
func Weeks(begin, end time.Time) []Window {
	var out []Window
	for b := begin; !b.After(end); b = b.AddDate(0, 0, 7) {
		e := b.AddDate(0, 0, 6)
		if e.After(end) {
			e = end
		}
		out = append(out, Window{Begin: b, End: e})
	}
	return out
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL   string
	APIKey    string
	Query     string
	Interval  time.Duration
	MaxPages  int
	Timeout   int
	UserAgent string
}

// Client queries the Article Search API. Every request, across pages and
// windows, waits for the fixed interval.
type Client struct {
	baseURL   string
	apiKey    string
	query     string
	maxPages  int
	userAgent string
	http      doer
	limiter   *rate.Limiter
}

// NewClient returns a client for opts.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("collect: %w", ErrNoAPIKey)
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("collect: base url: %w", err)
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:   opts.BaseURL,
		apiKey:    opts.APIKey,
		query:     opts.Query,
		maxPages:  opts.MaxPages,
		userAgent: opts.UserAgent,
		http:      newHTTPClient(opts.Timeout),
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// searchResponse is the subset of the API response konu reads.
type searchResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []apiDoc `json:"docs"`
		Meta struct {
			Hits int `json:"hits"`
		} `json:"meta"`
	} `json:"response"`
	Fault *struct {
		FaultString string `json:"faultstring"`
	} `json:"fault,omitempty"`
}

type apiDoc struct {
	ID             string `json:"_id"`
	Abstract       string `json:"abstract"`
	LeadParagraph  string `json:"lead_paragraph"`
	Snippet        string `json:"snippet"`
	SectionName    string `json:"section_name"`
	NewsDesk       string `json:"news_desk"`
	TypeOfMaterial string `json:"type_of_material"`
	WebURL         string `json:"web_url"`
	PubDate        string `json:"pub_date"`
	WordCount      int    `json:"word_count"`
	Headline       struct {
		Main string `json:"main"`
	} `json:"headline"`
	Keywords []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"keywords"`
}

func (d apiDoc) document() corpus.Document {
	doc := corpus.Document{
		ID:             d.ID,
		Headline:       d.Headline.Main,
		Abstract:       d.Abstract,
		LeadParagraph:  d.LeadParagraph,
		Snippet:        d.Snippet,
		Section:        d.SectionName,
		NewsDesk:       d.NewsDesk,
		TypeOfMaterial: d.TypeOfMaterial,
		WebURL:         d.WebURL,
		WordCount:      d.WordCount,
	}
	if len(d.PubDate) >= 10 {
		doc.PubDate = d.PubDate[:10]
	} else {
		doc.PubDate = d.PubDate
	}
	for _, kw := range d.Keywords {
		name := strings.ToLower(kw.Name)
		switch {
		case strings.Contains(name, "glocations"):
			doc.Locations = append(doc.Locations, kw.Value)
		case strings.Contains(name, "subject"):
			doc.Subjects = append(doc.Subjects, kw.Value)
		}
	}
	return doc
}

// Search returns every article published in w, following pages until the
// reported hits are exhausted or the page cap is reached.
func (c *Client) Search(ctx context.Context, w Window) ([]corpus.Document, error) {
	var docs []corpus.Document
	for page := 0; page < c.maxPages; page++ {
		resp, err := c.searchPage(ctx, w, page)
		if err != nil {
			return nil, err
		}
		for _, d := range resp.Response.Docs {
			docs = append(docs, d.document())
		}
		slog.Debug("Fetched search page",
			"begin", w.Begin.Format("2006-01-02"), "page", page,
			"docs", len(resp.Response.Docs), "hits", resp.Response.Meta.Hits)
		if len(resp.Response.Docs) < pageSize || (page+1)*pageSize >= resp.Response.Meta.Hits {
			break
		}
	}
	return docs, nil
}

func (c *Client) searchPage(ctx context.Context, w Window, page int) (*searchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("begin_date", w.Begin.Format("20060102"))
	q.Set("end_date", w.End.Format("20060102"))
	if c.query != "" {
		q.Set("fq", c.query)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("api-key", c.apiKey)

	res, err := get(ctx, c.http, c.baseURL+"?"+q.Encode(), c.userAgent, acceptJSON)
	if err != nil {
		return nil, fmt.Errorf("collect: search %s page %d: %w", w.Begin.Format("2006-01-02"), page, err)
	}

	var resp searchResponse
	decodeErr := json.Unmarshal(res.body, &resp)
	if res.status != http.StatusOK {
		msg := http.StatusText(res.status)
		if decodeErr == nil && resp.Fault != nil {
			msg = resp.Fault.FaultString
		}
		return nil, fmt.Errorf("collect: search %s page %d: HTTP %d: %s", w.Begin.Format("2006-01-02"), page, res.status, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("collect: decode search response: %w", decodeErr)
	}
	return &resp, nil
}
