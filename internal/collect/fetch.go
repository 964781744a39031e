package collect

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent identifies the collector to remote servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; konu-collect/1.0)"

const (
	acceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
	acceptJSON = "application/json"

	// Article pages and search responses are well under this.
	maxBodyBytes = 5 << 20
	maxRedirects = 5
)

// doer sends a request. *http.Client satisfies it; tests swap in fakes.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(timeoutSec int) *http.Client {
	return &http.Client{
		Timeout: time.Duration(timeoutSec) * time.Second,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// response is a fetched body with its status. Non-2xx statuses are not
// errors at this level; callers decide what a status means.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

func get(ctx context.Context, client doer, rawURL, userAgent, accept string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, err
	}
	req.Header = http.Header{
		"User-Agent":      {userAgent},
		"Accept":          {accept},
		"Accept-Language": {"en-US,en;q=0.5"},
	}

	resp, err := client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

// RegisteredDomain reduces a URL, or a bare host with an optional path or
// port, to its eTLD+1: "https://www.nytimes.com/1987/06/28/nyregion/march.html"
// gives "nytimes.com". IP addresses and hosts without a public suffix come
// back lowercased but otherwise unchanged.
func RegisteredDomain(rawURL string) string {
	var host string
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Hostname()
	} else {
		host, _, _ = strings.Cut(rawURL, "/")
		host, _, _ = strings.Cut(host, ":")
	}
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil {
		return host
	}
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}
