// Package wikipedia provides a client for the MediaWiki Action API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/corpuslab/crossqa/internal/resilience"
)

// Client defines the MediaWiki operations the pipeline needs.
type Client interface {
	// LangLinks returns the lang → title mapping of inter-language links
	// for a page in the given source language.
	LangLinks(ctx context.Context, title, lang string) (map[string]string, error)
	// Extract fetches the plaintext extract of a page.
	Extract(ctx context.Context, title, lang string) (string, error)
	// FetchPage downloads a raw page body from an absolute URL.
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// PageURL returns the canonical HTTPS URL for a page: spaces become
// underscores, the rest is percent-escaped.
func PageURL(title, lang string) string {
	escaped := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, escaped)
}

// TitleFromURL recovers the page title from a full page URL. Returns an
// empty string when the URL does not look like a wiki page link.
func TitleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	path := u.Path
	idx := strings.Index(path, "/wiki/")
	if idx < 0 {
		return ""
	}
	title := strings.Trim(path[idx+len("/wiki/"):], "/")
	if hash := strings.Index(title, "#"); hash >= 0 {
		title = title[:hash]
	}
	unescaped, err := url.PathUnescape(title)
	if err != nil {
		unescaped = title
	}
	return strings.ReplaceAll(unescaped, "_", " ")
}

// Option configures the wikipedia client.
type Option func(*httpClient)

// WithAPIURL sets a custom API URL template taking the language code
// (for testing).
func WithAPIURL(tmpl string) Option {
	return func(c *httpClient) {
		c.apiURL = tmpl
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter installs a shared rate limiter gating every outbound request.
// Workers calling the client concurrently share the one limiter, so the
// global request rate stays capped regardless of pool size.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	apiURL    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a MediaWiki API client. The default request timeout is
// 10 seconds, matching the upstream etiquette guidelines.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		apiURL:    "https://%s.wikipedia.org/w/api.php",
		userAgent: "crossqa/1.0",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// queryResponse is the subset of the action=query envelope we read.
type queryResponse struct {
	Query struct {
		Pages map[string]queryPage `json:"pages"`
	} `json:"query"`
}

type queryPage struct {
	Title     string     `json:"title"`
	Extract   string     `json:"extract"`
	LangLinks []langLink `json:"langlinks"`
}

type langLink struct {
	Lang  string `json:"lang"`
	Title string `json:"*"`
}

func (c *httpClient) LangLinks(ctx context.Context, title, lang string) (map[string]string, error) {
	params := url.Values{
		"action":  {"query"},
		"titles":  {title},
		"prop":    {"langlinks"},
		"lllimit": {"500"},
		"format":  {"json"},
	}

	page, err := c.query(ctx, lang, params)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: langlinks query")
	}

	links := make(map[string]string, len(page.LangLinks))
	for _, ll := range page.LangLinks {
		links[ll.Lang] = ll.Title
	}
	return links, nil
}

func (c *httpClient) Extract(ctx context.Context, title, lang string) (string, error) {
	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"titles":      {title},
		"format":      {"json"},
	}

	page, err := c.query(ctx, lang, params)
	if err != nil {
		return "", eris.Wrap(err, "wikipedia: extract query")
	}
	return page.Extract, nil
}

func (c *httpClient) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: create page request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	body, status, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: fetch page")
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("wikipedia: fetch page: status %d", status)
	}
	return body, nil
}

// query runs an action=query request and returns the single result page.
func (c *httpClient) query(ctx context.Context, lang string, params url.Values) (*queryPage, error) {
	reqURL := fmt.Sprintf(c.apiURL, lang) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	body, status, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("status %d: %s", status, truncate(body, 200))
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	for _, page := range parsed.Query.Pages {
		return &page, nil
	}
	return nil, eris.New("empty pages map in response")
}

type httpResult struct {
	body   []byte
	status int
}

// retryDo executes an HTTP request with exponential backoff on transient
// failures (429, 5xx, network errors). Non-transient statuses are returned
// to the caller for inspection, not treated as errors here.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	cfg := resilience.Defaults()
	cfg.OnRetry = resilience.LogRetries(req.URL.Host)

	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (httpResult, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return httpResult{}, err
			}
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			return httpResult{}, resilience.NewTransient(err, 0)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return httpResult{}, eris.Wrap(readErr, "read response body")
		}

		if resilience.TransientStatus(resp.StatusCode) {
			return httpResult{}, resilience.NewTransient(
				eris.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)),
				resp.StatusCode,
			)
		}
		return httpResult{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
