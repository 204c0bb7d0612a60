// Package crawler implements the best-effort fallback page fetcher used
// when a search provider's own snippet/raw_content is too thin to answer
// a gap-analysis follow-up, grounded on
// original_source/tools/crawler.py. Unlike the original's regex-based
// _strip_html, extraction here walks the parsed DOM via goquery so script
// and style elements are dropped structurally rather than by pattern
// matching.
package crawler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deepresearch/core/telemetry"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Page is one fetched URL's plain-text content, or an error message in
// Content when the fetch failed — callers treat both cases the same way
// the Python original does: best-effort, never raising.
type Page struct {
	URL     string
	Content string
	Failed  bool
}

// Crawler fetches pages and extracts their visible text, never raising on
// network or parse failure.
type Crawler struct {
	client    *http.Client
	userAgent string
	log       telemetry.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithTimeout overrides the per-request timeout (default 10s, matching
// crawl_url's default).
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) { c.client.Timeout = d }
}

// WithUserAgent overrides the default Chrome-on-Windows user agent string.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) { c.userAgent = ua }
}

// WithLogger attaches a logger for fetch-failure diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(c *Crawler) { c.log = l }
}

// New builds a Crawler with a 10-second default timeout.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: defaultUserAgent,
		log:       telemetry.NewNoop().Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CrawlURL fetches url and returns its visible text, or a failure Page
// when the request or parse fails.
func (c *Crawler) CrawlURL(ctx context.Context, url string) Page {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{URL: url, Content: "Crawl failed: " + err.Error(), Failed: true}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn(ctx, "crawl failed", "url", url, "error", err.Error())
		return Page{URL: url, Content: "Crawl failed: " + err.Error(), Failed: true}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.log.Warn(ctx, "crawl parse failed", "url", url, "error", err.Error())
		return Page{URL: url, Content: "Crawl failed: " + err.Error(), Failed: true}
	}
	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return Page{URL: url, Content: collapseWhitespace(text)}
}

// CrawlURLs fetches every url sequentially, skipping blanks, matching
// crawl_urls's deliberate avoidance of a concurrent resource spike.
func (c *Crawler) CrawlURLs(ctx context.Context, urls []string) []Page {
	var out []Page
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		out = append(out, c.CrawlURL(ctx, u))
	}
	return out
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}
