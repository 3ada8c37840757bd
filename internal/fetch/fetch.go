// Package fetch retrieves job postings by URL and reduces them to plain text
// plus a title and company header.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeEditor/1.0; +job-posting-fetch)"
	DefaultRetries   = 2
	DefaultRetryWait = 500 * time.Millisecond

	// maxBodyBytes caps how much of a posting page is read
	maxBodyBytes = 5 << 20
	maxRetryWait = 5 * time.Second
)

// Page is a downloaded posting page
type Page struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	Attempts    int
}

// Options configures posting downloads
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Retries is how often a retryable failure is tried again
	Retries int
	// RetryWait is the first backoff, doubled on every further attempt
	RetryWait time.Duration
}

// DefaultOptions returns the options used by the CLI and the server
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Retries:   DefaultRetries,
		RetryWait: DefaultRetryWait,
	}
}

// Download fetches a posting page. Timeouts, connection failures, 429 and
// 5xx answers are retried with exponential backoff. A non-200 answer
// returns the page together with the error.
func Download(ctx context.Context, rawURL string, opts *Options) (*Page, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}
	wait := opts.RetryWait
	for attempt := 1; ; attempt++ {
		page, err := get(ctx, client, rawURL, opts)
		if page != nil {
			page.Attempts = attempt
		}
		var fetchErr *Error
		if err == nil || attempt > opts.Retries || !errors.As(err, &fetchErr) || !fetchErr.Retryable {
			return page, err
		}
		select {
		case <-ctx.Done():
			return page, &Error{URL: rawURL, Message: "gave up waiting to retry", Cause: ctx.Err()}
		case <-time.After(wait):
		}
		wait = min(2*wait, maxRetryWait)
	}
}

func get(ctx context.Context, client *http.Client, rawURL string, opts *Options) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "request failed", Cause: err, Retryable: transient(ctx, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read body", Cause: err, Retryable: transient(ctx, err)}
	}
	page := &Page{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return page, &Error{
			URL:       rawURL,
			Message:   fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}
	if !readableType(page.ContentType) {
		return page, &Error{URL: rawURL, Message: fmt.Sprintf("posting is %s, not a web page", page.ContentType)}
	}
	return page, nil
}

// transient reports whether a transport error is worth another attempt.
// A cancelled caller context never is.
func transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func readableType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// pageChrome is stripped from every page before the posting is located
const pageChrome = "nav, footer, header, script, style, noscript, svg, iframe, .ad, .advertisement, .sidebar, .cookie-banner, .popup"

// ExtractMainText parses HTML and returns the posting text, one line per
// block. Noise selectors are removed first; the first content selector that
// matches wins, and the body is used when none does.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(pageChrome).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	posting := doc.Find("body")
	for _, selector := range contentSelectors {
		if s := doc.Find(selector); s.Length() > 0 {
			posting = s.First()
			break
		}
	}
	// Block ends become line breaks so bullets and headings stay apart
	posting.Find("p, li, h1, h2, h3, h4, h5, h6, div, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return cleanLines(posting.Text()), nil
}

// JobPostingSelectors returns the containers generic career pages put a
// posting in, most specific first
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		"#job-description",
		"[data-testid='job-description']",
		"[itemprop='description']",
		".job-details",
		".posting-content",
		".job-content",
		"main",
		"article",
		"#content",
	}
}

// cleanLines trims every line and collapses runs of spaces and blank lines
func cleanLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
