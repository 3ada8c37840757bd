package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/types"
	"go.uber.org/zap"
)

// Fetcher retrieves a job posting by URL
type Fetcher interface {
	FetchJob(ctx context.Context, url string) (*types.JobPosting, error)
}

// JobFetcher fetches over HTTP, falls back to a headless browser for
// script-rendered boards, and reads the title and company from the page.
type JobFetcher struct {
	options        *Options
	browser        bool
	browserTimeout time.Duration
	client         llm.Client
	logger         *zap.Logger
}

// JobOption configures a JobFetcher
type JobOption func(*JobFetcher)

// WithBrowserFallback enables chromedp rendering when the HTTP body is too thin
func WithBrowserFallback(timeout time.Duration) JobOption {
	return func(f *JobFetcher) {
		f.browser = true
		f.browserTimeout = timeout
	}
}

// WithHeaderModel lets a language model fill in a title or company the markup lacks
func WithHeaderModel(client llm.Client) JobOption {
	return func(f *JobFetcher) { f.client = client }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) JobOption {
	return func(f *JobFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewJobFetcher creates a fetcher. A nil opts uses DefaultOptions.
func NewJobFetcher(opts *Options, options ...JobOption) *JobFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &JobFetcher{options: opts, logger: zap.NewNop(), browserTimeout: DefaultTimeout}
	for _, o := range options {
		o(f)
	}
	return f
}

// FetchJob implements Fetcher
func (f *JobFetcher) FetchJob(ctx context.Context, url string) (*types.JobPosting, error) {
	board := DetectBoard(url)
	content, noise := board.Selectors()

	page, err := Download(ctx, url, f.options)
	if err != nil {
		return nil, err
	}
	html := page.HTML

	text, err := ExtractMainText(html, content, noise...)
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to extract text", Cause: err}
	}

	if f.browser && ShouldUseBrowser(text) {
		rendered, err := WithBrowser(ctx, url, f.browserTimeout, content, f.logger)
		if err != nil {
			f.logger.Warn("browser fallback failed", zap.String("url", url), zap.Error(err))
		} else if renderedText, err := ExtractMainText(rendered, content, noise...); err == nil && len(renderedText) > len(text) {
			html, text = rendered, renderedText
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, &Error{URL: url, Message: "page has no readable text"}
	}

	title, company := ExtractHeader(html)
	company = firstNonEmpty(company, CompanyFromURL(url))
	if (title == "" || company == "") && f.client != nil {
		var header struct {
			Title   string `json:"title"`
			Company string `json:"company"`
		}
		if err := llm.Extract(ctx, f.client, llm.JobHeader(), text, &header); err != nil {
			f.logger.Debug("header extraction failed", zap.String("url", url), zap.Error(err))
		} else {
			title = firstNonEmpty(title, strings.TrimSpace(header.Title))
			company = firstNonEmpty(company, strings.TrimSpace(header.Company))
		}
	}

	f.logger.Info("fetched job posting",
		zap.String("url", url),
		zap.String("board", string(board)),
		zap.Int("attempts", page.Attempts),
		zap.Int("text_length", len(text)))

	return &types.JobPosting{URL: url, Title: title, Company: company, Text: text}, nil
}

// ExtractHeader reads a job title and company name from page metadata.
// Either value is empty when the markup does not state it.
func ExtractHeader(html string) (title, company string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	meta := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(v)
	}

	title = firstNonEmpty(
		strings.TrimSpace(doc.Find("h1").First().Text()),
		meta(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	company = firstNonEmpty(
		meta(`meta[property="og:site_name"]`),
		strings.TrimSpace(doc.Find(".company-name, [data-testid='company-name']").First().Text()),
	)

	// "Senior Engineer at Acme" and "Senior Engineer - Acme" carry both parts
	for _, sep := range []string{" at ", " - ", " | "} {
		if i := strings.Index(title, sep); i > 0 {
			if company == "" {
				company = strings.TrimSpace(title[i+len(sep):])
			}
			title = strings.TrimSpace(title[:i])
			break
		}
	}
	return title, company
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
