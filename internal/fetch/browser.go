package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ThinTextLength is the extracted length below which a posting is taken to
// be rendered client-side
const ThinTextLength = 500

// ShouldUseBrowser reports whether text is too thin to be the posting body
func ShouldUseBrowser(text string) bool {
	return len(strings.TrimSpace(text)) < ThinTextLength
}

// settleTimeout bounds the wait for a posting container to appear
const settleTimeout = 8 * time.Second

// WithBrowser renders url in headless Chrome and returns the page HTML. It
// waits until one of contentSelectors matches, and returns whatever has
// rendered when none does within settleTimeout. Chrome or Chromium must be
// installed.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, contentSelectors []string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("rendering posting in headless browser", zap.String("url", url))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(contentSelectors) == 0 {
				return nil
			}
			var found bool
			err := chromedp.Poll(selectorPresent(contentSelectors), &found,
				chromedp.WithPollingInterval(250*time.Millisecond),
				chromedp.WithPollingTimeout(settleTimeout),
			).Do(ctx)
			if errors.Is(err, chromedp.ErrPollingTimeout) {
				logger.Debug("no posting container rendered", zap.String("url", url))
				return nil
			}
			return err
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	logger.Debug("browser rendered posting", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// selectorPresent is a JavaScript expression that is true once any of the
// selectors matches an element
func selectorPresent(selectors []string) string {
	quoted, _ := json.Marshal(strings.Join(selectors, ", "))
	return fmt.Sprintf("document.querySelector(%s) !== null", quoted)
}
