package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

// BrowserFetcher loads pages in headless Chrome and parses the rendered DOM.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *utils.Logger
}

// NewBrowserFetcher starts a Chrome allocator that every Fetch shares.
// Call Close when done.
func NewBrowserFetcher(ctx context.Context, userAgent, chromeBin string, timeout time.Duration, logger *utils.Logger) *BrowserFetcher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[fetch] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserFetcher{
		allocCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch navigates a fresh tab to url and parses the document's outer HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	b.logger.Debug("[fetch] NAVIGATE %s", url)

	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()

	if b.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, b.timeout)
		defer cancelTimeout()
	}

	// Stop the tab if the caller gives up first.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, &models.NetworkError{URL: url, Err: err}
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return nil, &models.NetworkError{URL: url, StatusCode: int(resp.Status)}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, &models.NetworkError{URL: url, Err: fmt.Errorf("read rendered html: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse html from %s: %w", url, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary; empty means let chromedp decide.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
