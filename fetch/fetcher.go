package fetch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"uk-school-scraper/config"
	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

// Fetcher retrieves a page and returns its parsed document tree.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher issues a single GET per page with a fixed User-Agent header.
// Failed requests are reported, never retried.
type HTTPFetcher struct {
	client *resty.Client
	logger *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher that identifies itself with userAgent.
// A zero timeout means no per-request deadline.
func NewHTTPFetcher(userAgent string, timeout time.Duration, logger *utils.Logger) *HTTPFetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch GETs url and parses the body as HTML.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.logger.Debug("[fetch] GET %s", url)

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &models.NetworkError{URL: url, Err: err}
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, &models.NetworkError{URL: url, StatusCode: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse html from %s: %w", url, err)
	}
	return doc, nil
}

// New builds the Fetcher selected by s.FetchMode. The returned close
// function releases any browser resources and is always safe to call.
func New(ctx context.Context, s config.Settings, userAgent string, logger *utils.Logger) (Fetcher, func(), error) {
	switch s.FetchMode {
	case config.FetchModeHTTP, "":
		return NewHTTPFetcher(userAgent, s.RequestTimeout, logger), func() {}, nil
	case config.FetchModeBrowser:
		b := NewBrowserFetcher(ctx, userAgent, s.ChromeBin, s.RequestTimeout, logger)
		return b, b.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("fetch: unknown fetch mode %q", s.FetchMode)
	}
}
