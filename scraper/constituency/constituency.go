// Package constituency produces the ordered list of UK parliamentary
// constituency names, cached as one name per line.
package constituency

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uk-school-scraper/config"
	"uk-school-scraper/fetch"
	"uk-school-scraper/models"
	"uk-school-scraper/storage"
	"uk-school-scraper/utils"
)

// tableSelector locates the England section table.
const tableSelector = "table#England"

// Catalog returns constituency names from the cache, scraping the
// reference page only when the cache is missing or empty.
type Catalog struct {
	url     string
	cache   *storage.LineCache
	fetcher fetch.Fetcher
	logger  *utils.Logger
}

// New creates a Catalog backed by the cache file named in s.
func New(s config.Settings, fetcher fetch.Fetcher, logger *utils.Logger) *Catalog {
	return &Catalog{
		url:     s.ConstituenciesURL,
		cache:   storage.NewLineCache(s.ConstituenciesPath()),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Constituencies returns the constituency names in cache (or page) order.
func (c *Catalog) Constituencies(ctx context.Context) ([]string, error) {
	names, err := c.cache.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if len(names) > 0 {
		c.logger.Debug("[catalog] Read %d constituencies from %s", len(names), c.cache.Path())
		return names, nil
	}

	return c.Scrape(ctx)
}

// Scrape fetches the reference page, writes the cache and returns the names.
func (c *Catalog) Scrape(ctx context.Context) ([]string, error) {
	c.logger.Info("[catalog] Scraping constituencies from %s", c.url)

	doc, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	names, err := ParseConstituencies(doc, c.url)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if err := c.cache.Write(names); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c.logger.Info("[catalog] Cached %d constituencies to %s", len(names), c.cache.Path())
	return names, nil
}

// ParseConstituencies reads the first cell of every non-header row of the
// England table, in document order.
func ParseConstituencies(doc *goquery.Document, url string) ([]string, error) {
	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, &models.ParseError{URL: url, Element: tableSelector}
	}

	var names []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		if name := strings.TrimSpace(cell.Text()); name != "" {
			names = append(names, name)
		}
	})
	if len(names) == 0 {
		return nil, &models.ParseError{URL: url, Element: tableSelector + " data rows"}
	}
	return names, nil
}
