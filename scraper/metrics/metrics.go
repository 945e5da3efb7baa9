// Package metrics builds the wide per-school row from a school's results
// page and its absence and pupil population page.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uk-school-scraper/config"
	"uk-school-scraper/fetch"
	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

// Slugify turns a school name into the path segment the comparison site
// routes on: lowercase, spaces to hyphens, commas to %2c. Nothing else is
// escaped, so apostrophes pass through.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, ",", "%2c")
	return slug
}

func schoolURL(baseURL, name, urn string, p Page) string {
	return strings.TrimRight(baseURL, "/") + "/" + urn + "/" + Slugify(name) + "/" + p.String()
}

// ResultsURL is the address of the school's key stage 2 results page.
func ResultsURL(baseURL, name, urn string) string {
	return schoolURL(baseURL, name, urn, ResultsPage)
}

// AbsenceURL is the address of the school's absence and pupil population page.
func AbsenceURL(baseURL, name, urn string) string {
	return schoolURL(baseURL, name, urn, AbsencePage)
}

// Extractor fetches and reads both pages of a single school.
type Extractor struct {
	baseURL string
	fetcher fetch.Fetcher
	logger  *utils.Logger
}

func New(s config.Settings, fetcher fetch.Fetcher, logger *utils.Logger) *Extractor {
	return &Extractor{
		baseURL: s.SchoolBaseURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

// SchoolMetrics returns the row for one school. Any fetch or structural
// failure on either page fails the whole row with SchoolDataUnavailableError.
// The constituency column is left for the caller to fill.
func (e *Extractor) SchoolMetrics(ctx context.Context, name, urn string) (*models.SchoolMetricsRow, error) {
	if !models.ValidURN(urn) {
		return nil, &models.SchoolDataUnavailableError{URN: urn, Err: fmt.Errorf("invalid urn %q", urn)}
	}

	row := &models.SchoolMetricsRow{
		SchoolName: name,
		SchoolURN:  urn,
		Fields:     make([]models.Field, 0, len(resultsColumns)+len(absenceColumns)),
	}

	for _, page := range []Page{ResultsPage, AbsencePage} {
		url := schoolURL(e.baseURL, name, urn, page)

		doc, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, &models.SchoolDataUnavailableError{URN: urn, Err: err}
		}

		fields, err := ExtractFields(doc, url, page)
		if err != nil {
			return nil, &models.SchoolDataUnavailableError{URN: urn, Err: err}
		}
		row.Fields = append(row.Fields, fields...)
	}

	e.logger.Debug("[metrics] Extracted %d fields for %s (%s)", len(row.Fields), name, urn)
	return row, nil
}

// ExtractFields reads every column of page p from doc. A missing value cell
// yields a not-available value. A missing page container, or a container
// holding none of the page's cells, is a ParseError.
func ExtractFields(doc *goquery.Document, url string, p Page) ([]models.Field, error) {
	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return nil, &models.ParseError{URL: url, Element: containerSelector}
	}

	columns := ColumnsFor(p)
	fields := make([]models.Field, 0, len(columns))
	found := 0
	for _, col := range columns {
		cell := container.Find(cellSelector(col)).First()
		if cell.Length() == 0 {
			fields = append(fields, models.Field{Name: col, Value: models.Missing()})
			continue
		}
		found++
		fields = append(fields, models.Field{Name: col, Value: models.Present(strings.TrimSpace(cell.Text()))})
	}
	if found == 0 {
		return nil, &models.ParseError{URL: url, Element: "metric cells"}
	}
	return fields, nil
}
