package roster

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uk-school-scraper/models"
)

const (
	listSelector = "#establishment-list"
	typeSelector = `td[data-title="Type of school"]`
)

// BuildRosterURL substitutes the constituency into template, joining its
// words with '+'. No other escaping is applied; commas stay as they are.
func BuildRosterURL(template, constituency string) string {
	return strings.Replace(template, "%s", strings.ReplaceAll(constituency, " ", "+"), 1)
}

// ParseRoster reads the establishment list of a roster page. Rows with a
// non-empty class attribute are headers or decoration and are skipped.
func ParseRoster(doc *goquery.Document, url, constituency string) ([]models.SchoolIdentity, error) {
	list := doc.Find(listSelector).First()
	if list.Length() == 0 {
		return nil, &models.ParseError{URL: url, Element: listSelector}
	}

	var (
		schools []models.SchoolIdentity
		perr    error
	)
	list.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if class, _ := row.Attr("class"); strings.TrimSpace(class) != "" {
			return true
		}

		urn, ok := row.Attr("data-urn")
		urn = strings.TrimSpace(urn)
		if !ok || !models.ValidURN(urn) {
			perr = &models.ParseError{URL: url, Element: "tr[data-urn]"}
			return false
		}

		name := strings.TrimSpace(row.Find("th a").First().Text())
		if name == "" {
			perr = &models.ParseError{URL: url, Element: "th a (school name) for urn " + urn}
			return false
		}

		schools = append(schools, models.SchoolIdentity{
			Name:         name,
			URN:          urn,
			TypeOfSchool: strings.TrimSpace(row.Find(typeSelector).First().Text()),
			Constituency: constituency,
		})
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return schools, nil
}

// Partition splits items into consecutive batches of size; the last batch
// may be shorter. Order is preserved.
func Partition[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
