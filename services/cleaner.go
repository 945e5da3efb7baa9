package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

// numberRegexp captures the first signed decimal in a cell, e.g. "+1.2" or "78%".
var numberRegexp = regexp.MustCompile(`[-+]?\d[\d,]*(?:\.\d+)?`)

// suppressionMarkers are the codes the comparison site prints in place of a value.
var suppressionMarkers = map[string]struct{}{
	"SUPP":   {},
	"NE":     {},
	"NP":     {},
	"NA":     {},
	"N/A":    {},
	"LOWCOV": {},
	"X":      {},
	"-":      {},
}

// Cleaner normalises scraped rows: collapsed whitespace, and suppression
// markers or empty cells turned into the explicit not-available value.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// CleanRow normalises row in place and returns the number of values that
// were marked not available.
func (c *Cleaner) CleanRow(row *models.SchoolMetricsRow) int {
	row.SchoolName = normaliseText(row.SchoolName)
	row.Constituency = normaliseText(row.Constituency)

	missing := 0
	for i := range row.Fields {
		row.Fields[i].Value = cleanValue(row.Fields[i].Value)
		if !row.Fields[i].Value.Available {
			missing++
		}
	}
	if missing > 0 {
		c.logger.Debug("[cleaner] %s (%s): %d of %d fields not available",
			row.SchoolName, row.SchoolURN, missing, len(row.Fields))
	}
	return missing
}

func cleanValue(v models.Value) models.Value {
	if !v.Available {
		return models.Missing()
	}
	text := normaliseText(v.Text)
	if text == "" {
		return models.Missing()
	}
	if _, suppressed := suppressionMarkers[strings.ToUpper(text)]; suppressed {
		return models.Missing()
	}
	return models.Present(text)
}

// parseNumber extracts the first number in a cell, ignoring thousands
// separators and units. ok is false when the value is not available or
// holds no number.
func parseNumber(v models.Value) (float64, bool) {
	if !v.Available {
		return 0, false
	}
	match := numberRegexp.FindString(v.Text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
