package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"uk-school-scraper/models"
)

const (
	colSchoolName   = "school_name"
	colSchoolURN    = "school_urn"
	colTypeOfSchool = "type_of_school"
	colConstituency = "parliamentary_constituency"
)

// RosterCache stores the school roster as CSV with a leading unnamed
// positional index column.
type RosterCache struct {
	path string
}

func NewRosterCache(path string) *RosterCache {
	return &RosterCache{path: path}
}

func (c *RosterCache) Path() string {
	return c.path
}

// Exists reports whether the cache file is present.
func (c *RosterCache) Exists() (bool, error) {
	_, err := os.Stat(c.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("storage: stat %q: %w", c.path, err)
}

// Load reads the roster back. The three identification columns are required;
// parliamentary_constituency is optional. Any malformed content is an error.
func (c *RosterCache) Load() ([]models.SchoolIdentity, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("storage: open roster cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("storage: roster cache %q has no header", c.path)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: roster cache %q: read header: %w", c.path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colSchoolName, colSchoolURN, colTypeOfSchool} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("storage: roster cache %q: missing column %q", c.path, required)
		}
	}
	constituencyCol, hasConstituency := idx[colConstituency]

	var schools []models.SchoolIdentity
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: roster cache %q: %w", c.path, err)
		}

		urn, err := normaliseURN(rec[idx[colSchoolURN]])
		if err != nil {
			return nil, fmt.Errorf("storage: roster cache %q line %d: %w", c.path, line, err)
		}

		s := models.SchoolIdentity{
			Name:         strings.TrimSpace(rec[idx[colSchoolName]]),
			URN:          urn,
			TypeOfSchool: strings.TrimSpace(rec[idx[colTypeOfSchool]]),
		}
		if hasConstituency {
			s.Constituency = strings.TrimSpace(rec[constituencyCol])
		}
		schools = append(schools, s)
	}
	return schools, nil
}

// Save writes the roster, replacing any previous file.
func (c *RosterCache) Save(schools []models.SchoolIdentity) error {
	return writeFileAtomic(c.path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write([]string{"", colSchoolName, colSchoolURN, colTypeOfSchool, colConstituency}); err != nil {
			return fmt.Errorf("storage: write roster header: %w", err)
		}
		for i, s := range schools {
			row := []string{strconv.Itoa(i), s.Name, s.URN, s.TypeOfSchool, s.Constituency}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("storage: write roster row: %w", err)
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("storage: flush roster: %w", err)
		}
		return nil
	})
}

// floatURN matches the "104241.0" form spreadsheet tools write for integer columns.
var floatURN = regexp.MustCompile(`^(\d+)\.0+$`)

// normaliseURN accepts a digit string, or a digit string with a zero
// fractional part, and returns the digit string.
func normaliseURN(raw string) (string, error) {
	urn := strings.TrimSpace(raw)
	if models.ValidURN(urn) {
		return urn, nil
	}
	if m := floatURN.FindStringSubmatch(urn); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("invalid school_urn %q", raw)
}
