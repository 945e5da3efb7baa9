package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"uk-school-scraper/models"
)

// MetricsCache keeps one JSON file per school, named by URN.
type MetricsCache struct {
	dir string
}

func NewMetricsCache(dir string) *MetricsCache {
	return &MetricsCache{dir: dir}
}

func (c *MetricsCache) path(urn string) string {
	return filepath.Join(c.dir, urn+".json")
}

// Get returns the cached row for urn. A corrupt entry is an error, not a miss.
func (c *MetricsCache) Get(urn string) (*models.SchoolMetricsRow, bool, error) {
	if !models.ValidURN(urn) {
		return nil, false, fmt.Errorf("storage: metrics cache: invalid urn %q", urn)
	}

	raw, err := os.ReadFile(c.path(urn))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: metrics cache read %s: %w", urn, err)
	}

	var row models.SchoolMetricsRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, false, fmt.Errorf("storage: metrics cache entry %s is corrupt: %w", urn, err)
	}
	if row.SchoolURN != urn {
		return nil, false, fmt.Errorf("storage: metrics cache entry %s holds urn %q", urn, row.SchoolURN)
	}
	return &row, true, nil
}

// Put stores row under its URN.
func (c *MetricsCache) Put(row *models.SchoolMetricsRow) error {
	if !models.ValidURN(row.SchoolURN) {
		return fmt.Errorf("storage: metrics cache: invalid urn %q", row.SchoolURN)
	}
	raw, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode metrics %s: %w", row.SchoolURN, err)
	}

	return writeFileAtomic(c.path(row.SchoolURN), func(w io.Writer) error {
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("storage: write metrics %s: %w", row.SchoolURN, err)
		}
		return nil
	})
}
