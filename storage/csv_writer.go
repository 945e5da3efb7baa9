package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"uk-school-scraper/models"
)

// CSVWriter writes the aggregate school table to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	header []string
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, header: header}, nil
}

// WriteTable appends one record per row. Every row must match the header width.
func (c *CSVWriter) WriteTable(table *models.AggregateTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range table.Rows {
		rec := row.Record()
		if len(rec) != len(c.header) {
			return fmt.Errorf("csv: row for urn %s has %d columns, header has %d",
				row.SchoolURN, len(rec), len(c.header))
		}
		if err := c.writer.Write(rec); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
