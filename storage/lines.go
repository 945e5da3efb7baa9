package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// LineCache is a plain UTF-8 text file holding one entry per line.
type LineCache struct {
	path string
}

func NewLineCache(path string) *LineCache {
	return &LineCache{path: path}
}

func (c *LineCache) Path() string {
	return c.path
}

// Read returns the whitespace-trimmed, non-blank lines in file order.
// A missing file reads as empty; any other error is returned.
func (c *LineCache) Read() ([]string, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", c.path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", c.path, err)
	}
	return lines, nil
}

// Write replaces the file with one line per entry, each newline-terminated.
func (c *LineCache) Write(lines []string) error {
	return writeFileAtomic(c.path, func(f io.Writer) error {
		w := bufio.NewWriter(f)
		for _, line := range lines {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return fmt.Errorf("storage: write %q: %w", c.path, err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("storage: flush %q: %w", c.path, err)
		}
		return nil
	})
}
