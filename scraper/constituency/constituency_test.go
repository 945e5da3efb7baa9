package constituency

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"uk-school-scraper/fetch"
	"uk-school-scraper/models"
	"uk-school-scraper/testsite"
	"uk-school-scraper/utils"
)

func newCatalog(t *testing.T, site *testsite.Site) (*Catalog, string) {
	t.Helper()
	cfg := site.Settings(t.TempDir())
	logger := utils.NewDiscardLogger()
	return New(cfg, fetch.NewHTTPFetcher("test-agent", 5*time.Second, logger), logger), cfg.ConstituenciesPath()
}

func TestConstituenciesScrapesEnglandTableAndCaches(t *testing.T) {
	site := testsite.New(t)
	c, path := newCatalog(t, site)

	got, err := c.Constituencies(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(testsite.England, got); diff != "" {
		t.Errorf("Constituencies mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strings.Join(testsite.England, "\n")+"\n", string(raw))
	require.Equal(t, 1, site.Hits(testsite.KindConstituencies))
}

func TestConstituenciesIsIdempotent(t *testing.T) {
	site := testsite.New(t)
	c, _ := newCatalog(t, site)

	first, err := c.Constituencies(context.Background())
	require.NoError(t, err)

	site.Server.Close()

	second, err := c.Constituencies(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, site.Hits(testsite.KindConstituencies))
}

func TestConstituenciesReadsExistingCache(t *testing.T) {
	site := testsite.New(t)
	c, path := newCatalog(t, site)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("Aldershot\nAldridge-Brownhills\n"), 0o644))

	got, err := c.Constituencies(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Aldershot", "Aldridge-Brownhills"}, got)
	require.Zero(t, site.TotalHits())
}

func TestConstituenciesRescrapesBlankCache(t *testing.T) {
	site := testsite.New(t)
	c, path := newCatalog(t, site)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o644))

	got, err := c.Constituencies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(testsite.England))
	require.Equal(t, 1, site.Hits(testsite.KindConstituencies))
}

func TestConstituenciesNetworkFailureWritesNoCache(t *testing.T) {
	site := testsite.New(t)
	c, path := newCatalog(t, site)
	site.Server.Close()

	_, err := c.Constituencies(context.Background())
	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr), "want NetworkError, got %v", err)

	_, statErr := os.Stat(path)
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestParseConstituencies(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    []string
		wantErr bool
	}{
		{
			name: "skips header and ignores other nations",
			html: testsite.ConstituencyPage(),
			want: testsite.England,
		},
		{
			name: "keeps embedded commas",
			html: `<table id="England"><tr><th>Name</th></tr><tr><td> Ayr, Carrick and Cumnock </td><td>1</td></tr></table>`,
			want: []string{"Ayr, Carrick and Cumnock"},
		},
		{
			name:    "missing England table",
			html:    `<table id="Scotland"><tr><th>Name</th></tr><tr><td>Angus</td></tr></table>`,
			wantErr: true,
		},
		{
			name:    "header only",
			html:    `<table id="England"><tr><th>Name</th></tr></table>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)

			got, err := ParseConstituencies(doc, "http://example.test/wiki")
			if tt.wantErr {
				var perr *models.ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("ParseConstituencies() error = %v; want ParseError", err)
				}
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseConstituencies() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
