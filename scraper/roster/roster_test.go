package roster

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"uk-school-scraper/config"
	"uk-school-scraper/fetch"
	"uk-school-scraper/models"
	"uk-school-scraper/testsite"
	"uk-school-scraper/utils"
)

type staticSource []string

func (s staticSource) Constituencies(context.Context) ([]string, error) {
	return s, nil
}

func allConstituencies() staticSource {
	var names []string
	names = append(names, testsite.England...)
	names = append(names, testsite.Scotland...)
	names = append(names, testsite.NorthernIreland...)
	return names
}

func newResolver(t *testing.T, site *testsite.Site, source ConstituencySource) (*Resolver, config.Settings) {
	t.Helper()
	cfg := site.Settings(t.TempDir())
	logger := utils.NewDiscardLogger()
	return New(cfg, source, fetch.NewHTTPFetcher("test-agent", 5*time.Second, logger), logger), cfg
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestBuildRosterURL(t *testing.T) {
	tests := []struct {
		constituency string
		want         string
	}{
		{
			"Ayr, Carrick and Cumnock",
			"https://www.compare-school-performance.service.gov.uk/schools-by-type?step=default&table=schools&parliamentary=Ayr,+Carrick+and+Cumnock&geographic=parliamentary&for=primary",
		},
		{
			"Aldridge-Brownhills",
			"https://www.compare-school-performance.service.gov.uk/schools-by-type?step=default&table=schools&parliamentary=Aldridge-Brownhills&geographic=parliamentary&for=primary",
		},
	}
	template := config.Default("data").RosterURLTemplate
	for _, tt := range tests {
		if got := BuildRosterURL(template, tt.constituency); got != tt.want {
			t.Errorf("BuildRosterURL(%q) = %q; want %q", tt.constituency, got, tt.want)
		}
	}
}

func TestParseRosterSkipsClassedRows(t *testing.T) {
	doc := parse(t, testsite.RosterPage(testsite.AldridgeBrownhills[:3]))

	got, err := ParseRoster(doc, "http://example.test/roster", "Aldridge-Brownhills")
	require.NoError(t, err)

	want := []models.SchoolIdentity{
		{Name: "St Anne's Catholic Primary School, Streetly", URN: "104241", TypeOfSchool: "Voluntary aided school", Constituency: "Aldridge-Brownhills"},
		{Name: "Manor Primary School", URN: "104202", TypeOfSchool: "Community school", Constituency: "Aldridge-Brownhills"},
		{Name: "St Michael's Church of England C Primary School", URN: "104250", TypeOfSchool: "Voluntary controlled school", Constituency: "Aldridge-Brownhills"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRoster mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRosterErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no establishment list", `<table id="results"><tr data-urn="1"><th><a>A</a></th></tr></table>`},
		{"row without urn", `<table id="establishment-list"><tr><th><a>A</a></th></tr></table>`},
		{"non-numeric urn", `<table id="establishment-list"><tr data-urn="abc"><th><a>A</a></th></tr></table>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster(parse(t, tt.html), "http://example.test/roster", "X")
			var perr *models.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("ParseRoster() error = %v; want ParseError", err)
			}
		})
	}
}

func TestParseRosterEmptyList(t *testing.T) {
	got, err := ParseRoster(parse(t, testsite.RosterPage(nil)), "http://example.test/roster", "Angus")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPartition(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	batches := Partition(items, 10)
	var sizes []int
	var flat []int
	for _, b := range batches {
		sizes = append(sizes, len(b))
		flat = append(flat, b...)
	}
	require.Equal(t, []int{10, 10, 3}, sizes)
	require.Equal(t, items, flat)

	require.Empty(t, Partition([]int{}, 10))
	require.Len(t, Partition([]int{1, 2}, 0), 2)
}

func TestSucceeded(t *testing.T) {
	a := models.SchoolIdentity{Name: "A", URN: "1"}
	b := models.SchoolIdentity{Name: "B", URN: "2"}
	results := []BatchResult{
		{Index: 0, Schools: []models.SchoolIdentity{a}, Failed: []string{"x"}},
		{Index: 1, Failed: []string{"y", "z"}, Err: errors.New("all failed")},
		{Index: 2, Schools: []models.SchoolIdentity{b}},
	}

	schools, failed := Succeeded(results)
	require.Equal(t, []models.SchoolIdentity{a, b}, schools)
	require.Equal(t, []string{"x", "y", "z"}, failed)
}

func TestRosterScrapesAndCaches(t *testing.T) {
	site := testsite.New(t)
	r, cfg := newResolver(t, site, allConstituencies())

	res, err := r.Roster(context.Background())
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Empty(t, res.FailedConstituencies)
	require.Len(t, res.Schools, len(testsite.AldridgeBrownhills))
	require.Equal(t, 15, site.Hits(testsite.KindRoster))

	for i, s := range res.Schools {
		want := testsite.AldridgeBrownhills[i]
		if s.URN != want.URN || s.Name != want.Name {
			t.Errorf("school %d = %s (%s); want %s (%s)", i, s.Name, s.URN, want.Name, want.URN)
		}
		if s.Constituency != "Aldridge-Brownhills" {
			t.Errorf("school %d constituency = %q", i, s.Constituency)
		}
	}

	_, err = os.Stat(cfg.RosterPath())
	require.NoError(t, err)

	// A second resolver reads the cache without touching the network.
	again, _ := newResolverAt(t, site, cfg, allConstituencies())
	cached, err := again.Roster(context.Background())
	require.NoError(t, err)
	require.True(t, cached.FromCache)
	require.Equal(t, 15, site.Hits(testsite.KindRoster))
	if diff := cmp.Diff(res.Schools, cached.Schools); diff != "" {
		t.Errorf("cached roster mismatch (-scraped +cached):\n%s", diff)
	}
}

func newResolverAt(t *testing.T, site *testsite.Site, cfg config.Settings, source ConstituencySource) (*Resolver, config.Settings) {
	t.Helper()
	logger := utils.NewDiscardLogger()
	return New(cfg, source, fetch.NewHTTPFetcher("test-agent", 5*time.Second, logger), logger), cfg
}

func TestRosterToleratesFailingConstituencies(t *testing.T) {
	site := testsite.New(t)
	site.FailConstituency("Aldershot")
	site.FailConstituency("Banbury")
	r, _ := newResolver(t, site, staticSource(testsite.England))

	res, err := r.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Schools, len(testsite.AldridgeBrownhills))
	require.Equal(t, []string{"Aldershot", "Banbury"}, res.FailedConstituencies)
}

func TestRosterKeepsConstituencyOrderAcrossBatches(t *testing.T) {
	site := testsite.New(t)
	site.SetRoster("Aldershot", []testsite.School{
		{Name: "Cranmore Infant School", URN: "116109", Type: "Community school"},
		{Name: "Talavera Junior School", URN: "116145", Type: "Foundation school"},
	})
	site.SetRoster("Banbury", []testsite.School{
		{Name: "Hill View Primary School", URN: "123047", Type: "Community school"},
	})

	cfg := site.Settings(t.TempDir())
	cfg.BatchSize = 1
	cfg.Workers = 4
	r, _ := newResolverAt(t, site, cfg, staticSource(testsite.England))

	res, err := r.Scrape(context.Background())
	require.NoError(t, err)

	var urns []string
	for _, s := range res.Schools {
		urns = append(urns, s.URN)
	}
	want := []string{"116109", "116145"}
	for _, s := range testsite.AldridgeBrownhills {
		want = append(want, s.URN)
	}
	want = append(want, "123047")
	require.Equal(t, want, urns)
}

func TestRosterAllFailedWritesNoCache(t *testing.T) {
	site := testsite.New(t)
	site.FailConstituency("Aldershot")
	r, cfg := newResolver(t, site, staticSource{"Aldershot"})

	_, err := r.Roster(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(cfg.RosterPath())
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestResolveConstituencyReportsNetworkError(t *testing.T) {
	site := testsite.New(t)
	site.FailConstituency("Aldershot")
	r, _ := newResolver(t, site, staticSource{"Aldershot"})

	_, err := r.ResolveConstituency(context.Background(), "Aldershot")
	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr), "want NetworkError, got %v", err)
	require.Equal(t, 500, netErr.StatusCode)
}

func TestResolveBatchNamesFailedConstituencies(t *testing.T) {
	site := testsite.New(t)
	site.FailConstituency("Aldershot")
	site.FailConstituency("Banbury")
	r, _ := newResolver(t, site, staticSource{})

	failed := r.resolveBatch(context.Background(), 3, []string{"Aldershot", "Banbury"})
	require.False(t, failed.OK())
	require.ErrorContains(t, failed.Err, "batch 3 (Aldershot, Banbury)")
	require.Equal(t, []string{"Aldershot", "Banbury"}, failed.Failed)

	partial := r.resolveBatch(context.Background(), 4, []string{"Aldershot", "Aldridge-Brownhills"})
	require.True(t, partial.OK())
	require.Equal(t, []string{"Aldershot"}, partial.Failed)
	require.Len(t, partial.Schools, len(testsite.AldridgeBrownhills))
}
