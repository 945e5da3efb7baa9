// Package testsite serves a local stand-in for the constituency reference
// page and the school comparison site, for use in tests.
package testsite

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"uk-school-scraper/config"
)

// Request kinds counted by Hits.
const (
	KindConstituencies = "constituencies"
	KindRoster         = "roster"
	KindResults        = "results"
	KindAbsence        = "absence"
)

var (
	England         = []string{"Aldershot", "Aldridge-Brownhills", "Altrincham and Sale West", "Ashton-under-Lyne", "Banbury"}
	Scotland        = []string{"Aberdeen North", "Aberdeen South", "Angus", "Argyll and Bute", "Ayr, Carrick and Cumnock"}
	NorthernIreland = []string{"Belfast East", "Belfast North", "East Antrim", "Fermanagh and South Tyrone", "Foyle"}
)

// School is one roster entry served by the fake site.
type School struct {
	Name string
	URN  string
	Type string
}

// AldridgeBrownhills is the roster of the only constituency with schools.
// Duplicate names are deliberate.
var AldridgeBrownhills = []School{
	{"St Anne's Catholic Primary School, Streetly", "104241", "Voluntary aided school"},
	{"Manor Primary School", "104202", "Community school"},
	{"St Michael's Church of England C Primary School", "104250", "Voluntary controlled school"},
	{"St Mary of the Angels Catholic Primary School", "104246", "Voluntary aided school"},
	{"Walsall Wood School", "104190", "Community school"},
	{"Ryders Hayes School", "104195", "Community school"},
	{"St Francis Catholic Primary School", "104243", "Voluntary aided school"},
	{"Whetstone Field Primary School", "104213", "Community school"},
	{"Blackwood School", "104187", "Community school"},
	{"Castlefort Junior Mixed and Infant School", "104199", "Community school"},
	{"Holy Trinity Church of England Primary School", "140411", "Academy converter"},
	{"St John's Church of England Primary School", "104235", "Voluntary aided school"},
	{"Watling Street Primary School", "104212", "Community school"},
	{"Cooper and Jordan Church of England Primary School", "104232", "Voluntary aided school"},
	{"St Bernadette's Catholic Primary School", "104244", "Voluntary aided school"},
	{"Millfield Primary School", "104208", "Community school"},
	{"Radleys Primary School", "104215", "Community school"},
	{"Lindens Primary School", "104211", "Community school"},
	{"St James Primary School", "104236", "Voluntary aided school"},
	{"Pelsall Village School", "104192", "Community school"},
	{"Greenfield Primary School", "104205", "Community school"},
	{"Leighswood School", "104196", "Community school"},
	{"Brownhills West Primary School", "104201", "Community school"},
	{"Rushall Primary School", "104210", "Community school"},
	{"Oakwood School", "104189", "Community school"},
	{"Blackwood School", "145126", "Academy converter"},
	{"Brownhills West Primary School", "145127", "Academy converter"},
	{"Greenfield Primary School", "145128", "Academy converter"},
	{"St Bernadette's Catholic Primary School", "145129", "Academy converter"},
	{"Walsall Wood School", "145130", "Academy converter"},
}

// ResultsValues are served on every results page. writing_progress_score_confidence_interval
// is absent and maths_progress_score_confidence_interval is suppressed.
var ResultsValues = map[string]string{
	"reading_progress_band":                         "Average",
	"reading_progress_score":                        "+1.2",
	"reading_progress_score_confidence_interval":    "-0.8 to 3.2",
	"writing_progress_band":                         "Above average",
	"writing_progress_score":                        "+2.9",
	"maths_progress_band":                           "Average",
	"maths_progress_score":                          "0.4",
	"maths_progress_score_confidence_interval":      "SUPP",
	"expected_standard_rwm_school":                  "78%",
	"expected_standard_rwm_local_authority_average": "55%",
	"expected_standard_rwm_england_average":         "60%",
	"higher_standard_rwm_school":                    "12%",
	"higher_standard_rwm_local_authority_average":   "7%",
	"higher_standard_rwm_england_average":           "8%",
	"average_score_reading_school":                  "107",
	"average_score_reading_local_authority_average": "104",
	"average_score_reading_england_average":         "105",
	"average_score_maths_school":                    "106",
	"average_score_maths_local_authority_average":   "103",
	"average_score_maths_england_average":           "104",
}

// AbsenceValues are served on every absence and pupil population page.
var AbsenceValues = map[string]string{
	"overall_absence_school":          "5.1%",
	"persistent_absence_school":       "12.4%",
	"pupils_on_roll_school":           "  420 ",
	"pupils_on_roll_england":          "281",
	"girls_percentage_school":         "49.3%",
	"girls_percentage_england":        "49.3%",
	"boys_percentage_school":          "50.7%",
	"boys_percentage_england":         "50.7%",
	"sen_ehc_plan_percentage_school":  "1.4%",
	"sen_ehc_plan_percentage_england": "2.5%",
	"sen_support_percentage_school":   "9.8%",
	"sen_support_percentage_england":  "13.0%",
	"eal_percentage_school":           "6.2%",
	"eal_percentage_england":          "22.3%",
	"fsm_percentage_school":           "8.1%",
	"fsm_percentage_england":          "24.3%",
}

// Site is a running fake of both remote sites.
type Site struct {
	Server *httptest.Server

	mu                 sync.Mutex
	hits               map[string]int
	requestURIs        []string
	userAgents         map[string]struct{}
	rosters            map[string][]School
	failConstituencies map[string]bool
	failURNs           map[string]bool
	brokenURNs         map[string]bool
}

// New starts a Site that is closed when the test ends.
func New(t testing.TB) *Site {
	s := &Site{
		hits:               make(map[string]int),
		userAgents:         make(map[string]struct{}),
		rosters:            map[string][]School{"Aldridge-Brownhills": AldridgeBrownhills},
		failConstituencies: make(map[string]bool),
		failURNs:           make(map[string]bool),
		brokenURNs:         make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/constituencies", s.serveConstituencies)
	mux.HandleFunc("/schools-by-type", s.serveRoster)
	mux.HandleFunc("/school/", s.serveSchool)
	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Server.Close)
	return s
}

// Settings returns production-shaped Settings pointed at this site.
func (s *Site) Settings(dataDir string) config.Settings {
	cfg := config.Default(dataDir)
	cfg.ConstituenciesURL = s.Server.URL + "/wiki/constituencies"
	cfg.RosterURLTemplate = s.Server.URL + "/schools-by-type?step=default&table=schools&parliamentary=%s&geographic=parliamentary&for=primary"
	cfg.SchoolBaseURL = s.Server.URL + "/school"
	cfg.Workers = 2
	return cfg
}

// SetRoster replaces the schools served for a constituency.
func (s *Site) SetRoster(constituency string, schools []School) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[constituency] = schools
}

// FailConstituency makes the roster page of a constituency return 500.
func (s *Site) FailConstituency(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failConstituencies[name] = true
}

// FailURN makes both pages of a school return 500.
func (s *Site) FailURN(urn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failURNs[urn] = true
}

// BreakURN serves a school's absence page without its main container.
func (s *Site) BreakURN(urn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenURNs[urn] = true
}

// Hits returns how many requests of kind were served.
func (s *Site) Hits(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[kind]
}

// TotalHits returns the number of requests of every kind.
func (s *Site) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

// RequestURIs returns the raw request URIs received, in arrival order.
func (s *Site) RequestURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestURIs...)
}

// UserAgents returns the distinct User-Agent headers seen.
func (s *Site) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for ua := range s.userAgents {
		out = append(out, ua)
	}
	sort.Strings(out)
	return out
}

func (s *Site) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestURIs = append(s.requestURIs, r.RequestURI)
		s.userAgents[r.Header.Get("User-Agent")] = struct{}{}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Site) hit(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[kind]++
}

func (s *Site) serveConstituencies(w http.ResponseWriter, r *http.Request) {
	s.hit(KindConstituencies)
	fmt.Fprint(w, ConstituencyPage())
}

func (s *Site) serveRoster(w http.ResponseWriter, r *http.Request) {
	s.hit(KindRoster)
	name := r.URL.Query().Get("parliamentary")

	s.mu.Lock()
	fail := s.failConstituencies[name]
	schools := s.rosters[name]
	s.mu.Unlock()

	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, RosterPage(schools))
}

func (s *Site) serveSchool(w http.ResponseWriter, r *http.Request) {
	// /school/{urn}/{slug}/{page}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/school/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	urn, page := parts[0], parts[2]

	s.mu.Lock()
	fail := s.failURNs[urn]
	broken := s.brokenURNs[urn]
	s.mu.Unlock()

	switch page {
	case "primary":
		s.hit(KindResults)
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, MetricsPage(ResultsValues, true))
	case "absence-and-pupil-population":
		s.hit(KindAbsence)
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, MetricsPage(AbsenceValues, !broken))
	default:
		http.NotFound(w, r)
	}
}

// ConstituencyPage renders the reference page with one table per nation.
func ConstituencyPage() string {
	var b strings.Builder
	b.WriteString("<html><body><h1>Constituencies of the Parliament of the United Kingdom</h1>")
	for _, nation := range []struct {
		id    string
		names []string
	}{
		{"England", England},
		{"Scotland", Scotland},
		{"Northern_Ireland", NorthernIreland},
	} {
		fmt.Fprintf(&b, `<h2>%s</h2><table class="wikitable sortable" id="%s">`, nation.id, nation.id)
		b.WriteString("<tr><th>Constituency</th><th>Electorate</th></tr>")
		for i, name := range nation.names {
			fmt.Fprintf(&b, "<tr><td>\n %s </td><td>%d</td></tr>", html.EscapeString(name), 70000+i)
		}
		b.WriteString("</table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// RosterPage renders an establishment list with header and spacer rows.
func RosterPage(schools []School) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="establishment-list">`)
	b.WriteString(`<thead><tr class="table-header"><th>School</th><th>Type of school</th></tr></thead><tbody>`)
	for i, sc := range schools {
		if i%10 == 0 {
			b.WriteString(`<tr class="spacer"><td colspan="2"></td></tr>`)
		}
		fmt.Fprintf(&b,
			`<tr data-urn="%s"><th scope="row"><a href="/school/%s">%s</a> </th><td data-title="Type of school"> %s </td></tr>`,
			sc.URN, sc.URN, html.EscapeString(sc.Name), html.EscapeString(sc.Type))
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// MetricsPage renders value cells for values, optionally without the
// main container.
func MetricsPage(values map[string]string, withContainer bool) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<html><body>")
	if withContainer {
		b.WriteString(`<main id="main-content">`)
	} else {
		b.WriteString(`<main id="maintenance">`)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, `<div class="metric"><span class="label">%s</span><span data-metric="%s">%s</span></div>`,
			k, k, html.EscapeString(values[k]))
	}
	b.WriteString("</main></body></html>")
	return b.String()
}
