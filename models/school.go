package models

import "strings"

// NotAvailable is written in place of any value the source page did not provide.
const NotAvailable = "NA"

// SchoolIdentity is one row of the school roster.
// URN is kept as the raw digit string; leading zeros survive.
type SchoolIdentity struct {
	Name         string
	URN          string
	TypeOfSchool string
	Constituency string
}

// ValidURN reports whether urn is a non-empty run of ASCII digits.
func ValidURN(urn string) bool {
	if urn == "" {
		return false
	}
	for _, r := range urn {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Value is a single scraped cell. A zero Value is not available.
type Value struct {
	Text      string `json:"text,omitempty"`
	Available bool   `json:"available"`
}

// Present wraps text as an available value.
func Present(text string) Value {
	return Value{Text: text, Available: true}
}

// Missing is the explicit not-available value.
func Missing() Value {
	return Value{}
}

func (v Value) String() string {
	if !v.Available {
		return NotAvailable
	}
	return v.Text
}

// Field is a named value in a SchoolMetricsRow.
type Field struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// SchoolMetricsRow is the wide record for one school: identity columns
// followed by the results-page and absence-page fields in column order.
type SchoolMetricsRow struct {
	SchoolName   string  `json:"school_name"`
	SchoolURN    string  `json:"school_urn"`
	Constituency string  `json:"parliamentary_constituency"`
	Fields       []Field `json:"fields"`
}

// IdentityColumns are the leading columns of every row.
var IdentityColumns = []string{"school_name", "school_urn", "parliamentary_constituency"}

// Get returns the named field, or a missing value if the row has no such field.
func (r *SchoolMetricsRow) Get(name string) Value {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return Missing()
}

// Header returns the column names of the row in output order.
func (r *SchoolMetricsRow) Header() []string {
	header := make([]string, 0, len(IdentityColumns)+len(r.Fields))
	header = append(header, IdentityColumns...)
	for _, f := range r.Fields {
		header = append(header, f.Name)
	}
	return header
}

// Record renders the row as CSV cells.
func (r *SchoolMetricsRow) Record() []string {
	constituency := r.Constituency
	if strings.TrimSpace(constituency) == "" {
		constituency = NotAvailable
	}
	rec := make([]string, 0, len(IdentityColumns)+len(r.Fields))
	rec = append(rec, r.SchoolName, r.SchoolURN, constituency)
	for _, f := range r.Fields {
		rec = append(rec, f.Value.String())
	}
	return rec
}

// AggregateTable is the concatenation of every successfully extracted row.
type AggregateTable struct {
	Rows []*SchoolMetricsRow

	// Omissions tolerated while building the table.
	FailedConstituencies []string
	SkippedSchools       []SchoolIdentity
}

// Len returns the number of rows.
func (t *AggregateTable) Len() int {
	return len(t.Rows)
}

// DatasetReport holds the summary computed over an AggregateTable.
type DatasetReport struct {
	TotalRows            int
	DistinctURNs         int
	DuplicateNames       map[string]int
	RowsByConstituency   map[string]int
	ReadingBands         map[string]int
	NotAvailableCells    int
	TotalMetricCells     int
	SkippedSchools       int
	FailedConstituencies int
	TopExpectedStandard  []*SchoolMetricsRow
}
