package services

import (
	"testing"

	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func TestCleanValue(t *testing.T) {
	tests := []struct {
		in   models.Value
		want models.Value
	}{
		{models.Present("78%"), models.Present("78%")},
		{models.Present("  -0.8   to\n 3.2 "), models.Present("-0.8 to 3.2")},
		{models.Present(""), models.Missing()},
		{models.Present("   "), models.Missing()},
		{models.Present("SUPP"), models.Missing()},
		{models.Present("supp"), models.Missing()},
		{models.Present("LOWCOV"), models.Missing()},
		{models.Present("N/A"), models.Missing()},
		{models.Present("-"), models.Missing()},
		{models.Present("Well above average"), models.Present("Well above average")},
		{models.Missing(), models.Missing()},
	}

	for _, tt := range tests {
		got := cleanValue(tt.in)
		if got != tt.want {
			t.Errorf("cleanValue(%+v) = %+v; want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     models.Value
		want   float64
		wantOK bool
	}{
		{models.Present("78%"), 78, true},
		{models.Present("+1.2"), 1.2, true},
		{models.Present("-0.8 to 3.2"), -0.8, true},
		{models.Present("1,204"), 1204, true},
		{models.Present("Average"), 0, false},
		{models.Missing(), 0, false},
	}

	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseNumber(%+v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCleanRow(t *testing.T) {
	c := NewCleaner(newTestLogger())
	row := &models.SchoolMetricsRow{
		SchoolName:   " Manor  Primary School ",
		SchoolURN:    "104202",
		Constituency: "Aldridge-Brownhills",
		Fields: []models.Field{
			{Name: "reading_progress_band", Value: models.Present(" Average ")},
			{Name: "reading_progress_score", Value: models.Present("SUPP")},
			{Name: "writing_progress_band", Value: models.Missing()},
		},
	}

	missing := c.CleanRow(row)
	if missing != 2 {
		t.Errorf("CleanRow() = %d missing; want 2", missing)
	}
	if row.SchoolName != "Manor Primary School" {
		t.Errorf("SchoolName = %q; want %q", row.SchoolName, "Manor Primary School")
	}
	if got := row.Get("reading_progress_band"); got != models.Present("Average") {
		t.Errorf("reading_progress_band = %+v; want Average", got)
	}
	if got := row.Get("reading_progress_score").String(); got != models.NotAvailable {
		t.Errorf("reading_progress_score = %q; want %q", got, models.NotAvailable)
	}
}

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  St Anne's \t Catholic\nPrimary ", "St Anne's Catholic Primary"},
		{"", ""},
		{" Ayr, Carrick", "Ayr, Carrick"},
	}
	for _, tt := range tests {
		if got := normaliseText(tt.in); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
