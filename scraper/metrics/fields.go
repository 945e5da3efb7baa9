package metrics

import "uk-school-scraper/models"

// Page identifies which of a school's two pages a field is read from.
type Page int

const (
	ResultsPage Page = iota
	AbsencePage
)

func (p Page) String() string {
	switch p {
	case ResultsPage:
		return "primary"
	case AbsencePage:
		return "absence-and-pupil-population"
	}
	return "unknown"
}

// containerSelector wraps every value cell on both pages.
const containerSelector = "#main-content"

// Key stage 2 results. Comparative measures carry school, local authority
// average and England average tiers.
var resultsColumns = []string{
	"reading_progress_band",
	"reading_progress_score",
	"reading_progress_score_confidence_interval",
	"writing_progress_band",
	"writing_progress_score",
	"writing_progress_score_confidence_interval",
	"maths_progress_band",
	"maths_progress_score",
	"maths_progress_score_confidence_interval",
	"expected_standard_rwm_school",
	"expected_standard_rwm_local_authority_average",
	"expected_standard_rwm_england_average",
	"higher_standard_rwm_school",
	"higher_standard_rwm_local_authority_average",
	"higher_standard_rwm_england_average",
	"average_score_reading_school",
	"average_score_reading_local_authority_average",
	"average_score_reading_england_average",
	"average_score_maths_school",
	"average_score_maths_local_authority_average",
	"average_score_maths_england_average",
}

// Absence is school-only; population measures compare against
// England mainstream primary schools.
var absenceColumns = []string{
	"overall_absence_school",
	"persistent_absence_school",
	"pupils_on_roll_school",
	"pupils_on_roll_england",
	"girls_percentage_school",
	"girls_percentage_england",
	"boys_percentage_school",
	"boys_percentage_england",
	"sen_ehc_plan_percentage_school",
	"sen_ehc_plan_percentage_england",
	"sen_support_percentage_school",
	"sen_support_percentage_england",
	"eal_percentage_school",
	"eal_percentage_england",
	"fsm_percentage_school",
	"fsm_percentage_england",
}

// ColumnsFor returns the metric columns read from page p.
func ColumnsFor(p Page) []string {
	var src []string
	switch p {
	case ResultsPage:
		src = resultsColumns
	case AbsencePage:
		src = absenceColumns
	}
	return append([]string(nil), src...)
}

// Columns returns the full output header: identity columns, then
// results-page columns, then absence-page columns.
func Columns() []string {
	cols := make([]string, 0, len(models.IdentityColumns)+len(resultsColumns)+len(absenceColumns))
	cols = append(cols, models.IdentityColumns...)
	cols = append(cols, resultsColumns...)
	cols = append(cols, absenceColumns...)
	return cols
}

func cellSelector(column string) string {
	return `[data-metric="` + column + `"]`
}
