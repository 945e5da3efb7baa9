package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"uk-school-scraper/models"
	"uk-school-scraper/utils"
)

const (
	bandColumn             = "reading_progress_band"
	expectedStandardColumn = "expected_standard_rwm_school"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(table *models.AggregateTable) *models.DatasetReport {
	report := &models.DatasetReport{
		DuplicateNames:     make(map[string]int),
		RowsByConstituency: make(map[string]int),
		ReadingBands:       make(map[string]int),
	}
	if table == nil {
		return report
	}

	report.SkippedSchools = len(table.SkippedSchools)
	report.FailedConstituencies = len(table.FailedConstituencies)
	report.TotalRows = table.Len()

	urns := make(map[string]struct{}, table.Len())
	names := make(map[string]int, table.Len())
	var ranked []*models.SchoolMetricsRow

	for _, row := range table.Rows {
		urns[row.SchoolURN] = struct{}{}
		names[row.SchoolName]++

		constituency := row.Constituency
		if constituency == "" {
			constituency = models.NotAvailable
		}
		report.RowsByConstituency[constituency]++

		report.ReadingBands[row.Get(bandColumn).String()]++

		for _, f := range row.Fields {
			report.TotalMetricCells++
			if !f.Value.Available {
				report.NotAvailableCells++
			}
		}

		if _, ok := parseNumber(row.Get(expectedStandardColumn)); ok {
			ranked = append(ranked, row)
		}
	}
	report.DistinctURNs = len(urns)

	for name, n := range names {
		if n > 1 {
			report.DuplicateNames[name] = n
		}
	}

	// Top 5 by share of pupils meeting the expected standard
	sort.SliceStable(ranked, func(i, j int) bool {
		a, _ := parseNumber(ranked[i].Get(expectedStandardColumn))
		b, _ := parseNumber(ranked[j].Get(expectedStandardColumn))
		return a > b
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	report.TopExpectedStandard = ranked

	return report
}

func (s *InsightService) Print(r *models.DatasetReport) {
	title := color.New(color.FgMagenta, color.Bold)
	heading := color.New(color.FgYellow, color.Bold)
	bold := color.New(color.Bold)
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	title.Printf("\n%s\n  UK PRIMARY SCHOOL DATASET\n%s\n\n", sep, sep)

	heading.Println("  Overview")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Rows                   : %s\n", bold.Sprint(r.TotalRows))
	fmt.Printf("  Distinct URNs          : %s\n", bold.Sprint(r.DistinctURNs))
	fmt.Printf("  Schools skipped        : %s\n", bold.Sprint(r.SkippedSchools))
	fmt.Printf("  Constituencies omitted : %s\n", bold.Sprint(r.FailedConstituencies))
	if r.TotalMetricCells > 0 {
		fmt.Printf("  Not available cells    : %d of %d (%.1f%%)\n",
			r.NotAvailableCells, r.TotalMetricCells,
			100*float64(r.NotAvailableCells)/float64(r.TotalMetricCells))
	}
	fmt.Println()

	heading.Println("  Reading Progress Bands")
	fmt.Printf("  %s\n", thin)
	printCounts(r.ReadingBands, "  No band data")
	fmt.Println()

	heading.Println("  Top Schools by Expected Standard (RWM)")
	fmt.Printf("  %s\n", thin)
	if len(r.TopExpectedStandard) == 0 {
		fmt.Println("  No expected standard data")
	}
	for i, row := range r.TopExpectedStandard {
		fmt.Printf("  %s %-40s %s\n", bold.Sprintf("%d.", i+1),
			truncate(row.SchoolName, 38), color.GreenString(row.Get(expectedStandardColumn).String()))
	}
	fmt.Println()

	heading.Println("  Rows by Constituency")
	fmt.Printf("  %s\n", thin)
	printCounts(r.RowsByConstituency, "  No rows")

	if len(r.DuplicateNames) > 0 {
		fmt.Println()
		heading.Println("  Shared School Names")
		fmt.Printf("  %s\n", thin)
		printCounts(r.DuplicateNames, "")
	}

	title.Printf("\n%s\n\n", sep)
}

// printCounts prints a bar per key, largest first.
func printCounts(counts map[string]int, empty string) {
	if len(counts) == 0 {
		fmt.Println(empty)
		return
	}
	type keyCount struct {
		key   string
		count int
	}
	var kcs []keyCount
	for k, n := range counts {
		kcs = append(kcs, keyCount{k, n})
	}
	sort.Slice(kcs, func(i, j int) bool {
		if kcs[i].count != kcs[j].count {
			return kcs[i].count > kcs[j].count
		}
		return kcs[i].key < kcs[j].key
	})
	for _, kc := range kcs {
		bar := strings.Repeat("█", min(kc.count, 40))
		fmt.Printf("  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
