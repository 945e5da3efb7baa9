package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"uk-school-scraper/config"
	"uk-school-scraper/models"
	"uk-school-scraper/scraper/roster"
	"uk-school-scraper/storage"
	"uk-school-scraper/utils"
)

// RosterSource supplies the schools to aggregate.
type RosterSource interface {
	Roster(ctx context.Context) (*roster.Result, error)
}

// MetricsSource extracts the row for one school.
type MetricsSource interface {
	SchoolMetrics(ctx context.Context, name, urn string) (*models.SchoolMetricsRow, error)
}

// Aggregator builds the aggregate table from the roster, one row per school.
// A school whose data is unavailable is skipped and recorded; any other
// error aborts the run.
type Aggregator struct {
	roster  RosterSource
	metrics MetricsSource
	cache   storage.MetricsStore
	cleaner *Cleaner
	workers int
	logger  *utils.Logger
}

// NewAggregator wires an Aggregator. The per-school cache is used only
// when s.CacheSchoolMetrics is set.
func NewAggregator(s config.Settings, rosterSrc RosterSource, metricsSrc MetricsSource, logger *utils.Logger) *Aggregator {
	a := &Aggregator{
		roster:  rosterSrc,
		metrics: metricsSrc,
		cleaner: NewCleaner(logger),
		workers: s.MaxConcurrency,
		logger:  logger,
	}
	if s.CacheSchoolMetrics {
		a.cache = storage.NewMetricsCache(s.MetricsCacheDir())
	}
	return a
}

// AllSchoolData resolves the roster and extracts every school, in roster order.
func (a *Aggregator) AllSchoolData(ctx context.Context) (*models.AggregateTable, error) {
	res, err := a.roster.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	schools := res.Schools
	a.logger.Info("[aggregate] Extracting metrics for %d schools", len(schools))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		rows     = make([]*models.SchoolMetricsRow, len(schools))
		failures = make([]error, len(schools))

		fatalOnce sync.Once
		fatal     error
	)

	pool := utils.NewWorkerPool(a.workers)
	for i, school := range schools {
		i, school := i, school
		pool.Submit(func() {
			if ctx.Err() != nil {
				failures[i] = ctx.Err()
				return
			}
			row, err := a.SchoolData(ctx, school)
			if err == nil {
				rows[i] = row
				return
			}
			failures[i] = err

			var unavailable *models.SchoolDataUnavailableError
			if !errors.As(err, &unavailable) {
				fatalOnce.Do(func() {
					fatal = err
					cancel()
				})
			}
		})
	}
	pool.Wait()

	if fatal != nil {
		return nil, fmt.Errorf("aggregate: %w", fatal)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	table := &models.AggregateTable{
		Rows:                 make([]*models.SchoolMetricsRow, 0, len(schools)),
		FailedConstituencies: res.FailedConstituencies,
	}
	for i, row := range rows {
		if row == nil {
			a.logger.Warn("[aggregate] Skipping %s (%s): %v", schools[i].Name, schools[i].URN, failures[i])
			table.SkippedSchools = append(table.SkippedSchools, schools[i])
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	a.logger.Info("[aggregate] Built %d rows (%d schools skipped)", table.Len(), len(table.SkippedSchools))
	return table, nil
}

// SchoolData returns the cleaned row for one school, consulting the
// per-school cache first when it is enabled.
func (a *Aggregator) SchoolData(ctx context.Context, school models.SchoolIdentity) (*models.SchoolMetricsRow, error) {
	if a.cache != nil {
		row, ok, err := a.cache.Get(school.URN)
		if err != nil {
			return nil, err
		}
		if ok {
			a.logger.Debug("[aggregate] Cache hit for %s", school.URN)
			return row, nil
		}
	}

	row, err := a.metrics.SchoolMetrics(ctx, school.Name, school.URN)
	if err != nil {
		return nil, err
	}
	row.Constituency = school.Constituency
	a.cleaner.CleanRow(row)

	if a.cache != nil {
		if err := a.cache.Put(row); err != nil {
			a.logger.Warn("[aggregate] Could not cache %s: %v", school.URN, err)
		}
	}
	return row, nil
}
