// Package roster resolves constituencies to the primary schools listed for them.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"uk-school-scraper/config"
	"uk-school-scraper/fetch"
	"uk-school-scraper/models"
	"uk-school-scraper/storage"
	"uk-school-scraper/utils"
)

// ConstituencySource supplies the constituencies to resolve.
type ConstituencySource interface {
	Constituencies(ctx context.Context) ([]string, error)
}

// Result is a resolved roster.
type Result struct {
	Schools              []models.SchoolIdentity
	FailedConstituencies []string
	FromCache            bool
}

// BatchResult is the outcome of resolving one batch of constituencies.
// Err is set only when every constituency in the batch failed.
type BatchResult struct {
	Index          int
	Constituencies []string
	Schools        []models.SchoolIdentity
	Failed         []string
	Err            error
}

func (b BatchResult) OK() bool {
	return b.Err == nil
}

// Resolver produces the school roster from its cache file, or by scraping
// every constituency when the cache is absent.
type Resolver struct {
	template  string
	batchSize int
	workers   int

	source  ConstituencySource
	cache   storage.RosterStore
	fetcher fetch.Fetcher
	logger  *utils.Logger
}

func New(s config.Settings, source ConstituencySource, fetcher fetch.Fetcher, logger *utils.Logger) *Resolver {
	return &Resolver{
		template:  s.RosterURLTemplate,
		batchSize: s.BatchSize,
		workers:   s.WorkerCount(),
		source:    source,
		cache:     storage.NewRosterCache(s.RosterPath()),
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Roster returns the cached roster if present, otherwise scrapes and caches it.
// A cache that exists but cannot be read is an error.
func (r *Resolver) Roster(ctx context.Context) (*Result, error) {
	exists, err := r.cache.Exists()
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	if exists {
		schools, err := r.cache.Load()
		if err != nil {
			return nil, fmt.Errorf("roster: %w", err)
		}
		r.logger.Debug("[roster] Loaded %d schools from cache", len(schools))
		return &Result{Schools: schools, FromCache: true}, nil
	}

	return r.Scrape(ctx)
}

// Scrape resolves every constituency in parallel batches, writes the cache
// once all batches have finished, and returns the concatenated roster.
func (r *Resolver) Scrape(ctx context.Context) (*Result, error) {
	constituencies, err := r.source.Constituencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	batches := Partition(constituencies, r.batchSize)
	r.logger.Info("[roster] Resolving %d constituencies in %d batches across %d workers",
		len(constituencies), len(batches), r.workers)

	results := make([]BatchResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			results[i] = r.resolveBatch(gctx, i, batch)
			return nil
		})
	}
	_ = g.Wait() // failures are carried in each BatchResult

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	schools, failed := Succeeded(results)
	if len(schools) == 0 && len(failed) > 0 {
		return nil, fmt.Errorf("roster: all %d constituencies failed; cache not written", len(failed))
	}

	if err := r.cache.Save(schools); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	r.logger.Info("[roster] Cached %d schools (%d constituencies omitted)", len(schools), len(failed))
	return &Result{Schools: schools, FailedConstituencies: failed}, nil
}

// Succeeded concatenates the schools of successful batches in batch order
// and lists every constituency that was omitted, whether its batch
// succeeded partially or failed outright.
func Succeeded(results []BatchResult) ([]models.SchoolIdentity, []string) {
	var (
		schools []models.SchoolIdentity
		failed  []string
	)
	for _, b := range results {
		failed = append(failed, b.Failed...)
		if !b.OK() {
			continue
		}
		schools = append(schools, b.Schools...)
	}
	return schools, failed
}

func (r *Resolver) resolveBatch(ctx context.Context, index int, constituencies []string) BatchResult {
	res := BatchResult{Index: index, Constituencies: constituencies}

	var errs []error
	for _, name := range constituencies {
		schools, err := r.ResolveConstituency(ctx, name)
		if err != nil {
			r.logger.Warn("[roster] Skipping constituency %q: %v", name, err)
			res.Failed = append(res.Failed, name)
			errs = append(errs, err)
			continue
		}
		res.Schools = append(res.Schools, schools...)
	}

	if len(constituencies) > 0 && len(res.Failed) == len(constituencies) {
		res.Err = fmt.Errorf("batch %d (%s): every constituency failed: %w",
			index, strings.Join(res.Constituencies, ", "), errors.Join(errs...))
	}
	return res
}

// ResolveConstituency fetches and parses the roster page of one constituency.
func (r *Resolver) ResolveConstituency(ctx context.Context, constituency string) ([]models.SchoolIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := BuildRosterURL(r.template, constituency)
	doc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	schools, err := ParseRoster(doc, url, constituency)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[roster] %s: %d schools", constituency, len(schools))
	return schools, nil
}
