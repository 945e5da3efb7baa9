package storage

import "uk-school-scraper/models"

// TableWriter is the interface any output backend for the aggregate table must satisfy.
type TableWriter interface {
	WriteTable(table *models.AggregateTable) error
	Close() error
}

// RosterStore persists the resolved school roster between runs.
type RosterStore interface {
	Exists() (bool, error)
	Load() ([]models.SchoolIdentity, error)
	Save(schools []models.SchoolIdentity) error
}

// MetricsStore persists extracted rows keyed by URN.
type MetricsStore interface {
	Get(urn string) (*models.SchoolMetricsRow, bool, error)
	Put(row *models.SchoolMetricsRow) error
}
