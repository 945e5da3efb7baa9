package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"uk-school-scraper/models"
)

const (
	defaultConstituenciesURL = "https://en.wikipedia.org/w/index.php?title=Constituencies_of_the_Parliament_of_the_United_Kingdom&oldid=1204196556"
	defaultRosterURLTemplate = "https://www.compare-school-performance.service.gov.uk/schools-by-type?step=default&table=schools&parliamentary=%s&geographic=parliamentary&for=primary"
	defaultSchoolBaseURL     = "https://www.compare-school-performance.service.gov.uk/school"

	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Settings holds every path and endpoint the pipeline needs.
// It is built once and passed by value into each component.
type Settings struct {
	DataDir string

	ConstituenciesURL string
	// RosterURLTemplate has a single %s for the plus-joined constituency name.
	RosterURLTemplate string
	SchoolBaseURL     string

	BatchSize      int
	Workers        int
	MaxConcurrency int
	RequestTimeout time.Duration

	FetchMode string
	ChromeBin string

	CacheSchoolMetrics bool
	OutputPath         string
	Debug              bool
}

// Load reads the .env file and returns Settings populated from the environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	dataDir := getEnv("DATA_DIR", "data")
	return Settings{
		DataDir: dataDir,

		ConstituenciesURL: getEnv("CONSTITUENCIES_URL", defaultConstituenciesURL),
		RosterURLTemplate: getEnv("ROSTER_URL_TEMPLATE", defaultRosterURLTemplate),
		SchoolBaseURL:     strings.TrimRight(getEnv("SCHOOL_BASE_URL", defaultSchoolBaseURL), "/"),

		BatchSize:      getEnvInt("BATCH_SIZE", 10),
		Workers:        getEnvInt("WORKERS", 0),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		FetchMode: strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		ChromeBin: getEnv("CHROME_BIN", ""),

		CacheSchoolMetrics: getEnvBool("CACHE_SCHOOL_METRICS", false),
		OutputPath:         getEnv("OUTPUT_PATH", filepath.Join(dataDir, "uk_primary_school_data.csv")),
		Debug:              getEnvBool("LOG_DEBUG", false),
	}
}

// Default returns Settings with the production endpoints rooted at dataDir,
// without consulting the environment.
func Default(dataDir string) Settings {
	return Settings{
		DataDir:           dataDir,
		ConstituenciesURL: defaultConstituenciesURL,
		RosterURLTemplate: defaultRosterURLTemplate,
		SchoolBaseURL:     defaultSchoolBaseURL,
		BatchSize:         10,
		MaxConcurrency:    1,
		RequestTimeout:    30 * time.Second,
		FetchMode:         FetchModeHTTP,
		OutputPath:        filepath.Join(dataDir, "uk_primary_school_data.csv"),
	}
}

func (s Settings) ConstituenciesPath() string {
	return filepath.Join(s.DataDir, "uk_parliamentary_constituencies.txt")
}

func (s Settings) RosterPath() string {
	return filepath.Join(s.DataDir, "uk_school_identification_information.csv")
}

func (s Settings) UserAgentPath() string {
	return filepath.Join(s.DataDir, "user_agent.txt")
}

func (s Settings) MetricsCacheDir() string {
	return filepath.Join(s.DataDir, "school_metrics")
}

// WorkerCount is the roster fan-out limit: Workers if set, otherwise
// one less than the available parallelism, never below one.
func (s Settings) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// Validate checks the values that would otherwise fail deep inside a run.
func (s Settings) Validate() error {
	if s.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be positive, got %d", s.BatchSize)
	}
	if strings.Count(s.RosterURLTemplate, "%s") != 1 {
		return fmt.Errorf("config: roster URL template must contain exactly one %%s: %q", s.RosterURLTemplate)
	}
	switch s.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("config: unknown fetch mode %q", s.FetchMode)
	}
	return nil
}

// LoadUserAgent returns the user agent from USER_AGENT or, failing that,
// from user_agent.txt in the data directory.
func LoadUserAgent(s Settings) (string, error) {
	if ua := strings.TrimSpace(os.Getenv("USER_AGENT")); ua != "" {
		return ua, nil
	}

	raw, err := os.ReadFile(s.UserAgentPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", &models.ConfigurationMissingError{Message: models.UserAgentMissingMessage}
	}
	if err != nil {
		return "", fmt.Errorf("config: read user agent: %w", err)
	}

	// Header values cannot carry the trailing newline editors leave behind.
	ua := strings.TrimSpace(string(raw))
	if ua == "" {
		return "", &models.ConfigurationMissingError{Message: models.UserAgentMissingMessage}
	}
	return ua, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
