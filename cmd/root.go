package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uk-school-scraper/config"
	"uk-school-scraper/fetch"
	"uk-school-scraper/scraper/constituency"
	"uk-school-scraper/scraper/metrics"
	"uk-school-scraper/scraper/roster"
	"uk-school-scraper/services"
	"uk-school-scraper/utils"
)

var (
	dataDir   string
	fetchMode string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "uk-school-scraper",
	Short: "Collect performance and population data for English primary schools",
	Long: `uk-school-scraper builds one row per primary school from the public
school comparison site, grouped by parliamentary constituency.

Examples:

  uk-school-scraper constituencies
  uk-school-scraper roster
  uk-school-scraper school 104241 "St Anne's Catholic Primary School, Streetly"
  uk-school-scraper scrape --output data/schools.csv
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.NewLogger().Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding caches and user_agent.txt (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&fetchMode, "fetch-mode", "", "page fetcher: http or browser (overrides FETCH_MODE)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(constituenciesCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(schoolCmd)
}

// pipeline is every component of a run, built from one Settings.
type pipeline struct {
	settings   config.Settings
	logger     *utils.Logger
	catalog    *constituency.Catalog
	resolver   *roster.Resolver
	extractor  *metrics.Extractor
	aggregator *services.Aggregator
	close      func()
}

func loadSettings() (config.Settings, error) {
	s := config.Load()
	if dataDir != "" {
		s = withDataDir(s, dataDir)
	}
	if fetchMode != "" {
		s.FetchMode = fetchMode
	}
	if debug {
		s.Debug = true
	}
	return s, s.Validate()
}

// withDataDir moves the data directory, keeping an explicitly configured output path.
func withDataDir(s config.Settings, dir string) config.Settings {
	if s.OutputPath == config.Default(s.DataDir).OutputPath {
		s.OutputPath = config.Default(dir).OutputPath
	}
	s.DataDir = dir
	return s
}

// newPipeline loads configuration and the user agent before any network
// access, then wires the components.
func newPipeline(ctx context.Context) (*pipeline, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger().SetDebug(s.Debug)

	userAgent, err := config.LoadUserAgent(s)
	if err != nil {
		return nil, err
	}

	f, closeFetcher, err := fetch.New(ctx, s, userAgent, logger)
	if err != nil {
		return nil, err
	}

	catalog := constituency.New(s, f, logger)
	resolver := roster.New(s, catalog, f, logger)
	extractor := metrics.New(s, f, logger)

	return &pipeline{
		settings:   s,
		logger:     logger,
		catalog:    catalog,
		resolver:   resolver,
		extractor:  extractor,
		aggregator: services.NewAggregator(s, resolver, extractor, logger),
		close:      closeFetcher,
	}, nil
}
