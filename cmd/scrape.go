package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"uk-school-scraper/scraper/metrics"
	"uk-school-scraper/services"
	"uk-school-scraper/storage"
)

var outputPath string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Build the full school table and write it as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.close()

		if outputPath != "" {
			p.settings.OutputPath = outputPath
		}
		path := p.settings.OutputPath

		if _, err := os.Stat(path); err == nil {
			p.logger.Warn("[scrape] %s already exists and will be overwritten", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		p.logger.Info("=== UK primary school scrape starting ===")
		p.logger.Info("Config | batch size: %d | workers: %d | school concurrency: %d | fetch: %s",
			p.settings.BatchSize, p.settings.WorkerCount(), p.settings.MaxConcurrency, p.settings.FetchMode)

		table, err := p.aggregator.AllSchoolData(cmd.Context())
		if err != nil {
			return err
		}

		var w storage.TableWriter
		w, err = storage.NewCSVWriter(path, metrics.Columns())
		if err != nil {
			return err
		}
		if err := w.WriteTable(table); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		p.logger.Info("[scrape] Wrote %d rows to %s", table.Len(), path)

		insights := services.NewInsightService(p.logger)
		insights.Print(insights.Generate(table))
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV destination (overrides OUTPUT_PATH)")
}
