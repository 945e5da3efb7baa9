package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshConstituencies bool

var constituenciesCmd = &cobra.Command{
	Use:   "constituencies",
	Short: "List the England constituencies, scraping them if not cached",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.close()

		var names []string
		if refreshConstituencies {
			names, err = p.catalog.Scrape(cmd.Context())
		} else {
			names, err = p.catalog.Constituencies(cmd.Context())
		}
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Println(name)
		}
		p.logger.Info("[catalog] %d constituencies", len(names))
		return nil
	},
}

func init() {
	constituenciesCmd.Flags().BoolVar(&refreshConstituencies, "refresh", false, "re-scrape and overwrite the cache")
}
