package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"uk-school-scraper/scraper/roster"
)

var (
	refreshRoster bool
	listSchools   bool
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Resolve every constituency to its primary schools",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.close()

		var res *roster.Result
		if refreshRoster {
			res, err = p.resolver.Scrape(cmd.Context())
		} else {
			res, err = p.resolver.Roster(cmd.Context())
		}
		if err != nil {
			return err
		}

		if listSchools {
			for _, s := range res.Schools {
				fmt.Printf("%s\t%s\t%s\t%s\n", s.URN, s.Name, s.TypeOfSchool, s.Constituency)
			}
		}

		source := "scraped"
		if res.FromCache {
			source = "cached"
		}
		p.logger.Info("[roster] %d schools (%s)", len(res.Schools), source)
		for _, name := range res.FailedConstituencies {
			p.logger.Warn("[roster] Omitted constituency: %s", name)
		}
		return nil
	},
}

func init() {
	rosterCmd.Flags().BoolVar(&refreshRoster, "refresh", false, "re-scrape and overwrite the cache")
	rosterCmd.Flags().BoolVar(&listSchools, "list", false, "print every school")
}
