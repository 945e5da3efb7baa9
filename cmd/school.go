package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"uk-school-scraper/models"
)

var schoolCmd = &cobra.Command{
	Use:   "school <urn> <name>",
	Short: "Extract the metrics of a single school",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		urn, name := args[0], args[1]
		if !models.ValidURN(urn) {
			return fmt.Errorf("urn must be numeric, got %q", urn)
		}

		p, err := newPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.close()

		row, err := p.aggregator.SchoolData(cmd.Context(), models.SchoolIdentity{Name: name, URN: urn})
		if err != nil {
			return err
		}

		header, record := row.Header(), row.Record()
		for i := range header {
			fmt.Printf("%-48s %s\n", header[i], record[i])
		}
		return nil
	},
}
