// Package harvest implements the harvest command, which crawls the
// listing pages of one or more retailer domains and writes raw and
// consolidated artifacts.
package harvest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// Command returns the harvest command for use in the root command.
func Command() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "harvest [domains...]",
		Short: "Crawl retailer listing pages and store raw product data",
		Long: `Crawl the paginated listing API of the given retailer domains,
persisting every fetched page as a raw artifact and writing each
domain's consolidated product tile list. With no arguments the
configured default domain set is used; --all harvests every supported
domain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			domains, resolveErr := deps.Config.ResolveDomains(args, all)
			if resolveErr != nil {
				return resolveErr
			}

			p := deps.NewPipeline(nil)
			stats, harvestErr := p.Harvest(cmd.Context(), domains)
			if harvestErr != nil {
				return harvestErr
			}

			for _, s := range stats {
				deps.Logger.Info("harvest summary",
					"domain", s.Domain,
					"pages_fetched", s.PagesFetched,
					"pages_empty", s.PagesEmpty,
					"denied", s.Denied,
					"anomalous", s.Anomalous,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "harvest every supported domain")

	return cmd
}
