// Package mergecmd implements the merge command, which combines
// per-domain consolidated tile lists into one canonical catalog file.
package mergecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// Command returns the merge command for use in the root command.
func Command() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "merge [domains...]",
		Short: "Merge per-domain product data into one canonical catalog",
		Long: `Combine the consolidated tile lists of the given domains into a
single deduplicated catalog, written as a timestamped combined
artifact. Domains are processed in the given order; the first domain
to report a product fixes its descriptive fields.`,
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
			path, stats, mergeErr := p.Merge(domains)
			if mergeErr != nil {
				return mergeErr
			}

			deps.Logger.Info("merge summary",
				"combined_path", path,
				"products", stats.Products,
				"prices_added", stats.PricesAdded,
				"duplicate_prices", stats.DuplicatePrices,
				"tiles_skipped", stats.TilesSkipped,
				"bad_prices", stats.BadPrices,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "merge every supported domain")

	return cmd
}
