// Package run implements the run command, which executes the full
// harvest, merge, and load pipeline in one invocation.
package run

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
	"github.com/shelfwatch/shelfwatch/internal/pipeline"
)

// Command returns the run command for use in the root command.
func Command() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "run [domains...]",
		Short: "Harvest, merge, and load in one pass",
		Long: `Execute the full pipeline for the given retailer domains: crawl
every domain's listing pages, merge the extracts into one canonical
catalog, and upsert it into the database. Prints a per-domain and
per-stage summary when done.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			domains, resolveErr := deps.Config.ResolveDomains(args, all)
			if resolveErr != nil {
				return resolveErr
			}

			repo, db, repoErr := deps.OpenRepository()
			if repoErr != nil {
				return repoErr
			}
			defer db.Close()

			p := deps.NewPipeline(repo)
			summary, runErr := p.Run(cmd.Context(), domains)
			if runErr != nil {
				return runErr
			}

			renderSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "run every supported domain")

	return cmd
}

// renderSummary prints the run report as tables.
func renderSummary(summary *pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Domain", "Pages Fetched", "Empty", "Denied", "Anomalous"})
	for _, s := range summary.Harvest {
		t.AppendRow(table.Row{s.Domain, s.PagesFetched, s.PagesEmpty, s.Denied, s.Anomalous})
	}
	t.Render()

	r := table.NewWriter()
	r.SetOutputMirror(os.Stdout)
	r.SetStyle(table.StyleLight)
	r.AppendHeader(table.Row{"Products", "Prices Added", "Duplicates", "Upserted", "Failed"})
	r.AppendRow(table.Row{
		summary.Merge.Products,
		summary.Merge.PricesAdded,
		summary.Merge.DuplicatePrices,
		summary.Batch.Succeeded,
		summary.Batch.Failed,
	})
	r.Render()

	fmt.Printf("combined catalog: %s\n", summary.CombinedPath)
}
