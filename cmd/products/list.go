package products

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// listCommand returns the products list subcommand.
func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted products in a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			repo, db, repoErr := deps.OpenRepository()
			if repoErr != nil {
				return repoErr
			}
			defer db.Close()

			catalog, listErr := repo.List(cmd.Context())
			if listErr != nil {
				return listErr
			}

			if len(catalog) == 0 {
				deps.Logger.Info("No products persisted yet")
				return nil
			}

			renderCatalog(catalog)
			return nil
		},
	}
}

// renderCatalog prints the catalog, one row per price observation.
func renderCatalog(catalog []domain.CanonicalProduct) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Product ID", "Title", "Brand", "Store", "Price (cents)", "Package Sizing"})

	for _, p := range catalog {
		brand := ""
		if p.Brand != nil {
			brand = *p.Brand
		}
		if len(p.Prices) == 0 {
			t.AppendRow(table.Row{p.ProductID, p.Title, brand, "", "", ""})
			continue
		}
		for _, price := range p.Prices {
			t.AppendRow(table.Row{p.ProductID, p.Title, brand, price.Store, price.PriceCents, price.PackageSizing})
		}
	}

	t.Render()
}
