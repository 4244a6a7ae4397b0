package products

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// deleteCommand returns the products delete subcommand. Deleting a
// product cascades to all of its per-store price rows.
func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [product-id]",
		Short: "Delete a product and its price history",
		Args:  cobra.ExactArgs(1),
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

			if deleteErr := repo.Delete(cmd.Context(), args[0]); deleteErr != nil {
				return deleteErr
			}

			deps.Logger.Info("product deleted", "product_id", args[0])
			return nil
		},
	}
}
