package products

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// exportCommand returns the products export subcommand, which writes a
// snapshot of the persisted catalog in the canonical record shape.
func exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the persisted catalog to a JSON file",
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

			data, encodeErr := json.MarshalIndent(catalog, "", "    ")
			if encodeErr != nil {
				return fmt.Errorf("failed to encode catalog: %w", encodeErr)
			}
			if writeErr := os.WriteFile(output, data, 0o644); writeErr != nil {
				return fmt.Errorf("failed to write snapshot %s: %w", output, writeErr)
			}

			deps.Logger.Info("catalog exported", "path", output, "products", len(catalog))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "foods.json", "snapshot file path")

	return cmd
}
