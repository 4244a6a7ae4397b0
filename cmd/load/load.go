// Package load implements the load command, which upserts a combined
// catalog file into the database.
package load

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// Command returns the load command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Upsert a combined catalog file into the database",
		Long: `Apply a merged catalog file to the database, one transaction per
product. With no argument the newest combined artifact is loaded. A
product that fails to persist is rolled back and reported; the rest of
the batch continues.`,
		Args: cobra.MaximumNArgs(1),
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

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			p := deps.NewPipeline(repo)
			report, loadErr := p.Load(cmd.Context(), path)
			if loadErr != nil {
				return loadErr
			}

			deps.Logger.Info("load summary",
				"total", report.Total,
				"succeeded", report.Succeeded,
				"failed", report.Failed,
			)
			for _, failure := range report.Failures {
				deps.Logger.Warn("product not persisted",
					"product_id", failure.ProductID,
					"reason", failure.Reason,
				)
			}
			return nil
		},
	}

	return cmd
}
