// Package extract implements the extract command, which replays
// extraction over stored raw pages without re-fetching.
package extract

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
)

// Command returns the extract command for use in the root command.
func Command() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "extract [domains...]",
		Short: "Rebuild consolidated tile lists from stored raw pages",
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
			for _, d := range domains {
				tiles, extractErr := p.Extract(d)
				if extractErr != nil {
					return extractErr
				}
				deps.Logger.Info("extraction replayed", "domain", d, "tiles", tiles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "extract every supported domain")

	return cmd
}
