// Package products implements the products command group for
// inspecting and maintaining the persisted catalog.
package products

import (
	"github.com/spf13/cobra"
)

// Command returns the products command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect and maintain the persisted catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(exportCommand())
	cmd.AddCommand(deleteCommand())

	return cmd
}
