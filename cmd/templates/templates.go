// Package templates implements the templates command group for
// managing per-domain request templates.
package templates

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/shelfwatch/cmd/common"
	"github.com/shelfwatch/shelfwatch/internal/resolver"
)

// Command returns the templates command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage per-domain request templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(importCommand())

	return cmd
}

// importCommand converts a captured curl command file into a stored
// request template for a domain.
func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [domain] [curl-file]",
		Short: "Import a captured curl command as a domain's template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			domainName := args[0]
			if !deps.Config.IsSupported(domainName) {
				return fmt.Errorf("unsupported domain %q", domainName)
			}

			raw, readErr := os.ReadFile(args[1])
			if readErr != nil {
				return fmt.Errorf("failed to read curl file: %w", readErr)
			}

			tmpl, parseErr := resolver.ParseCurl(string(raw), domainName)
			if parseErr != nil {
				return parseErr
			}

			res := resolver.New(deps.Config.Storage.TemplatesDir)
			if saveErr := res.Save(tmpl); saveErr != nil {
				return saveErr
			}

			deps.Logger.Info("template imported", "domain", domainName, "url", tmpl.URL)
			return nil
		},
	}
}
