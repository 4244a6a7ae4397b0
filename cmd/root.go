// Package cmd implements the command-line interface for shelfwatch.
// It provides the root command and subcommands for harvesting,
// merging, and persisting retailer product data.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfwatch/shelfwatch/cmd/extract"
	"github.com/shelfwatch/shelfwatch/cmd/harvest"
	"github.com/shelfwatch/shelfwatch/cmd/httpd"
	"github.com/shelfwatch/shelfwatch/cmd/load"
	cmdmerge "github.com/shelfwatch/shelfwatch/cmd/mergecmd"
	"github.com/shelfwatch/shelfwatch/cmd/products"
	"github.com/shelfwatch/shelfwatch/cmd/run"
	"github.com/shelfwatch/shelfwatch/cmd/schedule"
	"github.com/shelfwatch/shelfwatch/cmd/templates"
	"github.com/shelfwatch/shelfwatch/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands.
	Debug bool

	// rootCmd represents the root command for the shelfwatch CLI.
	rootCmd = &cobra.Command{
		Use:   "shelfwatch",
		Short: "A grocery storefront price harvester",
		Long: `Shelfwatch harvests paginated product listings from retailer
storefronts that share the same listing API, merges the per-retailer
extracts into one canonical catalog, and persists it with per-store
price history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available.
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Long-running commands stop gracefully on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelfwatch version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(harvest.Command())
	rootCmd.AddCommand(extract.Command())
	rootCmd.AddCommand(cmdmerge.Command())
	rootCmd.AddCommand(load.Command())
	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(products.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(templates.Command())
}

// initConfig reads in the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults(viper.GetViper())

	if Debug {
		viper.Set("logging.level", "debug")
		viper.Set("logging.development", true)
	}

	// The config file is optional; defaults and environment variables
	// cover a bare setup.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		if ok := errors.As(err, &notFound); !ok {
			fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
		}
	}

	return nil
}
