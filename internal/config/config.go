// Package config provides configuration management for the shelfwatch
// application. Values come from a YAML file, environment variables, and
// defaults, in that order of precedence, via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultStrikeThreshold = 3
	DefaultMaxPages        = 0 // unlimited; the strike counter terminates the crawl
	DefaultWorkers         = 3
	DefaultRequestTimeout  = 30 * time.Second
	DefaultDelayMean       = 875 * time.Millisecond
	DefaultDelayStdDev     = 250 * time.Millisecond

	DefaultDatabaseHost    = "localhost"
	DefaultDatabasePort    = "5432"
	DefaultDatabaseUser    = "postgres"
	DefaultDatabaseName    = "shelfwatch"
	DefaultDatabaseSSLMode = "disable"

	DefaultDataDir      = "data"
	DefaultTemplatesDir = "templates"
)

// DefaultSupportedDomains lists the retailer storefronts that share the
// listing API shape this harvester understands.
var DefaultSupportedDomains = []string{"loblaws", "nofrills", "zehrs", "provigo", "maxi"}

// Config represents the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Harvester HarvesterConfig `mapstructure:"harvester"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	// SupportedDomains is the closed set of domain names the CLI accepts.
	SupportedDomains []string `mapstructure:"supported_domains"`
	// Domains is the default set harvested when no names are given.
	Domains []string `mapstructure:"domains"`
}

// HarvesterConfig holds harvester-specific settings.
type HarvesterConfig struct {
	// StrikeThreshold is the number of consecutive empty pages that ends a crawl.
	StrikeThreshold int `mapstructure:"strike_threshold"`
	// MaxPages caps pages per domain; 0 means no cap.
	MaxPages int `mapstructure:"max_pages"`
	// Workers bounds how many domains are harvested in parallel.
	Workers int `mapstructure:"workers"`
	// RequestTimeout applies per HTTP request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// DelayMean and DelayStdDev shape the jittered inter-request sleep.
	DelayMean   time.Duration `mapstructure:"delay_mean"`
	DelayStdDev time.Duration `mapstructure:"delay_stddev"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// StorageConfig holds filesystem layout settings for run artifacts.
type StorageConfig struct {
	// DataDir is the root for raw, consolidated, and combined artifacts.
	DataDir string `mapstructure:"data_dir"`
	// TemplatesDir holds per-domain request template files.
	TemplatesDir string `mapstructure:"templates_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// SetDefaults registers default values on the given Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.supported_domains", DefaultSupportedDomains)
	v.SetDefault("app.domains", []string{"loblaws", "nofrills", "zehrs"})

	v.SetDefault("harvester.strike_threshold", DefaultStrikeThreshold)
	v.SetDefault("harvester.max_pages", DefaultMaxPages)
	v.SetDefault("harvester.workers", DefaultWorkers)
	v.SetDefault("harvester.request_timeout", DefaultRequestTimeout)
	v.SetDefault("harvester.delay_mean", DefaultDelayMean)
	v.SetDefault("harvester.delay_stddev", DefaultDelayStdDev)

	v.SetDefault("database.host", DefaultDatabaseHost)
	v.SetDefault("database.port", DefaultDatabasePort)
	v.SetDefault("database.user", DefaultDatabaseUser)
	v.SetDefault("database.dbname", DefaultDatabaseName)
	v.SetDefault("database.sslmode", DefaultDatabaseSSLMode)

	v.SetDefault("storage.data_dir", DefaultDataDir)
	v.SetDefault("storage.templates_dir", DefaultTemplatesDir)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", false)
}

// Load unmarshals configuration from the given Viper instance and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would make a run
// misbehave. Configuration errors are fatal before any work begins.
func (c *Config) Validate() error {
	if c.Harvester.StrikeThreshold < 1 {
		return fmt.Errorf("%w: harvester.strike_threshold must be at least 1", ErrInvalidConfig)
	}
	if c.Harvester.Workers < 1 {
		return fmt.Errorf("%w: harvester.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Harvester.RequestTimeout <= 0 {
		return fmt.Errorf("%w: harvester.request_timeout must be positive", ErrInvalidConfig)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage.data_dir is required", ErrInvalidConfig)
	}
	if c.Storage.TemplatesDir == "" {
		return fmt.Errorf("%w: storage.templates_dir is required", ErrInvalidConfig)
	}
	if len(c.App.SupportedDomains) == 0 {
		return fmt.Errorf("%w: app.supported_domains is empty", ErrInvalidConfig)
	}
	for _, d := range c.App.Domains {
		if !c.IsSupported(d) {
			return fmt.Errorf("%w: %q", ErrUnsupportedDomain, d)
		}
	}
	return nil
}

// IsSupported reports whether the domain name is in the supported set.
func (c *Config) IsSupported(domain string) bool {
	for _, d := range c.App.SupportedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// ResolveDomains resolves the requested domain names against the
// supported set. With all set, the full supported list is returned;
// with no names and all unset, the configured default set is used. Any
// unsupported name is a configuration error. Repeated names collapse
// to one entry, keeping first-occurrence order: each domain gets
// exactly one crawl session and one sink per run.
func (c *Config) ResolveDomains(requested []string, all bool) ([]string, error) {
	if all {
		return append([]string(nil), c.App.SupportedDomains...), nil
	}
	if len(requested) == 0 {
		requested = c.App.Domains
	}
	resolved := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, d := range requested {
		if !c.IsSupported(d) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedDomain, d)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		resolved = append(resolved, d)
	}
	if len(resolved) == 0 {
		return nil, ErrNoDomains
	}
	return resolved, nil
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
