// Package common provides shared utilities for command implementations.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/shelfwatch/shelfwatch/internal/artifacts"
	"github.com/shelfwatch/shelfwatch/internal/config"
	"github.com/shelfwatch/shelfwatch/internal/database"
	"github.com/shelfwatch/shelfwatch/internal/harvester"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/merger"
	"github.com/shelfwatch/shelfwatch/internal/pipeline"
	"github.com/shelfwatch/shelfwatch/internal/resolver"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// NewCommandDeps loads configuration from Viper and creates the logger.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	log, logErr := logger.New(&logger.Config{
		Level:       logger.Level(cfg.Logging.Level),
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	})
	if logErr != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", logErr)
	}

	return CommandDeps{Logger: log, Config: cfg}, nil
}

// OpenRepository connects to PostgreSQL, ensures the schema, and
// returns the product repository with a cleanup function.
func (d CommandDeps) OpenRepository() (*database.ProductRepository, *sqlx.DB, error) {
	ctx := context.Background()

	db, err := database.NewPostgresConnection(ctx, &d.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	if schemaErr := database.EnsureSchema(ctx, db); schemaErr != nil {
		db.Close()
		return nil, nil, schemaErr
	}
	return database.NewProductRepository(db, d.Logger), db, nil
}

// NewPipeline assembles the pipeline stages. The upserter may be nil
// for commands that never reach the load stage.
func (d CommandDeps) NewPipeline(up pipeline.Upserter) *pipeline.Pipeline {
	h := harvester.New(d.Logger, harvester.Config{
		StrikeThreshold: d.Config.Harvester.StrikeThreshold,
		MaxPages:        d.Config.Harvester.MaxPages,
		RequestTimeout:  d.Config.Harvester.RequestTimeout,
		DelayMean:       d.Config.Harvester.DelayMean,
		DelayStdDev:     d.Config.Harvester.DelayStdDev,
	})

	return pipeline.New(
		resolver.New(d.Config.Storage.TemplatesDir),
		h,
		artifacts.NewStore(d.Config.Storage.DataDir),
		merger.New(d.Logger),
		up,
		d.Logger,
		d.Config.Harvester.Workers,
	)
}
