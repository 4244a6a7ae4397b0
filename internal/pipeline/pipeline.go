// Package pipeline orchestrates the harvest, extract, merge, and load
// stages. Stages are strictly ordered: each consumes only the durable
// output of the one before it, so a run can be aborted between pages or
// between stages without corrupting state.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/harvester"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/merger"
)

// TemplateResolver produces the request template for a retailer domain.
type TemplateResolver interface {
	Resolve(domainName string) (domain.RequestTemplate, error)
}

// ArtifactStore persists and replays run artifacts.
type ArtifactStore interface {
	WriteRawPage(page domain.RawPage) error
	ReadRawPages(domainName string) ([]domain.RawPage, error)
	WriteConsolidated(domainName string, tiles []domain.ProductTile) error
	ReadConsolidated(domainName string) ([]domain.ProductTile, error)
	WriteCombined(products []domain.CanonicalProduct, now time.Time) (string, error)
	ReadCombined(path string) ([]domain.CanonicalProduct, error)
	LatestCombined() (string, error)
}

// Upserter applies a merged catalog to storage.
type Upserter interface {
	UpsertAll(ctx context.Context, products []domain.CanonicalProduct) domain.BatchReport
}

// Summary reports one full pipeline run.
type Summary struct {
	RunID        string                `json:"run_id"`
	Harvest      []domain.HarvestStats `json:"harvest"`
	Merge        domain.MergeStats     `json:"merge"`
	Batch        domain.BatchReport    `json:"batch"`
	CombinedPath string                `json:"combined_path"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	resolver  TemplateResolver
	harvester *harvester.Harvester
	store     ArtifactStore
	merger    *merger.Merger
	upserter  Upserter
	log       logger.Interface
	workers   int
}

// New creates a pipeline.
func New(
	res TemplateResolver,
	h *harvester.Harvester,
	store ArtifactStore,
	m *merger.Merger,
	up Upserter,
	log logger.Interface,
	workers int,
) *Pipeline {
	return &Pipeline{
		resolver:  res,
		harvester: h,
		store:     store,
		merger:    m,
		upserter:  up,
		log:       log,
		workers:   workers,
	}
}

// Harvest crawls the given domains with bounded parallelism and writes
// each domain's consolidated tile list. All templates are resolved up
// front so a configuration error aborts before any request is issued.
func (p *Pipeline) Harvest(ctx context.Context, domains []string) ([]domain.HarvestStats, error) {
	sessions := make([]*harvester.Session, 0, len(domains))
	for _, d := range domains {
		tmpl, err := p.resolver.Resolve(d)
		if err != nil {
			return nil, fmt.Errorf("resolve template for %q: %w", d, err)
		}
		session, sessionErr := harvester.NewSession(tmpl)
		if sessionErr != nil {
			return nil, sessionErr
		}
		sessions = append(sessions, session)
	}

	sinks := make(map[string]*pageSink, len(domains))
	for _, d := range domains {
		sinks[d] = newPageSink(p.store, p.log.WithDomain(d))
	}

	results := p.harvester.HarvestAll(ctx, sessions, func(d string) harvester.PageHandler {
		return sinks[d]
	}, p.workers)

	stats := make([]domain.HarvestStats, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			return stats, fmt.Errorf("harvest %q: %w", result.Domain, result.Err)
		}
		stats = append(stats, result.Stats)

		if err := p.store.WriteConsolidated(result.Domain, sinks[result.Domain].Tiles()); err != nil {
			return stats, fmt.Errorf("consolidate %q: %w", result.Domain, err)
		}
		p.log.Info("domain consolidated",
			"domain", result.Domain,
			"tiles", len(sinks[result.Domain].Tiles()),
		)
	}

	return stats, nil
}

// Extract rebuilds a domain's consolidated tile list from its stored
// raw pages, without re-fetching.
func (p *Pipeline) Extract(domainName string) (int, error) {
	pages, err := p.store.ReadRawPages(domainName)
	if err != nil {
		return 0, fmt.Errorf("replay raw pages for %q: %w", domainName, err)
	}

	sink := newPageSink(discardRawPages{p.store}, p.log.WithDomain(domainName))
	for _, page := range pages {
		if _, handleErr := sink.HandlePage(context.Background(), page); handleErr != nil {
			return 0, handleErr
		}
	}

	if writeErr := p.store.WriteConsolidated(domainName, sink.Tiles()); writeErr != nil {
		return 0, fmt.Errorf("consolidate %q: %w", domainName, writeErr)
	}
	return len(sink.Tiles()), nil
}

// Merge combines the domains' consolidated tile lists into one
// canonical catalog and writes the timestamped combined artifact.
// Domains are processed in the given order, which fixes the
// first-sight-wins outcome for descriptive fields.
func (p *Pipeline) Merge(domains []string) (string, domain.MergeStats, error) {
	tilesByDomain := make(map[string][]domain.ProductTile, len(domains))
	for _, d := range domains {
		tiles, err := p.store.ReadConsolidated(d)
		if err != nil {
			return "", domain.MergeStats{}, fmt.Errorf("load consolidated %q: %w", d, err)
		}
		tilesByDomain[d] = tiles
	}

	catalog, stats := p.merger.Merge(domains, tilesByDomain)

	path, err := p.store.WriteCombined(catalog, time.Now())
	if err != nil {
		return "", stats, err
	}
	return path, stats, nil
}

// Load upserts a combined catalog file into storage. An empty path
// loads the newest combined artifact.
func (p *Pipeline) Load(ctx context.Context, path string) (domain.BatchReport, error) {
	if path == "" {
		latest, err := p.store.LatestCombined()
		if err != nil {
			return domain.BatchReport{}, err
		}
		path = latest
	}

	catalog, err := p.store.ReadCombined(path)
	if err != nil {
		return domain.BatchReport{}, err
	}

	return p.upserter.UpsertAll(ctx, catalog), nil
}

// Run executes the full pipeline for the given domains.
func (p *Pipeline) Run(ctx context.Context, domains []string) (*Summary, error) {
	runID := uuid.NewString()
	log := p.log.WithRun(runID)
	log.Info("pipeline run starting", "domains", domains)

	harvestStats, err := p.Harvest(ctx, domains)
	if err != nil {
		return nil, err
	}

	combinedPath, mergeStats, mergeErr := p.Merge(domains)
	if mergeErr != nil {
		return nil, mergeErr
	}

	report, loadErr := p.Load(ctx, combinedPath)
	if loadErr != nil {
		return nil, loadErr
	}

	summary := &Summary{
		RunID:        runID,
		Harvest:      harvestStats,
		Merge:        mergeStats,
		Batch:        report,
		CombinedPath: combinedPath,
	}
	log.Info("pipeline run complete",
		"products", mergeStats.Products,
		"upserted", report.Succeeded,
		"failed", report.Failed,
	)
	return summary, nil
}
