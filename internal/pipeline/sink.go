package pipeline

import (
	"context"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/extractor"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// pageSink consumes one domain's pages during a harvest: it persists
// the raw artifact, runs extraction, and accumulates the tiles. Pages
// within a domain arrive sequentially, so no locking is needed.
type pageSink struct {
	store ArtifactStore
	log   logger.Interface
	tiles []domain.ProductTile
}

func newPageSink(store ArtifactStore, log logger.Interface) *pageSink {
	return &pageSink{store: store, log: log}
}

// HandlePage implements harvester.PageHandler. The raw artifact is
// written before extraction so even a structurally broken page is
// preserved for inspection and replay.
func (s *pageSink) HandlePage(_ context.Context, page domain.RawPage) (bool, error) {
	if err := s.store.WriteRawPage(page); err != nil {
		return false, err
	}

	tiles, empty := extractor.Extract(page.Body)
	if empty {
		s.log.Debug("structurally empty page", "page", page.Page)
		return true, nil
	}

	s.tiles = append(s.tiles, tiles...)
	s.log.Debug("page extracted", "page", page.Page, "tiles", len(tiles))
	return false, nil
}

// Tiles returns the tiles accumulated so far, in page order.
func (s *pageSink) Tiles() []domain.ProductTile {
	return s.tiles
}

// discardRawPages wraps an ArtifactStore so replayed extraction does
// not rewrite the raw artifacts it is reading from.
type discardRawPages struct {
	ArtifactStore
}

func (discardRawPages) WriteRawPage(domain.RawPage) error { return nil }

var _ ArtifactStore = discardRawPages{}
