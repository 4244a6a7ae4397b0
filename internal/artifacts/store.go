// Package artifacts persists run artifacts to disk: raw listing pages,
// per-domain consolidated tile lists, and the merged catalog. Raw pages
// are written incrementally so an interrupted run keeps partial
// progress and extraction can be replayed without re-fetching.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// ErrNoCombined is returned when no merged catalog file exists yet.
var ErrNoCombined = errors.New("no combined catalog artifact found")

const (
	dirPerm  = 0o755
	filePerm = 0o644

	rawSuffix          = "_raw_product_data"
	consolidatedSuffix = "_consolidated_product_data.json"
	combinedPrefix     = "combined_product_data_"
	combinedTimeLayout = "2006_01_02_15_04"

	jsonIndent = "    "
)

// Store lays out artifacts under a single root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// rawDir returns the per-domain raw page directory.
func (s *Store) rawDir(domainName string) string {
	return filepath.Join(s.root, domainName+rawSuffix)
}

// rawPagePath returns the artifact path for one raw page.
func (s *Store) rawPagePath(domainName string, page int) string {
	name := fmt.Sprintf("%s%s_%d.json", domainName, rawSuffix, page)
	return filepath.Join(s.rawDir(domainName), name)
}

// WriteRawPage persists one fetched page, pretty-printed when the body
// is valid JSON and byte-for-byte otherwise.
func (s *Store) WriteRawPage(page domain.RawPage) error {
	if err := os.MkdirAll(s.rawDir(page.Domain), dirPerm); err != nil {
		return fmt.Errorf("failed to create raw artifact directory: %w", err)
	}

	body := page.Body
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, page.Body, "", jsonIndent); err == nil {
		body = pretty.Bytes()
	}

	path := s.rawPagePath(page.Domain, page.Page)
	if err := os.WriteFile(path, body, filePerm); err != nil {
		return fmt.Errorf("failed to write raw page artifact: %w", err)
	}
	return nil
}

// ReadRawPages loads a domain's stored raw pages in page order.
func (s *Store) ReadRawPages(domainName string) ([]domain.RawPage, error) {
	entries, err := os.ReadDir(s.rawDir(domainName))
	if err != nil {
		return nil, fmt.Errorf("failed to read raw artifact directory: %w", err)
	}

	prefix := domainName + rawSuffix + "_"
	pages := make([]domain.RawPage, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		num, numErr := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
		if numErr != nil {
			continue
		}
		body, readErr := os.ReadFile(filepath.Join(s.rawDir(domainName), name))
		if readErr != nil {
			return nil, fmt.Errorf("failed to read raw page artifact: %w", readErr)
		}
		pages = append(pages, domain.RawPage{Domain: domainName, Page: num, Body: body})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	return pages, nil
}

// WriteConsolidated persists a domain's full extracted tile list.
func (s *Store) WriteConsolidated(domainName string, tiles []domain.ProductTile) error {
	data, err := json.MarshalIndent(tiles, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to encode consolidated tiles: %w", err)
	}
	if mkErr := os.MkdirAll(s.root, dirPerm); mkErr != nil {
		return fmt.Errorf("failed to create artifact directory: %w", mkErr)
	}
	path := filepath.Join(s.root, domainName+consolidatedSuffix)
	if writeErr := os.WriteFile(path, data, filePerm); writeErr != nil {
		return fmt.Errorf("failed to write consolidated artifact: %w", writeErr)
	}
	return nil
}

// ReadConsolidated loads a domain's consolidated tile list.
func (s *Store) ReadConsolidated(domainName string) ([]domain.ProductTile, error) {
	data, err := os.ReadFile(filepath.Join(s.root, domainName+consolidatedSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to read consolidated artifact: %w", err)
	}
	var tiles []domain.ProductTile
	if decodeErr := json.Unmarshal(data, &tiles); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode consolidated artifact: %w", decodeErr)
	}
	return tiles, nil
}

// WriteCombined persists the merged catalog under a UTC-timestamped
// name and returns the path.
func (s *Store) WriteCombined(products []domain.CanonicalProduct, now time.Time) (string, error) {
	data, err := json.MarshalIndent(products, "", jsonIndent)
	if err != nil {
		return "", fmt.Errorf("failed to encode combined catalog: %w", err)
	}
	if mkErr := os.MkdirAll(s.root, dirPerm); mkErr != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", mkErr)
	}
	name := combinedPrefix + now.UTC().Format(combinedTimeLayout) + ".json"
	path := filepath.Join(s.root, name)
	if writeErr := os.WriteFile(path, data, filePerm); writeErr != nil {
		return "", fmt.Errorf("failed to write combined artifact: %w", writeErr)
	}
	return path, nil
}

// ReadCombined loads a merged catalog file.
func (s *Store) ReadCombined(path string) ([]domain.CanonicalProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read combined artifact: %w", err)
	}
	var products []domain.CanonicalProduct
	if decodeErr := json.Unmarshal(data, &products); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode combined artifact: %w", decodeErr)
	}
	return products, nil
}

// LatestCombined returns the newest combined catalog path. Timestamped
// names sort lexically, so the last one wins.
func (s *Store) LatestCombined() (string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact directory: %w", err)
	}

	latest := ""
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, combinedPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return "", ErrNoCombined
	}
	return filepath.Join(s.root, latest), nil
}
