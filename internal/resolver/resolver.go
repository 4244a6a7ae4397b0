// Package resolver produces replayable request templates for retailer
// domains. Templates are captured externally (a browser session turned
// into an HTTP request) and stored as per-domain JSON files; this
// package only loads and validates them.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// Errors returned by the resolver.
var (
	// ErrTemplateNotFound is returned when no template file exists for a domain.
	ErrTemplateNotFound = errors.New("request template not found")
	// ErrDomainMismatch is returned when a template file names a different domain.
	ErrDomainMismatch = errors.New("template domain mismatch")
)

// Resolver loads request templates from a directory of {domain}.json files.
type Resolver struct {
	dir string
}

// New creates a resolver over the given templates directory.
func New(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve loads and validates the template for one domain. Any failure
// here is a configuration error: the caller aborts before harvesting.
func (r *Resolver) Resolve(domainName string) (domain.RequestTemplate, error) {
	path := filepath.Join(r.dir, domainName+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RequestTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return domain.RequestTemplate{}, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	var tmpl domain.RequestTemplate
	if decodeErr := json.Unmarshal(data, &tmpl); decodeErr != nil {
		return domain.RequestTemplate{}, fmt.Errorf("failed to decode template %s: %w", path, decodeErr)
	}

	if tmpl.Domain == "" {
		tmpl.Domain = domainName
	} else if tmpl.Domain != domainName {
		return domain.RequestTemplate{}, fmt.Errorf("%w: file %s declares %q", ErrDomainMismatch, path, tmpl.Domain)
	}
	if tmpl.Method == "" {
		tmpl.Method = http.MethodPost
	}

	if validateErr := tmpl.Validate(); validateErr != nil {
		return domain.RequestTemplate{}, fmt.Errorf("template %s: %w", path, validateErr)
	}

	return tmpl, nil
}

// Save writes a template to the resolver's directory, pretty-printed.
// Used by the template import flow after a curl capture is converted.
func (r *Resolver) Save(tmpl domain.RequestTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(tmpl, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	if mkErr := os.MkdirAll(r.dir, 0o755); mkErr != nil {
		return fmt.Errorf("failed to create templates directory: %w", mkErr)
	}

	path := filepath.Join(r.dir, tmpl.Domain+".json")
	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write template %s: %w", path, writeErr)
	}
	return nil
}
