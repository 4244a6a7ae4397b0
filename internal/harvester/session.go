package harvester

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// Session carries one domain's crawl state: the resolved request
// template, the page cursor, and the consecutive-empty strike counter.
// Each domain gets its own value, so concurrent harvests cannot
// interfere. A fresh session always starts at page 1; sessions are not
// restartable mid-run.
type Session struct {
	Domain   string
	Template domain.RequestTemplate
	Page     int
	Strikes  int
}

// NewSession creates a session for one domain's crawl. An invalid
// template is a configuration error and fails before any request is
// issued.
func NewSession(tmpl domain.RequestTemplate) (*Session, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template for domain %q: %w", tmpl.Domain, err)
	}
	return &Session{
		Domain:   tmpl.Domain,
		Template: tmpl,
		Page:     1,
	}, nil
}

// recordEmpty counts a structurally empty page toward termination.
func (s *Session) recordEmpty() {
	s.Strikes++
}

// recordContent resets the strike counter after a non-empty page.
func (s *Session) recordContent() {
	s.Strikes = 0
}
