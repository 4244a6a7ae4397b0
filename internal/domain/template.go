package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Errors returned when a request template cannot be used for harvesting.
var (
	ErrMissingURL      = errors.New("request template has no url")
	ErrMissingPayload  = errors.New("request template has no payload")
	ErrNoPageField     = errors.New("request template payload has no page-number field")
	ErrMissingDomain   = errors.New("request template has no domain")
	ErrInvalidTemplate = errors.New("invalid request template")
)

// pageFieldPattern matches the pagination field inside the listing API
// request body, e.g. `"from": 3`.
var pageFieldPattern = regexp.MustCompile(`"from":\s*\d+`)

// RequestTemplate describes one replayable listing-page request for a
// retailer domain. Immutable once resolved.
type RequestTemplate struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Payload string            `json:"payload"`
	Domain  string            `json:"domain"`
}

// Validate checks that the template carries everything the harvester
// needs. A failure here is a configuration error and aborts the
// domain's harvest before any request is issued.
func (t *RequestTemplate) Validate() error {
	if t.Domain == "" {
		return ErrMissingDomain
	}
	if t.URL == "" {
		return ErrMissingURL
	}
	if t.Payload == "" {
		return ErrMissingPayload
	}
	if !pageFieldPattern.MatchString(t.Payload) {
		return ErrNoPageField
	}
	return nil
}

// PayloadForPage returns the request body with the page cursor
// substituted into the pagination field.
func (t *RequestTemplate) PayloadForPage(page int) (string, error) {
	if !pageFieldPattern.MatchString(t.Payload) {
		return "", fmt.Errorf("substitute page %d: %w", page, ErrNoPageField)
	}
	return pageFieldPattern.ReplaceAllString(t.Payload, `"from": `+strconv.Itoa(page)), nil
}
