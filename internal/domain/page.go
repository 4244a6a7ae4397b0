package domain

// RawPage is one fetched listing page, handed straight from the
// harvester to the extractor. Page numbers are 1-based.
type RawPage struct {
	Domain     string `json:"domain"`
	Page       int    `json:"page"`
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"-"`
}
