package domain

// UpsertFailure records one product that could not be persisted.
type UpsertFailure struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// BatchReport summarizes a bulk upsert. Failures are data, not control
// flow: one bad record never aborts the batch.
type BatchReport struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []UpsertFailure `json:"failures,omitempty"`
}

// RecordSuccess counts one persisted product.
func (r *BatchReport) RecordSuccess() {
	r.Total++
	r.Succeeded++
}

// RecordFailure counts one failed product and keeps its reason.
func (r *BatchReport) RecordFailure(productID string, err error) {
	r.Total++
	r.Failed++
	r.Failures = append(r.Failures, UpsertFailure{ProductID: productID, Reason: err.Error()})
}

// MergeStats summarizes one merge pass for the run report.
type MergeStats struct {
	TilesSeen       int `json:"tiles_seen"`
	TilesSkipped    int `json:"tiles_skipped"`
	BadPrices       int `json:"bad_prices"`
	PricesAdded     int `json:"prices_added"`
	DuplicatePrices int `json:"duplicate_prices"`
	Products        int `json:"products"`
}

// HarvestStats summarizes one domain's crawl.
type HarvestStats struct {
	Domain       string `json:"domain"`
	PagesFetched int    `json:"pages_fetched"`
	PagesEmpty   int    `json:"pages_empty"`
	Denied       int    `json:"denied"`
	Anomalous    int    `json:"anomalous"`
}
