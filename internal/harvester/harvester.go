// Package harvester fetches paginated product-listing data from
// retailer storefronts, discovering the end of each result set through
// a consecutive-empty-page heuristic rather than a known page count.
package harvester

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// Status codes the harvester classifies explicitly.
const (
	statusOK     = 200
	statusDenied = 403
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// PageHandler consumes each fetched page in order and reports whether
// it was structurally empty. The pipeline's handler persists the raw
// artifact and runs extraction; its empty signal feeds the strike
// counter.
type PageHandler interface {
	HandlePage(ctx context.Context, page domain.RawPage) (empty bool, err error)
}

// Config configures the harvester.
type Config struct {
	// StrikeThreshold is the number of consecutive empty pages that
	// ends a domain's crawl.
	StrikeThreshold int
	// MaxPages caps pages per domain; 0 means no cap.
	MaxPages int
	// RequestTimeout applies per HTTP request.
	RequestTimeout time.Duration
	// DelayMean and DelayStdDev shape the jittered sleep between
	// requests. The draw is clipped to be non-negative.
	DelayMean   time.Duration
	DelayStdDev time.Duration
}

// Harvester fetches listing pages for one domain at a time. Pages
// within a domain are strictly sequential: the stopping decision for
// page N depends on the outcome of page N-1.
type Harvester struct {
	client *http.Client
	log    logger.Interface
	cfg    Config
}

// New creates a harvester.
func New(log logger.Interface, cfg Config) *Harvester {
	return &Harvester{
		client: &http.Client{Timeout: cfg.RequestTimeout},
		log:    log,
		cfg:    cfg,
	}
}

// Harvest crawls one domain page by page until the strike threshold is
// reached, the page cap is hit, or the context is cancelled. Each page
// is fetched, classified, and handed to the handler before the next is
// requested. Transport failures and malformed bodies count as empty
// pages rather than aborting: a transient block looks identical to a
// genuine end of catalog, and the strike threshold absorbs both.
func (h *Harvester) Harvest(ctx context.Context, session *Session, handler PageHandler) (domain.HarvestStats, error) {
	stats := domain.HarvestStats{Domain: session.Domain}
	log := h.log.WithDomain(session.Domain)

	if err := session.Template.Validate(); err != nil {
		return stats, fmt.Errorf("harvest aborted: %w", err)
	}

	log.Info("starting harvest", "strike_threshold", h.cfg.StrikeThreshold)

	for {
		if h.cfg.MaxPages > 0 && session.Page > h.cfg.MaxPages {
			log.Info("page cap reached", "max_pages", h.cfg.MaxPages)
			break
		}

		empty, err := h.fetchAndHandle(ctx, session, handler, &stats)
		if err != nil {
			return stats, err
		}

		if empty {
			session.recordEmpty()
			stats.PagesEmpty++
		} else {
			session.recordContent()
		}

		if session.Strikes >= h.cfg.StrikeThreshold {
			log.Info("end of catalog reached",
				"last_page", session.Page,
				"strikes", session.Strikes,
			)
			break
		}

		session.Page++

		if sleepErr := h.sleepJittered(ctx); sleepErr != nil {
			return stats, sleepErr
		}
	}

	log.Info("harvest finished",
		"pages_fetched", stats.PagesFetched,
		"pages_empty", stats.PagesEmpty,
		"denied", stats.Denied,
		"anomalous", stats.Anomalous,
	)
	return stats, nil
}

// fetchAndHandle fetches the session's current page, classifies it, and
// hands it to the handler. The returned bool is the page's empty signal.
// Only context cancellation and unresolvable templates produce an error.
func (h *Harvester) fetchAndHandle(
	ctx context.Context,
	session *Session,
	handler PageHandler,
	stats *domain.HarvestStats,
) (bool, error) {
	log := h.log.WithDomain(session.Domain)

	payload, payloadErr := session.Template.PayloadForPage(session.Page)
	if payloadErr != nil {
		// Template errors are configuration errors: fatal, no strike spent.
		return false, fmt.Errorf("harvest aborted: %w", payloadErr)
	}

	body, statusCode, fetchErr := h.fetchPage(ctx, &session.Template, payload)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Warn("page fetch failed, counting as empty",
			"page", session.Page,
			"error", fetchErr.Error(),
		)
		return true, nil
	}

	stats.PagesFetched++

	switch {
	case statusCode == statusOK:
		// Expected.
	case statusCode == statusDenied:
		// Blocked responses sometimes still carry partial structure,
		// so the page is attempted for extraction anyway.
		stats.Denied++
		log.Warn("access denied response", "page", session.Page, "status", statusCode)
	default:
		stats.Anomalous++
		log.Warn("anomalous response status", "page", session.Page, "status", statusCode)
	}

	page := domain.RawPage{
		Domain:     session.Domain,
		Page:       session.Page,
		StatusCode: statusCode,
		Body:       body,
	}

	empty, handleErr := handler.HandlePage(ctx, page)
	if handleErr != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Error("page handling failed, counting as empty",
			"page", session.Page,
			"error", handleErr.Error(),
		)
		return true, nil
	}

	return empty, nil
}

// fetchPage issues one listing-page request from the template.
func (h *Harvester) fetchPage(
	ctx context.Context,
	tmpl *domain.RequestTemplate,
	payload string,
) (body []byte, statusCode int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, tmpl.Method, tmpl.URL, strings.NewReader(payload))
	if reqErr != nil {
		return nil, 0, fmt.Errorf("create request: %w", reqErr)
	}

	for key, value := range tmpl.Headers {
		req.Header.Set(key, value)
	}

	resp, doErr := h.client.Do(req)
	if doErr != nil {
		return nil, 0, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", readErr)
	}

	return body, resp.StatusCode, nil
}

// sleepJittered pauses between requests for a normally distributed,
// non-negative interval, or returns early on cancellation. The jitter
// keeps request timing from looking mechanical to rate limiters.
func (h *Harvester) sleepJittered(ctx context.Context) error {
	delay := h.jitterDelay()
	if delay <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// jitterDelay draws the inter-request delay, clipped at zero.
func (h *Harvester) jitterDelay() time.Duration {
	if h.cfg.DelayMean <= 0 {
		return 0
	}
	d := time.Duration(rand.NormFloat64()*float64(h.cfg.DelayStdDev)) + h.cfg.DelayMean
	if d < 0 {
		return 0
	}
	return d
}
