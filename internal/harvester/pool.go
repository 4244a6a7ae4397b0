package harvester

import (
	"context"
	"sync"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// Result is one domain's harvest outcome.
type Result struct {
	Domain string
	Stats  domain.HarvestStats
	Err    error
}

// HandlerFactory builds the page handler for one domain's crawl. Each
// domain gets its own handler so there is no cross-domain shared state
// during harvesting.
type HandlerFactory func(domainName string) PageHandler

// HarvestAll crawls the given sessions with bounded parallelism. Pages
// within a domain stay strictly sequential; distinct domains are
// independent. Results are returned in session order.
func (h *Harvester) HarvestAll(
	ctx context.Context,
	sessions []*Session,
	handlers HandlerFactory,
	workers int,
) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(sessions) {
		workers = len(sessions)
	}

	results := make([]Result, len(sessions))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				session := sessions[idx]
				stats, err := h.Harvest(ctx, session, handlers(session.Domain))
				results[idx] = Result{Domain: session.Domain, Stats: stats, Err: err}
			}
		}()
	}

	for idx := range sessions {
		select {
		case <-ctx.Done():
			results[idx] = Result{Domain: sessions[idx].Domain, Err: ctx.Err()}
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
