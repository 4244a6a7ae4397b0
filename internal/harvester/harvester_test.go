package harvester_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/harvester"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// Test configuration constants.
const (
	harvestTestDomain    = "loblaws"
	harvestTestThreshold = 3
	harvestTestTimeout   = 5 * time.Second
)

// harvestTestPayload carries the pagination field the harvester
// substitutes per page.
const harvestTestPayload = `{"query": "grocery", "from": 1, "size": 48}`

// --- Mock implementations ---

// mockHandler implements harvester.PageHandler for testing. emptyFrom
// marks the first page number reported as structurally empty.
type mockHandler struct {
	mu        sync.Mutex
	pages     []domain.RawPage
	emptyFrom int
	err       error
}

func (m *mockHandler) HandlePage(_ context.Context, page domain.RawPage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pages = append(m.pages, page)

	if m.err != nil {
		return false, m.err
	}

	return m.emptyFrom > 0 && page.Page >= m.emptyFrom, nil
}

func (m *mockHandler) handledPages() []domain.RawPage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.RawPage(nil), m.pages...)
}

// --- Test helpers ---

// countingServer records how many requests it served and the payloads
// it received.
type countingServer struct {
	*httptest.Server

	mu       sync.Mutex
	payloads []string
}

func (s *countingServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.payloads)
}

func (s *countingServer) receivedPayloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.payloads...)
}

// startListingServer creates an httptest.Server returning the given
// status and body for every page request.
func startListingServer(t *testing.T, statusCode int, body string) *countingServer {
	t.Helper()

	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)

		cs.mu.Lock()
		cs.payloads = append(cs.payloads, string(payload))
		cs.mu.Unlock()

		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(cs.Close)

	return cs
}

// newTestSession creates a session whose template targets the given URL.
func newTestSession(t *testing.T, url string) *harvester.Session {
	t.Helper()

	session, err := harvester.NewSession(domain.RequestTemplate{
		Method:  http.MethodPost,
		URL:     url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Payload: harvestTestPayload,
		Domain:  harvestTestDomain,
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return session
}

// newTestHarvester creates a harvester with zero inter-request delay.
func newTestHarvester(t *testing.T, maxPages int) *harvester.Harvester {
	t.Helper()

	return harvester.New(logger.NewNoOp(), harvester.Config{
		StrikeThreshold: harvestTestThreshold,
		MaxPages:        maxPages,
		RequestTimeout:  harvestTestTimeout,
	})
}

// --- Tests ---

func TestHarvest_StopsAfterConsecutiveEmptyPages(t *testing.T) {
	t.Parallel()

	const contentPages = 4

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)
	handler := &mockHandler{emptyFrom: contentPages + 1}

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Content on pages 1..4, then three empty strikes: exactly
	// contentPages + threshold requests in total.
	wantRequests := contentPages + harvestTestThreshold
	if got := server.requestCount(); got != wantRequests {
		t.Errorf("request count = %d, want %d", got, wantRequests)
	}
	if stats.PagesFetched != wantRequests {
		t.Errorf("PagesFetched = %d, want %d", stats.PagesFetched, wantRequests)
	}
	if stats.PagesEmpty != harvestTestThreshold {
		t.Errorf("PagesEmpty = %d, want %d", stats.PagesEmpty, harvestTestThreshold)
	}
}

func TestHarvest_InterveningContentResetsStrikes(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)

	// Pages 1,2 empty, page 3 content, pages 4,5,6 empty: the two early
	// strikes must not count toward the final run of three.
	handler := &mockHandler{}
	emptyByPage := map[int]bool{1: true, 2: true, 4: true, 5: true, 6: true}
	wrapped := handlerFunc(func(ctx context.Context, page domain.RawPage) (bool, error) {
		_, _ = handler.HandlePage(ctx, page)
		return emptyByPage[page.Page], nil
	})

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := server.requestCount(); got != 6 {
		t.Errorf("request count = %d, want 6", got)
	}
	if stats.PagesEmpty != 5 {
		t.Errorf("PagesEmpty = %d, want 5", stats.PagesEmpty)
	}
}

// handlerFunc adapts a function to the PageHandler interface.
type handlerFunc func(ctx context.Context, page domain.RawPage) (bool, error)

func (f handlerFunc) HandlePage(ctx context.Context, page domain.RawPage) (bool, error) {
	return f(ctx, page)
}

func TestHarvest_SubstitutesPageCursorPerRequest(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)
	handler := &mockHandler{emptyFrom: 1}

	h := newTestHarvester(t, 0)

	if _, err := h.Harvest(context.Background(), session, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		`{"query": "grocery", "from": 1, "size": 48}`,
		`{"query": "grocery", "from": 2, "size": 48}`,
		`{"query": "grocery", "from": 3, "size": 48}`,
	}
	got := server.receivedPayloads()
	if len(got) != len(want) {
		t.Fatalf("payload count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("payload[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHarvest_DeniedResponseStillHandled(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusForbidden, `{"errors": "blocked"}`)
	session := newTestSession(t, server.URL)
	handler := &mockHandler{emptyFrom: 1}

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Blocked pages are classified, counted, and still passed through
	// for extraction; their empty bodies burn strikes until termination.
	if stats.Denied != harvestTestThreshold {
		t.Errorf("Denied = %d, want %d", stats.Denied, harvestTestThreshold)
	}

	pages := handler.handledPages()
	if len(pages) != harvestTestThreshold {
		t.Fatalf("handled pages = %d, want %d", len(pages), harvestTestThreshold)
	}
	for _, page := range pages {
		if page.StatusCode != http.StatusForbidden {
			t.Errorf("page %d status = %d, want %d", page.Page, page.StatusCode, http.StatusForbidden)
		}
	}
}

func TestHarvest_AnomalousStatusCounted(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusBadGateway, "upstream error")
	session := newTestSession(t, server.URL)
	handler := &mockHandler{emptyFrom: 1}

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Anomalous != harvestTestThreshold {
		t.Errorf("Anomalous = %d, want %d", stats.Anomalous, harvestTestThreshold)
	}
	if stats.Denied != 0 {
		t.Errorf("Denied = %d, want 0", stats.Denied)
	}
}

func TestHarvest_TransportErrorCountsAsEmpty(t *testing.T) {
	t.Parallel()

	// A server that closes immediately leaves nothing listening, so
	// every request fails at the transport layer.
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	session := newTestSession(t, url)
	handler := &mockHandler{}

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PagesFetched != 0 {
		t.Errorf("PagesFetched = %d, want 0", stats.PagesFetched)
	}
	if stats.PagesEmpty != harvestTestThreshold {
		t.Errorf("PagesEmpty = %d, want %d", stats.PagesEmpty, harvestTestThreshold)
	}
	if got := len(handler.handledPages()); got != 0 {
		t.Errorf("handled pages = %d, want 0", got)
	}
}

func TestHarvest_HandlerErrorCountsAsStrike(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)
	handler := &mockHandler{err: errors.New("disk full")}

	h := newTestHarvester(t, 0)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PagesEmpty != harvestTestThreshold {
		t.Errorf("PagesEmpty = %d, want %d", stats.PagesEmpty, harvestTestThreshold)
	}
}

func TestHarvest_MaxPagesCapsCrawl(t *testing.T) {
	t.Parallel()

	const maxPages = 2

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)
	handler := &mockHandler{} // every page reports content

	h := newTestHarvester(t, maxPages)

	stats, err := h.Harvest(context.Background(), session, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PagesFetched != maxPages {
		t.Errorf("PagesFetched = %d, want %d", stats.PagesFetched, maxPages)
	}
}

func TestHarvest_ContextCancellationAborts(t *testing.T) {
	t.Parallel()

	server := startListingServer(t, http.StatusOK, "{}")
	session := newTestSession(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	handler := handlerFunc(func(context.Context, domain.RawPage) (bool, error) {
		cancel()
		return false, nil
	})

	h := harvester.New(logger.NewNoOp(), harvester.Config{
		StrikeThreshold: harvestTestThreshold,
		RequestTimeout:  harvestTestTimeout,
		DelayMean:       time.Hour, // cancellation must win over the sleep
		DelayStdDev:     0,
	})

	_, err := h.Harvest(ctx, session, handler)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestNewSession_RejectsInvalidTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template domain.RequestTemplate
		wantErr  error
	}{
		{
			name:     "missing domain",
			template: domain.RequestTemplate{URL: "https://example.com", Payload: harvestTestPayload},
			wantErr:  domain.ErrMissingDomain,
		},
		{
			name:     "missing url",
			template: domain.RequestTemplate{Domain: harvestTestDomain, Payload: harvestTestPayload},
			wantErr:  domain.ErrMissingURL,
		},
		{
			name:     "missing payload",
			template: domain.RequestTemplate{Domain: harvestTestDomain, URL: "https://example.com"},
			wantErr:  domain.ErrMissingPayload,
		},
		{
			name: "payload without page field",
			template: domain.RequestTemplate{
				Domain:  harvestTestDomain,
				URL:     "https://example.com",
				Payload: `{"query": "grocery"}`,
			},
			wantErr: domain.ErrNoPageField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := harvester.NewSession(tt.template)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
