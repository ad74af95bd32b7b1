package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
	"github.com/ConWan30/skillsync-ai-platform-sub000/jobs"
)

// =============================================================================
// 🧪 职位 Handler 测试
// =============================================================================

type fakeSearcher struct {
	platform string
	listings []jobs.Listing
}

func (f *fakeSearcher) Platform() string { return f.platform }

func (f *fakeSearcher) Search(_ context.Context, _, _ string, _ int) ([]jobs.Listing, error) {
	return f.listings, nil
}

type fakeEventStore struct {
	events []*store.JobEvent
	rows   []store.PlatformRevenue
}

func (f *fakeEventStore) RecordJobEvent(_ context.Context, event *store.JobEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventStore) RevenueSummary(_ context.Context, _ time.Time) ([]store.PlatformRevenue, error) {
	return f.rows, nil
}

func newJobsMux(integrator *jobs.Integrator, tracker *jobs.Tracker) *http.ServeMux {
	h := NewJobsHandler(integrator, tracker, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/jobs/search", h.HandleSearch)
	mux.HandleFunc("POST /api/v1/jobs/track", h.HandleTrack)
	mux.HandleFunc("GET /api/v1/jobs/revenue", h.HandleRevenue)
	return mux
}

func TestJobSearchHandler(t *testing.T) {
	integrator := jobs.NewIntegrator([]jobs.Searcher{
		&fakeSearcher{platform: jobs.PlatformIndeed, listings: []jobs.Listing{
			{ID: "a", Title: "Go Engineer", Company: "TechCorp", RevenuePotential: 150},
		}},
	}, zap.NewNop())
	mux := newJobsMux(integrator, jobs.NewTracker(&fakeEventStore{}, nil, zap.NewNop()))

	w := doJSON(t, mux, http.MethodGet, "/api/v1/jobs/search?q=go+engineer&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(1), data["total_found"])
	listings := data["listings"].([]any)
	assert.Equal(t, "Go Engineer", listings[0].(map[string]any)["title"])
}

func TestJobSearchRequiresQuery(t *testing.T) {
	integrator := jobs.NewIntegrator([]jobs.Searcher{
		&fakeSearcher{platform: jobs.PlatformIndeed},
	}, zap.NewNop())
	mux := newJobsMux(integrator, jobs.NewTracker(&fakeEventStore{}, nil, zap.NewNop()))

	w := doJSON(t, mux, http.MethodGet, "/api/v1/jobs/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/v1/jobs/search?q=go&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobTrackHandler(t *testing.T) {
	es := &fakeEventStore{}
	integrator := jobs.NewIntegrator([]jobs.Searcher{
		&fakeSearcher{platform: jobs.PlatformIndeed},
	}, zap.NewNop())
	mux := newJobsMux(integrator, jobs.NewTracker(es, nil, zap.NewNop()))

	w := doJSON(t, mux, http.MethodPost, "/api/v1/jobs/track",
		map[string]string{"platform": "indeed", "job_id": "indeed_001", "event": "click"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, es.events, 1)
	assert.Equal(t, "click", es.events[0].Event)

	w = doJSON(t, mux, http.MethodPost, "/api/v1/jobs/track",
		map[string]string{"platform": "indeed", "job_id": "x", "event": "hover"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/v1/jobs/track",
		map[string]string{"platform": "indeed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobRevenueHandler(t *testing.T) {
	es := &fakeEventStore{rows: []store.PlatformRevenue{
		{Platform: "indeed", Events: 4, Revenue: 12.5},
	}}
	integrator := jobs.NewIntegrator([]jobs.Searcher{
		&fakeSearcher{platform: jobs.PlatformIndeed},
	}, zap.NewNop())
	mux := newJobsMux(integrator, jobs.NewTracker(es, nil, zap.NewNop()))

	w := doJSON(t, mux, http.MethodGet, "/api/v1/jobs/revenue?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(4), data["total_events"])
	assert.InDelta(t, 12.5, data["total_revenue"].(float64), 0.001)

	w = doJSON(t, mux, http.MethodGet, "/api/v1/jobs/revenue?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
