package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg, "skillsync_test", zap.NewNop())
	require.NotNil(t, c)
	return c, reg
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordHTTPRequest("GET", "/api/v1/users", 200, 25*time.Millisecond, 128, 512)
	c.RecordHTTPRequest("GET", "/api/v1/users", 200, 30*time.Millisecond, 64, 256)
	c.RecordHTTPRequest("POST", "/api/v1/users", 409, 10*time.Millisecond, 256, 128)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/api/v1/users", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/users", "4xx")))
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordLLMRequest("xai", "grok-beta", "success", 2*time.Second, 120, 380)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.llmRequestsTotal.WithLabelValues("xai", "grok-beta", "success")))
	assert.Equal(t, float64(120), testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("xai", "grok-beta", "prompt")))
	assert.Equal(t, float64(380), testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("xai", "grok-beta", "completion")))
}

func TestCollector_BusMetrics(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordBusMessage("knowledge_share")
	c.RecordBusMessage("knowledge_share")
	c.RecordBusDrop("overflow")
	c.SetBusPending(7)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.busMessagesTotal.WithLabelValues("knowledge_share")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.busDropsTotal.WithLabelValues("overflow")))
	assert.Equal(t, float64(7), testutil.ToFloat64(c.busPendingMessages))
}

func TestCollector_CacheMetrics(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordCacheHit("guidance")
	c.RecordCacheHit("guidance")
	c.RecordCacheMiss("guidance")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.cacheHits.WithLabelValues("guidance")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.cacheMisses.WithLabelValues("guidance")))
}

func TestCollector_JobMetrics(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordJobSearch("indeed", "success")
	c.RecordJobSearch("linkedin", "fallback")
	c.RecordJobClick("indeed", "click")

	assert.Equal(t, float64(1), testutil.ToFloat64(c.jobSearchesTotal.WithLabelValues("indeed", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.jobSearchesTotal.WithLabelValues("linkedin", "fallback")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.jobClicksTotal.WithLabelValues("indeed", "click")))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{99, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.code))
	}
}

func TestCollector_RegistersMetrics(t *testing.T) {
	c, reg := newTestCollector(t)

	c.RecordHTTPRequest("GET", "/", 200, time.Millisecond, 0, 0)
	c.RecordDBQuery("skillsync", "select", time.Millisecond)
	c.RecordDBConnections("skillsync", 5, 3)
	c.RecordSwarmAnalysis("success", 3, 50*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
