package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/cache"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
)

var (
	_ cache.Recorder        = (*Metrics)(nil)
	_ pipeline.MoveRecorder = (*Metrics)(nil)
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/leads/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads/abc", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/leads/:id", "200")))
}

func TestBusinessCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StatusMoved("deal", "offer", "legal")
	m.StatusMoved("deal", "legal", "legal")
	m.CacheHit("leads")
	m.CacheMiss("leads")
	m.CacheMiss("leads")
	m.NotificationCreated("deal_update")
	m.RecordAssistantRequest(false)
	m.RecordJobRun("task_due", nil)
	m.RecordJobRun("task_due", errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusMoves.WithLabelValues("deal", "legal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("leads")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("leads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsCreated.WithLabelValues("deal_update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssistantRequests.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("task_due", "failed")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHit("properties")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cache_hits_total{collection="properties"} 1`)
}
