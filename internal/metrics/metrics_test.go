package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New(Config{Namespace: "test"})
	m.RecordHTTPRequest("GET", "/api/classify", 200, 50*time.Millisecond)

	out := scrape(t, m)
	assert.Contains(t, out, `test_http_requests_total{method="GET",path="/api/classify",status_code="200"} 1`)
	assert.Contains(t, out, `test_http_request_duration_seconds_count{method="GET",path="/api/classify"} 1`)
}

func TestClassifyAndInference(t *testing.T) {
	m := New(Config{Namespace: "test"})
	m.RecordClassify("upload", "ok")
	m.RecordClassify("url", "fetch_error")
	m.RecordImage("upload", 2048)
	m.RecordFetch(10 * time.Millisecond)

	done := m.TrackInference()
	assert.Contains(t, scrape(t, m), "test_inference_active 1")
	done()

	out := scrape(t, m)
	assert.Contains(t, out, "test_inference_active 0")
	assert.Contains(t, out, "test_inference_duration_seconds_count 1")
	assert.Contains(t, out, `test_classify_requests_total{outcome="ok",source="upload"} 1`)
	assert.Contains(t, out, `test_classify_requests_total{outcome="fetch_error",source="url"} 1`)
	assert.Contains(t, out, `test_image_size_bytes_sum{source="upload"} 2048`)
	assert.Contains(t, out, "test_image_fetch_duration_seconds_count 1")
}

func TestTrackRequest(t *testing.T) {
	m := New(Config{Namespace: "test"})
	done := m.TrackRequest()
	assert.Contains(t, scrape(t, m), "test_http_active_requests 1")
	done()
	assert.Contains(t, scrape(t, m), "test_http_active_requests 0")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/", 200, time.Second)
	m.RecordClassify("url", "ok")
	m.RecordImage("url", 1)
	m.RecordFetch(time.Second)
	m.TrackInference()()
	m.TrackRequest()()
}
