package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew 测试指标注册
func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	require.NotNil(t, m.HTTPRequestsTotal)
	require.NotNil(t, m.BookOperationsTotal)

	// 同一Registry重复注册会panic
	assert.Panics(t, func() { New(reg) })

	// 不同Registry互不影响
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

// TestObserveHTTPRequest 测试HTTP请求指标
func TestObserveHTTPRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTPRequest("GET", "/books/:id", 200, 50*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/books/:id", 200, 100*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/books/:id", 404, 10*time.Millisecond)

	assert.Equal(t, float64(2), getCounterVecValue(t, m.HTTPRequestsTotal, "GET", "/books/:id", "200"))
	assert.Equal(t, float64(1), getCounterVecValue(t, m.HTTPRequestsTotal, "GET", "/books/:id", "404"))
	assert.Equal(t, uint64(3), getHistogramVecCount(t, m.HTTPRequestDuration, "GET", "/books/:id"))
}

// TestObserveBookOperation 测试图书操作指标
func TestObserveBookOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBookOperation("create", ResultSuccess, time.Millisecond)
	m.ObserveBookOperation("get", ResultNotFound, time.Millisecond)
	m.ObserveBookOperation("get", ResultSuccess, time.Millisecond)
	m.ObserveBookOperation("get", ResultSuccess, time.Millisecond)

	assert.Equal(t, float64(1), getCounterVecValue(t, m.BookOperationsTotal, "create", ResultSuccess))
	assert.Equal(t, float64(2), getCounterVecValue(t, m.BookOperationsTotal, "get", ResultSuccess))
	assert.Equal(t, float64(1), getCounterVecValue(t, m.BookOperationsTotal, "get", ResultNotFound))
	assert.Equal(t, uint64(3), getHistogramVecCount(t, m.BookOperationDuration, "get"))
}

// TestEvents 测试事件指标
func TestEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncEventPublished("book.created", ResultSuccess)
	m.IncEventPublished("book.created", ResultError)
	m.IncEventConsumed("book.deleted", ResultSuccess)

	assert.Equal(t, float64(1), getCounterVecValue(t, m.EventsPublishedTotal, "book.created", ResultError))
	assert.Equal(t, float64(1), getCounterVecValue(t, m.EventsConsumedTotal, "book.deleted", ResultSuccess))
}

// TestGauge 测试处理中请求数
func TestGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.HTTPRequestsInProgress.Inc()
	m.HTTPRequestsInProgress.Inc()
	m.HTTPRequestsInProgress.Dec()

	var metric dto.Metric
	require.NoError(t, m.HTTPRequestsInProgress.Write(&metric))
	assert.Equal(t, float64(1), metric.Gauge.GetValue())
}

// TestHandler 测试/metrics端点输出
func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.ObserveBookOperation("list", ResultSuccess, time.Millisecond)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `books_operations_total{operation="list",result="success"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func getCounterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&metric))
	return metric.Counter.GetValue()
}

func getHistogramVecCount(t *testing.T, vec *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).(prometheus.Histogram).Write(&metric))
	return metric.Histogram.GetSampleCount()
}
