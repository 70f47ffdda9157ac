// Package metrics 提供基于Prometheus的指标收集
//
// 指标类型：
//   - Counter：只增不减的累计值（请求数、操作数）
//   - Gauge：可增可减的瞬时值（处理中的请求数）
//   - Histogram：观测值分布（请求耗时，可计算P50/P90/P99）
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、路由模板、status），不要使用图书ID等高基数值。
//
// 使用示例：
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
//	m.ObserveBookOperation("create", metrics.ResultSuccess, time.Since(start))
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 操作结果标签
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics 进程内全部指标
// 每个进程构造一次并注入到中间件和服务中，测试使用独立的Registry
type Metrics struct {
	// HTTPRequestsTotal HTTP请求总数，标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	// 桶设置：1ms、10ms、100ms、500ms、1s、5s、10s
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// BookOperationsTotal 图书操作总数，标签：operation（create/get/list/update/delete）、result
	BookOperationsTotal *prometheus.CounterVec

	// BookOperationDuration 图书操作耗时（服务层）
	BookOperationDuration *prometheus.HistogramVec

	// EventsPublishedTotal 图书事件发布总数，标签：type、result
	EventsPublishedTotal *prometheus.CounterVec

	// EventsConsumedTotal 图书事件消费总数，标签：type、result
	EventsConsumedTotal *prometheus.CounterVec
}

// New 创建并注册全部指标
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInProgress: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		),
		BookOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "books_operations_total",
				Help: "图书操作总数",
			},
			[]string{"operation", "result"},
		),
		BookOperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "books_operation_duration_seconds",
				Help:    "图书操作耗时（秒）",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		EventsPublishedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "books_events_published_total",
				Help: "图书事件发布总数",
			},
			[]string{"type", "result"},
		),
		EventsConsumedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "books_events_consumed_total",
				Help: "图书事件消费总数",
			},
			[]string{"type", "result"},
		),
	}
}

// NewRegistry 创建带Go运行时和进程指标的Registry
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 暴露/metrics端点
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest 记录一次HTTP请求
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveBookOperation 记录一次图书操作
func (m *Metrics) ObserveBookOperation(operation, result string, d time.Duration) {
	m.BookOperationsTotal.WithLabelValues(operation, result).Inc()
	m.BookOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncEventPublished 记录一次事件发布
func (m *Metrics) IncEventPublished(eventType, result string) {
	m.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

// IncEventConsumed 记录一次事件消费
func (m *Metrics) IncEventConsumed(eventType, result string) {
	m.EventsConsumedTotal.WithLabelValues(eventType, result).Inc()
}
