// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Provider 指标
	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec

	// 入口指标
	gateDecisions     *prometheus.CounterVec
	pipelineFailures  *prometheus.CounterVec
	transcriptResults *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建注册到全局 Registry 的指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegistry 创建注册到 reg 的指标收集器
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Provider 指标
	c.providerRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_provider_requests_total",
			Help:      "Total number of speech provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	c.providerRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_provider_duration_seconds",
			Help:      "Speech provider call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)

	// 入口指标
	c.gateDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Total number of token checks by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	c.pipelineFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Total number of internal pipeline failures by error code",
		},
		[]string{"endpoint", "code"},
	)

	c.transcriptResults = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_results_total",
			Help:      "Total number of transcript results returned by the recognizer",
		},
		[]string{"language_code"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🎙️ Provider 指标记录
// =============================================================================

// RecordProviderCall 记录一次 Provider 调用，status 为 ok 或错误码
func (c *Collector) RecordProviderCall(provider, operation, status string, duration time.Duration) {
	c.providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	c.providerRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🔐 入口指标记录
// =============================================================================

// RecordGateDecision 记录鉴权结果
func (c *Collector) RecordGateDecision(endpoint, outcome string) {
	c.gateDecisions.WithLabelValues(endpoint, outcome).Inc()
}

// RecordPipelineFailure 记录内部失败
func (c *Collector) RecordPipelineFailure(endpoint, code string) {
	c.pipelineFailures.WithLabelValues(endpoint, code).Inc()
}

// RecordTranscriptResult 记录一条识别结果
func (c *Collector) RecordTranscriptResult(languageCode string) {
	if languageCode == "" {
		languageCode = "unknown"
	}
	c.transcriptResults.WithLabelValues(languageCode).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
