// Package metrics 基于Prometheus的指标收集
//
// 指标分三类：
//   - HTTP请求：请求总数、耗时、处理中的请求数（由中间件记录）
//   - 借阅业务：借出/归还数量、借出失败原因、借出耗时、待借清单大小
//   - 依赖组件：熔断器状态、借阅事件发布数
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、status、reason），不要使用user_id、cedula等高基数字段。
//
// 使用示例：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	// ... 借出 ...
//	metrics.ObserveHistogram(metrics.LoanCheckoutDuration, time.Since(start).Seconds())
//	metrics.IncCounterVec(metrics.LoanCheckoutFailures, map[string]string{"reason": "no_stock"})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// once 防止重复注册
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，如/api/v1/loans/:id/return）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 借阅业务指标

	// LoansCreatedTotal 借出成功的借阅数
	LoansCreatedTotal prometheus.Counter

	// LoanCheckoutFailures 单本图书借出失败数
	// 标签：reason（no_stock/not_found）
	LoanCheckoutFailures *prometheus.CounterVec

	// LoansReturnedTotal 归还数
	LoansReturnedTotal prometheus.Counter

	// LoanCheckoutDuration 一次借出（整个待借清单）的耗时
	LoanCheckoutDuration prometheus.Histogram

	// CartItems 借出时待借清单中的图书数
	CartItems prometheus.Histogram

	// BooksPublishedTotal 编目上架数
	BooksPublishedTotal prometheus.Counter

	// AnalyticsEventsTotal 访问事件记录数
	// 标签：type（view/add/pdf/login）、result（success/failure）
	AnalyticsEventsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 借阅事件发布数
	// 标签：routing_key、result（success/failure/rejected/timeout）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标
// promauto注册到默认Registry，重复调用无副作用
func InitMetrics() {
	once.Do(register)
}

func register() {
	// HTTP请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	// 借阅业务指标
	LoansCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_loans_created_total",
			Help: "借出成功的借阅数",
		},
	)

	LoanCheckoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_loan_checkout_failures_total",
			Help: "单本图书借出失败数",
		},
		[]string{"reason"},
	)

	LoansReturnedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_loans_returned_total",
			Help: "归还数",
		},
	)

	LoanCheckoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "library_loan_checkout_duration_seconds",
			Help: "借出耗时（秒）",
			// 每本书一次行锁+一次SUM查询，清单最多10本
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CartItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "library_cart_items",
			Help:    "借出时待借清单中的图书数",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	BooksPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_books_published_total",
			Help: "编目上架数",
		},
	)

	AnalyticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_analytics_events_total",
			Help: "访问事件记录数",
		},
		[]string{"type", "result"},
	)

	// 熔断器指标
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	// 消息队列指标
	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "借阅事件发布数",
		},
		[]string{"routing_key", "result"},
	)
}

// IncCounter 递增Counter（便捷函数）
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// AddCounter Counter增加指定值
func AddCounter(counter prometheus.Counter, v float64) {
	counter.Add(v)
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
