package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 业务指标
	articleOpsTotal       *prometheus.CounterVec
	reactionsToggledTotal *prometheus.CounterVec
	reconcileRepairsTotal *prometheus.CounterVec
	mailTotal             *prometheus.CounterVec
}

func newMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint"},
		),

		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_prefix"},
		),

		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_prefix"},
		),

		articleOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_article_operations_total",
				Help: "Article create/update/delete operations",
			},
			[]string{"operation"},
		),

		reactionsToggledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_reactions_toggled_total",
				Help: "Like/unlike toggles by kind and resulting state",
			},
			[]string{"kind", "state"},
		),

		reconcileRepairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_reconcile_repairs_total",
				Help: "Back-reference rows added or removed by reconciliation",
			},
			[]string{"table", "action"},
		),

		mailTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_mail_total",
				Help: "Mail delivery attempts by result",
			},
			[]string{"result"},
		),
	}
}

// NewMetricsCollector 创建指标收集器，注册到指定 registry
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	return newMetricsCollector(reg)
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration, responseSize int) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if responseSize > 0 {
		m.httpResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
	}
}

// RecordCacheLookup 记录缓存命中情况
func (m *MetricsCollector) RecordCacheLookup(keyPrefix string, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(keyPrefix).Inc()
	}
}

// RecordArticleOp 记录文章写操作 (create/update/delete)
func (m *MetricsCollector) RecordArticleOp(operation string) {
	m.articleOpsTotal.WithLabelValues(operation).Inc()
}

// RecordReaction 记录一次点赞/点踩切换，active 表示切换后是否处于选中状态
func (m *MetricsCollector) RecordReaction(kind string, active bool) {
	state := "off"
	if active {
		state = "on"
	}
	m.reactionsToggledTotal.WithLabelValues(kind, state).Inc()
}

// RecordReconcile 记录修复的反向引用数量
func (m *MetricsCollector) RecordReconcile(table string, added, removed int) {
	if added > 0 {
		m.reconcileRepairsTotal.WithLabelValues(table, "added").Add(float64(added))
	}
	if removed > 0 {
		m.reconcileRepairsTotal.WithLabelValues(table, "removed").Add(float64(removed))
	}
}

// RecordMail 记录邮件发送结果 (sent/retry/dropped)
func (m *MetricsCollector) RecordMail(result string) {
	m.mailTotal.WithLabelValues(result).Inc()
}

var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// GetGlobalCollector 获取注册在默认 registry 上的全局指标收集器
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = newMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
