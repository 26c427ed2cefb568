package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "souschef_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_extractions_total",
			Help: "Recipe extractions by source kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	extractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "souschef_extraction_duration_seconds",
			Help:    "Recipe extraction duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"kind"},
	)

	groceryItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_grocery_items_total",
			Help: "Grocery items aggregated into lists, by merge or insert",
		},
		[]string{"action"},
	)
)

// Metrics 業務指標，實作各服務的指標介面
type Metrics struct{}

// NewMetrics 創建指標收集器
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ExtractionObserved 記錄一次擷取
func (m *Metrics) ExtractionObserved(kind, outcome string, duration time.Duration) {
	extractionsTotal.WithLabelValues(kind, outcome).Inc()
	extractionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ItemsMerged 記錄合併到既有項目的食材數
func (m *Metrics) ItemsMerged(n int) {
	if n > 0 {
		groceryItemsTotal.WithLabelValues("merged").Add(float64(n))
	}
}

// ItemsInserted 記錄新增的項目數
func (m *Metrics) ItemsInserted(n int) {
	if n > 0 {
		groceryItemsTotal.WithLabelValues("inserted").Add(float64(n))
	}
}

// Middleware 記錄 HTTP 請求數與延遲，路徑使用路由模板
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics 端點
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
