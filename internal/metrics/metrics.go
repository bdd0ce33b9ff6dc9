package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "filevault_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// FilesUploaded counts files successfully stored.
	FilesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_files_uploaded_total",
		Help: "Files successfully uploaded.",
	})
	// FilesDeleted counts files removed from storage.
	FilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_files_deleted_total",
		Help: "Files successfully deleted.",
	})
	// ArchivesBuilt counts download archives assembled.
	ArchivesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_archives_built_total",
		Help: "Download archives assembled.",
	})
	// SharesGranted counts share requests applied.
	SharesGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_shares_granted_total",
		Help: "Share requests applied.",
	})
	// QuotaDenials counts uploads rejected by the quota check.
	QuotaDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_quota_denials_total",
		Help: "Uploads rejected because the storage quota would be exceeded.",
	})
	// AccessDenials counts operations rejected by the access evaluator.
	AccessDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_access_denials_total",
		Help: "Operations rejected by the access evaluator.",
	})
)

// Middleware records request latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
