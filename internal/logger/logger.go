package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const correlationHeader = "X-Correlation-ID"

const correlationKey = "filevaultCorrelationID"

// Init builds the process-wide zap logger. The level is taken from the
// LOG_LEVEL environment variable and defaults to info.
func Init() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if parsed, err := zapcore.ParseLevel(strings.TrimSpace(raw)); err == nil {
			level = parsed
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Middleware attaches a correlation ID to every request and logs its outcome.
// An incoming X-Correlation-ID header is honored so upstream proxies can trace
// requests end to end.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationKey, id)
		c.Header(correlationHeader, id)

		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		log.Info("request",
			zap.String("correlation_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// CorrelationID returns the correlation ID assigned to the request, or an
// empty string when the middleware did not run.
func CorrelationID(c *gin.Context) string {
	value, exists := c.Get(correlationKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
