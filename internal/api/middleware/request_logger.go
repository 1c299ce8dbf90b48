package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once on completion. Credential headers
// are never written.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if slog.Default().Enabled(ctx, slog.LevelDebug) {
			slog.DebugContext(ctx, "incoming request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"headers", scrub(c.Request.Header),
			)
		}

		ts := time.Now()
		c.Next()

		attrs := []any{
			"status", c.Writer.Status(),
			"latency", time.Since(ts),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			slog.ErrorContext(ctx, "request completed", attrs...)
		case c.IsAborted():
			slog.WarnContext(ctx, "request aborted", attrs...)
		default:
			slog.InfoContext(ctx, "request completed", attrs...)
		}
	}
}

func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}
