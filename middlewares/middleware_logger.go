package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LoggerMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
			"path":    path,
		})
		switch {
		case len(c.Errors) > 0:
			entry.WithError(c.Errors.Last()).Error("Request failed")
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		default:
			entry.Info("Request handled")
		}
	}
}
