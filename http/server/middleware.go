package server

import (
	"log/slog"
	"strings"
	"time"

	"dreamlayer/helpers"
	"dreamlayer/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestID reads X-Request-Id or generates one, and echoes it back.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-Id", rid)
		c.Next()
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := requestLogger(c)
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", helpers.HumanDuration(time.Since(start)),
		}
		if c.Writer.Status() >= 500 {
			log.Warn("Request finished", args...)
			return
		}
		log.Info("Request finished", args...)
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	return logger.Request(c.GetString(requestIDKey))
}

// corsMiddleware allows the configured origins. Entries may carry one "*"
// wildcard, e.g. http://localhost:*; a bare "*" allows every origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-Id"}
	config.ExposeHeaders = []string{"X-Request-Id"}

	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			return cors.New(config)
		}
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return cors.New(config)
	}

	config.AllowOrigins = origins
	config.AllowWildcard = true
	return cors.New(config)
}
