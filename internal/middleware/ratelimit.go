package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/services"
)

// RateLimitMiddleware allows limit requests per window for each session, or
// for each client address when the request carries no session.
func RateLimitMiddleware(throttle services.Throttle, limit int, window time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if id, ok := SessionID(c); ok && id != 0 {
			key = fmt.Sprintf("session:%d", id)
		}

		allowed, err := throttle.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Error("rate limit check failed", slog.String("key", key), sl.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many rounds. Please wait.",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
