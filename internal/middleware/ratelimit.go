package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/gandhirajj/doctor-appointment-api/internal/response"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis, applied
// to the credential endpoints. When Redis is unreachable the request is
// let through; login must not depend on the limiter being up.
func RateLimit(rdb *redis.Client, log *logrus.Logger, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := "rl:" + c.FullPath() + ":" + ip

		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, window)
		}
		if count > int64(limit) {
			response.AbortFail(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
