package middleware

import (
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/devfolio/portfolio-backend/errors"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const contactRateLimitPrefix = "ratelimit:contact:"

// ContactRateLimiter caps how many contact messages one client IP may send
// per fixed window. The counter's TTL is set only when the key is created,
// so the window does not slide with each request. Redis failures let the
// request through.
//
// EXPIRE NX needs Redis 7.0 or later. Older servers reject the transaction,
// which leaves every request unlimited; a warning is logged for each one.
func ContactRateLimiter(redisClient *redis.Client, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := contactRateLimitPrefix + c.ClientIP()

		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)

		if _, err := pipe.Exec(ctx); err != nil {
			logger.GetLogger().Warnw("Rate limit check failed, allowing request",
				"key", key,
				"error", err)
			c.Next()
			return
		}

		count := incr.Val()
		c.Header("X-RateLimit-Limit", strconv.Itoa(requests))

		if count > int64(requests) {
			ttl, err := redisClient.TTL(ctx, key).Result()
			if err != nil || ttl <= 0 {
				ttl = window
			}
			retryAfter := int((ttl + time.Second - 1) / time.Second)

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

			_ = c.Error(apperrors.RateLimitExceeded("Too many messages. Please try again later.", retryAfter))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(requests)-count, 10))
		c.Next()
	}
}
