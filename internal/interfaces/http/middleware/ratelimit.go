package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/referrals/internal/shared/logger"
	"github.com/orris-inc/referrals/internal/shared/utils"
)

// RateLimiter is a Redis fixed-window counter per client IP, shared by all
// instances. A Redis outage lets requests through.
type RateLimiter struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
	now         func() time.Time
	logger      logger.Interface
}

// NewRateLimiter allows limit requests per window. A limit <= 0 disables limiting.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		limit:       limit,
		window:      window,
		now:         time.Now,
		logger:      logger,
	}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		windowBucket := rl.now().Unix() / int64(rl.window.Seconds())
		key := fmt.Sprintf("referrals:ratelimit:ip:%s:%d", c.ClientIP(), windowBucket)
		ctx := c.Request.Context()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if count == 1 {
			rl.redisClient.Expire(ctx, key, rl.window+time.Second)
		}

		if count > int64(rl.limit) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
