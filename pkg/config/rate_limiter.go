package config

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key the session middleware sets for
// authenticated requests.
const UserIDKey = "x-user-id"

type RateLimitEndpointConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]RateLimitEndpointConfig
	logger  *zap.Logger
	metrics *AppMetrics
	mutex   sync.Mutex
	now     func() time.Time

	// OnLimited renders the rejection. The default writes a plain 429.
	OnLimited func(c *gin.Context, config RateLimitEndpointConfig, retryAfter time.Duration)
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// NewRateLimiter keys anonymous callers by client IP and authenticated ones
// by user id. Expired windows are pruned lazily.
func NewRateLimiter(logger *zap.Logger, metrics *AppMetrics, limits map[string]RateLimitConfig) *RateLimiter {
	configs := make(map[string]RateLimitEndpointConfig, len(limits)+1)

	for route, limit := range limits {
		configs[route] = RateLimitEndpointConfig{
			Requests: limit.Requests,
			Window:   limit.Window,
			KeyFunc:  getUserID,
		}
	}

	if _, ok := configs["default"]; !ok {
		configs["default"] = RateLimitEndpointConfig{
			Requests: 120,
			Window:   time.Minute,
			KeyFunc:  getUserID,
		}
	}

	return &RateLimiter{
		cache:   cache.New(time.Minute, 0),
		config:  configs,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		methodPath := c.Request.Method + " " + path

		config, exists := rl.config[methodPath]
		if !exists {
			methodPath = "default"
			config = rl.config["default"]
		}

		identifier := config.KeyFunc(c)
		key := fmt.Sprintf("rate_limit:%s:%s", methodPath, identifier)

		allowed, remaining, resetTime := rl.checkRateLimit(key, config)

		keyType := "ip"
		if _, ok := c.Get(UserIDKey); ok {
			keyType = "user"
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", config.Requests),
				zap.Duration("window", config.Window))

			retryAfter := resetTime.Sub(rl.now())
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))

			if rl.OnLimited != nil {
				rl.OnLimited(c, config, retryAfter)
			} else {
				c.String(http.StatusTooManyRequests, "Too many requests. Limit: %d per %v", config.Requests, config.Window)
			}

			c.Abort()
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string, config RateLimitEndpointConfig) (bool, int, time.Time) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.cache.DeleteExpired()

	if entry, found := rl.cache.Get(key); found {
		rateLimitEntry := entry.(RateLimitEntry)

		if now.Before(rateLimitEntry.ResetTime) {
			if rateLimitEntry.Count >= config.Requests {
				return false, 0, rateLimitEntry.ResetTime
			}

			rateLimitEntry.Count++
			rl.cache.Set(key, rateLimitEntry, rateLimitEntry.ResetTime.Sub(now))

			return true, config.Requests - rateLimitEntry.Count, rateLimitEntry.ResetTime
		}
	}

	resetTime := now.Add(config.Window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, config.Window)

	return true, config.Requests - 1, resetTime
}

func getUserID(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		return fmt.Sprintf("user_%v", userID)
	}

	return c.ClientIP()
}

func (rl *RateLimiter) SetConfig(route string, config RateLimitEndpointConfig) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if config.KeyFunc == nil {
		config.KeyFunc = getUserID
	}

	rl.config[route] = config
}
