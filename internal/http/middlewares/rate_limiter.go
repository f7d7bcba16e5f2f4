package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LimitStore counts hits per key in fixed windows. Allow reports whether the
// hit fits under limit and, when it does not, how long until the window resets.
type LimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type RateLimiter struct {
	store  LimitStore
	limit  int
	window time.Duration
	prom   *observability.Prom
}

func NewRateLimiter(store LimitStore, limit int, window time.Duration, prom *observability.Prom) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, prom: prom}
}

// RateLimiterMiddleware enforces the limit for a derived key. Store failures
// let the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		route := c.FullPath()

		allowed, retryAfter, err := rl.store.Allow(c.Request.Context(), route+"|"+key, rl.limit, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter store failed, allowing request", "err", err)
			c.Next()
			return
		}

		if !allowed {
			secs := int(retryAfter.Seconds())
			if secs < 0 {
				secs = 0
			}

			rl.prom.ObserveRateLimited(route)
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// MemoryLimitStore keeps buckets in process; fine for a single instance.
type MemoryLimitStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]
	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(window)}
		return true, 0, nil
	}

	if b.count >= limit {
		return false, b.windowEnd.Sub(now), nil
	}

	b.count++
	return true, 0, nil
}

// RedisLimitStore shares the windows across instances: INCR the key and
// set its expiry on the first hit of a window.
type RedisLimitStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLimitStore(rdb *redis.Client) *RedisLimitStore {
	return &RedisLimitStore{rdb: rdb, prefix: "learnhub:ratelimit:"}
}

func (s *RedisLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := s.prefix + key

	n, err := s.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	if n == 1 {
		if err := s.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return false, 0, err
		}
	}

	if n <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := s.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	// a key left without expiry would block forever
	if ttl < 0 {
		_ = s.rdb.PExpire(ctx, k, window).Err()
		ttl = window
	}
	return false, ttl, nil
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
