package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/config"
)

// bucketScript refills and takes one token from the bucket at KEYS[1].
// ARGV: now_ms, capacity, refill_tokens, refill_ms, ttl_s.
// Returns {allowed, tokens_left, retry_ms}.
var bucketScript = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local st = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(st[1]), tonumber(st[2])
if tokens == nil or at == nil then
  tokens, at = cap, now
end
local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * refill)
  at = at + steps * every
end
local allowed, retry = 0, 0
if tokens > 0 then
  allowed, tokens = 1, tokens - 1
else
  retry = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

type bucketResult struct {
	allowed bool
	left    int64
	retry   time.Duration
}

func parseBucket(v interface{}) (bucketResult, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	nums := make([]int64, 3)
	for i, x := range arr {
		n, ok := x.(int64)
		if !ok {
			return bucketResult{}, false
		}
		nums[i] = n
	}
	return bucketResult{allowed: nums[0] == 1, left: nums[1], retry: time.Duration(nums[2]) * time.Millisecond}, true
}

// NewTokenBucket guards the credential endpoints (login, register and the
// password reset pair) against brute forcing.  Each client gets a bucket per
// route; a Redis failure lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	entry := log.WithField("component", "ratelimit")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			raw, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				entry.WithError(err).WithField("key", key).Warn("rate limit check failed; allowing")
				return next(c)
			}
			res, ok := parseBucket(raw)
			if !ok {
				entry.WithField("key", key).Warnf("unexpected bucket reply %#v", raw)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.left, 10))
			if res.allowed {
				return next(c)
			}

			secs := int(math.Ceil(res.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			entry.WithFields(logrus.Fields{"key": key, "ip": c.RealIP(), "path": c.Path()}).Warn("rate limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":     "Too many attempts, please try again later",
				"retry_after": secs,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// rateKey builds the bucket key.  "ip" shares one bucket across all guarded
// routes; the default "ip_route" gives each route its own.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	if strings.EqualFold(cfg.KeyStrategy, "ip") {
		return cfg.Prefix + ":ip:" + ip
	}
	return cfg.Prefix + ":ip:" + ip + ":route:" + c.Request().Method + " " + c.Path()
}
