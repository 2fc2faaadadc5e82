package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pos-backoffice/internal/config"
)

// cachedReply is what the response cache stores for one key.
type cachedReply struct {
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// bodyRecorder tees a JSON response body while it is written to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   []byte
	limit  int
	over   bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.over {
		if r.limit > 0 && len(r.body)+len(b) > r.limit {
			r.over = true
			r.body = nil
		} else {
			r.body = append(r.body, b...)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey scopes an entry to the tenant server and the signed-in user, so
// two tenants never share a company list.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	var scope string
	switch cfg.KeyStrategy {
	case "route_query":
		scope = TenantTarget(c).String() + "|" + c.Path() + "?" + c.Request().URL.RawQuery
	default:
		scope = TenantTarget(c).String() + "|" + userID(c) + "|" + c.Path() + "?" + c.Request().URL.RawQuery
	}
	sum := sha1.Sum([]byte(scope))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache replays successful JSON responses from Redis for cfg.TTL.
// It must run after Tenant so the key carries the tenant server.  Redis
// errors fall through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			key := cacheKey(cfg, c)
			res := c.Response()

			if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var hit cachedReply
				if json.Unmarshal(bs, &hit) == nil {
					res.Header().Set("X-Cache", "HIT")
					return c.Blob(http.StatusOK, hit.ContentType, hit.Body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: res.Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			res.Writer = rec
			res.Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.over || !json.Valid(rec.body) {
				return nil
			}
			bs, err := json.Marshal(cachedReply{ContentType: res.Header().Get(echo.HeaderContentType), Body: rec.body})
			if err == nil {
				_ = rdb.Set(context.Background(), key, bs, ttl).Err()
			}
			return nil
		}
	}
}
