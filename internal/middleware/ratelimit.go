package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/swasthya/internal/config"
	"github.com/iliyamo/swasthya/internal/logging"
)

// takeScript refills continuously at refill/interval tokens per ms, then
// takes one token if a whole one is available.  State is a hash holding
// the fractional token count and the last update time.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) / tonumber(ARGV[4])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local updated = tonumber(redis.call('HGET', KEYS[1], 'updated_ms'))
if tokens == nil or updated == nil then
    tokens, updated = capacity, now
end
tokens = math.min(capacity, tokens + math.max(0, now - updated) * rate)

local allowed, wait = 0, 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
else
    wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'updated_ms', now)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {allowed, math.floor(tokens), wait}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter spends tokens from named Redis buckets.  A nil limiter, a
// disabled config or a missing Redis client lets everything through.
type RateLimiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log logging.Logger
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log logging.Logger) *RateLimiter {
	if log == nil {
		log = logging.Discard()
	}
	return &RateLimiter{cfg: cfg, rdb: rdb, log: log}
}

func (l *RateLimiter) active() bool { return l != nil && l.cfg.Enabled && l.rdb != nil }

// Take spends one token of bucket for subject.
func (l *RateLimiter) Take(ctx context.Context, bucket, subject string) (Decision, error) {
	b := l.cfg.Bucket(bucket)
	key := l.key(bucket, subject)
	ttl := int64(l.cfg.TTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	vals, err := takeScript.Run(ctx, l.rdb, []string{key},
		time.Now().UnixMilli(), b.Capacity, b.RefillTokens, b.RefillInterval.Milliseconds(), ttl,
	).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}
	return Decision{
		Allowed:    asInt64(vals[0]) == 1,
		Remaining:  asInt64(vals[1]),
		RetryAfter: time.Duration(asInt64(vals[2])) * time.Millisecond,
	}, nil
}

// For returns a middleware spending from bucket.  Redis errors fail open.
func (l *RateLimiter) For(bucket string) echo.MiddlewareFunc {
	if !l.active() {
		return passthrough
	}
	limit := strconv.Itoa(l.cfg.Bucket(bucket).Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := l.subject(c)
			d, err := l.Take(c.Request().Context(), bucket, subject)
			if err != nil {
				l.log.WithError(err).WithField("bucket", bucket).Warn("ratelimit: redis error, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if l.cfg.Debug {
				h.Set("X-RateLimit-Key", l.key(bucket, subject))
			}
			if d.Allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			l.log.WithFields(logging.Fields{
				"bucket":   bucket,
				"subject":  subject,
				"retry_ms": d.RetryAfter.Milliseconds(),
			}).Info("ratelimit: blocked")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"message":     "Too many requests. Please wait and try again.",
				"retry_after": secs,
			})
		}
	}
}

// subject identifies the caller: the client IP, plus the user id of a
// signed in citizen when PerUser is set.
func (l *RateLimiter) subject(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	s := "ip:" + ip
	if l.cfg.PerUser {
		if uid := currentUserID(c); uid != "anon" {
			s += ":user:" + uid
		}
	}
	return s
}

func (l *RateLimiter) key(bucket, subject string) string {
	return strings.Join([]string{l.cfg.Prefix, bucket, subject}, ":")
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}
