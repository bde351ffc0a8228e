package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/swasthya/internal/config"
	"github.com/iliyamo/swasthya/internal/guidance"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// cachedResponse is what one entry holds.  Only the content type is kept
// from the headers; everything else is per request.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body into a buffer up to limit bytes.
// Once the limit is passed the entry is marked overflowed and not stored.
type bodyRecorder struct {
	http.ResponseWriter
	status     int
	buf        bytes.Buffer
	limit      int
	overflowed bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflowed {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflowed = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// guidanceKey names an entry by route pattern, path parameters and content
// language.  Other query parameters do not change guidance responses, so
// ?lang=hi, ?lang=hindi and ?lang=hi&utm=x all share one entry.
func guidanceKey(prefix string, c echo.Context) string {
	parts := []string{prefix, c.Path()}
	names := append([]string(nil), c.ParamNames()...)
	sort.Strings(names)
	for _, n := range names {
		parts = append(parts, n+"="+strings.ToLower(c.Param(n)))
	}
	parts = append(parts, "lang="+string(guidance.ParseLang(c.QueryParam("lang"))))
	return strings.Join(parts, ":")
}

// NewRedisCache caches successful guidance responses in Redis for cfg.TTL.
// A request carrying "Cache-Control: no-cache" skips the lookup but still
// refreshes the entry.  X-Cache reports HIT, MISS or BYPASS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := guidanceKey(cfg.Prefix, c)

			state := "MISS"
			if strings.Contains(strings.ToLower(c.Request().Header.Get("Cache-Control")), "no-cache") {
				state = "BYPASS"
			} else if entry, ok := loadEntry(c.Request().Context(), rdb, key); ok {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(entry.Status, entry.ContentType, entry.Body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", state)
			if err := next(c); err != nil {
				return err
			}

			if rec.status != http.StatusOK || rec.overflowed {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err == nil {
				// detached from the request so a client hanging up does not drop the write
				_ = rdb.Set(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (cachedResponse, bool) {
	bs, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return cachedResponse{}, false
	}
	var entry cachedResponse
	if err := json.Unmarshal(bs, &entry); err != nil || entry.Status == 0 {
		return cachedResponse{}, false
	}
	return entry, true
}
