package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/swasthya/internal/config"
	"github.com/iliyamo/swasthya/internal/handler"
	"github.com/iliyamo/swasthya/internal/locator"
	"github.com/iliyamo/swasthya/internal/middleware"
	"github.com/iliyamo/swasthya/internal/service"
	"github.com/iliyamo/swasthya/internal/session"
)

type emptyProvider struct{}

func (emptyProvider) Nearby(context.Context, locator.Position, int) ([]locator.Element, error) {
	return nil, nil
}

func newServer() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: "s"}, nil, nil,
		session.NewMemoryStore(), service.NewDemoOTP("123456", nil), nil), "s", nil)
	RegisterPublic(e, handler.NewHospitalHandler(locator.New(emptyProvider{}), nil, nil),
		handler.NewGuidanceHandler(), nil, nil)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	var got []string
	for _, r := range e.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	sort.Strings(got)

	for _, want := range []string{
		"GET /healthz",
		"GET /v1/hospitals",
		"POST /v1/symptoms/analyze",
		"GET /v1/first-aid",
		"GET /v1/maternal-child",
		"GET /v1/schemes",
		"GET /v1/schemes/:id",
		"POST /v1/schemes/eligibility",
		"POST /v1/auth/signup/otp",
		"POST /v1/auth/signup",
		"POST /v1/auth/login",
		"POST /v1/auth/forgot/otp",
		"POST /v1/auth/forgot/reset",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"POST /v1/logout",
		"GET /v1/profile",
	} {
		assert.Contains(t, got, want)
	}
}

func TestEmptyLookupFallsBackOffline(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/hospitals?lat=12.97&lon=77.59", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"OFFLINE_EMPTY"`)
	assert.Contains(t, rec.Body.String(), "No health facilities found nearby.")
}

func TestProfileRequiresToken(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/logout", strings.NewReader(""))
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterMetrics(t *testing.T) {
	e := echo.New()
	RegisterMetrics(e, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics\n", rec.Body.String())

	bare := echo.New()
	RegisterMetrics(bare, nil)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicBucketsAreSeparate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	one := config.Bucket{Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour}
	rl := middleware.NewRateLimiter(config.RateLimitConfig{
		Enabled: true,
		Prefix:  "rl",
		TTL:     time.Hour,
		Buckets: map[string]config.Bucket{config.BucketHospitals: one, config.BucketSymptoms: one},
	}, rdb, nil)

	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterPublic(e, handler.NewHospitalHandler(locator.New(emptyProvider{}), nil, nil),
		handler.NewGuidanceHandler(), rl, nil)

	serve := func(method, target, body string) int {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/v1/hospitals?denied=1", ""))
	assert.Equal(t, http.StatusTooManyRequests, serve(http.MethodGet, "/v1/hospitals?denied=1", ""))
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "/v1/symptoms/analyze", `{"text":"fever"}`))
	assert.Equal(t, http.StatusTooManyRequests, serve(http.MethodPost, "/v1/symptoms/analyze", `{"text":"fever"}`))
	// guidance tables are not limited
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/v1/schemes", ""))
}
