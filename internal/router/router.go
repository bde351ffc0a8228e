package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/swasthya/internal/config"     // rate limit bucket names
	"github.com/iliyamo/swasthya/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/swasthya/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/swasthya/internal/utils"      // role names
)

// passthrough is used where a limiter or cache is not configured.
func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return passthrough
	}
	return m
}

// RegisterRoutes registers the probes that do not require authentication.
// /healthz only says the process is up; /readyz checks MySQL and Redis.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
}

// RegisterMetrics exposes the Prometheus scrape endpoint.
func RegisterMetrics(e *echo.Echo, h http.Handler) {
	if h != nil {
		e.GET("/metrics", echo.WrapHandler(h))
	}
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth and
// share the auth bucket, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl *middleware.RateLimiter) {
	g := e.Group("/v1/auth", rl.For(config.BucketAuth))
	// OTP first, then the account is created with the code
	g.POST("/signup/otp", a.SignupOTP)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Forgot password: OTP to the registered number, then reset
	g.POST("/forgot/otp", a.ForgotOTP)
	g.POST("/forgot/reset", a.ResetPassword)
	// Refresh rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a bearer token or a refresh_token body
	g.POST("/logout", a.Logout)

	// Protected endpoints run JWTAuth then the role check.  They are
	// registered per route so unknown /v1 paths still answer 404.
	protected := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.CitizenRole)}
	e.GET("/v1/profile", a.Profile, protected...)

	// POST /v1/logout is an alias without JWTAuth so a client
	// holding only a refresh token can still sign out.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the citizen-facing endpoints that need no
// account.  Hospital lookups and the symptom checker spend from separate
// buckets and are never cached; the static guidance tables go through the
// response cache.
func RegisterPublic(e *echo.Echo, hosp *handler.HospitalHandler, g *handler.GuidanceHandler, rl *middleware.RateLimiter, cache echo.MiddlewareFunc) {
	cache = orPass(cache)

	e.GET("/v1/hospitals", hosp.Nearby, rl.For(config.BucketHospitals))
	e.POST("/v1/symptoms/analyze", g.AnalyzeSymptoms, rl.For(config.BucketSymptoms))

	e.GET("/v1/first-aid", g.FirstAid, cache)
	e.GET("/v1/maternal-child", g.MaternalChild, cache)
	e.GET("/v1/schemes", g.Schemes, cache)
	e.GET("/v1/schemes/:id", g.Scheme, cache)
	e.POST("/v1/schemes/eligibility", g.Eligibility)
}
