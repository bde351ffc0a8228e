package handler // declare the package name; contains HTTP handlers

import (
	"context"  // bounded dependency checks
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/redis/go-redis/v9"
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReadyHandler reports whether the dependencies answer.  Redis is optional;
// a nil client is reported as disabled rather than down.
type ReadyHandler struct {
	DB    Pinger
	Redis *redis.Client
}

// Ready returns 200 when MySQL (and Redis, if configured) respond, 503
// otherwise.  The body names the state of each dependency.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := echo.Map{}

	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		checks["mysql"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["mysql"] = "up"
	}

	switch {
	case h.Redis == nil:
		checks["redis"] = "disabled"
	case h.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	default:
		checks["redis"] = "up"
	}
	return c.JSON(status, checks)
}
