package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swasthya/internal/logging"
)

// RequestLogger logs one line per request with method, path, status,
// latency and remote IP.  5xx responses are logged at error level and 4xx
// at warn.  A caller supplied X-Request-ID is echoed back, otherwise a new
// one is generated.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			err := next(c)
			if err != nil {
				// let the HTTP error handler write the response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			entry := log.WithFields(logging.Fields{
				"request_id": rid,
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"route":      c.Path(),
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
				"user_id":    currentUserID(c),
			})
			switch {
			case status >= 500:
				entry.WithError(err).Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
