package middleware

// identity.go holds the caller lookups shared by the rate limiter and the
// handlers.  When no token was verified the caller is anonymous.

import "github.com/labstack/echo/v4"

// currentUserID returns the user_id set by JWTAuth or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// UID returns the numeric user ID set by JWTAuth.
func UID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(CtxUID).(uint64)
	return v, ok && v != 0
}
