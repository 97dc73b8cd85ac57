package middleware

// identity.go holds helpers shared across middleware files.  currentUserID
// feeds the rate limiter key builder; anonymous requests share the "anon"
// bucket while authenticated ones are keyed per user.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user id as a string, or "anon"
// when JWTAuth has not run for this request.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
