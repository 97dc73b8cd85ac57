package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var startedAt = time.Now().UTC()

// Health reports process liveness with the current uptime.  It is
// registered outside every middleware so monitors never hit the rate
// limiter or the cache.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"uptime":    time.Since(startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
