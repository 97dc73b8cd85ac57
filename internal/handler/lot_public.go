package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/service"
)

// LotHandler serves the public parking lot browse endpoints and the
// admin management endpoints.
type LotHandler struct {
	Lots     service.LotStore
	Bookings *service.BookingService
}

func NewLotHandler(lots service.LotStore, bookings *service.BookingService) *LotHandler {
	return &LotHandler{Lots: lots, Bookings: bookings}
}

// List returns active lots with optional text search and pagination.
// Query params: search, page (1-based), limit (max 100).
func (h *LotHandler) List(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lots, total, err := h.Lots.List(ctx, search, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"lots":  lots,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Nearby returns active lots within a radius of a coordinate.
// Query params: lat, lon (required), radius_km (default 5, max 50).
func (h *LotHandler) Nearby(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid lat and lon are required"})
	}
	radius, err := strconv.ParseFloat(c.QueryParam("radius_km"), 64)
	if err != nil || radius <= 0 {
		radius = 5
	}
	if radius > 50 {
		radius = 50
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lots, err := h.Lots.Nearby(ctx, lat, lon, radius, 50)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"lots":      lots,
		"radius_km": radius,
	})
}

// Get returns a single lot by id, active or not.
func (h *LotHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lot, err := h.Lots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}
