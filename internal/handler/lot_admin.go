package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/model"
)

type lotCreateReq struct {
	Name         string  `json:"name" validate:"required,min=2,max=150"`
	Address      string  `json:"address" validate:"required,min=5,max=255"`
	Lat          float64 `json:"lat" validate:"min=-90,max=90"`
	Lon          float64 `json:"lon" validate:"min=-180,max=180"`
	TotalSlots   int     `json:"total_slots" validate:"required,min=1,max=10000"`
	PricePerHour int64   `json:"price_per_hour" validate:"min=0"`
	Amenities    string  `json:"amenities" validate:"omitempty,max=255"`
}

type lotUpdateReq struct {
	Name         *string  `json:"name" validate:"omitempty,min=2,max=150"`
	Address      *string  `json:"address" validate:"omitempty,min=5,max=255"`
	Lat          *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon          *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	TotalSlots   *int     `json:"total_slots" validate:"omitempty,min=1,max=10000"`
	PricePerHour *int64   `json:"price_per_hour" validate:"omitempty,min=0"`
	Amenities    *string  `json:"amenities" validate:"omitempty,max=255"`
}

// Create registers a new parking lot.  All slots start available.
func (h *LotHandler) Create(c echo.Context) error {
	var req lotCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	lot := &model.ParkingLot{
		Name:           req.Name,
		Address:        req.Address,
		Lat:            req.Lat,
		Lon:            req.Lon,
		TotalSlots:     req.TotalSlots,
		AvailableSlots: req.TotalSlots,
		PricePerHour:   req.PricePerHour,
		Amenities:      req.Amenities,
		IsActive:       true,
		CreatedBy:      authUserID(c),
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Lots.Create(ctx, lot); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, lot)
}

// Update patches an existing lot.  Shrinking total_slots clamps
// available_slots down with it.
func (h *LotHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	var req lotUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lot, err := h.Lots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if req.Name != nil {
		lot.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		lot.Address = strings.TrimSpace(*req.Address)
	}
	if req.Lat != nil {
		lot.Lat = *req.Lat
	}
	if req.Lon != nil {
		lot.Lon = *req.Lon
	}
	if req.TotalSlots != nil {
		lot.TotalSlots = *req.TotalSlots
		if lot.AvailableSlots > lot.TotalSlots {
			lot.AvailableSlots = lot.TotalSlots
		}
	}
	if req.PricePerHour != nil {
		lot.PricePerHour = *req.PricePerHour
	}
	if req.Amenities != nil {
		lot.Amenities = *req.Amenities
	}

	if err := h.Lots.Update(ctx, lot); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// Deactivate soft deletes a lot so it stops appearing in browse and
// nearby results.  Existing bookings are untouched.
func (h *LotHandler) Deactivate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Lots.Deactivate(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns booking counts per status plus the live slot
// counters for one lot.
func (h *LotHandler) Stats(c echo.Context) error {
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
	counts, err := h.Bookings.LotStats(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"lot_id":          lot.ID,
		"total_slots":     lot.TotalSlots,
		"available_slots": lot.AvailableSlots,
		"occupied_slots":  lot.TotalSlots - lot.AvailableSlots,
		"bookings":        counts,
	})
}
