package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: b}
}

type bookingCreateReq struct {
	LotID         uint64 `json:"lot_id" validate:"required,min=1"`
	DurationHours int    `json:"duration_hours" validate:"required,min=1,max=12"`
}

type bookingUpdateReq struct {
	DurationHours int `json:"duration_hours" validate:"required,min=1,max=12"`
}

type bookingCancelReq struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// Create books a pending slot reservation; payment happens next via
// the payment endpoints.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bookings.Create(ctx, authUserID(c), req.LotID, req.DurationHours)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns all bookings of the caller, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Bookings.ListByUser(ctx, authUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Active returns the caller's currently active bookings.
func (h *BookingHandler) Active(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Bookings.ListActive(ctx, authUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// History returns the caller's completed and cancelled bookings.
func (h *BookingHandler) History(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Bookings.ListHistory(ctx, authUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get returns one booking; owners see their own, admins see all.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bookings.Get(ctx, authUserID(c), isAdmin(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Update changes the duration of a still pending booking and
// recomputes the amount.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req bookingUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bookings.UpdateDuration(ctx, authUserID(c), id, req.DurationHours)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels a pending or active booking.  The optional JSON
// body may carry a cancellation reason.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req bookingCancelReq
	_ = c.Bind(&req)

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bookings.Cancel(ctx, authUserID(c), isAdmin(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Complete marks an active booking completed and frees its slot.
// Admin only; fired by the gate system or an operator.
func (h *BookingHandler) Complete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bookings.Complete(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// AdminList returns every booking in the system.  Admin only.
func (h *BookingHandler) AdminList(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out, "total": len(out)})
}
