package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/service"
)

// PaymentHandler serves order creation, signature verification and
// refunds.
type PaymentHandler struct {
	Payments *service.PaymentService
}

func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

type createOrderReq struct {
	BookingID uint64 `json:"booking_id" validate:"required,min=1"`
}

type verifyReq struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	BookingID uint64 `json:"booking_id"`
}

type refundReq struct {
	Amount int64 `json:"amount" validate:"min=0"`
}

// CreateOrder opens a gateway order for a pending booking and
// returns what the client checkout needs.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Payments.CreateOrder(ctx, authUserID(c), req.BookingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Verify checks the checkout signature forwarded by the client and
// activates the booking on success.  Repeating the call with the
// same payload is harmless.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Payments.Verify(ctx, authUserID(c), service.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		BookingID: req.BookingID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Refund refunds a successful payment, fully or partially.  Admin
// only.
func (h *PaymentHandler) Refund(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var req refundReq
	_ = c.Bind(&req)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Payments.Refund(ctx, id, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Get returns one payment; owners see their own, admins see all.
func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Payments.Get(ctx, authUserID(c), isAdmin(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// List returns the caller's payments, newest first.
func (h *PaymentHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	out, err := h.Payments.ListByUser(ctx, authUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

// AdminList returns every payment plus aggregate stats.  Admin only.
func (h *PaymentHandler) AdminList(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	payments, stats, err := h.Payments.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments, "stats": stats})
}
