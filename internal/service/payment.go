package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/model"
)

// PaymentService creates gateway orders for pending bookings,
// verifies checkout signatures and processes refunds.  Verification
// is the only path that activates a booking.
type PaymentService struct {
	payments PaymentStore
	bookings *BookingService
	gw       gateway.Gateway
	secret   string
	currency string
}

// NewPaymentService constructs a PaymentService.  secret is the
// gateway key secret used to verify checkout signatures; currency
// is the ISO code orders are created in.
func NewPaymentService(payments PaymentStore, bookings *BookingService, gw gateway.Gateway, secret, currency string) *PaymentService {
	if payments == nil || bookings == nil || gw == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	return &PaymentService{payments: payments, bookings: bookings, gw: gw, secret: secret, currency: currency}
}

// Checkout is returned by CreateOrder and carries what the client
// needs to open the gateway's checkout: the order id and the
// amount in minor units, plus the created payment record.
type Checkout struct {
	OrderID  string         `json:"order_id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Payment  *model.Payment `json:"payment"`
	Booking  *model.Booking `json:"booking"`
}

// VerifyInput is the gateway callback payload forwarded by the
// client after checkout.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	BookingID uint64
}

// VerifyResult pairs the updated payment and booking returned by a
// successful verification.
type VerifyResult struct {
	Payment *model.Payment `json:"payment"`
	Booking *model.Booking `json:"booking"`
}

// CreateOrder creates a gateway order for a pending booking owned
// by the caller and persists a pending payment keyed by the
// gateway order id.  The gateway receives the amount in minor
// units (amount × 100).
func (s *PaymentService) CreateOrder(ctx context.Context, userID, bookingID uint64) (*Checkout, error) {
	b, err := s.bookings.Get(ctx, userID, false, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPending {
		return nil, fmt.Errorf("%w: booking is not in pending status", ErrInvalidState)
	}
	notes := map[string]string{
		"booking_id": fmt.Sprintf("%d", bookingID),
		"user_id":    fmt.Sprintf("%d", userID),
		"lot_id":     fmt.Sprintf("%d", b.LotID),
	}
	order, err := s.gw.CreateOrder(ctx, b.Amount*100, s.currency, fmt.Sprintf("booking_%d", bookingID), notes)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	p := &model.Payment{
		BookingID: bookingID,
		UserID:    userID,
		Amount:    b.Amount,
		Currency:  s.currency,
		OrderID:   order.ID,
		Status:    model.PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return &Checkout{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Payment:  p,
		Booking:  b,
	}, nil
}

// Verify checks the checkout signature against the expected
// HMAC-SHA256 of "orderId|paymentId" under the server held secret,
// marks the payment successful and activates the booking.  A
// payment that is already successful is returned as-is so that a
// repeated callback can never activate the booking or decrement
// the lot twice.
func (s *PaymentService) Verify(ctx context.Context, userID uint64, in VerifyInput) (*VerifyResult, error) {
	if in.OrderID == "" || in.PaymentID == "" {
		return nil, fmt.Errorf("%w: order id and payment id are required", ErrValidation)
	}
	if !gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature, s.secret) {
		// Best effort: record the failed attempt on the pending
		// payment so the user sees why checkout did not complete.
		if p, err := s.payments.GetByOrderID(ctx, in.OrderID); err == nil && p.Status == model.PaymentPending {
			_ = s.payments.MarkFailed(ctx, p.ID, "signature mismatch")
		}
		return nil, ErrSignatureMismatch
	}
	p, err := s.payments.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("%w: not authorized", ErrForbidden)
	}
	if in.BookingID != 0 && in.BookingID != p.BookingID {
		return nil, fmt.Errorf("%w: booking does not match order", ErrValidation)
	}
	if p.Status == model.PaymentSuccess {
		// Duplicate callback after a successful verification.
		b, err := s.bookings.Get(ctx, userID, true, p.BookingID)
		if err != nil {
			return nil, err
		}
		return &VerifyResult{Payment: p, Booking: b}, nil
	}
	if p.Status != model.PaymentPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	now := time.Now().UTC()
	if err := s.payments.MarkSuccess(ctx, p.ID, in.PaymentID, in.Signature, now); err != nil {
		return nil, err
	}
	p.Status = model.PaymentSuccess
	p.GatewayPaymentID = in.PaymentID
	p.Signature = in.Signature
	p.PaidAt = &now
	// The payment write and the activation below are two separate
	// writes; if activation fails the payment stays successful and
	// an operator has to reconcile.  See DESIGN.md.
	b, err := s.bookings.Activate(ctx, p.BookingID, p.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Payment: p, Booking: b}, nil
}

// Refund refunds a successful payment through the gateway and
// marks it refunded.  amount of 0 refunds the full amount.  Admin
// only; the handler enforces the role.
func (s *PaymentService) Refund(ctx context.Context, paymentID uint64, amount int64) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentSuccess {
		return nil, fmt.Errorf("%w: only successful payments can be refunded", ErrInvalidState)
	}
	if amount < 0 || amount > p.Amount {
		return nil, fmt.Errorf("%w: refund amount out of range", ErrValidation)
	}
	if amount == 0 {
		amount = p.Amount
	}
	if _, err := s.gw.Refund(ctx, p.GatewayPaymentID, amount*100); err != nil {
		return nil, fmt.Errorf("gateway refund: %w", err)
	}
	now := time.Now().UTC()
	if err := s.payments.MarkRefunded(ctx, p.ID, amount, now); err != nil {
		// The gateway refund already went through; no compensation
		// is attempted.  See DESIGN.md.
		return nil, err
	}
	p.Status = model.PaymentRefunded
	p.RefundAmount = amount
	p.RefundedAt = &now
	return p, nil
}

// Get returns a payment after an ownership check.  Admins may read
// any payment.
func (s *PaymentService) Get(ctx context.Context, userID uint64, isAdmin bool, id uint64) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: not authorized", ErrForbidden)
	}
	return p, nil
}

// ListByUser returns all payments made by the user, newest first.
func (s *PaymentService) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}

// PaymentStats aggregates payment counts and the successful
// revenue total for the admin overview.
type PaymentStats struct {
	Total       int   `json:"total"`
	TotalAmount int64 `json:"total_amount"`
	Successful  int   `json:"successful"`
	Failed      int   `json:"failed"`
	Refunded    int   `json:"refunded"`
}

// ListAll returns every payment plus aggregate stats.  Admin only.
func (s *PaymentService) ListAll(ctx context.Context) ([]model.Payment, PaymentStats, error) {
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, PaymentStats{}, err
	}
	stats := PaymentStats{Total: len(payments)}
	for _, p := range payments {
		switch p.Status {
		case model.PaymentSuccess:
			stats.Successful++
			stats.TotalAmount += p.Amount
		case model.PaymentFailed:
			stats.Failed++
		case model.PaymentRefunded:
			stats.Refunded++
		}
	}
	return payments, stats, nil
}
