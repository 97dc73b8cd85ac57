package model

import "time"

// Payment status values.  A payment is created pending alongside a
// gateway order.  Verification moves it to success or failed; a
// failed payment is terminal and a fresh order must be created to
// retry.  Successful payments may later be refunded by an admin.
const (
	PaymentPending  = "pending"
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment pairs a gateway order with a booking.  The gateway order
// id is unique per payment; the gateway payment id becomes unique
// once the gateway reports it during verification.  The signature
// is the HMAC the gateway computed over "orderId|paymentId" and is
// stored for audit after it has been validated.
//
// Fields:
//  ID               – primary key identifier.
//  BookingID        – booking this payment belongs to.
//  UserID           – user who initiated the payment.
//  Amount           – amount in whole currency units.
//  Currency         – ISO currency code, e.g. "INR".
//  OrderID          – gateway order id (unique).
//  GatewayPaymentID – gateway payment id (unique once set).
//  Signature        – gateway HMAC signature, stored after verification.
//  Status           – one of the Payment* constants above.
//  PaidAt           – when verification succeeded (nullable).
//  RefundedAt       – when the refund was processed (nullable).
//  RefundAmount     – refunded amount in whole currency units.
//  FailureReason    – why verification failed, if it did.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Payment struct {
	ID               uint64     `json:"id"`
	BookingID        uint64     `json:"booking_id"`
	UserID           uint64     `json:"user_id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	OrderID          string     `json:"order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id,omitempty"`
	Signature        string     `json:"-"`
	Status           string     `json:"status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	RefundedAt       *time.Time `json:"refunded_at,omitempty"`
	RefundAmount     int64      `json:"refund_amount,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
