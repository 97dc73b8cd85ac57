package model

import "time"

// Booking status values.  A booking starts as pending, becomes
// active once its payment is verified, and ends in completed or
// cancelled.  There is no transition out of completed or cancelled.
const (
	BookingPending   = "pending"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking records a user's reservation of one slot in a parking
// lot for a bounded number of hours.  The amount is computed once
// at creation as price per hour times duration and is only
// recomputed when the duration is edited while the booking is
// still pending.  EndTime always equals StartTime plus the
// duration in hours.
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – user who owns the booking.
//  LotID              – parking lot being booked.
//  DurationHours      – booked duration, 1..12 inclusive.
//  Amount             – total price in whole currency units.
//  StartTime          – when the booking window opens.
//  EndTime            – StartTime + DurationHours hours.
//  QRCode             – unique token shown at the lot entrance.
//  Status             – one of the Booking* constants above.
//  PaymentID          – payment that activated the booking (nullable).
//  CancelledAt        – when the booking was cancelled (nullable).
//  CancellationReason – free text reason supplied on cancel.
//  CompletedAt        – when the booking was completed (nullable).
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Booking struct {
	ID                 uint64     `json:"id"`
	UserID             uint64     `json:"user_id"`
	LotID              uint64     `json:"lot_id"`
	DurationHours      int        `json:"duration_hours"`
	Amount             int64      `json:"amount"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	QRCode             string     `json:"qr_code"`
	Status             string     `json:"status"`
	PaymentID          *uint64    `json:"payment_id,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasExpired reports whether the booking window has passed.
func (b *Booking) HasExpired() bool {
	return time.Now().UTC().After(b.EndTime)
}
