// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for booking notifications.  One queue per event
// kind, both durable.
const (
	BookingActivatedQueue = "booking.activated"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingEvent is published when a booking is activated after a
// verified payment or when it is cancelled.  It carries enough
// information for downstream consumers to log and send the
// confirmation or cancellation notice without querying the primary
// database.
type BookingEvent struct {
	BookingID     uint64 `json:"booking_id"`
	UserID        uint64 `json:"user_id"`
	UserEmail     string `json:"user_email,omitempty"`
	LotID         uint64 `json:"lot_id"`
	LotName       string `json:"lot_name"`
	LotAddress    string `json:"lot_address,omitempty"`
	DurationHours int    `json:"duration_hours"`
	Amount        int64  `json:"amount"`
	QRCode        string `json:"qr_code"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
