package service

import (
	"context"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/queue"
)

// The store interfaces below decouple the lifecycle logic from the
// backing storage.  Two implementations exist: the MySQL
// repositories in internal/repository and the in-memory maps in
// internal/store/memory used for demo mode and tests.  Store
// methods that guard a state transition perform the check and the
// write as a single conditional update and return ErrConflict or
// ErrInvalidState when the guard fails.

// LotStore persists parking lots and their slot counters.
// ReserveSlot decrements available_slots only while it is above
// zero; ReleaseSlot increments it clamped to total_slots.  Both
// are atomic with respect to concurrent callers.
type LotStore interface {
	Create(ctx context.Context, lot *model.ParkingLot) error
	GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error)
	List(ctx context.Context, search string, page, limit int) ([]model.ParkingLot, int, error)
	Nearby(ctx context.Context, lat, lon, radiusKM float64, limit int) ([]model.ParkingLot, error)
	Update(ctx context.Context, lot *model.ParkingLot) error
	Deactivate(ctx context.Context, id uint64) error
	ReserveSlot(ctx context.Context, id uint64) error
	ReleaseSlot(ctx context.Context, id uint64) error
}

// BookingStore persists bookings.  Activate, Cancel and Complete
// enforce the status machine: pending→active, pending/active→
// cancelled and active→completed respectively.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64, statuses []string) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	CountByLot(ctx context.Context, lotID uint64) (map[string]int, error)
	UpdateDuration(ctx context.Context, id uint64, duration int, amount int64, endTime time.Time) error
	Activate(ctx context.Context, id, paymentID uint64) error
	Cancel(ctx context.Context, id uint64, reason string, at time.Time) error
	Complete(ctx context.Context, id uint64, at time.Time) error
}

// PaymentStore persists payments keyed by their unique gateway
// order id.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
	MarkSuccess(ctx context.Context, id uint64, gatewayPaymentID, signature string, at time.Time) error
	MarkFailed(ctx context.Context, id uint64, reason string) error
	MarkRefunded(ctx context.Context, id uint64, amount int64, at time.Time) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, name, email, phone, passwordHash, role string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Notifier delivers fire-and-forget booking notifications.  Errors
// are handled inside the implementation; lifecycle operations never
// fail because a notification could not be sent.
type Notifier interface {
	BookingActivated(ctx context.Context, ev queue.BookingEvent)
	BookingCancelled(ctx context.Context, ev queue.BookingEvent)
}
