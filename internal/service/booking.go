package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/queue"
	"github.com/parkease/parkease/internal/utils"
)

// Duration bounds for a booking in hours.
const (
	MinDurationHours = 1
	MaxDurationHours = 12
)

// BookingService drives the booking lifecycle: creation while a
// lot has capacity, activation after payment verification,
// cancellation and completion.  Inventory is only touched at
// activation time (conditional decrement) and released on
// cancellation of an active booking or on completion, both clamped
// to the lot's bounds by the store.
type BookingService struct {
	lots     LotStore
	bookings BookingStore
	users    UserStore
	notifier Notifier // optional; nil disables notifications
}

// NewBookingService constructs a BookingService.  The notifier may
// be nil when notifications are disabled.
func NewBookingService(lots LotStore, bookings BookingStore, users UserStore, notifier Notifier) *BookingService {
	if lots == nil || bookings == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{lots: lots, bookings: bookings, users: users, notifier: notifier}
}

// Create validates the request and persists a new pending booking.
// The amount is price per hour times duration and the end time is
// start plus duration hours.  No slot is reserved yet; the
// availability check here is advisory and the real decrement
// happens at activation with a conditional update.
func (s *BookingService) Create(ctx context.Context, userID, lotID uint64, duration int) (*model.Booking, error) {
	if duration < MinDurationHours || duration > MaxDurationHours {
		return nil, fmt.Errorf("%w: duration must be between %d and %d hours", ErrValidation, MinDurationHours, MaxDurationHours)
	}
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !lot.IsActive {
		return nil, fmt.Errorf("%w: parking lot is not active", ErrInvalidState)
	}
	if !lot.HasAvailableSlots() {
		return nil, fmt.Errorf("%w: no available slots", ErrInvalidState)
	}
	now := time.Now().UTC()
	b := &model.Booking{
		UserID:        userID,
		LotID:         lotID,
		DurationHours: duration,
		Amount:        lot.PricePerHour * int64(duration),
		StartTime:     now,
		EndTime:       now.Add(time.Duration(duration) * time.Hour),
		QRCode:        utils.NewQRToken(),
		Status:        model.BookingPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a booking after an ownership check.  Admins may read
// any booking.
func (s *BookingService) Get(ctx context.Context, userID uint64, isAdmin bool, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: not authorized to access this booking", ErrForbidden)
	}
	return b, nil
}

// UpdateDuration edits the duration of a pending booking and
// recomputes the amount and end time exactly as at creation.
func (s *BookingService) UpdateDuration(ctx context.Context, userID, id uint64, duration int) (*model.Booking, error) {
	if duration < MinDurationHours || duration > MaxDurationHours {
		return nil, fmt.Errorf("%w: duration must be between %d and %d hours", ErrValidation, MinDurationHours, MaxDurationHours)
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fmt.Errorf("%w: not authorized to update this booking", ErrForbidden)
	}
	if b.Status != model.BookingPending {
		return nil, fmt.Errorf("%w: cannot update booking after payment", ErrInvalidState)
	}
	lot, err := s.lots.GetByID(ctx, b.LotID)
	if err != nil {
		return nil, err
	}
	amount := lot.PricePerHour * int64(duration)
	endTime := b.StartTime.Add(time.Duration(duration) * time.Hour)
	if err := s.bookings.UpdateDuration(ctx, id, duration, amount, endTime); err != nil {
		return nil, err
	}
	b.DurationHours = duration
	b.Amount = amount
	b.EndTime = endTime
	return b, nil
}

// Cancel transitions a pending or active booking to cancelled.  A
// slot is released only when the booking was active, since pending
// bookings never held one.  The owning user or an admin may cancel.
func (s *BookingService) Cancel(ctx context.Context, userID uint64, isAdmin bool, id uint64, reason string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: not authorized to cancel this booking", ErrForbidden)
	}
	switch b.Status {
	case model.BookingCancelled:
		return nil, fmt.Errorf("%w: booking is already cancelled", ErrConflict)
	case model.BookingCompleted:
		return nil, fmt.Errorf("%w: cannot cancel completed booking", ErrConflict)
	}
	if reason == "" {
		reason = "User cancelled"
	}
	now := time.Now().UTC()
	wasActive := b.Status == model.BookingActive
	if err := s.bookings.Cancel(ctx, id, reason, now); err != nil {
		return nil, err
	}
	if wasActive {
		if err := s.lots.ReleaseSlot(ctx, b.LotID); err != nil {
			return nil, fmt.Errorf("release slot: %w", err)
		}
	}
	b.Status = model.BookingCancelled
	b.CancelledAt = &now
	b.CancellationReason = reason
	s.publish(ctx, b, reason, false)
	return b, nil
}

// Activate transitions a pending booking to active after its
// payment has been verified.  The slot is reserved first with a
// conditional decrement so the lot can never be oversold; when the
// booking turns out not to be pending anymore the slot is handed
// back.
func (s *BookingService) Activate(ctx context.Context, id, paymentID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPending {
		return nil, fmt.Errorf("%w: booking is not in pending status", ErrInvalidState)
	}
	if err := s.lots.ReserveSlot(ctx, b.LotID); err != nil {
		return nil, err
	}
	if err := s.bookings.Activate(ctx, id, paymentID); err != nil {
		// Lost the race on the status transition; hand the slot back.
		_ = s.lots.ReleaseSlot(ctx, b.LotID)
		return nil, err
	}
	b.Status = model.BookingActive
	b.PaymentID = &paymentID
	s.publish(ctx, b, "", true)
	return b, nil
}

// Complete transitions an active booking to completed once its
// duration has elapsed.  Completion is an external trigger (admin
// or gate system); nothing in the server fires it automatically.
// The slot is released back to the lot.
func (s *BookingService) Complete(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.bookings.Complete(ctx, id, now); err != nil {
		return nil, err
	}
	if err := s.lots.ReleaseSlot(ctx, b.LotID); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	b.Status = model.BookingCompleted
	b.CompletedAt = &now
	return b, nil
}

// ListByUser returns all bookings owned by the user, newest first.
func (s *BookingService) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, nil)
}

// ListActive returns the user's active bookings.
func (s *BookingService) ListActive(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, []string{model.BookingActive})
}

// ListHistory returns the user's completed and cancelled bookings.
func (s *BookingService) ListHistory(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, []string{model.BookingCompleted, model.BookingCancelled})
}

// ListAll returns every booking in the system.  Admin only; the
// handler enforces the role.
func (s *BookingService) ListAll(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// LotStats returns booking counts per status for one lot.
func (s *BookingService) LotStats(ctx context.Context, lotID uint64) (map[string]int, error) {
	if _, err := s.lots.GetByID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.bookings.CountByLot(ctx, lotID)
}

// publish emits a booking event to the notifier.  Failures are the
// notifier's problem; the lifecycle operation has already
// succeeded at this point.
func (s *BookingService) publish(ctx context.Context, b *model.Booking, reason string, activated bool) {
	if s.notifier == nil {
		return
	}
	ev := queue.BookingEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		LotID:         b.LotID,
		DurationHours: b.DurationHours,
		Amount:        b.Amount,
		QRCode:        b.QRCode,
		StartsAt:      b.StartTime.Format(time.RFC3339),
		EndsAt:        b.EndTime.Format(time.RFC3339),
		Status:        b.Status,
		Reason:        reason,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if lot, err := s.lots.GetByID(ctx, b.LotID); err == nil {
		ev.LotName = lot.Name
		ev.LotAddress = lot.Address
	}
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, b.UserID); err == nil {
			ev.UserEmail = u.Email
		}
	}
	if activated {
		s.notifier.BookingActivated(ctx, ev)
	} else {
		s.notifier.BookingCancelled(ctx, ev)
	}
}
